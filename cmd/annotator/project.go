package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"annotator/internal/annotate/projector"
	"annotator/internal/annotate/registry"
)

type projectOptions struct {
	configPath   string
	registryPath string
	variant      string
	activity     string
	initValue    string
}

// newProjectCmd merges a saved element registry into a wizard configuration
// offline, printing the result.
func newProjectCmd() *cobra.Command {
	var o projectOptions
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Merge an element registry into a wizard configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runProject(cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "wizard configuration JSON (empty starts from {})")
	f.StringVar(&o.registryPath, "registry", "", "element registry JSON")
	f.StringVar(&o.variant, "variant", "", "variant key")
	f.StringVar(&o.activity, "activity", "", "activity key")
	f.StringVar(&o.initValue, "init-value", "", "reference screenshot name")
	_ = cmd.MarkFlagRequired("registry")
	_ = cmd.MarkFlagRequired("variant")
	_ = cmd.MarkFlagRequired("activity")
	return cmd
}

func runProject(out io.Writer, o projectOptions) error {
	cfg := projector.Config{}
	if o.configPath != "" {
		if err := readJSON(o.configPath, &cfg); err != nil {
			return err
		}
	}
	reg := registry.New()
	if err := readJSON(o.registryPath, &reg); err != nil {
		return err
	}
	merged, ok := projector.Project(cfg, o.variant, o.activity, reg, o.initValue)
	if !ok {
		fmt.Fprintln(os.Stderr, "registry is empty; configuration unchanged")
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(merged)
}

func readJSON(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
