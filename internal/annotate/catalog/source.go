package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Source serves the read-only catalogs. Demo and live implementations share
// this seam so a single session implementation serves both modes.
type Source interface {
	Categories(ctx context.Context) ([]Category, error)
	GUIComponents(ctx context.Context, category string) ([]GUIComponent, error)
	Functions(ctx context.Context, category string) ([]Function, error)
	Params(ctx context.Context) ([]Param, error)
}

// Filter names the categories a screen loads components and functions for.
// Empty means all.
type Filter struct {
	ComponentCategory string
	FunctionCategory  string
}

// Load fetches the four catalogs concurrently. Any failure aborts the whole
// load so the caller keeps its previous snapshot.
func Load(ctx context.Context, src Source, f Filter) (Snapshot, error) {
	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := src.Categories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		snap.Categories = out
		return nil
	})
	g.Go(func() error {
		out, err := src.GUIComponents(gctx, f.ComponentCategory)
		if err != nil {
			return fmt.Errorf("load gui components: %w", err)
		}
		snap.Components = out
		return nil
	})
	g.Go(func() error {
		out, err := src.Functions(gctx, f.FunctionCategory)
		if err != nil {
			return fmt.Errorf("load variability functions: %w", err)
		}
		snap.Functions = out
		return nil
	})
	g.Go(func() error {
		out, err := src.Params(gctx)
		if err != nil {
			return fmt.Errorf("load params: %w", err)
		}
		snap.Params = out
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
