package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunProjectMergesScreenshotColumn(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.json")
	regPath := filepath.Join(dir, "registry.json")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"A":{"checkout":{"Text":{"name":"Text"}}}}`), 0o644))
	require.NoError(t, os.WriteFile(regPath, []byte(`{"btn1":[{"id":1,"x1":100,"y1":100,"x2":200,"y2":300,"color":"#ff0000","behavior":{"dependency":{"variant":"B","activity":"login"}}}]}`), 0o644))

	var out bytes.Buffer
	require.NoError(t, runProject(&out, projectOptions{
		configPath: cfgPath, registryPath: regPath,
		variant: "A", activity: "checkout", initValue: "home.png",
	}))

	var got map[string]map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	col := got["A"]["checkout"]["Screenshot"]
	assert.Equal(t, "home.png", col["initValue"])
	assert.EqualValues(t, 1, col["variate"])
	assert.Contains(t, col["args"], "btn1")
	assert.Contains(t, got["A"]["checkout"], "Text")
}

func TestRunProjectMissingRegistry(t *testing.T) {
	err := runProject(&bytes.Buffer{}, projectOptions{registryPath: filepath.Join(t.TempDir(), "nope.json")})
	assert.Error(t, err)
}
