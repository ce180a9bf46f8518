/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bennypowers.dev/tokenrag/config"
	"bennypowers.dev/tokenrag/internal/mapfs"
	"bennypowers.dev/tokenrag/testutil"
)

// newFlags defines the persistent flags of the CLI.
func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("tokenrag", pflag.ContinueOnError)
	flags.String("config", "", "")
	flags.String("backend", "flat", "")
	flags.String("css", "tokens.css", "")
	flags.Bool("cdn-fallback", false, "")
	flags.String("index-file", "tokens.index", "")
	flags.String("records-file", "tokens.json", "")
	flags.String("engine-host", "localhost", "")
	flags.Int("engine-port", 9200, "")
	flags.String("collection", "tokens", "")
	flags.Int("top-k", 5, "")
	flags.String("embedder", "ollama", "")
	return flags
}

func resolve(t *testing.T, fixture string, args ...string) (*config.Config, error) {
	t.Helper()
	flags := newFlags()
	require.NoError(t, flags.Parse(args))

	v := viper.New()
	require.NoError(t, config.Bind(v, flags))

	var mfs *mapfs.MapFileSystem
	if fixture == "" {
		mfs = mapfs.New()
	} else {
		mfs = testutil.NewFixtureFS(t, fixture, "/project")
	}
	return config.Resolve(v, mfs, "/project")
}

func TestResolve_Defaults(t *testing.T) {
	cfg, err := resolve(t, "fixtures/config/none")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestResolve_FlagDefaultsDoNotOverrideFile(t *testing.T) {
	cfg, err := resolve(t, "fixtures/config/yaml")
	require.NoError(t, err)
	assert.Equal(t, config.BackendOpenSearch, cfg.Backend)
	assert.Equal(t, 9201, cfg.EnginePort)
	assert.Equal(t, 8, cfg.TopK)
}

func TestResolve_CDNFallback(t *testing.T) {
	cfg, err := resolve(t, "fixtures/config/none", "--css", "npm:@acme/tokens/global.css")
	require.NoError(t, err)
	assert.False(t, cfg.CDNFallback)

	t.Setenv("TOKENRAG_CDN_FALLBACK", "true")
	cfg, err = resolve(t, "fixtures/config/none", "--css", "npm:@acme/tokens/global.css")
	require.NoError(t, err)
	assert.True(t, cfg.CDNFallback)
	assert.Equal(t, "npm:@acme/tokens/global.css", cfg.CSSFilePath)

	cfg, err = resolve(t, "fixtures/config/none", "--cdn-fallback=false")
	require.NoError(t, err)
	assert.False(t, cfg.CDNFallback, "flags win over the environment")
}

func TestResolve_Precedence(t *testing.T) {
	t.Setenv("TOKENRAG_TOP_K", "12")
	t.Setenv("TOKENRAG_ENGINE_PORT", "9300")
	t.Setenv("TOKENRAG_EMBEDDING_MODEL", "mxbai-embed-large")

	cfg, err := resolve(t, "fixtures/config/yaml", "--engine-port", "9400", "--css", "src/**/*.css")
	require.NoError(t, err)

	// file only
	assert.Equal(t, "search.internal", cfg.EngineHost)
	// env over file
	assert.Equal(t, 12, cfg.TopK)
	assert.Equal(t, "mxbai-embed-large", cfg.Embedding.Model)
	// flag over env and file
	assert.Equal(t, 9400, cfg.EnginePort)
	assert.Equal(t, "src/**/*.css", cfg.CSSFilePath)
	// file keeps nested keys the env did not touch
	assert.Equal(t, "lexical", cfg.Embedding.Provider)
	assert.Equal(t, 128, cfg.Embedding.Dimension)
}

func TestResolve_ExplicitConfigFile(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/conf/rag.json", `{"backend": "flat", "topK": 3, /* small */ }`, 0644)

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--config", "conf/rag.json"}))
	v := viper.New()
	require.NoError(t, config.Bind(v, flags))

	cfg, err := config.Resolve(v, mfs, "/project")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.TopK)
}

func TestResolve_MissingExplicitConfigFile(t *testing.T) {
	_, err := resolve(t, "", "--config", "/nowhere/rag.yaml")
	assert.Error(t, err)
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "unknown backend flag", args: []string{"--backend", "sqlite"}},
		{name: "zero top-k", args: []string{"--top-k", "0"}},
		{name: "bad timeout env", env: map[string]string{"TOKENRAG_ENGINE_TIMEOUT": "later"}},
		{name: "unknown provider env", env: map[string]string{"TOKENRAG_EMBEDDING_PROVIDER": "bert"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := resolve(t, "fixtures/config/none", tt.args...)
			assert.ErrorIs(t, err, config.ErrInvalid)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "TOKENRAG_EMBEDDING_BASE_URL"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s is set in the environment", key)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	dir := t.TempDir()
	require.NoError(t, config.LoadDotEnv(dir), "missing .env is not an error")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(key+"=http://gpu-box:11434\n"), 0o644))
	require.NoError(t, config.LoadDotEnv(dir))

	cfg, err := resolve(t, "fixtures/config/none")
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Embedding.BaseURL)
}
