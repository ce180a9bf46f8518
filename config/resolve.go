/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config

import (
	"errors"
	iofs "io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"bennypowers.dev/tokenrag/fs"
)

// KeyConfig is the viper key holding an explicit config file path.
const KeyConfig = "config"

// Binding ties a config key to its environment variable and command-line flag.
type Binding struct {
	Key  string
	Env  string
	Flag string

	apply func(c *Config, v *viper.Viper, key string)
}

func setString(field func(*Config) *string) func(*Config, *viper.Viper, string) {
	return func(c *Config, v *viper.Viper, key string) { *field(c) = v.GetString(key) }
}

func setBool(field func(*Config) *bool) func(*Config, *viper.Viper, string) {
	return func(c *Config, v *viper.Viper, key string) { *field(c) = v.GetBool(key) }
}

func setInt(field func(*Config) *int) func(*Config, *viper.Viper, string) {
	return func(c *Config, v *viper.Viper, key string) { *field(c) = v.GetInt(key) }
}

// Bindings lists every overridable setting.
var Bindings = []Binding{
	{Key: "backend", Env: "TOKENRAG_BACKEND", Flag: "backend",
		apply: setString(func(c *Config) *string { return &c.Backend })},
	{Key: "cssFilePath", Env: "TOKENRAG_CSS_FILE_PATH", Flag: "css",
		apply: setString(func(c *Config) *string { return &c.CSSFilePath })},
	{Key: "cdnFallback", Env: "TOKENRAG_CDN_FALLBACK", Flag: "cdn-fallback",
		apply: setBool(func(c *Config) *bool { return &c.CDNFallback })},
	{Key: "indexFilePath", Env: "TOKENRAG_INDEX_FILE_PATH", Flag: "index-file",
		apply: setString(func(c *Config) *string { return &c.IndexFilePath })},
	{Key: "recordsFilePath", Env: "TOKENRAG_RECORDS_FILE_PATH", Flag: "records-file",
		apply: setString(func(c *Config) *string { return &c.RecordsFilePath })},
	{Key: "engineScheme", Env: "TOKENRAG_ENGINE_SCHEME",
		apply: setString(func(c *Config) *string { return &c.EngineScheme })},
	{Key: "engineHost", Env: "TOKENRAG_ENGINE_HOST", Flag: "engine-host",
		apply: setString(func(c *Config) *string { return &c.EngineHost })},
	{Key: "enginePort", Env: "TOKENRAG_ENGINE_PORT", Flag: "engine-port",
		apply: setInt(func(c *Config) *int { return &c.EnginePort })},
	{Key: "engineTimeout", Env: "TOKENRAG_ENGINE_TIMEOUT",
		apply: setString(func(c *Config) *string { return &c.EngineTimeout })},
	{Key: "engineMaxRetries", Env: "TOKENRAG_ENGINE_MAX_RETRIES",
		apply: setInt(func(c *Config) *int { return &c.EngineMaxRetries })},
	{Key: "collectionName", Env: "TOKENRAG_COLLECTION_NAME", Flag: "collection",
		apply: setString(func(c *Config) *string { return &c.CollectionName })},
	{Key: "topK", Env: "TOKENRAG_TOP_K", Flag: "top-k",
		apply: setInt(func(c *Config) *int { return &c.TopK })},
	{Key: "embedding.provider", Env: "TOKENRAG_EMBEDDING_PROVIDER", Flag: "embedder",
		apply: setString(func(c *Config) *string { return &c.Embedding.Provider })},
	{Key: "embedding.model", Env: "TOKENRAG_EMBEDDING_MODEL",
		apply: setString(func(c *Config) *string { return &c.Embedding.Model })},
	{Key: "embedding.baseURL", Env: "TOKENRAG_EMBEDDING_BASE_URL",
		apply: setString(func(c *Config) *string { return &c.Embedding.BaseURL })},
	{Key: "embedding.apiKey", Env: "TOKENRAG_EMBEDDING_API_KEY",
		apply: setString(func(c *Config) *string { return &c.Embedding.APIKey })},
	{Key: "embedding.modelPath", Env: "TOKENRAG_EMBEDDING_MODEL_PATH",
		apply: setString(func(c *Config) *string { return &c.Embedding.ModelPath })},
	{Key: "embedding.dimension", Env: "TOKENRAG_EMBEDDING_DIMENSION",
		apply: setInt(func(c *Config) *int { return &c.Embedding.Dimension })},
}

// Bind registers every binding's environment variable with v, and its flag
// when flags defines it. Flags missing from flags are skipped, so commands
// may expose a subset.
func Bind(v *viper.Viper, flags *pflag.FlagSet) error {
	if f := flags.Lookup(KeyConfig); f != nil {
		if err := v.BindPFlag(KeyConfig, f); err != nil {
			return err
		}
	}
	for _, b := range Bindings {
		if err := v.BindEnv(b.Key, b.Env); err != nil {
			return err
		}
		if b.Flag == "" {
			continue
		}
		if f := flags.Lookup(b.Flag); f != nil {
			if err := v.BindPFlag(b.Key, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadDotEnv loads rootDir/.env into the process environment. Variables that
// are already set win, and a missing file is not an error.
func LoadDotEnv(rootDir string) error {
	err := godotenv.Load(filepath.Join(rootDir, ".env"))
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	return err
}

// Resolve builds the effective configuration: defaults, then the config file
// (--config, or the one found by Load), then environment variables, then
// flags. Only settings that v reports as set override the file.
func Resolve(v *viper.Viper, filesystem fs.FileSystem, rootDir string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path := v.GetString(KeyConfig); path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(rootDir, path)
		}
		cfg, err = LoadFile(filesystem, path)
	} else {
		cfg, err = Load(filesystem, rootDir)
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Default()
	}

	for _, b := range Bindings {
		if v.IsSet(b.Key) {
			b.apply(cfg, v, b.Key)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
