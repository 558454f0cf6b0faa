package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the client configuration, read from config.toml in the
// philoterm directory.
type Config struct {
	// ServerURL is the chat backend base URL, including the /api prefix.
	ServerURL string `toml:"server_url"`
}

func defaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8000/api",
	}
}

// loadConfig reads dir/config.toml, writing one with defaults on first
// run so users have a file to edit.
func loadConfig(dir string) (Config, error) {
	cfg := defaultConfig()

	path := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return cfg, err
		}
		return cfg, saveConfig(path, cfg)
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = defaultConfig().ServerURL
	}
	return cfg, nil
}

func saveConfig(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
