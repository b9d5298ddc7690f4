package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Render struct {
		IncludeTOC  *bool `yaml:"include_toc"`   // default true
		MaxTOCLevel int   `yaml:"max_toc_level"` // 0 = all levels
	} `yaml:"render"`
	Index struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"index"`
	Report struct {
		Path string `yaml:"path"`
	} `yaml:"report"`
}

// IncludeTOC resolves the render option with its documented default.
func (c *Config) IncludeTOC() bool {
	if c == nil || c.Render.IncludeTOC == nil {
		return true
	}
	return *c.Render.IncludeTOC
}

func Default() *Config {
	cfg := &Config{}
	cfg.Index.DBPath = "mdtoc.db"
	cfg.Report.Path = "mdtoc_report.json"
	return cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config; a missing file falls back to defaults
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if db := os.Getenv("MDTOC_DB"); db != "" {
		cfg.Index.DBPath = db
	}
	if rp := os.Getenv("MDTOC_REPORT"); rp != "" {
		cfg.Report.Path = rp
	}

	if cfg.Index.DBPath == "" {
		cfg.Index.DBPath = "mdtoc.db"
	}
	if cfg.Report.Path == "" {
		cfg.Report.Path = "mdtoc_report.json"
	}
	return cfg, nil
}
