package config

import (
	"github.com/google/uuid"

	"textot/pkg/structs"
)

var knownAppliers = structs.NewSet("text")
var knownLevels = structs.NewSet("debug", "info", "warn", "error")
var knownFormats = structs.NewSet("json", "text")

var defaultStorage = StorageConfig{
	Shards:         64,
	ScaleThreshold: 1024,
	Applier:        "text",
}

var defaultLogging = LoggingConfig{
	Level:  "info",
	Format: "json",
}

func Default() *Config {
	cfg := &Config{
		Storage: defaultStorage,
		Logging: defaultLogging,
	}
	cfg.Site.PopulateDefaults()
	return cfg
}

func (c *SiteConfig) PopulateDefaults() {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
}

func (c *StorageConfig) PopulateDefaults() {
	if c.Shards == 0 {
		c.Shards = defaultStorage.Shards
	}

	if c.ScaleThreshold == 0 {
		c.ScaleThreshold = defaultStorage.ScaleThreshold
	}

	if c.Applier == "" {
		c.Applier = defaultStorage.Applier
	}
}

func (c *LoggingConfig) PopulateDefaults() {
	if c.Level == "" {
		c.Level = defaultLogging.Level
	}

	if c.Format == "" {
		c.Format = defaultLogging.Format
	}
}

func (c *Config) PopulateDefaults() {
	c.Site.PopulateDefaults()
	c.Storage.PopulateDefaults()
	c.Logging.PopulateDefaults()
}
