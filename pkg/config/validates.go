package config

import (
	"fmt"

	"go.uber.org/multierr"

	"textot/pkg/structs"
)

// Validate reports every invalid section at once.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigIsNil
	}
	return multierr.Combine(
		c.Site.Validate(),
		c.Storage.Validate(),
		c.Logging.Validate(),
	)
}

func (c *SiteConfig) Validate() error {
	if c.ID == "" {
		return ErrMissingSiteID
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	var err error

	if c.Shards <= 0 || c.Shards&(c.Shards-1) != 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %d", ErrInvalidShards, c.Shards))
	}

	if c.ScaleThreshold <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %d", ErrInvalidScaleThreshold, c.ScaleThreshold))
	}

	if !knownAppliers.Contains(c.Applier) {
		err = multierr.Append(err, fmt.Errorf("%w: %q, want one of %v", ErrUnknownApplier, c.Applier, structs.Sorted(knownAppliers)))
	}

	return err
}

func (c *LoggingConfig) Validate() error {
	var err error

	if !knownLevels.Contains(c.Level) {
		err = multierr.Append(err, fmt.Errorf("%w: %q, want one of %v", ErrUnknownLogLevel, c.Level, structs.Sorted(knownLevels)))
	}

	if !knownFormats.Contains(c.Format) {
		err = multierr.Append(err, fmt.Errorf("%w: %q, want one of %v", ErrUnknownLogFormat, c.Format, structs.Sorted(knownFormats)))
	}

	return err
}
