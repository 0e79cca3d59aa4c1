package config

import (
	"errors"
	"fmt"
	"regexp"
)

var bitratePattern = regexp.MustCompile(`^[1-9][0-9]*[km]?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateWakeLock(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateConversion() error {
	switch c.Conversion.DefaultFormat {
	case "m4a", "mp3", "opus":
	default:
		return fmt.Errorf("conversion.default_format must be one of m4a, mp3, opus (got %q)", c.Conversion.DefaultFormat)
	}
	for key, value := range map[string]string{
		"conversion.m4a_bitrate":  c.Conversion.M4ABitrate,
		"conversion.mp3_bitrate":  c.Conversion.MP3Bitrate,
		"conversion.opus_bitrate": c.Conversion.OpusBitrate,
	} {
		if !bitratePattern.MatchString(value) {
			return fmt.Errorf("%s must look like 128k (got %q)", key, value)
		}
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateWakeLock() error {
	switch c.WakeLock.Provider {
	case wakeLockProviderLogind, wakeLockProviderNone:
		return nil
	default:
		return fmt.Errorf("wake_lock.provider must be %q or %q (got %q)", wakeLockProviderLogind, wakeLockProviderNone, c.WakeLock.Provider)
	}
}

func (c *Config) validateNotifications() error {
	if c.Notifications.QueueMinItems < 0 {
		return errors.New("notifications.queue_min_items must be zero or positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
