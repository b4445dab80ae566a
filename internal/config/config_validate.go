// Wayfarer - Tourism Place Recommender
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wayfarer

package config

import (
	"fmt"
	"net/url"

	"github.com/robfig/cron/v3"

	"github.com/tomtom215/wayfarer/internal/logging"
	"github.com/tomtom215/wayfarer/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}

	if err := c.validateFeedback(); err != nil {
		return err
	}

	if err := c.validateArtifacts(); err != nil {
		return err
	}

	if err := c.Recommend.Validate(); err != nil {
		return err
	}

	if err := c.validateLLM(); err != nil {
		return err
	}

	return c.validateSchedule()
}

func (c *Config) validateFeedback() error {
	if c.Feedback.Backend != "memory" && c.Feedback.Path == "" {
		return fmt.Errorf("feedback.path is required for the %s backend", c.Feedback.Backend)
	}
	return nil
}

func (c *Config) validateArtifacts() error {
	switch c.Artifacts.Backend {
	case "file":
		if c.Artifacts.Dir == "" {
			return fmt.Errorf("artifacts.dir is required for the file backend")
		}
	case "redis":
		if c.Artifacts.Redis.Addr == "" {
			return fmt.Errorf("artifacts.redis.addr is required for the redis backend")
		}
	}
	return nil
}

// validateLLM checks the extractor endpoint when one is configured.
func (c *Config) validateLLM() error {
	if !c.LLM.Enabled() {
		return nil
	}
	if err := validateHTTPURL(c.LLM.Endpoint, "llm.endpoint"); err != nil {
		return err
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm.timeout must be positive when llm.endpoint is set")
	}
	return nil
}

// validateSchedule parses the rebuild cron spec.
func (c *Config) validateSchedule() error {
	if c.Schedule.Rebuild == "" {
		return nil
	}
	if _, err := cron.ParseStandard(c.Schedule.Rebuild); err != nil {
		return fmt.Errorf("schedule.rebuild %q is invalid: %w", c.Schedule.Rebuild, err)
	}
	return nil
}

// validateHTTPURL validates that a URL is an absolute http or https URL.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	return nil
}

// loggingDefaults returns the logging section defaults. Output is left
// nil so the logger writes to stderr.
func loggingDefaults() logging.Config {
	def := logging.DefaultConfig()
	def.Output = nil
	return def
}
