package main

import (
	"podboard/internal/config"
	"podboard/internal/details"
	"podboard/internal/feed"
	"podboard/internal/transcript"
)

// commandContext carries lazily-loaded configuration and the metadata stack
// shared by the subcommands.
type commandContext struct {
	configFlag *string
	cfg        *config.Config
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads and caches the configuration.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, _, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// newResolver builds the detail resolver for the configured podcast, with
// RSS gap-filling when a feed is configured.
func (c *commandContext) newResolver(cfg *config.Config) *details.Resolver {
	var fetcher details.Fetcher = details.NewHTTPFetcher(cfg.Data.BaseURL)
	if len(cfg.Data.Feeds) > 0 {
		fetcher = feed.NewFallback(fetcher, cfg.Data.Feeds)
	}
	return details.NewResolver(fetcher, cfg.Data.Podcast, details.Config{
		DetailRetries: cfg.Resolver.DetailRetries,
		RetryBackoff:  cfg.RetryBackoff(),
	})
}

// newTranscripts builds the transcript store for the configured podcast.
func (c *commandContext) newTranscripts(cfg *config.Config) *transcript.Store {
	return transcript.NewStore(cfg.Data.BaseURL, cfg.Data.Podcast)
}
