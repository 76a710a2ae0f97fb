package di

import (
	"github.com/goliatone/go-publication/internal/logging/console"
	"github.com/goliatone/go-publication/internal/logging/gologger"
	"github.com/goliatone/go-publication/internal/runtimeconfig"
)

func (c *Container) configureLogging() error {
	if c.loggerProvider != nil {
		return nil
	}
	cfg := c.Config.Logging
	switch runtimeconfig.NormalizeProvider(cfg.Provider) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	case "noop":
		// module loggers fall back to no-op when the provider is nil
	default:
		level := console.ParseLevel(cfg.Level)
		c.loggerProvider = console.NewProvider(console.Options{
			TimeFunc: c.clock,
			MinLevel: &level,
		})
	}
	return nil
}
