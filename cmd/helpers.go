package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/odaworks/delivery-cli/internal/catalog"
	"github.com/odaworks/delivery-cli/internal/complexity"
	"github.com/odaworks/delivery-cli/internal/config"
	"github.com/odaworks/delivery-cli/internal/matcher"
	"github.com/odaworks/delivery-cli/internal/store"
)

// openStore opens the configured store backend and runs migrations.
func openStore(ctx context.Context) (store.Store, error) {
	var st store.Store
	var err error

	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

// catalogSource builds the configured catalog source. The returned
// cleanup func closes any store the source opened.
func catalogSource(ctx context.Context) (catalog.Source, func(), error) {
	noop := func() {}

	switch cfg.Catalog.Source {
	case "builtin":
		return catalog.Default(), noop, nil
	case "file":
		return catalog.NewFileSource(cfg.Catalog.Path), noop, nil
	case "http":
		return catalog.NewHTTPSource(cfg.Catalog.URL, catalog.HTTPOptions{
			CacheTTL: time.Duration(cfg.Catalog.CacheTTLMinutes) * time.Minute,
		}), noop, nil
	case "store":
		st, err := openStore(ctx)
		if err != nil {
			return nil, noop, err
		}
		return catalog.NewStoreSource(st), func() { st.Close() }, nil //nolint:errcheck
	default:
		return nil, noop, eris.Errorf("unsupported catalog source %q", cfg.Catalog.Source)
	}
}

// buildMatcher constructs the matcher from configured confidence levels.
func buildMatcher(mc config.MatcherConfig) (*matcher.Matcher, error) {
	return matcher.New(matcher.Options{
		ExactConfidence:           mc.ExactConfidence,
		DomainSubstringConfidence: mc.DomainSubstringConfidence,
		CrossSubstringConfidence:  mc.CrossSubstringConfidence,
		OverlapThreshold:          mc.OverlapThreshold,
	})
}

// loadComplexityConfig returns the scoring configuration, preferring a
// configured override file over the built-in defaults.
func loadComplexityConfig() (complexity.Config, error) {
	if cfg.Complexity.ConfigFile != "" {
		return complexity.LoadConfig(cfg.Complexity.ConfigFile)
	}
	c := complexity.DefaultConfig()
	if err := c.Validate(); err != nil {
		return complexity.Config{}, err
	}
	return c, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
