// Package graph wraps the Neo4j transaction store behind a small query
// interface so repositories can be tested without a running database.
package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vanshika/muletrace/internal/config"
)

// Client executes parameterised Cypher against the store.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds every record of a fully consumed query.
type Result struct {
	Records []Record
}

// Record maps result column names to values.
type Record map[string]any

// Options configures a Neo4j connection.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
}

// OptionsFromConfig maps the environment-driven graph config.
func OptionsFromConfig(cfg config.GraphConfig) Options {
	return Options{
		URI:            cfg.URI,
		Database:       cfg.Database,
		Username:       cfg.Username,
		Password:       cfg.Password,
		MaxConnections: cfg.MaxConnections,
	}
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")

// Connect opens a Neo4j client for cfg and logs the target. It returns
// ErrMissingURI when the store is not configured.
func Connect(ctx context.Context, logger *slog.Logger, cfg config.GraphConfig) (Client, error) {
	if !cfg.Enabled() {
		return nil, ErrMissingURI
	}
	client, err := NewNeo4jClient(ctx, OptionsFromConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("connect to graph store: %w", err)
	}
	logger.Info("connected to graph", "uri", cfg.URI, "database", cfg.Database)
	return client, nil
}
