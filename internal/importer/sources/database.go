package sources

import (
	"context"
	"fmt"

	"taskboard/internal/importer"
)

// ── Database Source ────────────────────────────────────────
// Reads task rows from an external database connection.
// Reuses the dbclient.Connector infrastructure via a provider interface.

// QueryPage mirrors dbclient.QueryPage to avoid circular imports.
type QueryPage struct {
	Columns []string
	Rows    [][]any
	HasMore bool
}

// DBProvider abstracts how we get connector access.
// The service layer implements this and injects it at startup.
type DBProvider interface {
	ExecuteImportQuery(ctx context.Context, connID, query string, fetchSize int) (*QueryPage, error)
	FetchMoreImportRows(ctx context.Context, connID string, fetchSize int) (*QueryPage, error)
}

var dbProvider DBProvider

// SetDBProvider is called at startup.
func SetDBProvider(p DBProvider) { dbProvider = p }

type databaseSource struct{}

func init() { importer.RegisterSource(&databaseSource{}) }

func (s *databaseSource) Spec() importer.SourceSpec {
	return importer.SourceSpec{
		Type:  "database",
		Label: "Database Query",
		ConfigFields: []importer.ConfigField{
			{Key: "connectionId", Label: "Connection", Type: "select", Required: true, Help: "Saved database connection to query"},
			{Key: "query", Label: "Query", Type: "textarea", Required: true, Help: "Query returning one row per task"},
		},
	}
}

func resolveDBConfig(cfg importer.SourceConfig) (string, string, error) {
	connID, _ := cfg["connectionId"].(string)
	query, _ := cfg["query"].(string)
	if connID == "" || query == "" {
		return "", "", fmt.Errorf("connectionId and query are required")
	}
	return connID, query, nil
}

func (s *databaseSource) Discover(ctx context.Context, cfg importer.SourceConfig) (*importer.Schema, error) {
	connID, query, err := resolveDBConfig(cfg)
	if err != nil {
		return nil, err
	}
	if dbProvider == nil {
		return nil, fmt.Errorf("database provider not initialized")
	}

	page, err := dbProvider.ExecuteImportQuery(ctx, connID, query, 1)
	if err != nil {
		return nil, err
	}

	schema := &importer.Schema{Fields: make([]importer.Field, len(page.Columns))}
	for i, col := range page.Columns {
		schema.Fields[i] = importer.Field{Name: col, Type: "text"}
	}
	return schema, nil
}

func (s *databaseSource) Read(ctx context.Context, cfg importer.SourceConfig) (<-chan importer.Record, <-chan error) {
	out := make(chan importer.Record, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		connID, query, err := resolveDBConfig(cfg)
		if err != nil {
			errCh <- err
			return
		}
		if dbProvider == nil {
			errCh <- fmt.Errorf("database provider not initialized")
			return
		}

		page, err := dbProvider.ExecuteImportQuery(ctx, connID, query, 500)
		if err != nil {
			errCh <- fmt.Errorf("execute: %w", err)
			return
		}

		if !emitPage(ctx, out, page) {
			errCh <- ctx.Err()
			return
		}

		for page.HasMore {
			page, err = dbProvider.FetchMoreImportRows(ctx, connID, 500)
			if err != nil {
				errCh <- fmt.Errorf("fetch more: %w", err)
				return
			}
			if !emitPage(ctx, out, page) {
				errCh <- ctx.Err()
				return
			}
		}
	}()

	return out, errCh
}

func emitPage(ctx context.Context, out chan<- importer.Record, page *QueryPage) bool {
	for _, row := range page.Rows {
		data := make(map[string]any, len(page.Columns))
		for i, col := range page.Columns {
			if i < len(row) {
				data[col] = row[i]
			}
		}
		select {
		case out <- importer.Record{Data: data}:
		case <-ctx.Done():
			return false
		}
	}
	return true
}
