package service

import (
	"context"
	"fmt"
	"sync"

	"taskboard/internal/dbclient"
	"taskboard/internal/domain"
	"taskboard/internal/importer/sources"
	"taskboard/internal/secret"
	"taskboard/internal/storage"

	"github.com/google/uuid"
)

// ─────────────────────────────────────────────────────────────
// Connection Service — external databases used as import sources
// ─────────────────────────────────────────────────────────────

// CreateConnectionInput is the service-layer DTO for creating/updating connections.
type CreateConnectionInput struct {
	Name     string `json:"name"`
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"sslMode"`
}

// ConnectionService manages external database connections and query
// execution for the import pipeline. It pools live connectors so
// consecutive cursor fetches reuse the same connection.
type ConnectionService struct {
	connStore *storage.DBConnectionStore
	secrets   secret.SecretStore

	mu               sync.Mutex
	activeConnectors map[string]dbclient.Connector
}

// NewConnectionService creates a ConnectionService.
func NewConnectionService(connStore *storage.DBConnectionStore, secrets secret.SecretStore) *ConnectionService {
	return &ConnectionService{
		connStore:        connStore,
		secrets:          secrets,
		activeConnectors: make(map[string]dbclient.Connector),
	}
}

// ── Connection CRUD ────────────────────────────────────────

func (s *ConnectionService) ListConnections() ([]domain.DatabaseConnection, error) {
	return s.connStore.ListConnections()
}

func (s *ConnectionService) GetConnection(id string) (*domain.DatabaseConnection, error) {
	return s.connStore.GetConnection(id)
}

func (s *ConnectionService) CreateConnection(input CreateConnectionInput) (*domain.DatabaseConnection, error) {
	conn := &domain.DatabaseConnection{
		ID:       uuid.New().String(),
		Name:     input.Name,
		Driver:   domain.DatabaseDriver(input.Driver),
		Host:     input.Host,
		Port:     input.Port,
		Database: input.Database,
		Username: input.Username,
		SSLMode:  input.SSLMode,
	}
	if err := s.connStore.CreateConnection(conn); err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	if input.Password != "" && s.secrets != nil {
		_ = s.secrets.Set("db:"+conn.ID, []byte(input.Password))
	}
	return conn, nil
}

func (s *ConnectionService) UpdateConnection(id string, input CreateConnectionInput) error {
	conn, err := s.connStore.GetConnection(id)
	if err != nil {
		return err
	}
	conn.Name = input.Name
	conn.Driver = domain.DatabaseDriver(input.Driver)
	conn.Host = input.Host
	conn.Port = input.Port
	conn.Database = input.Database
	conn.Username = input.Username
	conn.SSLMode = input.SSLMode
	if err := s.connStore.UpdateConnection(conn); err != nil {
		return err
	}
	if input.Password != "" && s.secrets != nil {
		_ = s.secrets.Set("db:"+id, []byte(input.Password))
	}
	// Invalidate the pooled connector so the next query re-connects
	// with the new config.
	s.mu.Lock()
	if c, ok := s.activeConnectors[id]; ok {
		_ = c.Close()
		delete(s.activeConnectors, id)
	}
	s.mu.Unlock()
	return nil
}

func (s *ConnectionService) DeleteConnection(id string) error {
	s.mu.Lock()
	if c, ok := s.activeConnectors[id]; ok {
		_ = c.Close()
		delete(s.activeConnectors, id)
	}
	s.mu.Unlock()
	if s.secrets != nil {
		_ = s.secrets.Delete("db:" + id)
	}
	return s.connStore.DeleteConnection(id)
}

// ── Test + Introspect ──────────────────────────────────────

func (s *ConnectionService) TestConnection(ctx context.Context, id string) error {
	connector, err := s.getOrCreate(id)
	if err != nil {
		return err
	}
	return connector.TestConnection(ctx)
}

func (s *ConnectionService) Introspect(ctx context.Context, connectionID string) (*dbclient.SchemaInfo, error) {
	connector, err := s.getOrCreate(connectionID)
	if err != nil {
		return nil, err
	}
	return connector.Introspect(ctx)
}

// ── Import source provider ─────────────────────────────────
// ConnectionService implements sources.DBProvider so the database import
// source can read through the connector pool.

func (s *ConnectionService) ExecuteImportQuery(ctx context.Context, connID, query string, fetchSize int) (*sources.QueryPage, error) {
	connector, err := s.getOrCreate(connID)
	if err != nil {
		return nil, err
	}
	page, err := connector.Execute(ctx, query, fetchSize)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	return &sources.QueryPage{Columns: page.Columns, Rows: page.Rows, HasMore: page.HasMore}, nil
}

func (s *ConnectionService) FetchMoreImportRows(ctx context.Context, connID string, fetchSize int) (*sources.QueryPage, error) {
	s.mu.Lock()
	connector, ok := s.activeConnectors[connID]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no active query for connection %s", connID)
	}
	page, err := connector.FetchMore(ctx, fetchSize)
	if err != nil {
		return nil, err
	}
	return &sources.QueryPage{Columns: page.Columns, Rows: page.Rows, HasMore: page.HasMore}, nil
}

// ── Connector Pool ─────────────────────────────────────────

func (s *ConnectionService) getOrCreate(id string) (dbclient.Connector, error) {
	s.mu.Lock()
	if c, ok := s.activeConnectors[id]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	conn, err := s.connStore.GetConnection(id)
	if err != nil {
		return nil, fmt.Errorf("get connection %s: %w", id, err)
	}

	var password string
	if s.secrets != nil {
		if pw, err := s.secrets.Get("db:" + id); err == nil {
			password = string(pw)
		}
	}

	connector, err := dbclient.NewConnector(conn, password)
	if err != nil {
		return nil, fmt.Errorf("open db connection: %w", err)
	}

	s.mu.Lock()
	s.activeConnectors[id] = connector
	s.mu.Unlock()
	return connector, nil
}

// Close tears down all active database connectors.
func (s *ConnectionService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, connector := range s.activeConnectors {
		_ = connector.Close()
		delete(s.activeConnectors, id)
	}
}
