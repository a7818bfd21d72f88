//-------------------------------------------------------------------------
//
// pgEdge Box Office Warehouse
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides throwaway warehouse databases for integration
// tests.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-boxoffice/internal/warehouse"
)

const (
	// ConnEnv overrides DefaultTestConnString.
	ConnEnv = "BOXOFFICE_TEST_CONN"

	// DefaultTestConnString is the maintenance database tests connect to.
	DefaultTestConnString = "postgres://postgres@localhost:5432/postgres"

	// TestDBPrefix is the prefix for test databases.
	TestDBPrefix = "boxoffice_test_"

	// TestDataset is the warehouse schema used by integration tests.
	TestDataset = "movie_dataset"
)

// PostgresAvailable returns the maintenance connection string when the
// server answers a ping within five seconds, otherwise "".
func PostgresAvailable() string {
	connStr := os.Getenv(ConnEnv)
	if connStr == "" {
		connStr = DefaultTestConnString
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return ""
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return ""
	}
	return connStr
}

// SkipIfNoPostgres skips the test if PostgreSQL is not available.
func SkipIfNoPostgres(t *testing.T) string {
	connStr := PostgresAvailable()
	if connStr == "" {
		t.Skip("PostgreSQL not available, skipping integration test")
	}
	return connStr
}

// CreateTestDB creates an empty database named after suite and returns
// its connection string.
func CreateTestDB(t *testing.T, baseConnStr, suite string) string {
	t.Helper()

	suffix := make([]byte, 6)
	if _, err := rand.Read(suffix); err != nil {
		t.Fatalf("Failed to generate database name: %v", err)
	}
	dbName := TestDBPrefix + suite + "_" + hex.EncodeToString(suffix)

	admin(t, baseConnStr, "CREATE DATABASE "+pgx.Identifier{dbName}.Sanitize())

	connStr, err := withDatabase(baseConnStr, dbName)
	if err != nil {
		t.Fatalf("Failed to build test connection string: %v", err)
	}
	return connStr
}

// DropTestDB terminates the sessions of dbName and drops it.
func DropTestDB(t *testing.T, baseConnStr, dbName string) {
	t.Helper()

	admin(t, baseConnStr,
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
		dbName)
	admin(t, baseConnStr, "DROP DATABASE IF EXISTS "+pgx.Identifier{dbName}.Sanitize())
}

// admin runs one statement on the maintenance database, failing the test
// on error.
func admin(t *testing.T, baseConnStr, sql string, args ...any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, baseConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, sql, args...); err != nil {
		t.Fatalf("Failed to run %q: %v", sql, err)
	}
}

// withDatabase rewrites connStr to point at dbName. Rendering from the
// parsed config accepts both URL and keyword/value connection strings.
func withDatabase(connStr, dbName string) (string, error) {
	config, err := pgx.ParseConfig(connStr)
	if err != nil {
		return "", err
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(config.User),
		Host:   net.JoinHostPort(config.Host, strconv.Itoa(int(config.Port))),
		Path:   "/" + dbName,
	}
	if config.Password != "" {
		u.User = url.UserPassword(config.User, config.Password)
	}
	return u.String(), nil
}

// TestCleanup closes test resources and drops the test database when the
// test passed. A failed test keeps its database for diagnostics.
type TestCleanup struct {
	t           *testing.T
	baseConnStr string
	dbName      string
	pool        *pgxpool.Pool
}

// NewTestCleanup creates a cleanup helper for dbName.
func NewTestCleanup(t *testing.T, baseConnStr, dbName string) *TestCleanup {
	return &TestCleanup{t: t, baseConnStr: baseConnStr, dbName: dbName}
}

// SetPool sets the pool to close on cleanup.
func (tc *TestCleanup) SetPool(pool *pgxpool.Pool) {
	tc.pool = pool
}

// Cleanup performs the cleanup.
func (tc *TestCleanup) Cleanup() {
	if tc.pool != nil {
		tc.pool.Close()
	}
	if tc.t.Failed() {
		tc.t.Logf("Test failed - keeping database %s for diagnostics", tc.dbName)
		return
	}
	DropTestDB(tc.t, tc.baseConnStr, tc.dbName)
}

// NewTestWarehouse creates a fresh database holding an empty dataset with
// the given tables and returns a warehouse over it.
func NewTestWarehouse(t *testing.T, suite string, tables ...warehouse.TableSchema) *warehouse.Warehouse {
	t.Helper()

	baseConnStr := SkipIfNoPostgres(t)
	connStr := CreateTestDB(t, baseConnStr, suite)

	config, err := pgx.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("Failed to parse test connection string: %v", err)
	}
	cleanup := NewTestCleanup(t, baseConnStr, config.Database)
	t.Cleanup(cleanup.Cleanup)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := warehouse.Connect(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	cleanup.SetPool(pool)

	w := warehouse.New(pool, TestDataset)
	if err := w.CreateDataset(ctx); err != nil {
		t.Fatalf("Failed to create dataset: %v", err)
	}
	for _, table := range tables {
		if err := w.CreateTable(ctx, table); err != nil {
			t.Fatalf("Failed to create table %s: %v", table.Name, err)
		}
	}
	return w
}
