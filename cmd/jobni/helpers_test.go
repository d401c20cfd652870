package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/db/memdb"
)

// getBinaryPath returns the path to the jobni binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "jobni"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/jobni ./cmd/jobni'", binaryPath)
	}

	return binaryPath
}

// useMemoryStore points every command at one shared in-process store for
// the duration of the test.
func useMemoryStore(t *testing.T) *memdb.Store {
	t.Helper()
	t.Setenv("DATABASE_URL", memdb.URL)
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("LOG_LEVEL", "error")

	store := memdb.New()
	prev := openStore
	openStore = func(context.Context, string) (db.Store, error) { return store, nil }
	t.Cleanup(func() { openStore = prev })
	return store
}

// execute runs the root command in process and returns what it printed.
// Flag values persist between runs, so tests pass every flag they rely on.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}
