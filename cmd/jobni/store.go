package main

import (
	"context"

	"github.com/jonathan/jobni/internal/config"
	"github.com/jonathan/jobni/internal/db"
	"github.com/jonathan/jobni/internal/db/memdb"
	"github.com/jonathan/jobni/internal/observability"
	"github.com/sirupsen/logrus"
)

// openStore connects to databaseURL. memdb.URL selects the in-process store,
// which lives only as long as the command. Tests replace it.
var openStore = func(ctx context.Context, databaseURL string) (db.Store, error) {
	if databaseURL == memdb.URL {
		return memdb.New(), nil
	}
	pg, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return pg, nil
}

// loadEnv reads the server configuration and builds the process logger from
// it. Every command starts here.
func loadEnv() (*config.Server, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := observability.NewLogger(cfg.LogLevel, cfg.LogFormat, nil)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
