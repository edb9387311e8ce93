package main

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/minhvu/tcbsync/internal/repositories"
	"github.com/minhvu/tcbsync/internal/services"
	"github.com/minhvu/tcbsync/internal/shared"
	"github.com/minhvu/tcbsync/internal/tasks"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var store services.TokenStore
	var runRepo *repositories.RunRepository
	var runs tasks.RunLog

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		logger.Warn("local database unavailable, session will not persist", "error", err)
		store = &ephemeralStore{}
	} else {
		defer db.Close()
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		if err := shared.RunMigrations(db); err != nil {
			logger.Warn("failed to run migrations", "error", err)
		}
		store = repositories.NewCredentialRepository(db)
		runRepo = repositories.NewRunRepository(db)
		runs = runRepo
	}

	base := &http.Client{Timeout: config.Server.Timeout()}
	session := services.NewSessionManager(config.Server.BaseURL, base, store, logger)
	syncService := services.NewSyncService(session.Client())
	settingsService := services.NewSettingsService(session.Client())
	supervisor := tasks.NewSupervisor(syncService, runs, logger)
	poller := tasks.NewPoller(syncService, config.Sync.PollInterval(), logger)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Session:    session,
		Sync:       syncService,
		Settings:   settingsService,
		Supervisor: supervisor,
		Poller:     poller,
		Runs:       runRepo,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "tcbsync",
		Usage:    "Drive Techcombank → Actual Budget syncs from the terminal",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// ephemeralStore keeps the token in memory for the lifetime of the process,
// used when the local database cannot be opened.
type ephemeralStore struct {
	mu    sync.Mutex
	token string
}

func (s *ephemeralStore) Get(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *ephemeralStore) Put(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = value
	return nil
}

func (s *ephemeralStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
