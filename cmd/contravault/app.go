package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/sandeepkv93/contravault/internal/config"
	"github.com/sandeepkv93/contravault/internal/gamification"
	"github.com/sandeepkv93/contravault/internal/storage"
	"github.com/sandeepkv93/contravault/internal/tasks"
)

// app is the wiring shared by every subcommand that touches the store.
type app struct {
	cfg     config.Config
	repo    storage.Repository
	engine  *tasks.Engine
	tracker *gamification.Tracker
	loc     *time.Location
	logger  *log.Logger
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	repo, err := storage.Open(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, err
	}
	logger := log.New(os.Stderr, "contravault: ", log.LstdFlags|log.Lshortfile)
	tracker := gamification.NewTracker(repo, gamification.WithLocation(loc))
	engine := tasks.NewEngine(repo, tasks.WithRecorder(tracker), tasks.WithLogger(logger))
	return &app{cfg: cfg, repo: repo, engine: engine, tracker: tracker, loc: loc, logger: logger}, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}

func (a *app) userID() string {
	if userFlag != "" {
		return userFlag
	}
	return a.cfg.User
}

// emit prints data as JSON when --json is set, otherwise the rendered text.
func emit(w io.Writer, rendered string, data any) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	}
	_, err := fmt.Fprintln(w, rendered)
	return err
}
