package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/VahDunn/synchron-class/internal/log"
	"github.com/VahDunn/synchron-class/internal/store"
	"github.com/VahDunn/synchron-class/internal/sync"
)

var (
	configPath = flag.String("config", "synchron.yaml", "path to the YAML config file")
	tables     = flag.String("tables", "", "comma-separated tables to synchronize, overrides config; empty means every source table")
	logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error; overrides config")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := sync.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return err
	}

	level := zerolog.InfoLevel
	levelName := cfg.LogLevel
	if *logLevel != "" {
		levelName = *logLevel
	}
	if levelName != "" {
		level, err = log.ParseLevel(levelName)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return err
		}
	}

	logging := &log.Logging{Logger: log.InitLogger(os.Stdout, level)}

	// validated by LoadConfig
	policy, _ := sync.ParsePolicy(cfg.Reconcile)

	source, err := store.Open(cfg.Source.Driver, cfg.Source.DSN, logging)
	if err != nil {
		logging.LogSevere("failed to open source store", err)
		return err
	}
	defer func() {
		if err := source.Close(); err != nil {
			logging.LogWarning("failed to close source store", err)
		}
	}()

	target, err := store.Open(cfg.Target.Driver, cfg.Target.DSN, logging)
	if err != nil {
		logging.LogSevere("failed to open target store", err)
		return err
	}
	defer func() {
		if err := target.Close(); err != nil {
			logging.LogWarning("failed to close target store", err)
		}
	}()

	tableList := cfg.Tables
	if *tables != "" {
		tableList = strings.Split(*tables, ",")
		for i := range tableList {
			tableList[i] = strings.TrimSpace(tableList[i])
		}
	}

	s := sync.New(source, target, sync.Options{
		Policy:      policy,
		SnapshotDir: cfg.SnapshotDir,
	}, logging)

	if err := s.SyncDatabase(context.Background(), tableList); err != nil {
		return err
	}

	stats := s.Stats()
	logging.LogInfo("synchronization finished",
		"tables", stats.TablesSynced,
		"rows_read", stats.RowsRead,
		"inserted", stats.RowsInserted,
		"updated", stats.RowsUpdated,
	)
	return nil
}
