package main

import (
	"context"
	"log"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/entregasmx/entregas-cli/internal/cli"
	"github.com/entregasmx/entregas-cli/internal/clients/authapi"
	"github.com/entregasmx/entregas-cli/internal/repository"
	"github.com/entregasmx/entregas-cli/internal/session"
	"github.com/entregasmx/entregas-cli/pkg/config"
	"github.com/entregasmx/entregas-cli/pkg/logger"
	"github.com/entregasmx/entregas-cli/pkg/sqlite"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.New(".env")
	panicOnErr("load config", err)

	l := logger.New(logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(l)

	db, err := sqlite.Open(ctx, cfg.SessionDBPath)
	panicOnErr("open session database", err)

	defer db.Close()

	store := session.NewStore(repository.New(db))

	// Restore before anything reads session state.
	store.Restore(ctx)

	apiClient := authapi.NewClient(cfg)

	app := cli.NewApp(apiClient, store)
	app.Run(ctx)
}

func panicOnErr(msg string, err error) {
	if err != nil {
		log.Panicf("%s: %v", msg, err)
	}
}
