package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonlwowski012/agentfactory/internal/config"
	"github.com/jonlwowski012/agentfactory/internal/natsbus"
	"github.com/jonlwowski012/agentfactory/internal/registry"
	"github.com/jonlwowski012/agentfactory/internal/reminder"
	"github.com/jonlwowski012/agentfactory/internal/router"
	"github.com/jonlwowski012/agentfactory/internal/store"
	"github.com/jonlwowski012/agentfactory/internal/trigger"
	"github.com/jonlwowski012/agentfactory/internal/vault"
	"github.com/jonlwowski012/agentfactory/internal/web"
	"github.com/jonlwowski012/agentfactory/internal/workflow"
	"github.com/jonlwowski012/agentfactory/internal/workspace"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("factoryd %s\n", version)
	case "gateway":
		if err := runGateway(); err != nil {
			slog.Error("gateway failed", "error", err)
			os.Exit(1)
		}
	case "backup":
		if err := runBackup(os.Args[2:]); err != nil {
			slog.Error("backup failed", "error", err)
			os.Exit(1)
		}
	case "restore":
		if err := runRestore(os.Args[2:]); err != nil {
			slog.Error("restore failed", "error", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: factoryd <command>\n\nCommands:\n  gateway    Start the agent factory gateway service\n  backup     Archive the store and agent descriptors\n  restore    Restore a backup archive\n  version    Print version\n")
}

func runGateway() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting agentfactory gateway", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite store
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	// Embedded NATS
	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	slog.Info("nats started", "port", bus.Port())

	nc, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("init nats client: %w", err)
	}
	defer nc.Close()

	// Agent registry: load, validate the handoff graph, mirror to store.
	// A broken descriptor set refuses to start the gateway.
	reg := registry.New(db, cfg.Agents)
	if err := reg.Load(); err != nil {
		return fmt.Errorf("load agent registry: %w", err)
	}
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("validate agent registry: %w", err)
	}
	if err := reg.Sync(); err != nil {
		return fmt.Errorf("sync agent registry: %w", err)
	}
	slog.Info("agent registry loaded", "agents", len(reg.Names()))

	// Workflow tracker and approval gate
	tracker := workflow.NewTracker(db, nc)

	// Workspace snapshot for trigger matching
	snap := workspace.New(cfg.Workspace.Root, func(phase string) bool {
		for _, inst := range tracker.List() {
			if inst.PhaseApproved(phase) {
				return true
			}
		}
		return false
	})
	matcher := trigger.NewMatcher(nil)

	// Handoff router
	rtr := router.New(reg, db, nc)

	// Approval reminder
	rem := reminder.New(db, nc, cfg.Reminder)
	go rem.Start(ctx)

	// Credential vault
	v := vault.New(cfg.Vault.Passphrase)
	if !v.Enabled() {
		slog.Warn("vault passphrase not set, model credentials disabled")
	}

	// Web API
	if cfg.Web.Enabled {
		srv := web.NewServer(db, bus, reg, tracker, rtr, matcher, snap, v, cfg.Web, cfg.Workflow.Phases, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
		slog.Info("web server started", "port", cfg.Web.Port)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()

	return nil
}
