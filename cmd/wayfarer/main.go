package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wayfarer/pkg/config"
	"wayfarer/pkg/logging"
	"wayfarer/pkg/version"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s <config-file> [rpc|worker|both|none]\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		usage()
		os.Exit(1)
	}
	configPath := os.Args[1]
	roleArg := ""
	if len(os.Args) == 3 {
		roleArg = os.Args[2]
	}
	role, err := config.ParseRole(roleArg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, configPath, role); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, role config.Role) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cleanupLogs, err := logging.Init(cfg.Log.Level, cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("starting", "version", version.Version, "role", role.String())

	app, err := newApp(ctx, cfg, role)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}
