package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/depgraph-io/engine/internal/adapter/postgres"
	"github.com/depgraph-io/engine/internal/config"
)

// runMigrate dispatches the migrate subcommand (up, down, status).
func runMigrate(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printMigrateHelp()
		return nil
	}

	switch args[0] {
	case "up":
		return runMigrateUp(args[1:])
	case "down":
		return runMigrateDown(args[1:])
	case "status":
		return runMigrateStatus(args[1:])
	default:
		printMigrateHelp()
		return fmt.Errorf("unknown migrate command: %s", args[0])
	}
}

func printMigrateHelp() {
	fmt.Fprintf(os.Stderr, `Usage: depgraphd migrate <command> [options]

Commands:
  up       Apply all pending migrations
  down     Roll back the last N migrations (default 1)
  status   Print the current migration version
  help     Show this help message

Examples:
  depgraphd migrate up
  depgraphd migrate down --steps 2 --yes
  depgraphd migrate status
`)
}

func loadDSN() (string, error) {
	cfg, _, err := config.LoadWithCLI(config.CLIFlags{})
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.Postgres.DSN, nil
}

func runMigrateUp(args []string) error {
	fs := flag.NewFlagSet("up", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	dsn, err := loadDSN()
	if err != nil {
		return err
	}

	if err := postgres.RunMigrations(context.Background(), dsn); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	fmt.Fprintln(os.Stderr, "migrations applied")
	return nil
}

func runMigrateDown(args []string) error {
	fs := flag.NewFlagSet("down", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*yes && !confirmDestructive(fmt.Sprintf("roll back %d migration(s)", *steps)) {
		fmt.Fprintln(os.Stderr, "aborted")
		return nil
	}

	dsn, err := loadDSN()
	if err != nil {
		return err
	}

	if err := postgres.RollbackMigrations(context.Background(), dsn, *steps); err != nil {
		return fmt.Errorf("rollback migrations: %w", err)
	}
	fmt.Fprintf(os.Stderr, "rolled back %d migration(s)\n", *steps)
	return nil
}

func runMigrateStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	dsn, err := loadDSN()
	if err != nil {
		return err
	}

	version, err := postgres.MigrationVersion(context.Background(), dsn)
	if err != nil {
		return fmt.Errorf("get migration version: %w", err)
	}
	fmt.Fprintf(os.Stderr, "current migration version: %d\n", version)
	return nil
}

// confirmDestructive prompts for a y/N confirmation before a destructive
// migrate operation. When stdin isn't an interactive terminal (a CI runner
// or a piped script), it refuses rather than blocking on a read that will
// never resolve.
func confirmDestructive(action string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "refusing to %s without --yes on a non-interactive terminal\n", action)
		return false
	}
	fmt.Fprintf(os.Stderr, "about to %s. continue? [y/N] ", action)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	return strings.ToLower(strings.TrimSpace(line)) == "y"
}
