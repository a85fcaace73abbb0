//go:build linux

// Package main provides the autorun CLI.
//
// autorun watches files and directory trees for mutations and runs an
// arbitrary command each time one is observed. Directory trees are watched
// recursively, and directories created while running are picked up without
// a restart.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/autorun-labs/autorun/pkg/config"
	"github.com/autorun-labs/autorun/pkg/journal"
	"github.com/autorun-labs/autorun/pkg/logger"
	"github.com/autorun-labs/autorun/pkg/runner"
	"github.com/autorun-labs/autorun/pkg/watch"
)

// version is set during build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "autorun: %v\n", err)
		os.Exit(1)
	}
}

// run executes the main application logic.
func run(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	if opts.showVersion {
		fmt.Printf("autorun %s\n", version)
		return nil
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Output: cfg.Logging.Output,
		Format: cfg.Logging.Format,
	})

	if opts.history > 0 {
		return printHistory(cfg, opts.history, log)
	}

	if opts.command == "" {
		return errors.New("no command given, see -h for usage")
	}

	src, err := watch.NewSource()
	if err != nil {
		return err
	}
	table := watch.NewTable(src, log)
	defer func() {
		table.DisarmAll()
		if closeErr := src.Close(); closeErr != nil {
			log.Error("failed to close event source", "error", closeErr)
		}
	}()

	if len(opts.dirs) > 0 {
		if err := watch.InstallTree(table, opts.dirs, log); err != nil {
			return err
		}
	}
	if len(opts.files) > 0 {
		if err := watch.InstallFiles(table, opts.files, log); err != nil {
			return err
		}
	}

	jnl := journal.Noop()
	if cfg.Journal.Enabled {
		jnl, err = journal.Open(cfg.Journal.Path, log)
		if err != nil {
			return err
		}
	}
	defer func() {
		if closeErr := jnl.Close(); closeErr != nil {
			log.Error("failed to close journal", "error", closeErr)
		}
	}()

	cmdRunner := runner.New(runner.Config{
		Shell:       cfg.Runner.Shell,
		ClearScreen: cfg.Runner.ClearScreen,
		Concurrent:  cfg.Runner.Concurrent,
	}, log)

	trigger := func(ctx context.Context, path string, ev watch.Event) {
		if appendErr := jnl.Append(journal.Entry{
			Time:    time.Now(),
			Path:    path,
			Op:      ev.String(),
			Command: opts.command,
		}); appendErr != nil {
			log.Warn("failed to journal trigger", "path", path, "error", appendErr)
		}

		// The command's exit status is ignored by design.
		if runErr := cmdRunner.Run(ctx, opts.command); runErr != nil {
			log.Debug("command failed", "command", opts.command, "error", runErr)
		}
	}

	loop := watch.NewLoop(table, src, trigger, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("watching", "entries", table.Len(), "command", opts.command)

	errCh := make(chan error, 1)
	go func() {
		errCh <- loop.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		cmdRunner.Wait()
		return nil
	case loopErr := <-errCh:
		cmdRunner.Wait()
		return loopErr
	}
}

// printHistory prints the last n trigger journal entries, newest first.
func printHistory(cfg *config.Config, n int, log logger.Logger) error {
	jnl, err := journal.Open(cfg.Journal.Path, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := jnl.Close(); closeErr != nil {
			log.Error("failed to close journal", "error", closeErr)
		}
	}()

	entries, err := jnl.Recent(n)
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("%s  %-24s %s\n", e.Time.Format(time.RFC3339), e.Op, e.Path)
	}

	return nil
}
