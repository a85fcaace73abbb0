// Package runner executes the configured command when a watch fires.
//
// The command is a literal string handed to the platform shell. By default
// every trigger runs the command synchronously and the dispatch loop waits
// for it; events arriving meanwhile queue up in the kernel and are drained
// on the next loop iteration.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"golang.org/x/term"

	"github.com/autorun-labs/autorun/pkg/logger"
)

// Runner executes the configured command string.
type Runner interface {
	// Run executes the command once. In synchronous mode it returns the
	// command's error, if any; callers are free to ignore it. In
	// concurrent mode it returns immediately.
	Run(ctx context.Context, command string) error

	// Wait blocks until commands started in concurrent mode have finished.
	Wait()
}

// Config contains runner configuration.
type Config struct {
	// Shell interprets the command string via `<shell> -c <command>`.
	// Default: /bin/sh.
	Shell string

	// ClearScreen clears the terminal before each run. Ignored when
	// stdout is not a terminal.
	ClearScreen bool

	// Concurrent starts the command without waiting for it to finish.
	// Default is off: one synchronous run per event record.
	Concurrent bool
}

// shellRunner implements Runner using os/exec.
type shellRunner struct {
	config Config
	logger logger.Logger
	wg     sync.WaitGroup
}

// New creates a command runner.
func New(cfg Config, log logger.Logger) Runner {
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}

	return &shellRunner{
		config: cfg,
		logger: log,
	}
}

// Run implements Runner.Run.
func (r *shellRunner) Run(ctx context.Context, command string) error {
	if r.config.ClearScreen && term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print("\033[2J\033[1;1H")
	}

	if r.config.Concurrent {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := r.exec(ctx, command); err != nil {
				r.logger.Debug("command failed", "command", command, "error", err)
			}
		}()
		return nil
	}

	return r.exec(ctx, command)
}

// Wait implements Runner.Wait.
func (r *shellRunner) Wait() {
	r.wg.Wait()
}

// exec runs the command through the configured shell, inheriting the
// process's standard streams.
func (r *shellRunner) exec(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, r.config.Shell, "-c", command) // #nosec G204 -- the command is the user's own argument
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run command: %w", err)
	}

	return nil
}
