package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/minhvu/tcbsync/internal/repositories"
	"github.com/minhvu/tcbsync/internal/services"
	"github.com/minhvu/tcbsync/internal/shared"
	"github.com/minhvu/tcbsync/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	session    *services.SessionManager
	sync       *services.SyncService
	settings   *services.SettingsService
	supervisor *tasks.Supervisor
	poller     *tasks.Poller
	runs       *repositories.RunRepository
	logger     *log.Logger
	output     io.Writer
	input      io.Reader
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Session    *services.SessionManager
	Sync       *services.SyncService
	Settings   *services.SettingsService
	Supervisor *tasks.Supervisor
	Poller     *tasks.Poller
	Runs       *repositories.RunRepository
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}

	return &Runner{
		config:     opts.Config,
		session:    opts.Session,
		sync:       opts.Sync,
		settings:   opts.Settings,
		supervisor: opts.Supervisor,
		poller:     opts.Poller,
		runs:       opts.Runs,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      opts.Input,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, syncCommand, settingsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, used when the TUI redirects logs to a file.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// requireSession resolves the persisted session and fails if no user is
// signed in. Every command that talks to a protected endpoint goes through
// this gate.
func (r *Runner) requireSession(ctx context.Context) error {
	if err := r.session.Initialize(ctx); err != nil {
		return err
	}
	if r.session.CurrentUser() == nil {
		return fmt.Errorf("%w: run 'tcbsync auth login' first", shared.ErrNotAuthenticated)
	}
	return nil
}

// promptPassword reads a password without echo when attached to a terminal,
// falling back to a plain line read otherwise.
func (r *Runner) promptPassword(prompt string) (string, error) {
	if f, ok := r.input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.writePlain("%s", prompt)
		raw, err := term.ReadPassword(int(f.Fd()))
		r.writePlain("\n")
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(r.input).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
