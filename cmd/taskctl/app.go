package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/example/task-tracker/client"
	"github.com/example/task-tracker/identity"
	"github.com/example/task-tracker/navigation"
)

var (
	errNotSignedIn     = errors.New("not signed in; run `taskctl login`")
	errAlreadySignedIn = errors.New("already signed in; run `taskctl logout` first")
)

// cliApp wires the client-side collaborators for one command run.
type cliApp struct {
	cfg      *cliConfig
	logger   *log.Logger
	out      io.Writer
	api      *client.Client
	identity *identity.Provider
	location *navigation.MemoryLocation
	guard    *navigation.Guard
}

func newCLIApp(cfg *cliConfig, out, errOut io.Writer) (*cliApp, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := log.NewWithOptions(errOut, log.Options{
		Level:  level,
		Prefix: "taskctl",
	})

	api := client.New(cfg.Server)
	provider := identity.NewProvider(api, identity.NewFileSessionStore(cfg.SessionFile))
	api.SetTokenSource(provider)

	location := navigation.NewMemoryLocation(navigation.HomePath)
	location.OnChange(func(path string) {
		logger.Debug("location changed", "path", path)
	})

	return &cliApp{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		api:      api,
		identity: provider,
		location: location,
		guard:    navigation.NewGuard(navigation.DefaultRouter(), location, provider),
	}, nil
}

// start restores the stored session and mounts the guard. An unreachable
// server leaves the user signed out for this run.
func (a *cliApp) start(ctx context.Context) {
	if _, err := a.identity.Restore(ctx); err != nil {
		a.logger.Warn("could not restore session", "server", a.api.BaseURL(), "err", err)
	}
	a.guard.Mount()
}

func (a *cliApp) stop() {
	a.guard.Unmount()
}

// enter moves to path through the guard. Gated paths fail without a
// session; guest-only paths fail with one.
func (a *cliApp) enter(path string) (navigation.Decision, error) {
	d := a.guard.Visit(path)
	if d.Allowed {
		return d, nil
	}

	a.logger.Debug("redirected", "from", d.Path, "to", d.RedirectTo)
	if d.RedirectTo == navigation.LoginPath {
		return d, errNotSignedIn
	}
	return d, errAlreadySignedIn
}

// enterTask enters a ":id" route for id.
func (a *cliApp) enterTask(pattern, id string) error {
	path, err := navigation.Build(pattern, navigation.Params{"id": id})
	if err != nil {
		return err
	}
	_, err = a.enter(path)
	return err
}

func (a *cliApp) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *cliApp) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
