// Package svc integrates the daemon with the host service manager
// (systemd, launchd, SCM) via kardianos/service.
package svc

import (
	"context"
	"fmt"
	"slices"

	"github.com/kardianos/service"
)

// Actions accepted by Control.
var Actions = []string{"install", "uninstall", "start", "stop", "restart"}

// program adapts a context-driven run function to the service lifecycle.
type program struct {
	run    func(ctx context.Context) error
	cancel context.CancelFunc
	done   chan error
}

// Start implements service.Interface. Must not block.
func (p *program) Start(_ service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan error, 1)

	go func() {
		p.done <- p.run(ctx)
	}()
	return nil
}

// Stop implements service.Interface.
func (p *program) Stop(_ service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		return <-p.done
	}
	return nil
}

// New wraps the daemon run function as a managed service. configPath is
// passed through to the service invocation when non-empty.
func New(run func(ctx context.Context) error, configPath string) (service.Service, error) {
	args := []string{"service", "run"}
	if configPath != "" {
		args = append(args, "--config", configPath)
	}

	svcConfig := &service.Config{
		Name:        "fancyjob",
		DisplayName: "fancyjob daemon",
		Description: "Increments a stored counter, pushes it to git, and self-schedules random daily runs.",
		Arguments:   args,
	}

	s, err := service.New(&program{run: run}, svcConfig)
	if err != nil {
		return nil, fmt.Errorf("svc: creating service: %w", err)
	}
	return s, nil
}

// Control applies a management action (install, uninstall, start, stop,
// restart) to the fancyjob service.
func Control(action, configPath string) error {
	if !slices.Contains(Actions, action) {
		return fmt.Errorf("svc: unknown action %q (valid: %v)", action, Actions)
	}

	s, err := New(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}, configPath)
	if err != nil {
		return err
	}

	if err := service.Control(s, action); err != nil {
		return fmt.Errorf("svc: %s: %w", action, err)
	}
	return nil
}

// Run hands control to the service manager: it blocks executing the run
// function until the manager requests a stop.
func Run(run func(ctx context.Context) error, configPath string) error {
	s, err := New(run, configPath)
	if err != nil {
		return err
	}
	if err := s.Run(); err != nil {
		return fmt.Errorf("svc: run: %w", err)
	}
	return nil
}
