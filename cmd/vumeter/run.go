package main

import (
	"context"
	"log"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/tphakala/go-vumeter/internal/capture"
	"github.com/tphakala/go-vumeter/internal/config"
	"github.com/tphakala/go-vumeter/internal/tui"
)

func newRunCmd(opts *appOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Show the meter (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMeter(cmd, opts)
		},
	}
}

func runMeter(cmd *cobra.Command, opts *appOptions) error {
	closeLog, err := setupLogging(opts.debug)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}
	log.Printf("Config: %s", opts.configPath)
	log.Printf("Backend: %s", backend.Name())

	// A failed Start is returned to the caller. Only errors from a running
	// stream are forwarded to the UI, once the program is published here.
	var program atomic.Pointer[tea.Program]

	sc := cfg.SessionConfig()
	sc.OnError = func(err error) {
		log.Printf("Stream error: %v", err)
		if p := program.Load(); p != nil {
			// Send blocks until the event loop reads it.
			go p.Send(tui.ErrorMsg{Err: err})
		}
	}
	sc.OnDeviceChanged = func(id string) {
		log.Printf("Device changed: %s", id)
	}

	session, err := capture.NewSession(backend, config.NewFileStore(opts.configPath), sc)
	if err != nil {
		return err
	}

	// Reference changes made by `vumeter reference` in another terminal
	// apply immediately.
	watcher, err := config.NewWatcher(opts.configPath, func() {
		if err := session.ReloadReferenceLevels(); err != nil {
			log.Printf("Config reload: %v", err)
		}
	}, func(err error) {
		log.Printf("Config watcher: %v", err)
	})
	if err != nil {
		log.Printf("Not watching %s: %v", opts.configPath, err)
	} else {
		defer func() { _ = watcher.Close() }()
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := session.Start(ctx); err != nil {
		return err
	}
	defer session.Stop()
	log.Printf("Started on %s (%s)", session.DeviceID(), session.DeviceType())

	model := tui.NewModel(session, cfg.ScaleTable())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)

	_, err = p.Run()
	return err
}
