// Package dashboard renders a live terminal view of the capture feed.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
)

// Dashboard manages the TUI. It consumes the one-line feed the log sink
// publishes and keeps simple counters for the stat boxes.
type Dashboard struct {
	services  map[string]int
	startTime time.Time
	feed      <-chan string

	statsMutex  sync.RWMutex
	connections uint64
	credentials uint64
	commands    uint64
	warnings    uint64
}

// New creates a dashboard over the observation feed. services maps service
// tags to their listen ports for the status box.
func New(services map[string]int, feed <-chan string) *Dashboard {
	return &Dashboard{
		services:  services,
		startTime: time.Now(),
		feed:      feed,
	}
}

// Start initializes termui and runs the event loop until ctx is cancelled
// or the operator quits.
func (d *Dashboard) Start(ctx context.Context) error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("initialize termui: %w", err)
	}
	defer ui.Close()

	termWidth, termHeight := ui.TerminalDimensions()
	if termWidth < 90 {
		termWidth = 90
	}
	if termHeight < 24 {
		termHeight = 24
	}

	w := d.createWidgets(termWidth, termHeight)
	d.runEventLoop(ctx, w)
	return nil
}

// processFeedLine updates the counters from one feed line.
func (d *Dashboard) processFeedLine(msg string) {
	d.statsMutex.Lock()
	defer d.statsMutex.Unlock()

	switch {
	case strings.Contains(msg, "Connection from"):
		d.connections++
	case strings.Contains(msg, "Login attempt"), strings.Contains(msg, "Password attempt"):
		d.credentials++
	case strings.Contains(msg, "Command received"), strings.Contains(msg, "Query from"):
		d.commands++
	}
	if strings.Contains(msg, "Injection") || strings.Contains(msg, "Attack pattern") ||
		strings.Contains(msg, "Suspicious") {
		d.warnings++
	}
}

func (d *Dashboard) snapshot() (conns, creds, cmds, warns uint64) {
	d.statsMutex.RLock()
	defer d.statsMutex.RUnlock()
	return d.connections, d.credentials, d.commands, d.warnings
}
