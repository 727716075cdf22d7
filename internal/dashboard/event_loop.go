package dashboard

import (
	"context"
	"fmt"
	"time"

	ui "github.com/gizak/termui/v3"
)

const maxLogRows = 1000

// runEventLoop renders until ctx is cancelled or the operator quits.
func (d *Dashboard) runEventLoop(ctx context.Context, w *dashboardWidgets) {
	ui.Render(w.header, w.logList, w.gauge, w.connsBox, w.credsBox, w.cmdsBox, w.servicesBox, w.footer)

	renderTicker := time.NewTicker(200 * time.Millisecond)
	defer renderTicker.Stop()
	statsTicker := time.NewTicker(time.Second)
	defer statsTicker.Stop()

	uiEvents := ui.PollEvents()
	paused := false
	autoScroll := true

	for {
		select {
		case <-ctx.Done():
			return

		case e := <-uiEvents:
			if e.Type != ui.KeyboardEvent {
				continue
			}
			switch e.ID {
			case "q", "<C-c>":
				return
			case " ":
				paused = !paused
			case "j", "<Down>":
				w.logList.ScrollDown()
				autoScroll = false
			case "k", "<Up>":
				w.logList.ScrollUp()
				autoScroll = false
			case "G", "<End>":
				w.logList.ScrollBottom()
				autoScroll = true
			case "a":
				autoScroll = !autoScroll
				if autoScroll {
					w.logList.ScrollBottom()
				}
			}
			ui.Render(w.logList)

		case msg := <-d.feed:
			d.processFeedLine(msg)
			if !paused {
				w.logList.Rows = append(w.logList.Rows, formatFeedLine(msg))
				if len(w.logList.Rows) > maxLogRows {
					w.logList.Rows = w.logList.Rows[len(w.logList.Rows)-maxLogRows:]
				}
				if autoScroll {
					w.logList.ScrollBottom()
				}
			}

		case <-renderTicker.C:
			ui.Render(w.logList)

		case <-statsTicker.C:
			d.updateStatistics(w)
		}
	}
}

func (d *Dashboard) updateStatistics(w *dashboardWidgets) {
	conns, creds, cmds, warns := d.snapshot()

	w.connsBox.Text = fmt.Sprintf("\n   %d", conns)
	w.credsBox.Text = fmt.Sprintf("\n   %d", creds)
	w.cmdsBox.Text = fmt.Sprintf("\n   %d", cmds)

	uptime := time.Since(d.startTime)
	w.header.Text = d.headerText(fmt.Sprintf("%02d:%02d:%02d",
		int(uptime.Hours()), int(uptime.Minutes())%60, int(uptime.Seconds())%60))

	level := int(warns * 5)
	if level > 100 {
		level = 100
	}
	w.gauge.Percent = level
	switch {
	case level < 30:
		w.gauge.BarColor = ui.ColorGreen
		w.gauge.Label = fmt.Sprintf("%d%% - LOW", level)
	case level < 70:
		w.gauge.BarColor = ui.ColorYellow
		w.gauge.Label = fmt.Sprintf("%d%% - MEDIUM", level)
	default:
		w.gauge.BarColor = ui.ColorRed
		w.gauge.Label = fmt.Sprintf("%d%% - HIGH", level)
	}

	ui.Render(w.header, w.gauge, w.connsBox, w.credsBox, w.cmdsBox)
}
