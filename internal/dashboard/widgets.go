package dashboard

import (
	"fmt"
	"sort"
	"strings"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// dashboardWidgets holds the UI layout.
type dashboardWidgets struct {
	header      *widgets.Paragraph
	logList     *widgets.List
	gauge       *widgets.Gauge
	connsBox    *widgets.Paragraph
	credsBox    *widgets.Paragraph
	cmdsBox     *widgets.Paragraph
	servicesBox *widgets.Paragraph
	footer      *widgets.Paragraph
}

func (d *Dashboard) createWidgets(termWidth, termHeight int) *dashboardWidgets {
	w := &dashboardWidgets{}

	w.header = widgets.NewParagraph()
	w.header.Title = " LUREFIELD - MULTI-SERVICE HONEYPOT "
	w.header.Text = d.headerText("00:00:00")
	w.header.SetRect(0, 0, termWidth, 3)
	w.header.TextStyle.Fg = ui.ColorCyan
	w.header.BorderStyle.Fg = ui.ColorCyan

	logPanelWidth := termWidth * 60 / 100
	if logPanelWidth < 50 {
		logPanelWidth = 50
	}
	rightStart := logPanelWidth

	w.logList = widgets.NewList()
	w.logList.Title = " CAPTURE FEED (j/k: scroll, a: auto-scroll, q: quit) "
	w.logList.Rows = []string{"[SYSTEM] Dashboard ready. Waiting for connections..."}
	w.logList.SetRect(0, 3, logPanelWidth, termHeight-3)
	w.logList.TextStyle.Fg = ui.ColorGreen
	w.logList.SelectedRowStyle.Fg = ui.ColorWhite
	w.logList.SelectedRowStyle.Bg = ui.ColorBlue
	w.logList.BorderStyle.Fg = ui.ColorGreen

	w.gauge = widgets.NewGauge()
	w.gauge.Title = " THREAT LEVEL "
	w.gauge.Percent = 0
	w.gauge.Label = "0%"
	w.gauge.SetRect(rightStart, 3, termWidth, 6)
	w.gauge.BarColor = ui.ColorGreen
	w.gauge.BorderStyle.Fg = ui.ColorYellow

	boxHeight := 4
	w.connsBox = widgets.NewParagraph()
	w.connsBox.Title = " CONNECTIONS "
	w.connsBox.Text = "\n   0"
	w.connsBox.SetRect(rightStart, 6, termWidth, 6+boxHeight)
	w.connsBox.TextStyle.Fg = ui.ColorYellow
	w.connsBox.BorderStyle.Fg = ui.ColorYellow

	w.credsBox = widgets.NewParagraph()
	w.credsBox.Title = " CREDENTIALS CAPTURED "
	w.credsBox.Text = "\n   0"
	w.credsBox.SetRect(rightStart, 6+boxHeight, termWidth, 6+boxHeight*2)
	w.credsBox.TextStyle.Fg = ui.ColorRed
	w.credsBox.BorderStyle.Fg = ui.ColorRed

	w.cmdsBox = widgets.NewParagraph()
	w.cmdsBox.Title = " COMMANDS & QUERIES "
	w.cmdsBox.Text = "\n   0"
	w.cmdsBox.SetRect(rightStart, 6+boxHeight*2, termWidth, 6+boxHeight*3)
	w.cmdsBox.TextStyle.Fg = ui.ColorMagenta
	w.cmdsBox.BorderStyle.Fg = ui.ColorMagenta

	w.servicesBox = widgets.NewParagraph()
	w.servicesBox.Title = " SERVICES "
	w.servicesBox.Text = d.servicesText()
	w.servicesBox.SetRect(rightStart, 6+boxHeight*3, termWidth, termHeight-3)
	w.servicesBox.BorderStyle.Fg = ui.ColorBlue

	w.footer = widgets.NewParagraph()
	w.footer.Title = " CONTROLS "
	w.footer.Text = "Press [q](fg:yellow) or [Ctrl+C](fg:yellow) to exit | [SPACE](fg:yellow) to pause logs"
	w.footer.SetRect(0, termHeight-3, termWidth, termHeight)
	w.footer.BorderStyle.Fg = ui.ColorWhite

	return w
}

func (d *Dashboard) headerText(uptime string) string {
	return fmt.Sprintf("STATUS: [ACTIVE](fg:green,mod:bold) | SERVICES: [%d](fg:yellow) | UPTIME: [%s](fg:cyan)",
		len(d.services), uptime)
}

func (d *Dashboard) servicesText() string {
	names := make([]string, 0, len(d.services))
	for name := range d.services {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("\n")
	for _, name := range names {
		fmt.Fprintf(&b, " %s: [LISTENING](fg:green) on port %d\n", name, d.services[name])
	}
	return b.String()
}
