package dashboard

import (
	"fmt"
	"strings"
	"time"
)

// formatFeedLine stamps and colors one feed line for the log list.
func formatFeedLine(msg string) string {
	color := "green"
	switch {
	case strings.Contains(msg, "Injection"), strings.Contains(msg, "Attack pattern"),
		strings.Contains(msg, "NTLM"):
		color = "red"
	case strings.Contains(msg, "Login attempt"), strings.Contains(msg, "Password attempt"),
		strings.Contains(msg, "Suspicious"):
		color = "yellow"
	case strings.Contains(msg, "Command received"), strings.Contains(msg, "Query from"):
		color = "magenta"
	}
	return fmt.Sprintf("[%s] [%s](fg:%s)", time.Now().Format("15:04:05"), msg, color)
}
