package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"lurefield/internal/config"
	"lurefield/internal/metrics"
)

// Emitter accepts observations. Impersonators depend on this interface so
// tests can substitute a recorder.
type Emitter interface {
	Emit(o *Observation)
}

// Exporter ships observation maps to an external store.
type Exporter interface {
	Export(event map[string]interface{}) error
}

// Sink is the process-wide capture log. Every observation goes to stdout,
// to the per-run log file, and optionally to the dashboard feed, the
// exporter, and the metrics counters. Emission is serialized by logrus.
type Sink struct {
	log       *logrus.Logger
	file      *os.File
	dashboard chan<- string
	exporter  Exporter
	metrics   *metrics.Metrics
}

// New creates a sink writing to stdout.
func New() *Sink {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&consoleFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return &Sink{log: log}
}

// OpenLogFile attaches the per-run log file, named after the startup
// timestamp. On failure the sink keeps running stdout-only and says so once.
func (s *Sink) OpenLogFile() {
	if err := os.MkdirAll(config.LogDir, 0o755); err != nil {
		s.log.Warnf("could not create log directory: %v", err)
		return
	}
	name := filepath.Join(config.LogDir,
		fmt.Sprintf("honeypot_logs_%s.log", time.Now().Format("2006-01-02_15-04-05")))
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.log.Warnf("could not open log file: %v", err)
		return
	}
	s.file = f
	s.log.AddHook(&fileHook{f: f})
}

// AttachDashboard routes a one-line rendering of each observation to the
// dashboard feed. Sends never block; a full feed drops the line.
func (s *Sink) AttachDashboard(ch chan<- string) {
	s.dashboard = ch
}

// AttachExporter routes every observation to an external exporter.
func (s *Sink) AttachExporter(e Exporter) {
	s.exporter = e
}

// AttachMetrics counts observations by service and severity.
func (s *Sink) AttachMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Emit records one observation on every attached output.
func (s *Sink) Emit(o *Observation) {
	if o.Timestamp == "" {
		o.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	if s.metrics != nil {
		s.metrics.IncObservations(o.Service, string(o.Severity))
		if o.credential {
			s.metrics.IncCredentials(o.Service)
		}
	}

	entry := s.log.WithFields(logrus.Fields(o.Attrs))
	switch o.Severity {
	case SeverityDebug:
		entry.Debug(o.Message)
	case SeverityWarning:
		entry.Warn(o.Message)
	case SeverityError:
		entry.Error(o.Message)
	default:
		entry.Info(o.Message)
	}

	if s.dashboard != nil {
		select {
		case s.dashboard <- fmt.Sprintf("[%s] %s", o.Service, o.Message):
		default:
		}
	}

	if s.exporter != nil {
		if err := s.exporter.Export(o.ToMap()); err != nil {
			s.log.Debugf("export failed: %v", err)
		}
	}
}

// Info emits a plain INFO observation.
func (s *Sink) Info(service, message string) {
	s.Emit(NewObservation(service, message))
}

// Error emits a plain ERROR observation.
func (s *Sink) Error(service, message string) {
	s.Emit(NewObservation(service, message).WithSeverity(SeverityError))
}

// Debug emits a plain DEBUG observation.
func (s *Sink) Debug(service, message string) {
	s.Emit(NewObservation(service, message).WithSeverity(SeverityDebug))
}

// Close releases the log file, if any.
func (s *Sink) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// consoleFormatter renders `HH:MM:SS - message`.
type consoleFormatter struct{}

func (f *consoleFormatter) Format(e *logrus.Entry) ([]byte, error) {
	return []byte(e.Time.Format("15:04:05") + " - " + e.Message + "\n"), nil
}

// fileHook mirrors every entry into the log file with a full date stamp.
// Hooks fire under the logger's mutex, so lines stay totally ordered.
type fileHook struct {
	f *os.File
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(e *logrus.Entry) error {
	_, err := fmt.Fprintf(h.f, "%s - %s\n", e.Time.Format("2006-01-02 15:04:05"), e.Message)
	return err
}
