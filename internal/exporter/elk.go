// Package exporter ships observations to Elasticsearch in bulk. Export is
// buffered; a background loop flushes on a timer and on shutdown.
package exporter

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"lurefield/internal/config"
)

// ELKExporter buffers observation maps and bulk-indexes them.
type ELKExporter struct {
	cfg    config.ELKConfiguration
	client *http.Client

	mu     sync.Mutex
	buffer []map[string]interface{}

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewELKExporter creates the exporter and starts its flush loop.
func NewELKExporter(cfg config.ELKConfiguration) (*ELKExporter, error) {
	if !cfg.Enabled || len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("ELK exporter is disabled")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5
	}

	e := &ELKExporter{
		cfg: cfg,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.SkipVerify},
			},
			Timeout: 10 * time.Second,
		},
		buffer: make([]map[string]interface{}, 0, cfg.BatchSize),
		stop:   make(chan struct{}),
	}

	e.wg.Add(1)
	go e.flushLoop()
	return e, nil
}

// Export queues one event; a full buffer flushes immediately.
func (e *ELKExporter) Export(event map[string]interface{}) error {
	if _, ok := event["@timestamp"]; !ok {
		event["@timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}

	e.mu.Lock()
	e.buffer = append(e.buffer, event)
	var batch []map[string]interface{}
	if len(e.buffer) >= e.cfg.BatchSize {
		batch = e.takeLocked()
	}
	e.mu.Unlock()

	if batch != nil {
		return e.send(batch)
	}
	return nil
}

// Flush sends everything buffered so far.
func (e *ELKExporter) Flush() error {
	e.mu.Lock()
	batch := e.takeLocked()
	e.mu.Unlock()

	if batch == nil {
		return nil
	}
	return e.send(batch)
}

func (e *ELKExporter) takeLocked() []map[string]interface{} {
	if len(e.buffer) == 0 {
		return nil
	}
	batch := e.buffer
	e.buffer = make([]map[string]interface{}, 0, e.cfg.BatchSize)
	return batch
}

// send posts one _bulk request, trying each address until one accepts. A
// failed batch goes back on the buffer.
func (e *ELKExporter) send(batch []map[string]interface{}) error {
	body := bulkBody(e.cfg.Index, batch)

	var lastErr error
	for _, addr := range e.cfg.Addresses {
		req, err := http.NewRequest(http.MethodPost, addr+"/_bulk", bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/x-ndjson")
		if e.cfg.Username != "" {
			req.SetBasicAuth(e.cfg.Username, e.cfg.Password)
		}

		resp, err := e.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("elasticsearch status %d from %s", resp.StatusCode, addr)
	}

	e.mu.Lock()
	e.buffer = append(batch, e.buffer...)
	e.mu.Unlock()
	return fmt.Errorf("bulk index failed: %w", lastErr)
}

// bulkBody renders the newline-delimited action/document pairs.
func bulkBody(index string, batch []map[string]interface{}) []byte {
	var buf bytes.Buffer
	for _, doc := range batch {
		action, _ := json.Marshal(map[string]interface{}{
			"index": map[string]interface{}{"_index": index},
		})
		buf.Write(action)
		buf.WriteByte('\n')

		docJSON, _ := json.Marshal(doc)
		buf.Write(docJSON)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (e *ELKExporter) flushLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Duration(e.cfg.FlushInterval) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			_ = e.Flush()
			return
		case <-ticker.C:
			_ = e.Flush()
		}
	}
}

// Close flushes the remaining buffer and stops the loop.
func (e *ELKExporter) Close() error {
	e.stopOnce.Do(func() { close(e.stop) })
	e.wg.Wait()
	return nil
}
