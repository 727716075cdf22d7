package exporter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lurefield/internal/config"
)

type bulkCapture struct {
	mu     sync.Mutex
	bodies [][]byte
}

func (c *bulkCapture) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.bodies = append(c.bodies, body)
	c.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (c *bulkCapture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

func testConfig(addr string, batchSize int) config.ELKConfiguration {
	cfg := config.DefaultELKConfiguration(addr)
	cfg.BatchSize = batchSize
	cfg.FlushInterval = 3600 // keep the timer out of the way
	return cfg
}

func TestExportFlushesFullBatch(t *testing.T) {
	capture := &bulkCapture{}
	srv := httptest.NewServer(http.HandlerFunc(capture.handler))
	defer srv.Close()

	e, err := NewELKExporter(testConfig(srv.URL, 2))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.Export(map[string]interface{}{"message": "first"}))
	require.Equal(t, 0, capture.count(), "below batch size, nothing is sent")

	require.NoError(t, e.Export(map[string]interface{}{"message": "second"}))
	require.Equal(t, 1, capture.count())

	// Bulk body: alternating action and document lines.
	capture.mu.Lock()
	body := capture.bodies[0]
	capture.mu.Unlock()

	scanner := bufio.NewScanner(bytes.NewReader(body))
	var lines []map[string]interface{}
	for scanner.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 4)

	action, ok := lines[0]["index"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "lurefield-observations", action["_index"])
	assert.Equal(t, "first", lines[1]["message"])
	assert.NotEmpty(t, lines[1]["@timestamp"], "timestamp is stamped on export")
	assert.Equal(t, "second", lines[3]["message"])
}

func TestCloseFlushesRemainder(t *testing.T) {
	capture := &bulkCapture{}
	srv := httptest.NewServer(http.HandlerFunc(capture.handler))
	defer srv.Close()

	e, err := NewELKExporter(testConfig(srv.URL, 100))
	require.NoError(t, err)

	require.NoError(t, e.Export(map[string]interface{}{"message": "pending"}))
	require.Equal(t, 0, capture.count())

	require.NoError(t, e.Close())
	assert.Equal(t, 1, capture.count())
}

func TestFailedBatchIsRequeued(t *testing.T) {
	var healthy bool
	var mu sync.Mutex
	capture := &bulkCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ok := healthy
		mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		capture.handler(w, r)
	}))
	defer srv.Close()

	e, err := NewELKExporter(testConfig(srv.URL, 1))
	require.NoError(t, err)
	defer e.Close()

	require.Error(t, e.Export(map[string]interface{}{"message": "retry me"}))

	mu.Lock()
	healthy = true
	mu.Unlock()

	require.NoError(t, e.Flush())
	require.Eventually(t, func() bool { return capture.count() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestDisabledExporterRejected(t *testing.T) {
	_, err := NewELKExporter(config.DefaultELKConfiguration(""))
	require.Error(t, err)
}
