package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"sync"
)

// Capture collects JSON log records in memory so tests can assert on what
// was logged. It is safe for concurrent use.
type Capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewCapture returns a Capture and a JSON logger writing into it at level.
func NewCapture(level slog.Level) (*Capture, *slog.Logger) {
	c := &Capture{}
	return c, slog.New(slog.NewJSONHandler(c, &slog.HandlerOptions{Level: level}))
}

// Write implements io.Writer.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// String returns everything logged so far.
func (c *Capture) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}

// Records decodes one record per logged line.
func (c *Capture) Records() ([]map[string]any, error) {
	var records []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader([]byte(c.String())))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, scanner.Err()
}

// Find returns the first record whose message is msg.
func (c *Capture) Find(msg string) (map[string]any, bool) {
	records, err := c.Records()
	if err != nil {
		return nil, false
	}
	for _, r := range records {
		if r[slog.MessageKey] == msg {
			return r, true
		}
	}
	return nil, false
}
