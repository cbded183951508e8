package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jwaldner/divvyarb/internal/config"
	"github.com/jwaldner/divvyarb/internal/logger"
)

// Outcomes recorded per ticker.
const (
	OutcomeCandidate = "candidate"
	OutcomeSkipped   = "skipped"
	OutcomeStage     = "stage"
)

var ErrClosed = errors.New("audit trail closed")

// Recorder receives audit entries for one scan run.
type Recorder interface {
	Record(ticker, outcome string, data interface{}) error
	Close(summary interface{}) (string, error)
}

// Action is one entry sent to the audit worker
type Action struct {
	Ticker  string      `json:"ticker,omitempty"`
	Outcome string      `json:"outcome"`
	Data    interface{} `json:"data,omitempty"`
	At      time.Time   `json:"timestamp"`
}

// Header identifies the run an audit file belongs to
type Header struct {
	RunID     string    `json:"run_id"`
	ScanDate  string    `json:"scan_date"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Fees      string    `json:"fees_per_conversion"`
	Pairing   string    `json:"pairing"`
}

// File is the complete audit file structure
type File struct {
	Header  Header      `json:"header"`
	Entries []Action    `json:"entries"`
	Summary interface{} `json:"summary,omitempty"`
}

// Trail collects entries through a channel drained by a single worker
// goroutine and writes them as one JSON file on Close.
type Trail struct {
	ch   chan Action
	done chan struct{}
	path string

	mu     sync.Mutex
	closed bool
	file   File
}

// NewTrail starts a trail whose file name comes from cfg.FilenameFormat.
func NewTrail(cfg config.AuditConfig, date time.Time, header Header) *Trail {
	if header.StartTime.IsZero() {
		header.StartTime = time.Now()
	}

	t := &Trail{
		ch:   make(chan Action, 100),
		done: make(chan struct{}),
		path: filepath.Join(cfg.Directory, config.FormatFilename(cfg.FilenameFormat, date, header.RunID)),
		file: File{Header: header, Entries: []Action{}},
	}
	go t.worker()
	return t
}

// worker owns t.file.Entries until done is closed.
func (t *Trail) worker() {
	defer close(t.done)
	for action := range t.ch {
		t.file.Entries = append(t.file.Entries, action)
		logger.Verbose.Printf("AUDIT: %s %s (total: %d)", action.Outcome, action.Ticker, len(t.file.Entries))
	}
}

// Record queues an entry. It blocks while the buffer is full.
func (t *Trail) Record(ticker, outcome string, data interface{}) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.ch <- Action{Ticker: ticker, Outcome: outcome, Data: data, At: time.Now()}
	return nil
}

// Close drains the queue and writes the audit file, returning its path.
func (t *Trail) Close(summary interface{}) (string, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return "", ErrClosed
	}
	t.closed = true
	close(t.ch)
	t.mu.Unlock()

	<-t.done

	t.file.Header.EndTime = time.Now()
	t.file.Summary = summary

	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return "", fmt.Errorf("creating audits directory: %w", err)
	}
	data, err := json.MarshalIndent(t.file, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding audit: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing audit: %w", err)
	}

	logger.Info.Printf("AUDIT: wrote %d entries to %s", len(t.file.Entries), t.path)
	return t.path, nil
}

// Nop discards everything. Used when the audit trail is disabled.
type Nop struct{}

func (Nop) Record(string, string, interface{}) error { return nil }
func (Nop) Close(interface{}) (string, error)        { return "", nil }
