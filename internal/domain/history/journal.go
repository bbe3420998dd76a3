// Package history keeps an append-only journal of installer runs. The journal
// is for diagnostics only: whether a step is applied is always decided by
// inspecting the system, never by reading the journal.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/crostini-setup/internal/domain/sequencer"
	"github.com/felixgeelhaar/crostini-setup/internal/ports"
)

// DefaultMaxRecords bounds how many runs the journal keeps.
const DefaultMaxRecords = 100

// StepRecord is the journaled result of one step.
type StepRecord struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// Record is one journaled run.
type Record struct {
	RunID      string       `json:"run_id"`
	Phase      string       `json:"phase"`
	Outcome    string       `json:"outcome"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Steps      []StepRecord `json:"steps,omitempty"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// FromReport converts a sequencer report into a journal record.
func FromReport(runID string, started, finished time.Time, report *sequencer.Report) Record {
	rec := Record{
		RunID:      runID,
		Outcome:    string(report.Outcome),
		StartedAt:  started.UTC(),
		FinishedAt: finished.UTC(),
	}
	if report.Plan != nil {
		rec.Phase = report.Plan.Phase().String()
	}
	for _, res := range report.Results {
		sr := StepRecord{
			Name:       res.Name,
			Status:     string(res.Status),
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			sr.Error = res.Err.Error()
		}
		rec.Steps = append(rec.Steps, sr)
	}
	return rec
}

// Journal stores records as JSON lines in one file.
type Journal struct {
	fs         ports.FileSystem
	path       string
	maxRecords int
}

// Option configures a Journal.
type Option func(*Journal)

// WithMaxRecords bounds the journal length; older records are dropped first.
func WithMaxRecords(n int) Option {
	return func(j *Journal) {
		j.maxRecords = n
	}
}

// New creates a journal at path.
func New(fs ports.FileSystem, path string, opts ...Option) *Journal {
	j := &Journal{fs: fs, path: path, maxRecords: DefaultMaxRecords}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Path returns the journal file location.
func (j *Journal) Path() string {
	return j.path
}

// Records returns every readable record, oldest first. Lines that fail to
// decode are skipped. A missing journal has no records.
func (j *Journal) Records() ([]Record, error) {
	data, err := j.fs.ReadFile(j.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var records []Record
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return records, nil
}

// Append adds a record and trims the journal to its maximum length.
func (j *Journal) Append(rec Record) error {
	records, err := j.Records()
	if err != nil {
		return err
	}
	records = append(records, rec)
	if j.maxRecords > 0 && len(records) > j.maxRecords {
		records = records[len(records)-j.maxRecords:]
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode history: %w", err)
		}
	}

	if err := j.fs.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	if err := j.fs.WriteFile(j.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// Last returns the most recent record.
func (j *Journal) Last() (Record, bool, error) {
	records, err := j.Records()
	if err != nil || len(records) == 0 {
		return Record{}, false, err
	}
	return records[len(records)-1], true, nil
}

// LastFailures returns the steps that failed in the most recent run.
func (j *Journal) LastFailures() ([]StepRecord, error) {
	last, ok, err := j.Last()
	if err != nil || !ok {
		return nil, err
	}
	var failed []StepRecord
	for _, s := range last.Steps {
		if s.Status == string(sequencer.StatusFailed) {
			failed = append(failed, s)
		}
	}
	return failed, nil
}

// SuspectPartial returns the names of steps that failed last run but are
// now detected as applied. Such a step may have been only partly applied.
func SuspectPartial(failures []StepRecord, survey []sequencer.Entry) []string {
	done := make(map[string]bool, len(survey))
	for _, e := range survey {
		if e.Done {
			done[e.Step.Name] = true
		}
	}
	var out []string
	for _, f := range failures {
		if done[f.Name] {
			out = append(out, f.Name)
		}
	}
	return out
}
