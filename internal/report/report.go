// Package report collects check-run diagnostics and writes them as a
// JSON report next to the checked files.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Signal is an advisory or critical diagnostic raised during a run,
// e.g. an anchor collision or a parse failure.
type Signal struct {
	Code     string  `json:"code"`
	Stage    string  `json:"stage"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
	Value    float64 `json:"value,omitempty"`
}

type StageMetric struct {
	Name       string             `json:"name"`
	Status     string             `json:"status"`
	StartedAt  string             `json:"started_at"`
	FinishedAt string             `json:"finished_at"`
	DurationMS int64              `json:"duration_ms"`
	Counters   map[string]float64 `json:"counters,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// FileMetric summarizes one checked file.
type FileMetric struct {
	Path       string `json:"path"`
	Sections   int    `json:"sections"`
	Blocks     int    `json:"blocks"`
	Collisions int    `json:"collisions"`
	ParseError string `json:"parse_error,omitempty"`
}

type Summary struct {
	FileCount         int            `json:"file_count"`
	FailedFiles       int            `json:"failed_files"`
	CollisionCount    int            `json:"collision_count"`
	SignalsBySeverity map[string]int `json:"signals_by_severity"`
}

type Report struct {
	Version     string        `json:"version"`
	Mode        string        `json:"mode"`
	GeneratedAt string        `json:"generated_at"`
	Files       []FileMetric  `json:"files"`
	Stages      []StageMetric `json:"stages"`
	Signals     []Signal      `json:"signals,omitempty"`
	Summary     Summary       `json:"summary"`
}

type StageHandle struct {
	name    string
	started time.Time
}

func New(mode string) *Report {
	return &Report{
		Version:     "v1",
		Mode:        mode,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Files:       []FileMetric{},
		Stages:      []StageMetric{},
	}
}

func (r *Report) BeginStage(name string) StageHandle {
	return StageHandle{name: strings.TrimSpace(name), started: time.Now().UTC()}
}

func (r *Report) EndStage(h StageHandle, status string, counters map[string]float64, err error) {
	if r == nil || h.name == "" {
		return
	}
	if status == "" {
		status = "ok"
	}
	finished := time.Now().UTC()
	m := StageMetric{
		Name:       h.name,
		Status:     status,
		StartedAt:  h.started.Format(time.RFC3339Nano),
		FinishedAt: finished.Format(time.RFC3339Nano),
		DurationMS: finished.Sub(h.started).Milliseconds(),
		Counters:   counters,
	}
	if err != nil {
		m.Error = err.Error()
		if status == "ok" {
			m.Status = "error"
		}
	}
	r.Stages = append(r.Stages, m)
}

func (r *Report) AddSignal(code, stage, severity, message string, value float64) {
	if r == nil {
		return
	}
	s := Signal{
		Code:     strings.TrimSpace(code),
		Stage:    strings.TrimSpace(stage),
		Severity: strings.ToLower(strings.TrimSpace(severity)),
		Message:  strings.TrimSpace(message),
		Value:    value,
	}
	if s.Code == "" || s.Stage == "" || s.Severity == "" || s.Message == "" {
		return
	}
	r.Signals = append(r.Signals, s)
}

func (r *Report) AddFileMetric(m FileMetric) {
	if r == nil || strings.TrimSpace(m.Path) == "" {
		return
	}
	r.Files = append(r.Files, m)
}

// Finalize recomputes the summary from accumulated metrics.
func (r *Report) Finalize() {
	sum := Summary{SignalsBySeverity: map[string]int{}}
	for _, f := range r.Files {
		sum.FileCount++
		if f.ParseError != "" {
			sum.FailedFiles++
		}
		sum.CollisionCount += f.Collisions
	}
	for _, s := range r.Signals {
		sum.SignalsBySeverity[s.Severity]++
	}
	r.Summary = sum
}

// Save finalizes the report and writes it as indented JSON.
func (r *Report) Save(path string) error {
	r.Finalize()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0644)
}
