package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/robot"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Course    string             `json:"course"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Gains     control.Gains      `json:"gains"`
	Limits    control.Limits     `json:"limits"`
	Cycles    int                `json:"cycles"`
	Reason    string             `json:"reason"`
	Metrics   map[string]float64 `json:"metrics"`
}

var csvHeader = []string{"cycle", "s0", "s1", "s2", "s3", "s4", "position", "detected", "p", "i", "d", "control", "left", "right"}

// Save writes metadata.json and cycles.csv under a new run directory and
// returns the run id.
func (s *Store) Save(meta RunMetadata, trace []loop.Cycle) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Course, uuid.NewString()[:8])
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "cycles.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, c := range trace {
		row := []string{strconv.Itoa(c.Index)}
		for _, v := range c.Reading {
			row = append(row, strconv.Itoa(v))
		}
		row = append(row,
			strconv.FormatFloat(c.Position, 'f', 6, 64),
			strconv.FormatBool(c.Detected),
			strconv.FormatFloat(c.Terms.Proportional, 'f', 6, 64),
			strconv.FormatFloat(c.Terms.Integral, 'f', 6, 64),
			strconv.FormatFloat(c.Terms.Derivative, 'f', 6, 64),
			strconv.FormatFloat(c.Terms.Output, 'f', 6, 64),
			strconv.FormatFloat(c.Command.Left, 'f', 6, 64),
			strconv.FormatFloat(c.Command.Right, 'f', 6, 64),
		)
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns stored runs, oldest first. Unreadable entries are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadCycles reads the trace back. Malformed rows are skipped.
func (s *Store) LoadCycles(runID string) ([]loop.Cycle, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "cycles.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []loop.Cycle{}, nil
	}

	cycles := make([]loop.Cycle, 0, len(records)-1)
	for _, rec := range records[1:] {
		c, err := parseRow(rec)
		if err != nil {
			continue
		}
		cycles = append(cycles, c)
	}
	return cycles, nil
}

func parseRow(rec []string) (loop.Cycle, error) {
	var c loop.Cycle
	if len(rec) != len(csvHeader) {
		return c, fmt.Errorf("expected %d fields, got %d", len(csvHeader), len(rec))
	}

	var err error
	if c.Index, err = strconv.Atoi(rec[0]); err != nil {
		return c, err
	}
	for i := 0; i < robot.NumSensors; i++ {
		if c.Reading[i], err = strconv.Atoi(rec[1+i]); err != nil {
			return c, err
		}
	}
	floats := []*float64{
		&c.Position, nil,
		&c.Terms.Proportional, &c.Terms.Integral, &c.Terms.Derivative, &c.Terms.Output,
		&c.Command.Left, &c.Command.Right,
	}
	for i, dst := range floats {
		field := rec[1+robot.NumSensors+i]
		if dst == nil {
			if c.Detected, err = strconv.ParseBool(field); err != nil {
				return c, err
			}
			continue
		}
		if *dst, err = strconv.ParseFloat(field, 64); err != nil {
			return c, err
		}
	}
	return c, nil
}
