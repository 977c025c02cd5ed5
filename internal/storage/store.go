// Package storage persists simulation runs as per-run directories
// holding a metadata.json and a results.csv time series.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/partsim/internal/engine"
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
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Metrics   map[string]float64 `json:"metrics"`
}

var resultHeader = []string{"time", "max_stress", "max_temperature", "total_power", "reliability"}

// Save writes one run directory named <preset>_<unix> and returns the
// run id.
func (s *Store) Save(preset string, dt float64, duration float64, seed int64, metricValues map[string]float64, results []*engine.CoupledResults) (string, error) {
	runID := fmt.Sprintf("%s_%d", preset, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Preset:    preset,
		Timestamp: time.Now(),
		Seed:      seed,
		Dt:        dt,
		Duration:  duration,
		Steps:     len(results),
		Metrics:   metricValues,
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

	csvFile, err := os.Create(filepath.Join(runDir, "results.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(resultHeader); err != nil {
		return "", err
	}
	for _, r := range results {
		row := []string{
			strconv.FormatFloat(r.Timestamp, 'f', 6, 64),
			strconv.FormatFloat(r.MaxStress(), 'f', 6, 64),
			strconv.FormatFloat(r.MaxTemperature(), 'f', 6, 64),
			strconv.FormatFloat(r.TotalPower(), 'f', 6, 64),
			strconv.FormatFloat(r.Reliability(), 'f', 6, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}

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

// LoadSeries reads the results.csv time series back: one row per step,
// columns after the first are the numeric series in header order.
func (s *Store) LoadSeries(runID string) ([]float64, [][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "results.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, [][]float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	series := make([][]float64, 0, len(records)-1)

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		row := make([]float64, 0, len(record)-1)
		for _, field := range record[1:] {
			val, err := strconv.ParseFloat(field, 64)
			if err != nil {
				continue
			}
			row = append(row, val)
		}
		series = append(series, row)
	}

	return times, series, nil
}
