// Package export writes simulation results to interchange formats:
// JSON, CSV, MATLAB scripts and SVG time-series plots.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/partsim/internal/engine"
)

type ExportData struct {
	Preset   string                   `json:"preset"`
	Dt       float64                  `json:"dt"`
	Duration float64                  `json:"duration"`
	Steps    int                      `json:"steps"`
	Results  []*engine.CoupledResults `json:"results"`
	Metrics  map[string]float64       `json:"metrics"`
}

func NewExportData(preset string, dt, duration float64, results []*engine.CoupledResults, metrics map[string]float64) *ExportData {
	return &ExportData{
		Preset:   preset,
		Dt:       dt,
		Duration: duration,
		Steps:    len(results),
		Results:  results,
		Metrics:  metrics,
	}
}

func WriteJSON(w io.Writer, data *ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, data)
}

// ReadJSON parses a file written by ExportJSON.
func ReadJSON(path string) (*ExportData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

var csvHeader = []string{"time", "max_stress", "max_temperature", "total_power", "reliability"}

func WriteCSV(w io.Writer, results []*engine.CoupledResults) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			strconv.FormatFloat(r.Timestamp, 'f', 6, 64),
			strconv.FormatFloat(r.MaxStress(), 'f', 6, 64),
			strconv.FormatFloat(r.MaxTemperature(), 'f', 6, 64),
			strconv.FormatFloat(r.TotalPower(), 'f', 6, 64),
			strconv.FormatFloat(r.Reliability(), 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ExportCSV(path string, results []*engine.CoupledResults) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteCSV(file, results)
}

// WriteMATLAB emits a script defining column vectors for each series
// plus a plot of reliability over time.
func WriteMATLAB(w io.Writer, data *ExportData) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%% Simulation export: preset=%s dt=%g duration=%g\n", data.Preset, data.Dt, data.Duration))

	series := map[string]func(*engine.CoupledResults) float64{
		"t":           func(r *engine.CoupledResults) float64 { return r.Timestamp },
		"max_stress":  (*engine.CoupledResults).MaxStress,
		"max_temp":    (*engine.CoupledResults).MaxTemperature,
		"total_power": (*engine.CoupledResults).TotalPower,
		"reliability": (*engine.CoupledResults).Reliability,
	}
	for _, name := range []string{"t", "max_stress", "max_temp", "total_power", "reliability"} {
		get := series[name]
		sb.WriteString(name + " = [")
		for i, r := range data.Results {
			if i > 0 {
				sb.WriteString("; ")
			}
			sb.WriteString(strconv.FormatFloat(get(r), 'g', -1, 64))
		}
		sb.WriteString("];\n")
	}

	sb.WriteString("figure;\nplot(t, reliability);\nxlabel('time [s]');\nylabel('system reliability');\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

func ExportMATLAB(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteMATLAB(file, data)
}
