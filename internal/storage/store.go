// Package storage persists closed-loop simulation runs to a data directory,
// one subdirectory per run with metadata and the full state trace.
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

	"github.com/uavlab/it2flc/internal/controller"
	"github.com/uavlab/it2flc/internal/sim"
)

var stateHeader = []string{"time", "x", "y", "z", "yaw", "vx", "vy", "vz", "yaw_rate", "u_x", "u_y", "u_z", "u_w"}

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
	ID         string             `json:"id"`
	Scenario   string             `json:"scenario"`
	Timestamp  time.Time          `json:"timestamp"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Gains      controller.GainSet `json:"gains"`
	Metrics    map[string]float64 `json:"metrics"`
}

func (s *Store) Save(scenario, integrator string, dt, duration float64, gains controller.GainSet, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%d", scenario, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Scenario:   scenario,
		Timestamp:  time.Now(),
		Dt:         dt,
		Duration:   duration,
		Integrator: integrator,
		Gains:      gains,
		Metrics:    result.Metrics,
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

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write(stateHeader); err != nil {
		return "", err
	}

	for i := range result.States {
		row := make([]string, 0, len(stateHeader))
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for _, v := range result.States[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		var cmd controller.Vec4
		if i < len(result.Commands) {
			cmd = result.Commands[i]
		}
		for _, v := range cmd {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, w.Error()
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		meta, err := s.Load(e.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
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

// LoadStates reads back a run's trace: times, vehicle states and commands.
func (s *Store) LoadStates(runID string) (times []float64, states []sim.State, cmds []controller.Vec4, err error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, nil, err
	}
	if len(rows) < 1 {
		return nil, nil, nil, fmt.Errorf("storage: empty trace for %s", runID)
	}

	for _, row := range rows[1:] {
		if len(row) != len(stateHeader) {
			return nil, nil, nil, fmt.Errorf("storage: malformed row in %s", runID)
		}
		vals := make([]float64, len(row))
		for i, cell := range row {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("storage: bad value %q in %s", cell, runID)
			}
			vals[i] = v
		}
		times = append(times, vals[0])
		states = append(states, sim.State(vals[1:1+sim.StateDim]))
		var cmd controller.Vec4
		copy(cmd[:], vals[1+sim.StateDim:])
		cmds = append(cmds, cmd)
	}
	return times, states, cmds, nil
}
