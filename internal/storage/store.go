package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/balancer/internal/config"
	"github.com/san-kum/balancer/internal/loop"
)

var ErrMalformedRow = errors.New("storage: malformed tick row")

var tickHeader = []string{"time", "pos", "vel", "angle", "omega", "raw", "command", "saturated", "skipped"}

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
	Plant      string             `json:"plant"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Policy     string             `json:"policy"`
	Unit       string             `json:"unit"`
	Params     map[string]float64 `json:"params"`
	Ticks      int                `json:"ticks"`
	Skipped    int                `json:"skipped"`
	Saturated  int                `json:"saturated"`
	Metrics    map[string]float64 `json:"metrics"`
}

// NewMetadata describes a run of cfg. Counters and metrics are filled in by
// Save.
func NewMetadata(cfg *config.Config) RunMetadata {
	params := map[string]float64{
		"gain":            cfg.Policy.Gain,
		"bound":           cfg.Policy.Bound,
		"target_angle":    cfg.Policy.TargetAngle,
		"target_position": cfg.Policy.TargetPosition,
		"deadband":        cfg.Policy.Deadband,
	}
	for k, v := range cfg.PlantParams {
		params[k] = v
	}
	return RunMetadata{
		Plant:      cfg.Plant,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
		Policy:     cfg.Policy.Kind,
		Unit:       cfg.Calibration.Unit,
		Params:     params,
	}
}

// Tick is one row of ticks.csv. Skipped ticks carry only Time.
type Tick struct {
	Time      float64 `json:"t"`
	Pos       float64 `json:"pos"`
	Vel       float64 `json:"vel"`
	Angle     float64 `json:"angle"`
	Omega     float64 `json:"omega"`
	Raw       float64 `json:"raw"`
	Command   float64 `json:"command"`
	Saturated bool    `json:"saturated"`
	Skipped   bool    `json:"skipped"`
}

func TicksFromRecords(records []loop.Record) []Tick {
	ticks := make([]Tick, len(records))
	for i, rec := range records {
		d := rec.Decision
		ticks[i] = Tick{
			Time:      rec.Time,
			Pos:       d.State.ActuatorPos,
			Vel:       d.State.ActuatorVel,
			Angle:     d.State.PendulumAngle,
			Omega:     d.State.PendulumAngularVel,
			Raw:       d.Raw,
			Command:   d.Command,
			Saturated: d.Saturated,
			Skipped:   rec.Skipped,
		}
	}
	return ticks
}

// Save writes metadata.json and ticks.csv into a new run directory and
// returns the run ID.
func (s *Store) Save(meta RunMetadata, result *loop.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s_%d", meta.Plant, meta.Policy, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Ticks = result.Ticks
	meta.Skipped = result.Skipped
	meta.Saturated = result.Saturated
	meta.Metrics = result.Metrics

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeTicks(filepath.Join(runDir, "ticks.csv"), TicksFromRecords(result.Records)); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTicks(path string, ticks []Tick) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(tickHeader); err != nil {
		return err
	}
	for _, tk := range ticks {
		row := []string{
			formatFloat(tk.Time),
			formatFloat(tk.Pos),
			formatFloat(tk.Vel),
			formatFloat(tk.Angle),
			formatFloat(tk.Omega),
			formatFloat(tk.Raw),
			formatFloat(tk.Command),
			strconv.FormatBool(tk.Saturated),
			strconv.FormatBool(tk.Skipped),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, oldest first.
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

func (s *Store) LoadTicks(runID string) ([]Tick, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "ticks.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(tickHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Tick{}, nil
	}

	ticks := make([]Tick, 0, len(records)-1)
	for i, record := range records[1:] {
		tk, err := parseTick(record)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		ticks = append(ticks, tk)
	}
	return ticks, nil
}

func parseTick(record []string) (Tick, error) {
	var vals [7]float64
	for i := range vals {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return Tick{}, fmt.Errorf("%w: %s: %v", ErrMalformedRow, tickHeader[i], err)
		}
		vals[i] = v
	}
	saturated, err := strconv.ParseBool(record[7])
	if err != nil {
		return Tick{}, fmt.Errorf("%w: saturated: %v", ErrMalformedRow, err)
	}
	skipped, err := strconv.ParseBool(record[8])
	if err != nil {
		return Tick{}, fmt.Errorf("%w: skipped: %v", ErrMalformedRow, err)
	}
	return Tick{
		Time:      vals[0],
		Pos:       vals[1],
		Vel:       vals[2],
		Angle:     vals[3],
		Omega:     vals[4],
		Raw:       vals[5],
		Command:   vals[6],
		Saturated: saturated,
		Skipped:   skipped,
	}, nil
}
