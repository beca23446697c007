package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/stringsim/internal/config"
	"github.com/san-kum/stringsim/internal/render"
)

const (
	metadataFile = "metadata.json"
	signalFile   = "signal.csv"
	wavFile      = "signal.wav"
)

// ErrRunNotFound indicates no stored run has the requested id.
var ErrRunNotFound = errors.New("storage: run not found")

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
	ID             string             `json:"id"`
	Preset         string             `json:"preset,omitempty"`
	Timestamp      time.Time          `json:"timestamp"`
	SampleRate     float64            `json:"sample_rate"`
	Duration       float64            `json:"duration"`
	Nodes          int                `json:"nodes"`
	SpringConstant float64            `json:"spring_constant"`
	Mass           float64            `json:"mass"`
	Shape          string             `json:"shape"`
	Position       float64            `json:"position"`
	Strength       float64            `json:"strength"`
	Every          float64            `json:"every,omitempty"`
	Level          float64            `json:"level"`
	Plucks         int                `json:"plucks"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Dir returns the directory holding run id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// WAVPath returns the path of the rendered audio of run id.
func (s *Store) WAVPath(id string) string {
	return filepath.Join(s.Dir(id), wavFile)
}

func (s *Store) newRunDir(prefix string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", prefix, time.Now().Unix())
	id := base
	for i := 1; ; i++ {
		dir := s.Dir(id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", err
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

// Save writes metadata, the signal as CSV and the signal as WAV.
func (s *Store) Save(cfg *config.Config, result *render.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}
	prefix := cfg.Name
	if prefix == "" {
		prefix = "string"
	}
	runID, runDir, err := s.newRunDir(prefix)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:             runID,
		Preset:         cfg.Name,
		Timestamp:      time.Now(),
		SampleRate:     result.SampleRate,
		Duration:       result.Duration(),
		Nodes:          cfg.String.Nodes,
		SpringConstant: cfg.String.SpringConstant,
		Mass:           cfg.String.Mass,
		Shape:          cfg.String.Shape,
		Position:       cfg.Pluck.Position,
		Strength:       cfg.Pluck.Strength,
		Every:          cfg.Pluck.Every,
		Level:          cfg.Level,
		Plucks:         result.Plucks,
		Metrics:        result.Metrics,
	}

	if err := writeRun(runDir, meta, cfg, result); err != nil {
		if rerr := os.RemoveAll(runDir); rerr != nil {
			log.Warn("failed to remove incomplete run", "dir", runDir, "err", rerr)
		}
		return "", err
	}

	log.Debug("saved run", "id", runID, "samples", len(result.Samples), "dir", runDir)
	return runID, nil
}

func writeRun(runDir string, meta RunMetadata, cfg *config.Config, result *render.Result) error {
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	if err := writeSignal(filepath.Join(runDir, signalFile), result); err != nil {
		return err
	}
	path := filepath.Join(runDir, wavFile)
	if err := render.WriteWAVFile(path, result.Samples, int(result.SampleRate), cfg.Output.Channels); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeSignal(path string, result *render.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "sample"}); err != nil {
		f.Close()
		return err
	}
	for i, x := range result.Samples {
		row := []string{
			strconv.FormatFloat(float64(i)/result.SampleRate, 'f', 6, 64),
			strconv.FormatFloat(x, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
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
			log.Debug("skipping run", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSignal returns the stored samples and their times.
func (s *Store) LoadSignal(runID string) ([]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.Dir(runID), signalFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
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
		return []float64{}, []float64{}, nil
	}

	samples := make([]float64, 0, len(records)-1)
	times := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		x, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
		samples = append(samples, x)
	}

	return samples, times, nil
}
