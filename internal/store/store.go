package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/san-kum/mlviz/internal/experiment"
	"github.com/san-kum/mlviz/internal/metrics"
)

// Store keeps exported runs, one directory per run holding metadata.json
// and trace.csv. Runs are write-once artifacts for inspection and plotting.
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
	Algorithm  string             `json:"algorithm"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Params     map[string]float64 `json:"params"`
	Iterations int                `json:"iterations"`
	State      string             `json:"state"`
	Phase      string             `json:"phase,omitempty"`
	Error      string             `json:"error,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

func Metadata(res *experiment.Result) RunMetadata {
	meta := RunMetadata{
		Algorithm:  res.Algorithm,
		Timestamp:  time.Now(),
		Seed:       res.Seed,
		Params:     res.Params,
		Iterations: res.Iterations,
		State:      res.State.String(),
		Phase:      res.Phase,
		Metrics:    res.Metrics,
	}
	if res.Err != nil {
		meta.Error = res.Err.Error()
	}
	return meta
}

func (s *Store) Save(res *experiment.Result) (string, error) {
	meta := Metadata(res)
	runDir, runID, err := s.newRunDir(meta.Algorithm, meta.Timestamp)
	if err != nil {
		return "", err
	}
	meta.ID = runID

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

	csvFile, err := os.Create(filepath.Join(runDir, "trace.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"iteration", "loss", "phase"}); err != nil {
		return "", err
	}
	for _, p := range res.Trace {
		row := []string{
			strconv.Itoa(p.Iteration),
			strconv.FormatFloat(p.Loss, 'f', 6, 64),
			p.Phase,
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

func (s *Store) newRunDir(algorithm string, ts time.Time) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", algorithm, ts.Unix())
	runID := base
	for i := 1; ; i++ {
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runDir, runID, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		runID = fmt.Sprintf("%s-%d", base, i)
	}
}

// List returns every readable run, newest first.
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
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
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
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]metrics.Point, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "trace.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	if len(records) < 2 {
		return []metrics.Point{}, nil
	}

	points := make([]metrics.Point, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		it, err := strconv.Atoi(record[0])
		if err != nil {
			continue
		}
		loss, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		p := metrics.Point{Iteration: it, Loss: loss}
		if len(record) > 2 {
			p.Phase = record[2]
		}
		points = append(points, p)
	}
	return points, nil
}
