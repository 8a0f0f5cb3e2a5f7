package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Trial files are named <layout>.<trial>.jsonl; the combined log of a layout
// is <layout>.all_trials.jsonl.
const (
	trialExt       = ".jsonl"
	combinedSuffix = ".all_trials" + trialExt
)

var trialFilePattern = regexp.MustCompile(`^(.*)\.([0-9]+)\.jsonl$`)

// FileStore keeps one JSON-lines file per trial in a directory.
type FileStore struct {
	dir    string
	logger *slog.Logger
}

func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{dir: dir, logger: logger}
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("file store directory is required")
	}
	return os.MkdirAll(s.dir, 0o755)
}

// TrialPath is where trialID of layout is stored.
func (s *FileStore) TrialPath(layout string, trialID int) string {
	return filepath.Join(s.dir, layout+"."+strconv.Itoa(trialID)+trialExt)
}

func (s *FileStore) CombinedPath(layout string) string {
	return filepath.Join(s.dir, layout+combinedSuffix)
}

func (s *FileStore) SaveTrial(_ context.Context, layout string, trialID int, records Trajectory) error {
	path := s.TrialPath(layout, trialID)
	if err := WriteLog(path, records); err != nil {
		return err
	}
	s.logger.Info("trial saved", slog.String("path", path), slog.Int("transitions", len(records)))
	return nil
}

func (s *FileStore) LoadTrial(_ context.Context, layout string, trialID int) (Trajectory, bool, error) {
	return readIfExists(s.TrialPath(layout, trialID))
}

func (s *FileStore) TrialIDs(_ context.Context, layout string) ([]int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []int{}, nil
		}
		return nil, err
	}
	ids := make([]int, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := trialFilePattern.FindStringSubmatch(e.Name())
		if m == nil || m[1] != layout {
			continue
		}
		id, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func (s *FileStore) SaveCombined(_ context.Context, layout string, records Trajectory) error {
	return WriteLog(s.CombinedPath(layout), records)
}

func (s *FileStore) LoadCombined(_ context.Context, layout string) (Trajectory, bool, error) {
	return readIfExists(s.CombinedPath(layout))
}

// Layouts lists the layouts that have at least one trial file.
func (s *FileStore) Layouts() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if m := trialFilePattern.FindStringSubmatch(e.Name()); m != nil {
			seen[m[1]] = true
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// ReadLog reads a trajectory log file for replay.
func ReadLog(path string) (Trajectory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := DecodeLines(f)
	if err != nil {
		return nil, fmt.Errorf("read log %s: %w", path, err)
	}
	return records, nil
}

// WriteLog atomically replaces path with records.
func WriteLog(path string, records Trajectory) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+strings.TrimSuffix(filepath.Base(path), trialExt)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := EncodeLines(tmp, records); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func readIfExists(path string) (Trajectory, bool, error) {
	records, err := ReadLog(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return records, true, nil
}
