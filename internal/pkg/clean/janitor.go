package clean

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/pkg/errors"

	"github.com/sorajate/craig/internal/pkg/audio"
)

// Janitor removes stale temporary audio artifacts left behind by
// interrupted transcription attempts. It implements both the IDs provider
// and the cleaner side of the clean timer.
type Janitor struct {
	dir    string
	maxAge time.Duration
}

// NewJanitor creates Janitor instance sweeping dir
func NewJanitor(dir string, maxAge time.Duration) (*Janitor, error) {
	if dir == "" {
		return nil, errors.New("no dir")
	}
	if maxAge <= 0 {
		return nil, errors.Errorf("wrong maxAge %v", maxAge)
	}
	return &Janitor{dir: dir, maxAge: maxAge}, nil
}

// GetExpired returns names of temp audio files older than maxAge
func (j *Janitor) GetExpired(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read dir %s", j.dir)
	}
	deadline := time.Now().Add(-j.maxAge)
	var res []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), audio.TempPrefix) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			goapp.Log.Warn().Err(err).Str("file", e.Name()).Msg("can't stat temp file")
			continue
		}
		if fi.ModTime().Before(deadline) {
			res = append(res, e.Name())
		}
	}
	return res, nil
}

// Clean removes one temp audio file by name
func (j *Janitor) Clean(ctx context.Context, id string) error {
	// ids come from GetExpired, still never touch anything but own temp files
	if !strings.HasPrefix(id, audio.TempPrefix) || strings.ContainsAny(id, `/\`) {
		return errors.Errorf("wrong temp file name '%s'", id)
	}
	goapp.Log.Info().Str("file", id).Msg("removing stale temp audio file")
	err := os.Remove(filepath.Join(j.dir, id))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrapf(err, "can't remove %s", id)
	}
	return nil
}
