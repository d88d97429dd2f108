package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/pkg/errors"

	"github.com/sorajate/craig/internal/pkg/persistence"
	"github.com/sorajate/craig/internal/pkg/utils"
)

// State is the result of a recording lookup
type State int

const (
	// Found - recording exists and is accessible
	Found State = iota
	// Deleted - recording was soft deleted, metadata retained
	Deleted
	// Missing - recording never existed
	Missing
)

// FileStore holds recording metadata and audio segments on disk.
// Per recording id it keeps:
//
//	<id>.ogg.info     recording metadata
//	<id>.ogg.users    track map
//	<id>.ogg.notes    timed annotations
//	<id>.ogg.header1, <id>.ogg.header2, <id>.ogg.data  audio segments
//	<id>.ogg.delete   soft delete marker
type FileStore struct {
	dir string
}

// NewFileStore creates the recording store over dir
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("no recordings dir")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("can't access recordings dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Get loads recording metadata and reports the lookup state
func (fs *FileStore) Get(ctx context.Context, id string) (*persistence.Recording, State, error) {
	if utils.FileExists(fs.file(id, "delete")) {
		return nil, Deleted, nil
	}
	b, err := os.ReadFile(fs.file(id, "info"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Missing, nil
		}
		return nil, Missing, fmt.Errorf("can't read info: %w", err)
	}
	var res persistence.Recording
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, Missing, fmt.Errorf("can't unmarshal info: %w", err)
	}
	res.ID = id
	return &res, Found, nil
}

// GetUsers loads the track list of a recording
func (fs *FileStore) GetUsers(ctx context.Context, id string) ([]persistence.Track, error) {
	b, err := os.ReadFile(fs.file(id, "users"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't read users: %w", err)
	}
	var m map[string]persistence.Track
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("can't unmarshal users: %w", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	res := make([]persistence.Track, 0, len(m))
	for _, k := range keys {
		res = append(res, m[k])
	}
	return res, nil
}

// GetNotes loads timed annotations, order is whatever the file contains
func (fs *FileStore) GetNotes(ctx context.Context, id string) ([]persistence.Note, error) {
	b, err := os.ReadFile(fs.file(id, "notes"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't read notes: %w", err)
	}
	var res []persistence.Note
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("can't unmarshal notes: %w", err)
	}
	return res, nil
}

// SegmentPath returns the on disk path of one audio segment,
// part is one of header1, header2, data
func (fs *FileStore) SegmentPath(id, part string) string {
	return fs.file(id, part)
}

// RawStream opens the canonical stored audio as one stream,
// segments are served in fixed order without any temporary file
func (fs *FileStore) RawStream(ctx context.Context, id string) (io.ReadCloser, error) {
	files := make([]*os.File, 0, 3)
	readers := make([]io.Reader, 0, 3)
	for _, part := range []string{"header1", "header2", "data"} {
		f, err := os.Open(fs.file(id, part))
		if err != nil {
			for _, o := range files {
				_ = o.Close()
			}
			return nil, fmt.Errorf("can't open segment %s: %w", part, err)
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	return &multiReadCloser{r: io.MultiReader(readers...), files: files}, nil
}

// Delete soft deletes a recording: audio payload files are removed,
// metadata stays, a delete marker makes further lookups report Deleted
func (fs *FileStore) Delete(ctx context.Context, id string) error {
	f, err := os.OpenFile(fs.file(id, "delete"), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("can't write delete marker: %w", err)
	}
	_ = f.Close()
	for _, part := range []string{"header1", "header2", "data", "users", "notes"} {
		if err := os.Remove(fs.file(id, part)); err != nil && !errors.Is(err, os.ErrNotExist) {
			goapp.Log.Warn().Err(err).Str("ID", id).Str("part", part).Msg("can't remove file")
		}
	}
	goapp.Log.Info().Str("ID", id).Msg("recording deleted")
	return nil
}

func (fs *FileStore) file(id, suffix string) string {
	return filepath.Join(fs.dir, id+".ogg."+suffix)
}

type multiReadCloser struct {
	r     io.Reader
	files []*os.File
}

func (m *multiReadCloser) Read(p []byte) (int, error) {
	return m.r.Read(p)
}

func (m *multiReadCloser) Close() error {
	var res error
	for _, f := range m.files {
		if err := f.Close(); err != nil && !errors.Is(err, fs.ErrClosed) {
			res = err
		}
	}
	return res
}
