package transcript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/sorajate/craig/internal/pkg/utils"
)

// ErrNotFound indicates that no transcript was generated for the recording yet
var ErrNotFound = errors.New("transcript not found")

// FileStore keeps one flat text file per recording id
type FileStore struct {
	dir string
}

// NewFileStore creates the transcript store over dir, the dir is created if missing
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("no transcripts dir")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("can't create transcripts dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load returns the stored transcript text or ErrNotFound
func (fs *FileStore) Load(ctx context.Context, id string) (string, error) {
	b, err := os.ReadFile(fs.file(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("can't read transcript: %w", err)
	}
	return string(b), nil
}

// Save writes the transcript text replacing any prior value
func (fs *FileStore) Save(ctx context.Context, id, text string) error {
	if err := utils.WriteFile(fs.file(id), []byte(text)); err != nil {
		return fmt.Errorf("can't save transcript: %w", err)
	}
	return nil
}

func (fs *FileStore) file(id string) string {
	return filepath.Join(fs.dir, id+".txt")
}
