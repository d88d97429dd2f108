package audio

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/pkg/errors"
)

// ErrSegmentMissing indicates that one of the stored audio segments is not on disk
var ErrSegmentMissing = errors.New("audio segment missing")

var segmentOrder = []string{"header1", "header2", "data"}

// TempPrefix marks assembled artifact files, the janitor relies on it
const TempPrefix = "craig-temp-audio-"

// SegmentSource resolves stored audio segment paths
type SegmentSource interface {
	SegmentPath(id, part string) string
}

// Artifact is a temporary single file audio copy owned by one transcription attempt
type Artifact struct {
	Path string
}

// Release removes the artifact from disk. It is safe to call on every
// exit path, a failed removal is logged and never propagated.
func (a *Artifact) Release() {
	if a == nil || a.Path == "" {
		return
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		goapp.Log.Error().Err(err).Str("path", a.Path).Msg("can't remove temp audio file")
	}
}

// Assembler builds a playable single file audio artifact from split storage segments
type Assembler struct {
	source SegmentSource
	tmpDir string
}

// NewAssembler creates an assembler writing artifacts into tmpDir
func NewAssembler(source SegmentSource, tmpDir string) (*Assembler, error) {
	if source == nil {
		return nil, errors.New("no segment source")
	}
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Assembler{source: source, tmpDir: tmpDir}, nil
}

// Assemble concatenates header1, header2 and data into one uniquely named
// temporary file. On any failure after creating the file it is removed
// before returning, no partial artifact is ever left behind.
func (a *Assembler) Assemble(ctx context.Context, id string) (*Artifact, error) {
	paths := make([]string, 0, len(segmentOrder))
	for _, part := range segmentOrder {
		p := a.source.SegmentPath(id, part)
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("segment %s: %w", part, ErrSegmentMissing)
			}
			return nil, fmt.Errorf("can't access segment %s: %w", part, err)
		}
		paths = append(paths, p)
	}

	name, err := tempName(id)
	if err != nil {
		return nil, fmt.Errorf("can't make temp name: %w", err)
	}
	res := &Artifact{Path: filepath.Join(a.tmpDir, name)}
	f, err := os.OpenFile(res.Path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return nil, fmt.Errorf("can't create temp audio file: %w", err)
	}
	if err := concat(f, paths); err != nil {
		_ = f.Close()
		res.Release()
		return nil, fmt.Errorf("can't write temp audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		res.Release()
		return nil, fmt.Errorf("can't close temp audio file: %w", err)
	}
	goapp.Log.Info().Str("ID", id).Str("path", res.Path).Msg("temp audio file created")
	return res, nil
}

func concat(w io.Writer, paths []string) error {
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("can't open %s: %w", p, err)
		}
		_, err = io.Copy(w, f)
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("can't copy %s: %w", p, err)
		}
	}
	return nil
}

// tempName derives a collision free file name from random bytes
func tempName(id string) (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s-%s.ogg", TempPrefix, hex.EncodeToString(b), id), nil
}
