package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/sorajate/craig/internal/pkg/audio"
	gapi "github.com/sorajate/craig/internal/pkg/gemini/api"
	"github.com/sorajate/craig/internal/pkg/persistence"
	"github.com/sorajate/craig/internal/pkg/store"
)

// Store is recording store mock
type Store struct{ mock.Mock }

func (m *Store) Get(ctx context.Context, id string) (*persistence.Recording, store.State, error) {
	args := m.Called(ctx, id)
	return to[*persistence.Recording](args.Get(0)), args.Get(1).(store.State), args.Error(2)
}

func (m *Store) GetUsers(ctx context.Context, id string) ([]persistence.Track, error) {
	args := m.Called(ctx, id)
	return to[[]persistence.Track](args.Get(0)), args.Error(1)
}

func (m *Store) GetNotes(ctx context.Context, id string) ([]persistence.Note, error) {
	args := m.Called(ctx, id)
	return to[[]persistence.Note](args.Get(0)), args.Error(1)
}

func (m *Store) RawStream(ctx context.Context, id string) (io.ReadCloser, error) {
	args := m.Called(ctx, id)
	return to[io.ReadCloser](args.Get(0)), args.Error(1)
}

func (m *Store) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Transcripts is transcript provider mock
type Transcripts struct{ mock.Mock }

func (m *Transcripts) Get(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *Transcripts) Create(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

// Counter is usage counter mock
type Counter struct{ mock.Mock }

func (m *Counter) Inc(ctx context.Context, recordingID string) error {
	args := m.Called(ctx, recordingID)
	return args.Error(0)
}

// Transcriber is transcription client mock
type Transcriber struct{ mock.Mock }

func (m *Transcriber) Upload(ctx context.Context, filePath string) (*gapi.File, error) {
	args := m.Called(ctx, filePath)
	return to[*gapi.File](args.Get(0)), args.Error(1)
}

func (m *Transcriber) Generate(ctx context.Context, file *gapi.File, prompt string) (string, error) {
	args := m.Called(ctx, file, prompt)
	return args.String(0), args.Error(1)
}

// Assembler is audio assembler mock
type Assembler struct{ mock.Mock }

func (m *Assembler) Assemble(ctx context.Context, id string) (*audio.Artifact, error) {
	args := m.Called(ctx, id)
	return to[*audio.Artifact](args.Get(0)), args.Error(1)
}

// TranscriptStore is flat file transcript store mock
type TranscriptStore struct{ mock.Mock }

func (m *TranscriptStore) Load(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

func (m *TranscriptStore) Save(ctx context.Context, id, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
