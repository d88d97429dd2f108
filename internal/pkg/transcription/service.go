package transcription

import (
	"context"
	"fmt"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/pkg/errors"

	"github.com/sorajate/craig/internal/pkg/audio"
	gapi "github.com/sorajate/craig/internal/pkg/gemini/api"
)

// prompt is fixed so repeated transcriptions of the same audio stay comparable
const prompt = "Please transcribe the following audio recording. After the full transcript, " +
	"provide a concise summary of the content. Structure your response clearly, with " +
	"'Transcript:' and 'Summary:' headings. If the audio is very short or contains no " +
	"discernible speech, indicate that appropriately."

var (
	// ErrNoCredential - no transcription credential configured, terminal
	ErrNoCredential = errors.New("transcription credential missing")
	// ErrAudioPrepare - the audio artifact could not be built
	ErrAudioPrepare = errors.New("audio preparation failed")
	// ErrService - the external transcription service failed
	ErrService = errors.New("transcription service error")
)

// Transcriber provides the external transcription calls
type Transcriber interface {
	Upload(ctx context.Context, filePath string) (*gapi.File, error)
	Generate(ctx context.Context, file *gapi.File, prompt string) (string, error)
}

// Assembler builds the temporary audio artifact
type Assembler interface {
	Assemble(ctx context.Context, id string) (*audio.Artifact, error)
}

// Store persists transcripts
type Store interface {
	Load(ctx context.Context, id string) (string, error)
	Save(ctx context.Context, id, text string) error
}

// Data keeps data required for service work
type Data struct {
	// Transcriber is nil when no credential is configured
	Transcriber Transcriber
	Assembler   Assembler
	Transcripts Store
}

// Service drives the external transcription workflow and serves cached results
type Service struct {
	transcriber Transcriber
	assembler   Assembler
	transcripts Store
}

// NewService creates the transcription orchestrator
func NewService(data *Data) (*Service, error) {
	if data.Assembler == nil {
		return nil, errors.New("no assembler")
	}
	if data.Transcripts == nil {
		return nil, errors.New("no transcript store")
	}
	return &Service{transcriber: data.Transcriber, assembler: data.Assembler,
		transcripts: data.Transcripts}, nil
}

// Get returns the stored transcript without touching the external service,
// transcript.ErrNotFound is passed through when none exists
func (s *Service) Get(ctx context.Context, id string) (string, error) {
	return s.transcripts.Load(ctx, id)
}

// Create runs the full transcription workflow: assemble audio, upload,
// generate, persist. Any prior transcript is replaced on success and left
// untouched on failure. The caller decides whether to check for an
// existing transcript first, Create always regenerates.
func (s *Service) Create(ctx context.Context, id string) (string, error) {
	if s.transcriber == nil {
		return "", ErrNoCredential
	}

	art, err := s.assembler.Assemble(ctx, id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAudioPrepare, err)
	}
	defer art.Release()

	goapp.Log.Info().Str("ID", id).Str("path", art.Path).Msg("uploading audio")
	file, err := s.transcriber.Upload(ctx, art.Path)
	if err != nil {
		return "", fmt.Errorf("%w: can't upload: %v", ErrService, err)
	}

	goapp.Log.Info().Str("ID", id).Str("file", file.URI).Msg("generating transcript")
	text, err := s.transcriber.Generate(ctx, file, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: can't generate: %v", ErrService, err)
	}

	if err := s.transcripts.Save(ctx, id, text); err != nil {
		return "", fmt.Errorf("can't persist transcript: %w", err)
	}
	goapp.Log.Info().Str("ID", id).Msg("transcript saved")
	return text, nil
}
