package api

import "github.com/sorajate/craig/internal/pkg/persistence"

// ErrCode is a stable machine readable error code returned to the client
type ErrCode int

const (
	// ErrCodeInvalidID - no or malformed recording ID
	ErrCodeInvalidID ErrCode = iota + 1
	// ErrCodeInvalidKey - missing or wrong access key
	ErrCodeInvalidKey
	// ErrCodeInvalidDeleteKey - missing or wrong delete key
	ErrCodeInvalidDeleteKey
	// ErrCodeRecordingNotFound - recording never existed
	ErrCodeRecordingNotFound
	// ErrCodeRecordingDeleted - recording was soft deleted
	ErrCodeRecordingDeleted
	// ErrCodeTranscriptNotFound - no transcript generated yet
	ErrCodeTranscriptNotFound
	// ErrCodeTranscriptionKeyMissing - no transcription credential configured
	ErrCodeTranscriptionKeyMissing
	// ErrCodeAudioPreparationFailed - could not build the audio artifact
	ErrCodeAudioPreparationFailed
	// ErrCodeTranscriptionFailed - external transcription service failure
	ErrCodeTranscriptionFailed
	// ErrCodeInternal - unexpected collaborator failure
	ErrCodeInternal
)

type (
	// ErrorResponse is the envelope of every failed request
	ErrorResponse struct {
		OK    bool    `json:"ok"`
		Error string  `json:"error"`
		Code  ErrCode `json:"code"`
	}

	// InfoResponse wraps recording metadata, the delete key is never present
	InfoResponse struct {
		OK   bool           `json:"ok"`
		Info *RecordingInfo `json:"info"`
	}

	// RecordingInfo is the public view of a recording
	RecordingInfo struct {
		ID             string                 `json:"id"`
		AccessKey      string                 `json:"key"`
		Guild          string                 `json:"guild,omitempty"`
		Channel        string                 `json:"channel,omitempty"`
		Requester      string                 `json:"requester,omitempty"`
		RequesterID    string                 `json:"requesterId,omitempty"`
		StartTime      string                 `json:"startTime,omitempty"`
		GuildExtra     *persistence.NameExtra `json:"guildExtra,omitempty"`
		ChannelExtra   *persistence.NameExtra `json:"channelExtra,omitempty"`
		RequesterExtra *persistence.UserExtra `json:"requesterExtra,omitempty"`
	}

	// UsersResponse wraps the track list
	UsersResponse struct {
		OK    bool                `json:"ok"`
		Users []persistence.Track `json:"users"`
	}
)

// NewRecordingInfo strips the delete key from stored metadata
func NewRecordingInfo(rec *persistence.Recording) *RecordingInfo {
	return &RecordingInfo{
		ID:             rec.ID,
		AccessKey:      rec.AccessKey,
		Guild:          rec.Guild,
		Channel:        rec.Channel,
		Requester:      rec.Requester,
		RequesterID:    rec.RequesterID,
		StartTime:      rec.StartTime,
		GuildExtra:     rec.GuildExtra,
		ChannelExtra:   rec.ChannelExtra,
		RequesterExtra: rec.RequesterExtra,
	}
}
