package api

// File describes an audio file uploaded to the transcription service
type File struct {
	Name     string
	URI      string
	MimeType string
}
