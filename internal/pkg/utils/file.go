package utils

import (
	"os"

	"github.com/airenas/go-app/pkg/goapp"
)

// WriteFile writes data to disk replacing any previous content
func WriteFile(name string, data []byte) error {
	goapp.Log.Info().Str("name", name).Msg("Save")
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

// FileExists checks if file exists
func FileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
