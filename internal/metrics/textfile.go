package metrics

import (
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdpipeline/internal/foundation/errors"
)

// WriteTextfile writes the gathered metrics of reg to path in the text
// exposition format. The write is atomic so a collector never reads a
// partial file.
func WriteTextfile(path string, reg prom.Gatherer) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.FileSystemError("failed to create metrics directory").
			WithCause(err).WithContext("path", path).Build()
	}
	if err := prom.WriteToTextfile(path, reg); err != nil {
		return errors.FileSystemError("failed to write metrics textfile").
			WithCause(err).WithContext("path", path).Build()
	}
	return nil
}
