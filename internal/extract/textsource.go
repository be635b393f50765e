package extract

import (
	"os"

	"github.com/sirupsen/logrus"
)

// TextSource turns a stored document into best-effort plain text. It
// returns an empty string on total failure rather than an error for
// recoverable content problems; only a missing file is an error.
type TextSource interface {
	Extract(path, fileType string) (string, error)
}

// FileTextSource reads plain-text content from disk. Binary formats
// (PDF, DOCX) are handled by an upstream extraction service before the
// file reaches this engine; anything unreadable yields empty text.
type FileTextSource struct{}

// NewFileTextSource creates a FileTextSource.
func NewFileTextSource() *FileTextSource {
	return &FileTextSource{}
}

// Extract reads and normalizes the file's content.
func (s *FileTextSource) Extract(path, fileType string) (string, error) {
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text := string(data)
	if !isMostlyText(data) {
		logrus.Warnf("Unsupported binary content for %s (%s), treating as empty", path, fileType)
		return "", nil
	}

	return Normalize(text), nil
}

// isMostlyText rejects content that is clearly binary.
func isMostlyText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	var control int
	for _, b := range sample {
		if b == 0 {
			return false
		}
		if b < 9 {
			control++
		}
	}
	return control*20 < len(sample)
}
