package ioservice

import (
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// SniffLen is the number of leading bytes inspected to detect a mime type.
const SniffLen = 3072

// MimeTypeDetector guesses a mime type from file content.
type MimeTypeDetector interface {
	FromBuffer(b []byte) string
	FromReader(r io.Reader) (string, error)
}

// Detector detects mime types by magic numbers.
type Detector struct{}

// FromBuffer returns the mime type of b without parameters.
func (Detector) FromBuffer(b []byte) string {
	return stripParams(mimetype.Detect(b).String())
}

// FromReader reads up to SniffLen bytes of r.
func (Detector) FromReader(r io.Reader) (string, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return stripParams(m.String()), nil
}

func stripParams(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	return strings.TrimSpace(base)
}
