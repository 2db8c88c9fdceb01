// Package convert turns raw file bytes into normalized markdown text.
// This is the dominant cost of a cache miss: full document parsing.
package convert

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

type Converter struct{}

func New() *Converter {
	return &Converter{}
}

// Convert dispatches on the file extension. Callers are expected to filter
// unsupported extensions beforehand; an unknown extension here is an error.
func (c *Converter) Convert(_ context.Context, filename string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md":
		return convertPlainText(filename, data)
	case ".pdf":
		return convertPDF(data)
	case ".docx":
		return convertDOCX(data)
	case ".xlsx":
		return convertXLSX(data)
	default:
		return "", fmt.Errorf("no converter for file: %s", filename)
	}
}

func convertPlainText(filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8 text: %s", filename)
	}
	return strings.TrimSpace(string(data)), nil
}
