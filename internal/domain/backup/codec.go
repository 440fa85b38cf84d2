// Package backup encodes and decodes store snapshots independent of any transport.
package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taskmaster/routine/internal/domain/entities"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user supplied name to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported backup format %q", s)
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encode serializes doc.
func Encode(doc entities.BackupDocument, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode yaml backup: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml backup: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json backup: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported backup format %q", f)
	}
}

// Decode parses data strictly. Any shape mismatch yields a *entities.DecodeError.
func Decode(data []byte, f Format) (entities.BackupDocument, error) {
	var doc entities.BackupDocument
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, &entities.DecodeError{Format: string(f), Err: errors.New("empty document")}
	}

	var err error
	switch f {
	case FormatYAML:
		err = decodeYAML(data, &doc)
	case FormatJSON, "":
		f = FormatJSON
		err = decodeJSON(data, &doc)
	default:
		err = fmt.Errorf("unsupported format")
	}
	if err != nil {
		return entities.BackupDocument{}, &entities.DecodeError{Format: string(f), Err: err}
	}

	if doc.Version != entities.BackupFormatVersion {
		return entities.BackupDocument{}, &entities.DecodeError{
			Format: string(f),
			Err:    fmt.Errorf("unsupported document version %d", doc.Version),
		}
	}
	return doc, nil
}

func decodeJSON(data []byte, doc *entities.BackupDocument) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("trailing data after document")
	}
	return nil
}

func decodeYAML(data []byte, doc *entities.BackupDocument) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(doc)
}
