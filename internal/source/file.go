package source

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ducminhle1904/ad-params/internal/ad"
	perrors "github.com/ducminhle1904/ad-params/internal/errors"
)

// ReadDocument reads an override file. JSON files are read through the YAML decoder.
// Unknown top-level keys are rejected.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, perrors.NewMissingSourceError("source.file", path, err)
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Document{}, perrors.NewMissingSourceError("source.file", path, err)
	}
	return doc, nil
}

// LoadFile reads and validates an override file
func LoadFile(path string, reg *ad.Registry) (*Snapshot, error) {
	doc, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return Build(reg, path, doc)
}

// WriteFile writes a document as YAML
func WriteFile(path string, doc Document) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
