package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadEventsFromYamlReader reads a list of editor messages.
func LoadEventsFromYamlReader(r io.Reader) ([]EditorMessage, error) {
	var events []EditorMessage
	if err := yaml.NewDecoder(r).Decode(&events); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return events, nil
}

// LoadEventsFromJsonReader reads a JSON array of editor messages.
func LoadEventsFromJsonReader(r io.Reader) ([]EditorMessage, error) {
	var events []EditorMessage
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("decoding events: %w", err)
	}
	return events, nil
}

// LoadEventsFromFile picks the decoder from the file extension, .yaml and
// .yml for YAML and anything else for JSON.
func LoadEventsFromFile(path string) ([]EditorMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadEventsFromYamlReader(f)
	default:
		return LoadEventsFromJsonReader(f)
	}
}
