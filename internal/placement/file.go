package placement

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileDocument is the on-disk envelope for file backends.
type fileDocument struct {
	Placements map[string]rectRecord `json:"placements" yaml:"placements"`
}

// FileBackend persists the placement map to a single file. The codec is
// chosen by extension: .yaml/.yml is YAML, everything else is JSON.
type FileBackend struct {
	Path string
}

var _ Backend = (*FileBackend)(nil)

// NewFileBackend creates a file backend bound to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

func (b *FileBackend) yaml() bool {
	ext := strings.ToLower(filepath.Ext(b.Path))
	return ext == ".yaml" || ext == ".yml"
}

func (b *FileBackend) Load() (Map, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read placements %q: %w", b.Path, err)
	}

	var doc fileDocument
	if b.yaml() {
		err = yaml.Unmarshal(data, &doc)
	} else {
		err = json.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse placements %q: %w", b.Path, err)
	}

	return fromRecords(doc.Placements), nil
}

func (b *FileBackend) Save(m Map) error {
	doc := fileDocument{Placements: toRecords(m)}

	var data []byte
	var err error
	if b.yaml() {
		data, err = yaml.Marshal(&doc)
	} else {
		data, err = json.MarshalIndent(&doc, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	}
	if err != nil {
		return fmt.Errorf("failed to encode placements: %w", err)
	}

	dir := filepath.Dir(b.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create placements directory: %w", err)
	}
	if err := os.WriteFile(b.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write placements %q: %w", b.Path, err)
	}
	return nil
}
