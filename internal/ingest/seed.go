package ingest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/capitalize-ai/support-router/internal/model"
)

// SeedFile is the on-disk format of a knowledge-base seed.
type SeedFile struct {
	Documents []model.IngestRequest `yaml:"documents"`
}

// LoadSeedFile reads seed documents from a YAML file.
func LoadSeedFile(path string) ([]model.IngestRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed documents from YAML.
func ParseSeed(data []byte) ([]model.IngestRequest, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, doc := range f.Documents {
		if doc.Title == "" {
			return nil, fmt.Errorf("seed document %d has no title", i)
		}
	}
	return f.Documents, nil
}
