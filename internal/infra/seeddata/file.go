package seeddata

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/faq-rag/internal/domain/faq"
)

// Source yields the FAQ dataset to seed.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]faq.SeedItem, error)
}

// FileSource reads a YAML (or JSON) dataset from disk.
type FileSource struct {
	path string
}

// NewFileSource constructs the source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the file path.
func (s *FileSource) Name() string { return s.path }

// Load reads and decodes the file.
func (s *FileSource) Load(context.Context) ([]faq.SeedItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Decode(data)
}

type document struct {
	FAQs []faq.SeedItem `yaml:"faqs"`
}

// Decode accepts either a top-level list of items or a mapping with a "faqs" list.
func Decode(data []byte) ([]faq.SeedItem, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse seed dataset: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, errors.New("seed dataset is empty")
	}
	var items []faq.SeedItem
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&items); err != nil {
			return nil, fmt.Errorf("decode seed items: %w", err)
		}
	case yaml.MappingNode:
		var doc document
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode seed items: %w", err)
		}
		items = doc.FAQs
	default:
		return nil, errors.New("seed dataset must be a list or a mapping with a faqs key")
	}
	if len(items) == 0 {
		return nil, errors.New("seed dataset has no faqs")
	}
	return items, nil
}

var (
	_ Source = (*FileSource)(nil)
	_ Source = (*ObjectSource)(nil)
)
