package ingestion

import (
	"fmt"
	"os"
	"strings"

	"github.com/poiesic/resolvit/core"
	"gopkg.in/yaml.v3"
)

// FAQRecord is an FAQ entry as written in a knowledge file.
type FAQRecord struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
	Category string `yaml:"category,omitempty"`
}

// DocumentRecord is a document as written in a knowledge file.
type DocumentRecord struct {
	Title    string `yaml:"title"`
	Body     string `yaml:"body"`
	Category string `yaml:"category,omitempty"`
}

// KnowledgeFile is the import format: lists of FAQ entries and documents.
type KnowledgeFile struct {
	FAQs      []FAQRecord      `yaml:"faqs"`
	Documents []DocumentRecord `yaml:"documents"`
}

// LoadFile reads and validates a YAML knowledge file.
func LoadFile(path string) (*KnowledgeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML knowledge file.
func Parse(data []byte) (*KnowledgeFile, error) {
	var kf KnowledgeFile
	if err := yaml.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKnowledgeFile, err)
	}
	for i, f := range kf.FAQEntries() {
		if err := core.ValidateFAQEntry(f); err != nil {
			return nil, fmt.Errorf("%w: faq %d: %w", ErrInvalidKnowledgeFile, i+1, err)
		}
	}
	for i, d := range kf.DocumentEntries() {
		if err := core.ValidateDocument(d); err != nil {
			return nil, fmt.Errorf("%w: document %d: %w", ErrInvalidKnowledgeFile, i+1, err)
		}
	}
	return &kf, nil
}

// FAQEntries converts the file's FAQ records to domain entries.
func (kf *KnowledgeFile) FAQEntries() []*core.FAQEntry {
	out := make([]*core.FAQEntry, len(kf.FAQs))
	for i, r := range kf.FAQs {
		out[i] = &core.FAQEntry{
			Question: strings.TrimSpace(r.Question),
			Answer:   strings.TrimSpace(r.Answer),
			Category: strings.TrimSpace(r.Category),
		}
	}
	return out
}

// DocumentEntries converts the file's document records to domain documents.
func (kf *KnowledgeFile) DocumentEntries() []*core.Document {
	out := make([]*core.Document, len(kf.Documents))
	for i, r := range kf.Documents {
		out[i] = &core.Document{
			Title:    strings.TrimSpace(r.Title),
			Body:     strings.TrimSpace(r.Body),
			Category: strings.TrimSpace(r.Category),
		}
	}
	return out
}
