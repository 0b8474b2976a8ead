package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const fileHeader = `# resolvit configuration
#
# Priority (highest first):
#   1. Environment variables (RESOLVIT_<SECTION>_<KEY>, e.g. RESOLVIT_AI_CHAT_MODEL)
#   2. .env in the working directory
#   3. This file
#   4. Built-in defaults
#
# Durations use Go syntax: 500ms, 5s, 10m.

`

// Write renders s as YAML.
func Write(w io.Writer, s *Settings) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteDefaultFile creates path containing the default settings. It refuses
// to overwrite an existing file.
func WriteDefaultFile(path string) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close config file: %w", closeErr)
		}
	}()

	if _, err = io.WriteString(f, fileHeader); err != nil {
		return err
	}
	return Write(f, Default())
}
