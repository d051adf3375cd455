package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/blocktest/internal/block"
	"github.com/roach88/blocktest/internal/template"
)

// LoadError represents an error that occurred while loading an input file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// readInput reads a file, mapping failures to load errors.
func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return data, nil
}

// isJSONPath reports whether path names a JSON file. Everything else is
// treated as YAML.
func isJSONPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadDocument reads a suite document from a YAML or JSON file and builds
// it into a suite with fresh ids from gen. Unknown fields are rejected.
func LoadDocument(path string, gen block.IDGenerator) (block.Suite, error) {
	data, err := readInput(path)
	if err != nil {
		return block.Suite{}, err
	}

	var doc block.Document
	if isJSONPath(path) {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	}
	if err != nil {
		return block.Suite{}, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("decoding %s: %v", path, err)}
	}
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	su, err := doc.Suite(gen)
	if err != nil {
		return block.Suite{}, &LoadError{Code: ErrCodeInvalid, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return su, nil
}

// EncodeDocument renders a document as YAML, or as indented JSON when
// asJSON is set.
func EncodeDocument(doc block.Document, asJSON bool) ([]byte, error) {
	if asJSON {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadCatalog returns the templates of a CUE catalogue file, or the
// built-in catalogue when path is empty.
func LoadCatalog(path string) ([]template.Template, error) {
	if path == "" {
		all, err := template.Builtin()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("built-in catalogue: %v", err)}
		}
		return all, nil
	}

	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	all, err := template.CompileCatalog(data, path)
	if err != nil {
		var compileErr *template.CompileError
		if errors.As(err, &compileErr) {
			return nil, &LoadError{Code: ErrCodeParseFailed, Message: compileErr.Message, Pos: compileErr.Pos}
		}
		return nil, &LoadError{Code: ErrCodeParseFailed, Message: err.Error()}
	}
	return all, nil
}

// loadFailure reports err through the formatter as a command error.
func loadFailure(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		if loadErr.Pos.IsValid() {
			msg = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), msg)
		}
		return f.Fail(ExitCommandError, loadErr.Code, msg, nil)
	}
	return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}

// writeOutput writes data to path, creating parent directories.
func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
