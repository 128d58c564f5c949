package templating

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

var (
	// ErrInvalidFileName is returned for file names that are not a plain
	// template or partial file inside the template directory.
	ErrInvalidFileName = errors.New("invalid template file name")

	// ErrInvalidTemplate is returned when a file's content does not compile.
	ErrInvalidTemplate = errors.New("invalid template")
)

// resolvePath maps fileName to a path inside the template directory.
func (tm *TemplateManager) resolvePath(fileName string) (string, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	if fileName == "" || filepath.Base(fileName) != fileName || strings.HasPrefix(fileName, ".") || strings.ContainsAny(fileName, `/\`) {
		return "", ErrInvalidFileName
	}
	if stem, _, ok := tm.classify(fileName); !ok || stem == "" {
		return "", fmt.Errorf("%w: must end in %s or %s", ErrInvalidFileName, tm.config.TemplateExt, tm.config.PartialExt)
	}

	templateDir, err := filepath.Abs(tm.templateDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve template directory: %w", err)
	}
	path := filepath.Join(templateDir, fileName)
	if filepath.Dir(path) != templateDir {
		return "", ErrInvalidFileName
	}
	return path, nil
}

// Compile checks that content parses with the manager's delimiters. Failures
// wrap ErrInvalidTemplate and the parser's typed error.
func (tm *TemplateManager) Compile(content string) error {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	if _, err := tm.preview.Parse(content); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTemplate, err)
	}
	return nil
}

// ReadTemplateFile returns the raw content of a template or partial file.
func (tm *TemplateManager) ReadTemplateFile(fileName string) ([]byte, error) {
	path, err := tm.resolvePath(fileName)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// WriteTemplateFile compiles content and, if it is valid, atomically writes it
// to fileName in the template directory and reloads the directory.
func (tm *TemplateManager) WriteTemplateFile(fileName string, content []byte) error {
	path, err := tm.resolvePath(fileName)
	if err != nil {
		return err
	}

	if err = tm.Compile(string(content)); err != nil {
		return err
	}

	if err = atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write template file: %w", err)
	}
	tm.logger.Info("Template file written", "file", fileName, "bytes", len(content))
	return tm.Refresh()
}

// RemoveTemplateFile deletes fileName from the template directory and reloads
// the directory. A missing file yields an error satisfying os.IsNotExist.
func (tm *TemplateManager) RemoveTemplateFile(fileName string) error {
	path, err := tm.resolvePath(fileName)
	if err != nil {
		return err
	}
	if err = os.Remove(path); err != nil {
		return err
	}
	tm.logger.Info("Template file removed", "file", fileName)
	return tm.Refresh()
}
