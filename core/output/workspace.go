package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gaurav-prasanna/docrows/core"
)

// Stage artifact names, in pipeline order.
const (
	ArtifactContent    = "01_content.html"
	ArtifactMarkdown   = "01_content.md"
	ArtifactAnnotated  = "02_annotated.html"
	ArtifactSections   = "03_sections.txt"
	ArtifactCode       = "04_code.txt"
	ArtifactNormalized = "05_normalized.txt"
	ArtifactRefined    = "06_refined.txt"
	ArtifactRows       = "07_rows.csv"
)

// Workspace is the private directory one pipeline run hands its stage
// artifacts through.
type Workspace struct {
	dir string
}

// NewWorkspace creates dir (and parents) and returns a Workspace over it.
func NewWorkspace(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating workspace %s: %w", dir, err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the full path of an artifact.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Write stores an artifact and returns its path.
func (w *Workspace) Write(name, data string) (string, error) {
	path := w.Path(name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return "", fmt.Errorf("writing artifact %s: %w", path, err)
	}
	return path, nil
}

// Read loads an artifact. A missing file wraps core.ErrMissingArtifact.
func (w *Workspace) Read(name string) (string, error) {
	path := w.Path(name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", core.ErrMissingArtifact, path)
	}
	if err != nil {
		return "", fmt.Errorf("reading artifact %s: %w", path, err)
	}
	return string(data), nil
}
