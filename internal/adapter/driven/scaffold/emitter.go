// Package scaffold writes the static deployment templates (a Dockerfile and a
// Terraform declaration) to disk.
package scaffold

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/prgate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ConfigGenerator = (*Emitter)(nil)

// File names written by Generate.
const (
	DockerfileName = "Dockerfile"
	TerraformName  = "main.tf"
)

var (
	//go:embed templates/Dockerfile
	dockerfile []byte

	//go:embed templates/main.tf
	terraform []byte
)

// Emitter writes the templates into a fixed directory.
type Emitter struct {
	dir    string
	logger *slog.Logger
}

// NewEmitter creates an Emitter writing into dir. An empty dir means the
// current working directory.
func NewEmitter(dir string, logger *slog.Logger) *Emitter {
	if dir == "" {
		dir = "."
	}
	return &Emitter{dir: dir, logger: logger}
}

// Generate writes the Dockerfile and then main.tf, replacing any existing
// files of the same name. Each file is replaced atomically; if the second
// write fails the first file stays written.
func (e *Emitter) Generate(_ context.Context) error {
	files := []struct {
		name    string
		content []byte
	}{
		{DockerfileName, dockerfile},
		{TerraformName, terraform},
	}

	for _, f := range files {
		path := filepath.Join(e.dir, f.name)
		if err := atomic.WriteFile(path, bytes.NewReader(f.content)); err != nil {
			return fmt.Errorf("write %s: %w: %w", path, driven.ErrIO, err)
		}
		e.logger.Debug("config template written", "path", path, "bytes", len(f.content))
	}

	return nil
}
