// SPDX-License-Identifier: MIT

package sink

import (
	"fmt"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/geoanonymizer/internal/log"
)

// File writes to a temporary file next to the destination and renames it
// into place on Commit. renameio fsyncs before the rename, so readers see
// either the previous output or the complete new one, never a partial file.
type File struct {
	path      string
	pending   *renameio.PendingFile
	committed bool
}

// NewFile prepares an atomic write to path. The destination directory must
// exist.
func NewFile(path string) (*File, error) {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return nil, fmt.Errorf("create pending output file: %w", err)
	}
	return &File{path: path, pending: pending}, nil
}

// Path returns the destination path.
func (f *File) Path() string { return f.path }

func (f *File) Write(p []byte) (int, error) {
	return f.pending.Write(p)
}

// Commit fsyncs the temporary file and renames it over the destination.
func (f *File) Commit() error {
	if err := f.pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", f.path, err)
	}
	f.committed = true
	return nil
}

// Abort removes the temporary file. After Commit it does nothing.
func (f *File) Abort() {
	if f.committed {
		return
	}
	if err := f.pending.Cleanup(); err != nil {
		log.WithComponent("sink").Debug().Err(err).Str("path", f.path).Msg("cleanup pending output file")
	}
}

var _ Target = (*File)(nil)
var _ Target = (*Stream)(nil)
