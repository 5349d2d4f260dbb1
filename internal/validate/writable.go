// SPDX-License-Identifier: MIT

package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WritableDirectory validates that a directory exists (or can be created when
// mustExist is false) and that the process can actually write into it. The
// write check creates and removes a probe file, which catches read-only
// mounts that a pure permission-bit check would miss.
func (v *Validator) WritableDirectory(field, path string, mustExist bool) {
	if path == "" {
		v.AddError(field, "directory path cannot be empty", path)
		return
	}

	if strings.Contains(path, "..") {
		v.AddError(field, "path contains traversal sequences (..)", path)
		return
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		v.AddError(field, fmt.Sprintf("invalid path: %v", err), path)
		return
	}

	info, err := os.Stat(absPath)
	switch {
	case err == nil:
		if !info.IsDir() {
			v.AddError(field, "path is not a directory", path)
			return
		}
	case os.IsNotExist(err):
		if mustExist {
			v.AddError(field, "directory does not exist", path)
			return
		}
		if err := os.MkdirAll(absPath, 0750); err != nil {
			v.AddError(field, fmt.Sprintf("cannot create directory: %v", err), path)
			return
		}
	default:
		v.AddError(field, fmt.Sprintf("cannot access directory: %v", err), path)
		return
	}

	probe, err := os.CreateTemp(absPath, ".writable-*")
	if err != nil {
		v.AddError(field, fmt.Sprintf("directory is not writable: %v", err), path)
		return
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
}
