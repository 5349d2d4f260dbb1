// SPDX-License-Identifier: MIT

package validate

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLayeringRules enforces architectural layering rules. The public
// library packages (root, spatial, tabular, trajectory) must stay free of
// service internals so they remain embeddable, and the lower internal
// layers must not reach up into the API layer.
func TestLayeringRules(t *testing.T) {
	projectRoot := findProjectRoot(t)

	violations := []string{}

	// Rule 1: library packages MUST NOT import internal/*
	for _, dir := range []string{"spatial", "tabular", "trajectory"} {
		violations = append(violations, checkForbiddenImport(
			t, projectRoot,
			dir,
			"github.com/ManuGH/geoanonymizer/internal",
			"library packages must not import service internals",
		)...)
	}

	// Rule 2: the root package MUST NOT import internal/*
	violations = append(violations, checkForbiddenImportFiles(
		t, projectRoot,
		rootGoFiles(t, projectRoot),
		"github.com/ManuGH/geoanonymizer/internal",
		nil,
		"the root library package must not import service internals",
	)...)

	// Rule 3: tabular is a plain CSV codec and MUST NOT know about coordinates
	violations = append(violations, checkForbiddenImport(
		t, projectRoot,
		"tabular",
		"github.com/ManuGH/geoanonymizer/spatial",
		"tabular must stay geometry-agnostic",
	)...)

	// Rule 4: lower internal layers MUST NOT import the API layer
	for _, dir := range []string{
		"internal/store",
		"internal/history",
		"internal/jobs",
		"internal/watch",
		"internal/metrics",
		"internal/config",
	} {
		violations = append(violations, checkForbiddenImport(
			t, projectRoot,
			dir,
			"github.com/ManuGH/geoanonymizer/internal/api",
			"only the daemon wiring may import the API layer",
		)...)
	}

	if len(violations) > 0 {
		t.Errorf("Layering violations detected:\n\n%s",
			strings.Join(violations, "\n"))
	}
}

// TestNoUtilsPackages prevents creation of "utils hell" packages.
func TestNoUtilsPackages(t *testing.T) {
	projectRoot := findProjectRoot(t)

	forbiddenDirs := []string{
		"internal/utils",
		"internal/util",
		"internal/common",
		"internal/helpers",
		"internal/shared",
	}

	violations := []string{}
	for _, dir := range forbiddenDirs {
		fullPath := filepath.Join(projectRoot, dir)
		if _, err := os.Stat(fullPath); err == nil {
			violations = append(violations, fmt.Sprintf(
				"Forbidden package detected: %s",
				dir,
			))
		}
	}

	if len(violations) > 0 {
		t.Errorf("Utils package violations:\n\n%s\n\nUse semantically named packages instead of generic utils packages.",
			strings.Join(violations, "\n"))
	}
}

// --- Helper Functions ---

func checkForbiddenImport(t *testing.T, projectRoot, sourceDir, forbiddenImportPrefix, reason string) []string {
	t.Helper()

	sourcePath := filepath.Join(projectRoot, sourceDir)
	files, err := findGoFiles(sourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Directory doesn't exist - no violation
		}
		t.Fatalf("Failed to scan %s: %v", sourceDir, err)
	}

	return checkForbiddenImportFiles(t, projectRoot, files, forbiddenImportPrefix, nil, reason)
}

func checkForbiddenImportFiles(t *testing.T, projectRoot string, files []string, forbiddenImportPrefix string, allowedImports []string, reason string) []string {
	t.Helper()

	allowedSet := make(map[string]bool)
	for _, allowed := range allowedImports {
		allowedSet[allowed] = true
	}

	violations := []string{}
	for _, file := range files {
		imports, err := extractImports(file)
		if err != nil {
			t.Logf("Warning: failed to parse %s: %v", file, err)
			continue
		}

		for _, imp := range imports {
			if strings.HasPrefix(imp, forbiddenImportPrefix) {
				if allowedSet[imp] {
					continue
				}
				relPath, _ := filepath.Rel(projectRoot, file)
				violations = append(violations, fmt.Sprintf(
					"  %s imports %s\n     Reason: %s",
					relPath, imp, reason,
				))
			}
		}
	}

	return violations
}

// rootGoFiles lists the non-test Go files of the root package only.
func rootGoFiles(t *testing.T, projectRoot string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(projectRoot, "*.go"))
	if err != nil {
		t.Fatalf("Failed to list root package files: %v", err)
	}
	files := []string{}
	for _, m := range matches {
		if !strings.HasSuffix(m, "_test.go") {
			files = append(files, m)
		}
	}
	return files
}

func findGoFiles(root string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func extractImports(filePath string) ([]string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filePath, nil, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}

	imports := []string{}
	for _, imp := range f.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		imports = append(imports, importPath)
	}
	return imports, nil
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}

	// Walk up until we find go.mod
	dir := cwd
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("Could not find project root (no go.mod found)")
		}
		dir = parent
	}
}
