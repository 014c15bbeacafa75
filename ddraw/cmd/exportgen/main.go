/*
The exportgen tool generates the export list of ddraw.dll.

It reads ddraw/cmd/exportgen/ddraw.exports and writes:
  - ddraw/gen_exports.go, the Exports table of the ddraw package
  - cmd/ddraw/ddraw.def, the module definition file passed to the linker

Usage:

	go generate ./ddraw
*/
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/tekert/golang-ddraw/ddraw/internal/exportgen"
)

// findProjectRoot walks up from this source file until it finds go.mod.
func findProjectRoot() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}

	dir := filepath.Dir(currentFile)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in parent directories")
		}
		dir = parent
	}
}

func main() {
	projectRoot, err := findProjectRoot()
	if err != nil {
		log.Fatalf("Failed to find project root: %v", err)
	}
	tablePath := filepath.Join(projectRoot, "ddraw", "cmd", "exportgen", "ddraw.exports")
	goPath := filepath.Join(projectRoot, "ddraw", "gen_exports.go")
	defPath := filepath.Join(projectRoot, "cmd", "ddraw", "ddraw.def")

	table, err := os.ReadFile(tablePath)
	if err != nil {
		log.Fatalf("Failed to read exports table: %v", err)
	}

	exports, err := exportgen.Parse(string(table))
	if err != nil {
		log.Fatalf("Failed to parse exports table: %v", err)
	}

	goCode, err := exportgen.GenerateGo("ddraw", filepath.Base(tablePath), exports)
	if err != nil {
		log.Fatalf("Failed to generate Go code: %v", err)
	}
	if err := os.WriteFile(goPath, goCode, 0644); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}

	if err := os.WriteFile(defPath, exportgen.GenerateDef("ddraw", exports), 0644); err != nil {
		log.Fatalf("Failed to write output file: %v", err)
	}

	log.Printf("Successfully generated %d exports", len(exports))
}
