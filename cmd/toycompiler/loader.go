package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hassan/toyc/internal/diag"
	"github.com/hassan/toyc/internal/lexer"
)

// fsLoader resolves a dotted import path (e.g. "collections.list") to a
// .toy file by trying each root in order, the way astgen's ModuleLoader
// contract expects: the first root with a matching file wins.
type fsLoader struct {
	roots []string
}

func newFSLoader(roots []string) *fsLoader {
	return &fsLoader{roots: roots}
}

func (l *fsLoader) LoadModule(path string) ([]byte, error) {
	rel := filepath.Join(strings.Split(path, ".")...) + ".toy"
	var tried []string
	for _, root := range l.roots {
		candidate := filepath.Join(root, rel)
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, nil
		}
		tried = append(tried, candidate)
	}
	return nil, diag.New(diag.KindImportNotFound, lexer.Position{},
		"module %q not found in any of %v", path, tried)
}
