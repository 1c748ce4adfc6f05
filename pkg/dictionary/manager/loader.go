package manager

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"lectern-hq/lectern/pkg/dictionary"
	"lectern-hq/lectern/pkg/dictionary/parser"
	"lectern-hq/lectern/pkg/dictionary/references"
)

// Loader reads dictionary documents from the file system and resolves their
// references.
type Loader struct {
	parser     *parser.Parser
	extensions []string
}

// NewLoader creates a loader for files with the given extensions.
func NewLoader(p *parser.Parser, extensions []string) *Loader {
	if p == nil {
		p = parser.NewParser()
	}
	exts := make([]string, len(extensions))
	for i, ext := range extensions {
		exts[i] = strings.ToLower(ext)
	}
	return &Loader{parser: p, extensions: exts}
}

// LoadFile parses and resolves a single document.
func (l *Loader) LoadFile(path string) (*dictionary.Dictionary, error) {
	dict, err := l.parser.ParseFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "parse failed", Cause: err}
	}
	resolved, err := references.ResolveDictionary(dict)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "reference resolution failed", Cause: err}
	}
	return resolved, nil
}

// Load loads path, which is either one document or a directory searched
// recursively. Hidden files and directories are skipped. Every failing
// document is reported; no dictionaries are returned when any fails.
func (l *Loader) Load(path string) ([]*dictionary.Dictionary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to access path", Cause: err}
	}
	if !info.IsDir() {
		dict, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return []*dictionary.Dictionary{dict}, nil
	}

	files, err := l.collectFiles(path)
	if err != nil {
		return nil, err
	}

	var errs ErrorList
	dicts := make([]*dictionary.Dictionary, 0, len(files))
	for _, file := range files {
		dict, err := l.LoadFile(file)
		if err != nil {
			errs.Add(err)
			continue
		}
		dicts = append(dicts, dict)
	}
	if errs.HasErrors() {
		return nil, errs.ToError()
	}
	return dicts, nil
}

func (l *Loader) collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && l.hasValidExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}
	return files, nil
}

func (l *Loader) hasValidExtension(path string) bool {
	return slices.Contains(l.extensions, strings.ToLower(filepath.Ext(path)))
}
