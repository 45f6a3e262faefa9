package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrModuleNotFound is returned when a source has no module with the given id.
var ErrModuleNotFound = errors.New("module not found")

// Format is the encoding of a module document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf infers the document format from a file name.
func FormatOf(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Normalize parses a module document in the given format and returns it
// re-encoded as JSON, so schema validation and decoding see the same values
// regardless of the source format.
func Normalize(data []byte, format Format) ([]byte, error) {
	var doc any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return raw, nil
}

// Decode parses a module document, checks it against ModuleSchema and
// returns the decoded module. Structural checks (Validate) are left to the
// caller.
func Decode(data []byte, format Format) (*Module, error) {
	raw, err := Normalize(data, format)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	var m Module
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode module: %w", err)
	}
	return &m, nil
}

// ReadFile loads and validates a single module file.
func ReadFile(path string) (*Module, error) {
	format, ok := FormatOf(path)
	if !ok {
		return nil, fmt.Errorf("read module %s: unsupported file extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read module %s: %w", path, err)
	}
	m, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("read module %s: %w", path, err)
	}
	if err := Validate(m); err != nil {
		return nil, fmt.Errorf("read module %s: %w", path, err)
	}
	return m, nil
}

// DirSource serves modules from a directory of JSON and YAML files.
// Files are matched by module id, not by file name.
type DirSource struct {
	Dir string
}

// NewDirSource returns a DirSource rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// LoadModule returns the module with the given id.
func (d *DirSource) LoadModule(ctx context.Context, id string) (*Module, error) {
	modules, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range modules {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, fmt.Errorf("load module %q: %w", id, ErrModuleNotFound)
}

// List returns every module in the directory sorted by id.
func (d *DirSource) List(ctx context.Context) ([]*Module, error) {
	paths, err := d.files()
	if err != nil {
		return nil, err
	}
	var modules []*Module
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i].ID < modules[j].ID })
	return modules, nil
}

func (d *DirSource) files() ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list modules in %s: %w", d.Dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := FormatOf(e.Name()); ok {
			paths = append(paths, filepath.Join(d.Dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
