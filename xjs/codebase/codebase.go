// Package codebase keeps the parsed templates of a project in memory and
// serves them to the language server and the file watcher.
package codebase

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/maruel/natural"
	"github.com/tidwall/tinylru"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/xjs/format"
	"github.com/dhamidi/xjs/project"
	"github.com/dhamidi/xjs/xjs/parser"
)

// DefaultCacheSize is the number of parse results kept by a Codebase.
const DefaultCacheSize = 256

var log = commonlog.GetLogger("xjs.codebase")

type Codebase struct {
	mu      sync.RWMutex
	project *project.Project
	files   map[string]*FileInfo
	cache   tinylru.LRU
}

// FileInfo is the last known state of one template file. Root is nil
// when ParseErr is set.
type FileInfo struct {
	Path     string
	Content  []byte
	Root     parser.Node
	ParseErr error
}

// Diagnostic is a parse failure located in a file.
type Diagnostic struct {
	Path    string
	Pos     parser.Position
	Kind    parser.ErrorKind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.Path, d.Pos.Line, d.Pos.Column, d.Message)
}

type cacheKey struct {
	path   string
	style  format.Style
	source string
}

type cacheEntry struct {
	root parser.Node
	err  error
}

func New(proj *project.Project) *Codebase {
	c := &Codebase{
		project: proj,
		files:   make(map[string]*FileInfo),
	}
	c.cache.Resize(DefaultCacheSize)
	return c
}

func (c *Codebase) RootDir() string {
	return c.project.RootDir
}

func (c *Codebase) Project() *project.Project {
	return c.project
}

// ScanAll parses every template file of the project. Unreadable files
// are logged and skipped.
func (c *Codebase) ScanAll() error {
	files, err := c.project.Files()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := c.ScanFile(path); err != nil {
			log.Warningf("scan %s: %s", path, err)
		}
	}
	return nil
}

func (c *Codebase) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	c.UpdateFile(path, content)
	return nil
}

// UpdateFile parses content as the new state of path. A parse failure is
// recorded on the returned FileInfo, not returned.
func (c *Codebase) UpdateFile(path string, content []byte) *FileInfo {
	root, parseErr := c.parse(path, content)

	info := &FileInfo{
		Path:     path,
		Content:  content,
		Root:     root,
		ParseErr: parseErr,
	}

	c.mu.Lock()
	c.files[path] = info
	c.mu.Unlock()

	if parseErr != nil {
		log.Debugf("%s", parseErr)
	}
	return info
}

func (c *Codebase) parse(path string, content []byte) (parser.Node, error) {
	key := cacheKey{path: path, style: c.project.Style(), source: string(content)}
	if v, ok := c.cache.Get(key); ok {
		entry := v.(cacheEntry)
		return entry.root, entry.err
	}
	root, err := parser.Parse(key.source, key.style.ParseOptions(path)...)
	c.cache.Set(key, cacheEntry{root: root, err: err})
	return root, err
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Files returns the known files in natural path order.
func (c *Codebase) Files() []*FileInfo {
	c.mu.RLock()
	files := make([]*FileInfo, 0, len(c.files))
	for _, f := range c.files {
		files = append(files, f)
	}
	c.mu.RUnlock()

	sort.Slice(files, func(i, j int) bool {
		return natural.Less(files[i].Path, files[j].Path)
	})
	return files
}

// Diagnostics returns the parse failures of path, empty when it parsed.
func (c *Codebase) Diagnostics(path string) []Diagnostic {
	f := c.GetFile(path)
	if f == nil || f.ParseErr == nil {
		return nil
	}
	return []Diagnostic{diagnosticFor(path, f.ParseErr)}
}

// AllDiagnostics returns the parse failures of every known file.
func (c *Codebase) AllDiagnostics() []Diagnostic {
	var diags []Diagnostic
	for _, f := range c.Files() {
		if f.ParseErr != nil {
			diags = append(diags, diagnosticFor(f.Path, f.ParseErr))
		}
	}
	return diags
}

func diagnosticFor(path string, err error) Diagnostic {
	var perr *parser.Error
	if errors.As(err, &perr) {
		return Diagnostic{Path: path, Pos: perr.Pos, Kind: perr.Kind, Message: perr.Message}
	}
	return Diagnostic{Path: path, Pos: parser.Position{Line: 1, Column: 1}, Message: err.Error()}
}

// Format returns the canonical form of a known file.
func (c *Codebase) Format(path string) ([]byte, error) {
	f := c.GetFile(path)
	if f == nil {
		return nil, fmt.Errorf("%s: not part of the codebase", path)
	}
	if f.ParseErr != nil {
		return nil, f.ParseErr
	}
	return format.NewXJSEncoder(nil, c.project.Style()).MarshalText(f.Root)
}
