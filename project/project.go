package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/maruel/natural"

	"github.com/dhamidi/xjs/format"
	"github.com/dhamidi/xjs/xjs/parser"
)

// ConfigFile is the name of the project configuration file.
const ConfigFile = ".xjs.yaml"

// Config is the content of .xjs.yaml. Zero fields take their defaults.
type Config struct {
	Indent      string   `yaml:"indent,omitempty"`
	Dialect     string   `yaml:"dialect,omitempty"`
	ContentOnly bool     `yaml:"contentOnly,omitempty"`
	Include     []string `yaml:"include,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Indent:  "    ",
		Dialect: parser.DialectCode.String(),
		Include: []string{"**/*.xjs"},
		Exclude: []string{"node_modules/**", ".git/**"},
	}
}

// Project is a directory of template files sharing one configuration.
type Project struct {
	RootDir    string
	ConfigPath string // empty when running on defaults
	Config     Config
}

// Load reads the project configuration of the current directory.
func Load() (*Project, error) {
	return LoadFrom(".")
}

// LoadFrom reads rootDir/.xjs.yaml, falling back to DefaultConfig when
// the file does not exist.
func LoadFrom(rootDir string) (*Project, error) {
	proj := &Project{RootDir: rootDir, Config: DefaultConfig()}

	path := filepath.Join(rootDir, ConfigFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return proj, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	proj.Config = cfg.withDefaults()
	proj.ConfigPath = path

	if err := proj.Config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return proj, nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Indent == "" {
		c.Indent = def.Indent
	}
	if c.Dialect == "" {
		c.Dialect = def.Dialect
	}
	if len(c.Include) == 0 {
		c.Include = def.Include
	}
	if c.Exclude == nil {
		c.Exclude = def.Exclude
	}
	return c
}

// Validate checks the dialect name, the indent and the glob patterns.
func (c Config) Validate() error {
	if _, err := parser.ParseDialect(c.Dialect); err != nil {
		return err
	}
	if strings.Trim(c.Indent, " \t") != "" {
		return fmt.Errorf("indent %q must only contain spaces and tabs", c.Indent)
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}
	return nil
}

// Style returns the formatting style the configuration describes.
func (c Config) Style() format.Style {
	dialect, err := parser.ParseDialect(c.Dialect)
	if err != nil {
		dialect = parser.DialectCode
	}
	indent := c.Indent
	if indent == "" {
		indent = DefaultConfig().Indent
	}
	return format.Style{Indent: indent, Dialect: dialect, ContentOnly: c.ContentOnly}
}

// Style is a shortcut for p.Config.Style().
func (p *Project) Style() format.Style {
	return p.Config.Style()
}

// Files returns the template files of the project: every file matching an
// include pattern and no exclude pattern, in natural order.
func (p *Project) Files() ([]string, error) {
	fsys := os.DirFS(p.RootDir)
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range p.Config.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, rel := range matches {
			if seen[rel] || p.excluded(rel) {
				continue
			}
			seen[rel] = true
			files = append(files, rel)
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return natural.Less(files[i], files[j])
	})
	for i, rel := range files {
		files[i] = filepath.Join(p.RootDir, filepath.FromSlash(rel))
	}
	return files, nil
}

// Matches reports whether path, absolute or relative to the working
// directory, names a template file of the project.
func (p *Project) Matches(path string) bool {
	rel, err := p.rel(path)
	if err != nil || strings.HasPrefix(rel, "../") {
		return false
	}
	if p.excluded(rel) {
		return false
	}
	for _, pattern := range p.Config.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (p *Project) excluded(rel string) bool {
	for _, pattern := range p.Config.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (p *Project) rel(path string) (string, error) {
	root, err := filepath.Abs(p.RootDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// WriteConfig stores c as rootDir/.xjs.yaml. An existing file is only
// replaced when overwrite is set.
func WriteConfig(rootDir string, c Config, overwrite bool) (string, error) {
	if err := c.Validate(); err != nil {
		return "", err
	}
	path := filepath.Join(rootDir, ConfigFile)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("%s already exists", path)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
