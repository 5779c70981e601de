package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/xjs/xjs/parser"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadFromDefaults(t *testing.T) {
	dir := t.TempDir()

	proj, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Empty(t, proj.ConfigPath)
	assert.Equal(t, DefaultConfig(), proj.Config)

	style := proj.Style()
	assert.Equal(t, "    ", style.Indent)
	assert.Equal(t, parser.DialectCode, style.Dialect)
	assert.False(t, style.ContentOnly)
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ConfigFile, "indent: \"  \"\ndialect: text\ncontentOnly: true\ninclude:\n  - \"views/**/*.xjs\"\n")

	proj, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFile), proj.ConfigPath)
	assert.Equal(t, "  ", proj.Config.Indent)
	assert.Equal(t, []string{"views/**/*.xjs"}, proj.Config.Include)
	assert.Equal(t, DefaultConfig().Exclude, proj.Config.Exclude)

	style := proj.Style()
	assert.Equal(t, parser.DialectText, style.Dialect)
	assert.True(t, style.ContentOnly)
}

func TestLoadFromInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown dialect", "dialect: html\n"},
		{"bad indent", "indent: \"ab\"\n"},
		{"bad pattern", "include:\n  - \"[a\"\n"},
		{"not yaml", "indent: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, ConfigFile, tt.content)
			_, err := LoadFrom(dir)
			require.Error(t, err)
		})
	}
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{
		"page10.xjs",
		"page2.xjs",
		"page1.xjs",
		"views/list.xjs",
		"views/readme.md",
		"node_modules/lib/x.xjs",
	} {
		writeFile(t, dir, rel, "() => {}")
	}

	proj, err := LoadFrom(dir)
	require.NoError(t, err)

	files, err := proj.Files()
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "page1.xjs"),
		filepath.Join(dir, "page2.xjs"),
		filepath.Join(dir, "page10.xjs"),
		filepath.Join(dir, "views", "list.xjs"),
	}
	assert.Equal(t, want, files)
}

func TestMatches(t *testing.T) {
	dir := t.TempDir()
	proj, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.True(t, proj.Matches(filepath.Join(dir, "a.xjs")))
	assert.True(t, proj.Matches(filepath.Join(dir, "deep", "b.xjs")))
	assert.False(t, proj.Matches(filepath.Join(dir, "a.js")))
	assert.False(t, proj.Matches(filepath.Join(dir, "node_modules", "c.xjs")))
	assert.False(t, proj.Matches(filepath.Join(filepath.Dir(dir), "outside.xjs")))
}

func TestWriteConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dialect = "text"
	cfg.Indent = "\t"

	path, err := WriteConfig(dir, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ConfigFile), path)

	proj, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, proj.Config)

	_, err = WriteConfig(dir, cfg, false)
	require.Error(t, err)
	_, err = WriteConfig(dir, cfg, true)
	require.NoError(t, err)
}
