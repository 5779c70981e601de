package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/xjs/format"
	"github.com/dhamidi/xjs/project"
)

func writeTemplates(t *testing.T, files map[string]string) *project.Project {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	proj, err := project.LoadFrom(dir)
	require.NoError(t, err)
	return proj
}

func TestCollectFiles(t *testing.T) {
	proj := writeTemplates(t, map[string]string{
		"a10.xjs":       "() => {}",
		"a2.xjs":        "() => {}",
		"sub/b.xjs":     "() => {}",
		"sub/notes.txt": "",
	})
	root := proj.RootDir

	all, err := collectFiles(proj, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "a2.xjs"),
		filepath.Join(root, "a10.xjs"),
		filepath.Join(root, "sub", "b.xjs"),
	}, all)

	picked, err := collectFiles(proj, []string{filepath.Join(root, "sub"), filepath.Join(root, "a2.xjs"), filepath.Join(root, "sub", "b.xjs")})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "sub", "b.xjs"), filepath.Join(root, "a2.xjs")}, picked)

	_, err = collectFiles(proj, []string{filepath.Join(root, "missing.xjs")})
	require.Error(t, err)
}

func TestFormatFiles(t *testing.T) {
	proj := writeTemplates(t, map[string]string{
		"good.xjs":   "() => {\n    <div/>\n}\n",
		"messy.xjs":  "(a,b) => {\n  <div   foo/>\n}",
		"broken.xjs": "() => {\n  <div a=/>\n}",
	})
	files, err := collectFiles(proj, nil)
	require.NoError(t, err)

	results, err := formatFiles(context.Background(), files, format.DefaultStyle())
	require.NoError(t, err)
	require.Len(t, results, 3)

	byName := make(map[string]fmtResult)
	for _, r := range results {
		byName[filepath.Base(r.path)] = r
	}

	assert.Error(t, byName["broken.xjs"].err)
	assert.False(t, byName["broken.xjs"].changed())
	assert.False(t, byName["good.xjs"].changed())
	assert.True(t, byName["messy.xjs"].changed())
	assert.Equal(t, "(a, b) => {\n    <div foo/>\n}\n", string(byName["messy.xjs"].formatted))
}
