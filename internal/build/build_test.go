package build

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	dir  string
	args []string
	out  []byte
	err  error
}

func (f *fakeRunner) Run(_ context.Context, dir, name string, args ...string) ([]byte, error) {
	f.dir = dir
	f.args = append([]string{name}, args...)
	return f.out, f.err
}

func TestCompile_RunsGoBuild(t *testing.T) {
	r := &fakeRunner{}
	require.NoError(t, Compile(context.Background(), "/tmp/sdk", Options{Runner: r}))
	assert.Equal(t, "/tmp/sdk", r.dir)
	assert.Equal(t, []string{"go", "build", "./..."}, r.args)
}

func TestCompile_FailureCarriesOutput(t *testing.T) {
	exit := errors.New("exit status 1")
	r := &fakeRunner{out: []byte("controllers/users.go:3:1: syntax error\n"), err: exit}
	err := Compile(context.Background(), "/tmp/sdk", Options{Runner: r})

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepCompile, stepErr.Step)
	assert.ErrorIs(t, err, exit)
	assert.Contains(t, err.Error(), "compile step failed")
	assert.Contains(t, err.Error(), "syntax error")
}

func writeModule(t *testing.T, modulePath string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "sdk")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module "+modulePath+"\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "client.go"), []byte("package rewards\n"), 0o644))
	return dir
}

func zipNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPackage_WritesModuleZip(t *testing.T) {
	dir := writeModule(t, "example.com/rewards")
	art, err := Package(context.Background(), dir, "example.com/rewards", "1.2.0", Options{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(filepath.Dir(dir), "rewards-v1.2.0.zip"), art.Path)
	assert.Equal(t, "v1.2.0", art.Module.Version)
	assert.ElementsMatch(t, []string{
		"example.com/rewards@v1.2.0/go.mod",
		"example.com/rewards@v1.2.0/client.go",
	}, zipNames(t, art.Path))
}

func TestPackage_MajorVersionWithoutSuffix(t *testing.T) {
	dir := writeModule(t, "example.com/rewards")
	art, err := Package(context.Background(), dir, "example.com/rewards", "v2.4.0", Options{})
	require.NoError(t, err)
	assert.Equal(t, "v2.4.0+incompatible", art.Module.Version)
	assert.Equal(t, "rewards-v2.4.0.zip", filepath.Base(art.Path))
}

func TestPackage_MajorSuffixNamesArchive(t *testing.T) {
	dir := writeModule(t, "example.com/rewards/v2")
	art, err := Package(context.Background(), dir, "example.com/rewards/v2", "2.0.1", Options{})
	require.NoError(t, err)
	assert.Equal(t, "v2.0.1", art.Module.Version)
	assert.Equal(t, "rewards-v2.0.1.zip", filepath.Base(art.Path))
}

func TestPackage_InvalidModulePath(t *testing.T) {
	dir := writeModule(t, "example.com/rewards")
	_, err := Package(context.Background(), dir, "not a module", "1.0.0", Options{})
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepPackage, stepErr.Step)
}

func TestModuleVersion(t *testing.T) {
	cases := map[string]string{
		"1.2.3":        "v1.2.3",
		"v1.2":         "v1.2.0",
		"2.0.0-beta.1": "v2.0.0-beta.1",
		"1.0.0+build":  "v1.0.0",
		"":             "v0.0.0",
		"latest":       "v0.0.0",
	}
	for in, want := range cases {
		assert.Equal(t, want, ModuleVersion(in), in)
	}
}
