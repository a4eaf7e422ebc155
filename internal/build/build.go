// Package build compiles a generated SDK and packages it as a module zip.
package build

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
	modzip "golang.org/x/mod/zip"
)

// Step names a build stage in errors and logs.
type Step string

const (
	StepCompile Step = "compile"
	StepPackage Step = "package"
)

// StepError reports a failed build stage. Output holds whatever the stage
// printed, for compile failures the compiler diagnostics.
type StepError struct {
	Step   Step
	Output string
	Err    error
}

func (e *StepError) Error() string {
	msg := fmt.Sprintf("build: %s step failed: %v", e.Step, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *StepError) Unwrap() error { return e.Err }

// Runner runs an external command in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

type Options struct {
	Runner Runner // defaults to ExecRunner
	Logger *slog.Logger
}

func (o Options) runner() Runner {
	if o.Runner != nil {
		return o.Runner
	}
	return ExecRunner{}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Compile runs `go build ./...` in the module at dir.
func Compile(ctx context.Context, dir string, opts Options) error {
	opts.logger().Debug("compiling sdk", "dir", dir)
	out, err := opts.runner().Run(ctx, dir, "go", "build", "./...")
	if err != nil {
		return &StepError{Step: StepCompile, Output: string(out), Err: err}
	}
	return nil
}

// Artifact is a packaged module.
type Artifact struct {
	Path    string // zip file
	Module  module.Version
	Version string // version the archive is named after
}

// Package zips the module at dir into <parent of dir>/<name>-<version>.zip,
// where name is the last element of modulePath. version is the API version;
// a missing "v" prefix is added and an unparsable one becomes v0.0.0.
func Package(ctx context.Context, dir, modulePath, version string, opts Options) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, &StepError{Step: StepPackage, Err: err}
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &StepError{Step: StepPackage, Err: err}
	}
	v := ModuleVersion(version)
	mv := module.Version{Path: modulePath, Version: v}
	if err := module.Check(mv.Path, mv.Version); err != nil {
		// majors above v1 without a /vN path suffix
		mv.Version = v + "+incompatible"
		if err2 := module.Check(mv.Path, mv.Version); err2 != nil {
			return nil, &StepError{Step: StepPackage, Err: err}
		}
	}

	name := path.Base(modulePath)
	if prefix, _, ok := module.SplitPathVersion(modulePath); ok && prefix != "" && prefix != modulePath {
		name = path.Base(prefix)
	}
	target := filepath.Join(filepath.Dir(abs), fmt.Sprintf("%s-%s.zip", name, v))

	f, err := os.Create(target)
	if err != nil {
		return nil, &StepError{Step: StepPackage, Err: err}
	}
	if err := modzip.CreateFromDir(f, mv, abs); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return nil, &StepError{Step: StepPackage, Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return nil, &StepError{Step: StepPackage, Err: err}
	}
	opts.logger().Debug("packaged sdk", "zip", target, "module", mv.Path, "version", mv.Version)
	return &Artifact{Path: target, Module: mv, Version: v}, nil
}

// ModuleVersion canonicalizes an API version into a semantic module version.
func ModuleVersion(version string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		return "v0.0.0"
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	// drop build metadata, which module versions cannot carry
	c := semver.Canonical(v)
	if c == "" {
		return "v0.0.0"
	}
	return c
}
