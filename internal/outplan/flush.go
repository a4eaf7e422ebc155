package outplan

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotEmpty is returned when the output directory holds files that no
// previous flush wrote and Force is not set.
var ErrNotEmpty = errors.New("outplan: output directory is not empty")

type FlushOptions struct {
	Force  bool // write into a non-empty directory that has no manifest
	Logger *slog.Logger
}

// FlushResult lists what a flush changed, relative to the output directory.
type FlushResult struct {
	Dir     string
	Written []string
	Removed []string
}

// Flush writes the plan under dir. A directory that contains a manifest from
// an earlier flush is treated as generated output and may be rewritten
// without Force. Files listed in that manifest but absent from the plan are
// removed along with directories left empty.
func (p *Plan) Flush(dir string, opts FlushOptions) (*FlushResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve out dir: %w", err)
	}

	previous, hasManifest, err := readManifest(abs)
	if err != nil {
		return nil, err
	}
	if !hasManifest && !opts.Force {
		if entries, rerr := os.ReadDir(abs); rerr == nil && len(entries) > 0 {
			return nil, fmt.Errorf("%w: %q (use --force to overwrite)", ErrNotEmpty, abs)
		}
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	res := &FlushResult{Dir: abs}
	for _, f := range p.files {
		if err := writeAtomic(filepath.Join(abs, filepath.FromSlash(f.Path)), f.Content, f.Mode); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Path, err)
		}
		res.Written = append(res.Written, f.Path)
	}

	for _, rel := range previous {
		if _, ok := p.Lookup(rel); ok {
			continue
		}
		target := filepath.Join(abs, filepath.FromSlash(rel))
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale %s: %w", rel, err)
		}
		logger.Debug("removed stale file", "path", rel)
		res.Removed = append(res.Removed, rel)
		pruneEmptyDirs(abs, filepath.Dir(target))
	}

	if err := writeAtomic(filepath.Join(abs, ManifestName), p.Manifest(), defaultMode); err != nil {
		return nil, fmt.Errorf("write %s: %w", ManifestName, err)
	}
	logger.Debug("flushed output plan", "dir", abs, "written", len(res.Written), "removed", len(res.Removed))
	return res, nil
}

func readManifest(dir string) ([]string, bool, error) {
	raw, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read manifest: %w", err)
	}
	var paths []string
	sc := bufio.NewScanner(bytes.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Entries that fail validation were not written by us; leave them.
		rel, err := cleanRel(line)
		if err != nil || rel == ManifestName {
			continue
		}
		paths = append(paths, rel)
	}
	if err := sc.Err(); err != nil {
		return nil, false, fmt.Errorf("read manifest: %w", err)
	}
	sort.Strings(paths)
	return paths, true, nil
}

// writeAtomic writes via a temp file in the target's directory and renames it
// into place.
func writeAtomic(target string, content []byte, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

func pruneEmptyDirs(root, dir string) {
	for dir != root && strings.HasPrefix(dir, root+string(filepath.Separator)) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}
