// Package outplan holds the set of files a generation pass produces and
// writes it to disk in one step.
//
// A Plan is built once from all rendered files and never mutated. Flush
// writes every file atomically and records the written paths in a manifest
// inside the output directory; the next Flush into the same directory removes
// files the previous run wrote that the new plan no longer contains.
package outplan

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// ManifestName is the file, relative to the output directory, that lists the
// files written by the last flush.
const ManifestName = ".openapi2sdk-manifest"

const defaultMode fs.FileMode = 0o644

// File is one planned output file. Path is slash-separated and relative to
// the output directory.
type File struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
}

// PlannedFile describes a file without its content, for dry-run listings.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    fs.FileMode
}

// Plan is an immutable, path-ordered set of files.
type Plan struct {
	files []File
}

// New validates files and returns them as a Plan sorted by path. Paths must
// be relative, clean and unique; the manifest name is reserved.
func New(files ...File) (*Plan, error) {
	out := make([]File, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		p, err := cleanRel(f.Path)
		if err != nil {
			return nil, err
		}
		if p == ManifestName {
			return nil, fmt.Errorf("outplan: %s is reserved", ManifestName)
		}
		if seen[p] {
			return nil, fmt.Errorf("outplan: duplicate file %s", p)
		}
		seen[p] = true
		mode := f.Mode
		if mode == 0 {
			mode = defaultMode
		}
		content := make([]byte, len(f.Content))
		copy(content, f.Content)
		out = append(out, File{Path: p, Content: content, Mode: mode})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return &Plan{files: out}, nil
}

// Lookup returns the content planned for rel.
func (p *Plan) Lookup(rel string) ([]byte, bool) {
	i := sort.Search(len(p.files), func(i int) bool { return p.files[i].Path >= rel })
	if i < len(p.files) && p.files[i].Path == rel {
		return p.files[i].Content, true
	}
	return nil, false
}

func (p *Plan) Len() int { return len(p.files) }

// Planned lists the files, followed by the manifest Flush will write.
func (p *Plan) Planned() []PlannedFile {
	out := make([]PlannedFile, 0, len(p.files)+1)
	for _, f := range p.files {
		out = append(out, PlannedFile{RelPath: f.Path, Size: len(f.Content), Mode: f.Mode})
	}
	out = append(out, PlannedFile{RelPath: ManifestName, Size: len(p.Manifest()), Mode: defaultMode})
	return out
}

// Manifest renders the manifest content for this plan.
func (p *Plan) Manifest() []byte {
	var b strings.Builder
	b.WriteString("# Files generated by openapi2sdk. Do not edit.\n")
	for _, f := range p.files {
		b.WriteString(f.Path)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Digest is a hash over every path and content. Two plans with equal digests
// produce identical trees.
func (p *Plan) Digest() string {
	h := sha256.New()
	for _, f := range p.files {
		fmt.Fprintf(h, "%s\x00%o\x00%d\x00", f.Path, f.Mode, len(f.Content))
		h.Write(f.Content)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func cleanRel(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return "", fmt.Errorf("outplan: empty file path")
	}
	if strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("outplan: path %s is absolute", p)
	}
	c := path.Clean(p)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("outplan: path %s escapes the output directory", p)
	}
	return c, nil
}
