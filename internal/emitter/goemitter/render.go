package goemitter

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"strconv"
	"text/template"

	"github.com/mark3labs/openapi2sdk/internal/outplan"
	"github.com/mark3labs/openapi2sdk/sdkruntime"
	"golang.org/x/mod/modfile"
	"golang.org/x/tools/imports"
)

// goVersion is the go directive of generated modules.
const goVersion = "1.22"

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("").
	Funcs(template.FuncMap{
		"quote":   strconv.Quote,
		"comment": commentLines,
	}).
	ParseFS(templateFS, "templates/*.tmpl"))

func execute(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("goemitter: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// renderGo executes a Go template and runs the result through goimports,
// which also drops imports the file ends up not using.
func renderGo(name, filename string, data any) ([]byte, error) {
	src, err := execute(name, data)
	if err != nil {
		return nil, err
	}
	out, err := imports.Process(filename, src, nil)
	if err != nil {
		return nil, fmt.Errorf("goemitter: format %s: %w", filename, err)
	}
	return out, nil
}

func renderGoMod(modulePath string) ([]byte, error) {
	f := new(modfile.File)
	if err := f.AddModuleStmt(modulePath); err != nil {
		return nil, fmt.Errorf("goemitter: go.mod: %w", err)
	}
	if err := f.AddGoStmt(goVersion); err != nil {
		return nil, fmt.Errorf("goemitter: go.mod: %w", err)
	}
	return f.Format()
}

// runtimeFiles copies the runtime package into the generated module.
func runtimeFiles() ([]outplan.File, error) {
	names, fsys := sdkruntime.SourceFiles()
	files := make([]outplan.File, 0, len(names))
	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("goemitter: read runtime %s: %w", name, err)
		}
		files = append(files, outplan.File{Path: "sdkruntime/" + name, Content: b})
	}
	return files, nil
}
