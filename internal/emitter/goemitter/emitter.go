package goemitter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/openapi2sdk/internal/outplan"
	"github.com/mark3labs/openapi2sdk/internal/sdkgen"
	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
	"golang.org/x/mod/module"
	"golang.org/x/sync/errgroup"
)

// Options controls how the Go emitter renders an SDK.
type Options struct {
	OutDir     string // required; target directory of the generated module
	ModulePath string // defaults to example.com/<slug of the API title>
	ClientName string // facade type name; defaults to Client
	Force      bool   // write into a non-empty directory without a manifest
	DryRun     bool   // plan only
	Logger     *slog.Logger
}

// Result describes the generated module.
type Result struct {
	ModulePath  string
	PackageName string
	ClientName  string
	Controllers int
	Methods     int
	Digest      string
	Planned     []outplan.PlannedFile
	// Flushed is nil on a dry run.
	Flushed *outplan.FlushResult
}

type clientView struct {
	Module      string
	Package     string
	PackageDoc  string
	Client      string
	Title       string
	Version     string
	ExampleURL  string
	Servers     []serverView
	Controllers []controllerView
}

type serverView struct {
	Name string
	URL  string
	Doc  string
}

// Emit renders a Go SDK module for the ServiceModel. Any configuration error
// is returned before a file is written.
func Emit(ctx context.Context, sm *genspec.ServiceModel, opts Options) (*Result, error) {
	if sm == nil {
		return nil, fmt.Errorf("goemitter: nil ServiceModel")
	}
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, fmt.Errorf("goemitter: OutDir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	modulePath := strings.TrimSpace(opts.ModulePath)
	if modulePath == "" {
		modulePath = defaultModulePath(sm.Title)
	}
	if err := module.CheckPath(modulePath); err != nil {
		return nil, fmt.Errorf("goemitter: invalid module path: %w", err)
	}
	clientName := exportedName(opts.ClientName)
	if clientName == "" {
		clientName = "Client"
	}

	plan, view, err := buildPlan(ctx, sm, modulePath, clientName, logger)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ModulePath:  modulePath,
		PackageName: view.Package,
		ClientName:  clientName,
		Controllers: len(view.Controllers),
		Digest:      plan.Digest(),
		Planned:     plan.Planned(),
	}
	for _, c := range view.Controllers {
		res.Methods += len(c.Methods)
	}
	logger.Debug("planned sdk", "module", modulePath, "files", plan.Len(), "controllers", res.Controllers, "methods", res.Methods)

	if !opts.DryRun {
		flushed, err := plan.Flush(opts.OutDir, outplan.FlushOptions{Force: opts.Force, Logger: logger})
		if err != nil {
			return nil, err
		}
		res.Flushed = flushed
	}
	return res, nil
}

// buildPlan renders every file of the SDK. Controllers are rendered in
// parallel into an indexed slice so the result does not depend on scheduling.
func buildPlan(ctx context.Context, sm *genspec.ServiceModel, modulePath, clientName string, logger *slog.Logger) (*outplan.Plan, *clientView, error) {
	ctrls, err := sdkgen.BuildControllers(sm)
	if err != nil {
		return nil, nil, err
	}
	idx, err := newTypeIndex(sm)
	if err != nil {
		return nil, nil, err
	}
	goNames, err := controllerNames(ctrls)
	if err != nil {
		return nil, nil, err
	}

	views := make([]controllerView, len(ctrls))
	sources := make([][]byte, len(ctrls))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range ctrls {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			v, err := buildControllerView(idx, modulePath, goNames[c.Name], c)
			if err != nil {
				return err
			}
			src, err := renderGo("controller.go.tmpl", "controllers/"+goFileName(v.File), v)
			if err != nil {
				return err
			}
			views[i], sources[i] = v, src
			logger.Debug("rendered controller", "controller", v.Name, "methods", len(v.Methods))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := checkPackageScope(views); err != nil {
		return nil, nil, err
	}

	var files []outplan.File
	for i, v := range views {
		files = append(files, outplan.File{Path: "controllers/" + goFileName(v.File), Content: sources[i]})
	}

	defs, err := renderGo("definitions.go.tmpl", "definitions/definitions.go", struct{ Definitions []defView }{idx.definitionViews()})
	if err != nil {
		return nil, nil, err
	}
	files = append(files, outplan.File{Path: "definitions/definitions.go", Content: defs})

	view := newClientView(sm, modulePath, clientName, views)
	client, err := renderGo("client.go.tmpl", "client.go", view)
	if err != nil {
		return nil, nil, err
	}
	readme, err := execute("README.md.tmpl", view)
	if err != nil {
		return nil, nil, err
	}
	gomod, err := renderGoMod(modulePath)
	if err != nil {
		return nil, nil, err
	}
	files = append(files,
		outplan.File{Path: "client.go", Content: client},
		outplan.File{Path: "README.md", Content: readme},
		outplan.File{Path: "go.mod", Content: gomod},
	)

	runtime, err := runtimeFiles()
	if err != nil {
		return nil, nil, err
	}
	files = append(files, runtime...)

	plan, err := outplan.New(files...)
	if err != nil {
		return nil, nil, err
	}
	return plan, view, nil
}

func newClientView(sm *genspec.ServiceModel, modulePath, clientName string, ctrls []controllerView) *clientView {
	title := strings.TrimSpace(sm.Title)
	if title == "" {
		title = "the API"
	}
	pkg := packageName(modulePath)
	doc := fmt.Sprintf("Package %s is the Go SDK for %s.", pkg, title)
	if line := firstLine(sm.Description); line != "" {
		doc += "\n\n" + line
	}
	v := &clientView{
		Module:      modulePath,
		Package:     pkg,
		PackageDoc:  doc,
		Client:      clientName,
		Title:       title,
		Version:     sm.Version,
		ExampleURL:  "https://api.example.com",
		Controllers: ctrls,
	}
	names := uniqueNamer{}
	for _, s := range sm.Servers {
		if strings.TrimSpace(s.URL) == "" {
			continue
		}
		name := "ServerURL"
		if d := exportedName(s.Description); d != "" {
			name = d + "URL"
		}
		v.Servers = append(v.Servers, serverView{Name: names.next(name), URL: s.URL, Doc: firstLine(s.Description)})
	}
	if len(v.Servers) > 0 {
		v.ExampleURL = v.Servers[0].URL
	}
	return v
}

func defaultModulePath(title string) string {
	if s := slug(title); s != "" {
		return "example.com/" + s
	}
	return "example.com/sdk"
}
