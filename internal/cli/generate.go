package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/mark3labs/openapi2sdk/internal/build"
	"github.com/mark3labs/openapi2sdk/internal/emitter/goemitter"
	"github.com/mark3labs/openapi2sdk/internal/logging"
	"github.com/mark3labs/openapi2sdk/internal/outplan"
	"github.com/mark3labs/openapi2sdk/internal/sdkgen"
	genspec "github.com/mark3labs/openapi2sdk/internal/spec"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const defaultOutDir = "./sdk/go"

// GenerateConfig captures all inputs that influence the generate command after
// merging defaults, config file values, and CLI overrides.
type GenerateConfig struct {
	Input       string
	APIKey      string
	Lang        string
	Out         string
	Module      string
	ClientName  string
	SDKVersion  string
	IncludeTags []string
	ExcludeTags []string
	ConfigPath  string
	DryRun      bool
	Force       bool
	SkipBuild   bool
	Verbose     bool
}

func defaultGenerateConfig() GenerateConfig {
	return GenerateConfig{Lang: "go", Out: defaultOutDir}
}

// plannedLangs are accepted by name but have no emitter yet.
var plannedLangs = []string{"typescript", "python", "java"}

var (
	generateRunner = runGenerate
	// buildRunner executes the toolchain for the compile step.
	buildRunner build.Runner = build.ExecRunner{}
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate [url-or-file]",
		Aliases: []string{"gen"},
		Short:   "Generate a typed client SDK from an OpenAPI 3 document",
		Long: "Generate a typed client SDK from an OpenAPI 3 document. " +
			"The document comes from the positional argument or --input; " +
			"options can be provided via flags, config files, or defaults.",
		Example: strings.TrimSpace(`  openapi2sdk generate https://api.example.com/openapi.json --api-key $KEY
  openapi2sdk generate --input spec.yaml --out ./sdk/go --module example.com/rewards
  openapi2sdk --config openapi2sdk.yaml generate --force --dry-run`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd, args)
			if err != nil {
				return err
			}
			return generateRunner(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.String("input", "", "Path or URL to the OpenAPI document")
	flags.StringP("api-key", "k", "", "Sent as x-api-key when fetching the document")
	flags.StringP("lang", "l", "", "Target language (go); defaults to go")
	flags.String("out", "", "Output directory of the SDK module (default "+defaultOutDir+")")
	flags.String("module", "", "Go module path of the SDK (derived from the API title when omitted)")
	flags.String("client-name", "", "Name of the facade type (default Client)")
	flags.String("sdk-version", "", "Version of the packaged module (defaults to info.version)")
	flags.StringSlice("include-tags", nil, "Only include operations with these tags")
	flags.StringSlice("exclude-tags", nil, "Exclude operations with these tags")
	flags.Bool("dry-run", false, "Preview planned outputs without writing files")
	flags.Bool("force", false, "Overwrite a non-empty output directory")
	flags.Bool("skip-build", false, "Do not compile and package the generated module")

	return cmd
}

func resolveGenerateConfig(cmd *cobra.Command, args []string) (*GenerateConfig, error) {
	cfg := defaultGenerateConfig()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	configPath = strings.TrimSpace(configPath)
	if configPath != "" {
		cfg.ConfigPath = configPath
		if err := applyGenerateConfigFromFile(&cfg, configPath); err != nil {
			return nil, err
		}
	}

	if err := applyGenerateFlagOverrides(cmd.Flags(), &cfg); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		positional := strings.TrimSpace(args[0])
		if cmd.Flags().Changed("input") && cfg.Input != positional {
			return nil, usageErrorf("generate: both an argument (%q) and --input (%q) were given", positional, cfg.Input)
		}
		cfg.Input = positional
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyGenerateFlagOverrides(flags *pflag.FlagSet, cfg *GenerateConfig) error {
	strs := map[string]*string{
		"input":       &cfg.Input,
		"api-key":     &cfg.APIKey,
		"lang":        &cfg.Lang,
		"out":         &cfg.Out,
		"module":      &cfg.Module,
		"client-name": &cfg.ClientName,
		"sdk-version": &cfg.SDKVersion,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = strings.TrimSpace(value)
	}
	if flags.Changed("include-tags") {
		value, err := flags.GetStringSlice("include-tags")
		if err != nil {
			return err
		}
		cfg.IncludeTags = sanitizeTags(value)
	}
	if flags.Changed("exclude-tags") {
		value, err := flags.GetStringSlice("exclude-tags")
		if err != nil {
			return err
		}
		cfg.ExcludeTags = sanitizeTags(value)
	}
	bools := map[string]*bool{
		"dry-run":    &cfg.DryRun,
		"force":      &cfg.Force,
		"skip-build": &cfg.SkipBuild,
		"verbose":    &cfg.Verbose,
	}
	for name, dst := range bools {
		if !flags.Changed(name) {
			continue
		}
		value, err := flags.GetBool(name)
		if err != nil {
			return err
		}
		*dst = value
	}

	return nil
}

func (c *GenerateConfig) normalize() {
	c.Input = strings.TrimSpace(c.Input)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Lang = strings.ToLower(strings.TrimSpace(c.Lang))
	c.Out = strings.TrimSpace(c.Out)
	c.Module = strings.TrimSpace(c.Module)
	c.ClientName = strings.TrimSpace(c.ClientName)
	c.SDKVersion = strings.TrimSpace(c.SDKVersion)
	c.IncludeTags = sanitizeTags(c.IncludeTags)
	c.ExcludeTags = sanitizeTags(c.ExcludeTags)
	if c.Lang == "" {
		c.Lang = "go"
	}
	if c.Out == "" {
		c.Out = defaultOutDir
	}
}

func (c *GenerateConfig) validate() error {
	if c.Input == "" {
		return newUsageError("generate: an OpenAPI document is required (argument, --input, or config file)")
	}

	if c.Lang != "go" {
		for _, l := range plannedLangs {
			if c.Lang == l {
				return usageErrorf("generate: --lang %s is not supported yet (available: go)", c.Lang)
			}
		}
		return usageErrorf("generate: unsupported --lang %q (allowed: go)", c.Lang)
	}

	overlap := intersect(c.IncludeTags, c.ExcludeTags)
	if len(overlap) > 0 {
		return usageErrorf("generate: include/exclude tags overlap: %s", strings.Join(overlap, ", "))
	}

	return nil
}

func runGenerate(ctx context.Context, cfg *GenerateConfig, stdout, stderr io.Writer) error {
	logger := logging.New(stderr, cfg.Verbose)

	// 1) Load the document (file or http/https URL) with validation
	doc, err := genspec.Load(ctx, cfg.Input, genspec.WithAPIKey(cfg.APIKey))
	if err != nil {
		return mapSpecError(err)
	}
	logger.Debug("loaded document", "input", cfg.Input, "openapi", doc.T.OpenAPI)

	// 2) Build the internal model with tag filters
	sm, err := genspec.BuildServiceModel(
		ctx,
		doc,
		genspec.WithIncludeTags(cfg.IncludeTags),
		genspec.WithExcludeTags(cfg.ExcludeTags),
	)
	if err != nil {
		return fmt.Errorf("build model: %w", err)
	}

	absOut := cfg.Out
	if ap, err := filepath.Abs(cfg.Out); err == nil {
		absOut = ap
	}

	// 3) Emit the SDK module
	res, err := goemitter.Emit(ctx, sm, goemitter.Options{
		OutDir:     cfg.Out,
		ModulePath: cfg.Module,
		ClientName: cfg.ClientName,
		Force:      cfg.Force,
		DryRun:     cfg.DryRun,
		Logger:     logger,
	})
	if err != nil {
		if errors.Is(err, sdkgen.ErrConfig) {
			return usageErrorf("generate: %v", err)
		}
		return wrapOutputError(err, absOut)
	}

	if cfg.DryRun {
		paths := make([]string, 0, len(res.Planned))
		for _, p := range res.Planned {
			paths = append(paths, p.RelPath)
		}
		printPlan(stdout, absOut, paths)
		return nil
	}
	logger.Info("generated sdk",
		"module", res.ModulePath,
		"controllers", res.Controllers,
		"methods", res.Methods,
		"written", len(res.Flushed.Written),
		"removed", len(res.Flushed.Removed),
	)
	fmt.Fprintf(stdout, "Generated %s in %s\n", res.ModulePath, absOut)

	if cfg.SkipBuild {
		return nil
	}

	// 4) Compile and package the module
	bopts := build.Options{Runner: buildRunner, Logger: logger}
	if err := build.Compile(ctx, cfg.Out, bopts); err != nil {
		return err
	}
	version := cfg.SDKVersion
	if version == "" {
		version = sm.Version
	}
	art, err := build.Package(ctx, cfg.Out, res.ModulePath, version, bopts)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Packaged %s@%s to %s\n", art.Module.Path, art.Module.Version, art.Path)
	return nil
}

// mapSpecError turns structured loader errors into friendly messages.
func mapSpecError(err error) error {
	var se *genspec.SpecError
	if !errors.As(err, &se) {
		return err
	}
	msg := fmt.Sprintf("spec: %s", se.Message)
	if se.Location != "" {
		msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
	}
	if se.JSONPointer != "" {
		msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
	}
	return newUsageError(msg)
}

func printPlan(w io.Writer, outDir string, relPaths []string) {
	fmt.Fprintf(w, "Planned writes to %s (%d files):\n", outDir, len(relPaths))
	for _, p := range relPaths {
		fmt.Fprintf(w, "- %s\n", p)
	}
}

func wrapOutputError(err error, outDir string) error {
	if errors.Is(err, outplan.ErrNotEmpty) || errors.Is(err, fs.ErrPermission) || errors.Is(err, fs.ErrExist) {
		return usageErrorf("output error for %s: %v\nHint: choose a different --out or use --force when appropriate.", outDir, err)
	}
	return err
}

func sanitizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(a))
	for _, item := range a {
		set[item] = struct{}{}
	}
	var result []string
	for _, item := range b {
		if _, ok := set[item]; ok {
			result = append(result, item)
		}
	}
	return result
}

func applyGenerateConfigFromFile(cfg *GenerateConfig, path string) error {
	data, err := readConfigFile(path)
	if err != nil {
		return err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return usageErrorf("parse config file %q: %v", path, err)
	}

	strs := map[string]*string{
		"input":      &cfg.Input,
		"apikey":     &cfg.APIKey,
		"lang":       &cfg.Lang,
		"out":        &cfg.Out,
		"module":     &cfg.Module,
		"clientname": &cfg.ClientName,
		"sdkversion": &cfg.SDKVersion,
	}
	bools := map[string]*bool{
		"dryrun":    &cfg.DryRun,
		"force":     &cfg.Force,
		"skipbuild": &cfg.SkipBuild,
		"verbose":   &cfg.Verbose,
	}

	for key, value := range raw {
		normalized := normalizeKey(key)
		if dst, ok := strs[normalized]; ok {
			str, err := valueAsString(value)
			if err != nil {
				return usageErrorf("config field %q: %v", key, err)
			}
			*dst = str
			continue
		}
		if dst, ok := bools[normalized]; ok {
			val, err := valueAsBool(value)
			if err != nil {
				return usageErrorf("config field %q: %v", key, err)
			}
			*dst = val
			continue
		}
		switch normalized {
		case "includetags":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return usageErrorf("config field %q: %v", key, err)
			}
			cfg.IncludeTags = sanitizeTags(list)
		case "excludetags":
			list, err := valueAsStringSlice(value)
			if err != nil {
				return usageErrorf("config field %q: %v", key, err)
			}
			cfg.ExcludeTags = sanitizeTags(list)
		default:
			return usageErrorf("config file %q: unknown field %q", path, key)
		}
	}

	return nil
}
