package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureGenerate(t *testing.T, args ...string) (*GenerateConfig, error) {
	t.Helper()
	root := NewRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	var captured *GenerateConfig
	generateRunner = func(_ context.Context, cfg *GenerateConfig, _, _ io.Writer) error {
		captured = cfg
		return nil
	}
	t.Cleanup(func() { generateRunner = runGenerate })

	root.SetArgs(args)
	err := root.Execute()
	return captured, err
}

func TestGenerateConfigFromFlags(t *testing.T) {
	cfg, err := captureGenerate(t,
		"--verbose",
		"generate",
		"--input", "spec.yaml",
		"-k", "secret",
		"--lang", "GO",
		"--out", "./build",
		"--module", "example.com/rewards",
		"--client-name", "Rewards",
		"--sdk-version", "1.2.3",
		"--include-tags", "foo,bar",
		"--exclude-tags", "baz",
		"--dry-run",
		"--force",
		"--skip-build",
	)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "spec.yaml", cfg.Input)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "go", cfg.Lang)
	assert.Equal(t, "./build", cfg.Out)
	assert.Equal(t, "example.com/rewards", cfg.Module)
	assert.Equal(t, "Rewards", cfg.ClientName)
	assert.Equal(t, "1.2.3", cfg.SDKVersion)
	assert.Equal(t, []string{"foo", "bar"}, cfg.IncludeTags)
	assert.Equal(t, []string{"baz"}, cfg.ExcludeTags)
	assert.True(t, cfg.DryRun)
	assert.True(t, cfg.Force)
	assert.True(t, cfg.SkipBuild)
	assert.True(t, cfg.Verbose)
}

func TestGenerateConfigDefaults(t *testing.T) {
	cfg, err := captureGenerate(t, "gen", "https://api.example.com/openapi.json")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://api.example.com/openapi.json", cfg.Input)
	assert.Equal(t, "go", cfg.Lang)
	assert.Equal(t, defaultOutDir, cfg.Out)
	assert.Empty(t, cfg.Module)
	assert.False(t, cfg.SkipBuild)
}

func TestGenerateConfigPrecedence(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	configContent := strings.TrimSpace(`input: config-spec.yaml
api-key: from-config
lang: go
out: from-config
module: example.com/cfg
client_name: CfgClient
sdkVersion: 3
includeTags:
  - cfgFoo
excludeTags: cfgBar
dryRun: true
force: false
skipBuild: "yes"
verbose: true
`) + "\n"
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	cfg, err := captureGenerate(t,
		"--config", configPath,
		"generate",
		"--input", "flag-spec.yaml",
		"--include-tags", "flagTag",
		"--dry-run=false",
		"--force",
	)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "flag-spec.yaml", cfg.Input)
	assert.Equal(t, "from-config", cfg.APIKey)
	assert.Equal(t, "go", cfg.Lang)
	assert.Equal(t, "from-config", cfg.Out)
	assert.Equal(t, "example.com/cfg", cfg.Module)
	assert.Equal(t, "CfgClient", cfg.ClientName)
	assert.Equal(t, "3", cfg.SDKVersion)
	assert.Equal(t, []string{"flagTag"}, cfg.IncludeTags)
	assert.Equal(t, []string{"cfgBar"}, cfg.ExcludeTags)
	assert.False(t, cfg.DryRun, "flag overrides config")
	assert.True(t, cfg.Force)
	assert.True(t, cfg.SkipBuild)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, configPath, cfg.ConfigPath)
}

func TestGenerateConfigErrors(t *testing.T) {
	badConfig := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(badConfig, []byte("unknown: value\n"), 0o600))

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", []string{"generate"}, "OpenAPI document is required"},
		{"unknown config key", []string{"--config", badConfig, "generate", "--input", "spec.yaml"}, "unknown field"},
		{"missing config file", []string{"--config", filepath.Join(t.TempDir(), "nope.yaml"), "generate", "x.yaml"}, "read config file"},
		{"planned language", []string{"generate", "spec.yaml", "--lang", "typescript"}, "not supported yet"},
		{"unknown language", []string{"generate", "spec.yaml", "-l", "cobol"}, "unsupported --lang"},
		{"tag overlap", []string{"generate", "spec.yaml", "--include-tags", "a,b", "--exclude-tags", "b"}, "overlap: b"},
		{"argument and input differ", []string{"generate", "a.yaml", "--input", "b.yaml"}, "both an argument"},
		{"unknown flag", []string{"generate", "--unknown-flag"}, "unknown flag"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := captureGenerate(t, tc.args...)
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, ErrUsage)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestUnknownFlag_ShowsUsage(t *testing.T) {
	_, err := captureGenerate(t, "generate", "--unknown-flag")
	require.Error(t, err)
	assert.IsType(t, usageError{}, err)
	assert.Contains(t, err.Error(), "Usage:")
}

func TestGenerateConfigSameArgumentAndInput(t *testing.T) {
	cfg, err := captureGenerate(t, "generate", "spec.yaml", "--input", "spec.yaml")
	require.NoError(t, err)
	assert.Equal(t, "spec.yaml", cfg.Input)
}
