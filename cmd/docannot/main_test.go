package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/docannot/analyser"
	"go.jacobcolvin.com/docannot/phpscan"
	"go.jacobcolvin.com/docannot/stringtest"
)

var apiController = stringtest.JoinLF(
	"<?php",
	"namespace App;",
	"",
	"/**",
	` * @SWG\Info(title="Pets", version="1.0.0")`,
	" */",
	"class Api",
	"{",
	"    /**",
	`     * @SWG\Get(`,
	`     *     path=,`,
	"     * )",
	"     */",
	"    public function list() {}",
	"",
	`    /** @SWG\Post(path="/pets", tags={"pets"}) */`,
	"    public function create() {}",
	"}",
	"",
)

type output struct {
	Path        string `json:"path"        yaml:"path"`
	Annotations []struct {
		Fields map[string]any `json:"fields" yaml:"fields"`
		Name   string         `json:"name"   yaml:"name"`
		Alias  string         `json:"alias"  yaml:"alias"`
	} `json:"annotations" yaml:"annotations"`
}

func writeProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "Api.php"), []byte(apiController), 0o644))

	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return stdout.String(), stderr.String(), err
}

// The command installs the default logger, so these tests are not parallel.

func TestRunJSON(t *testing.T) {
	dir := writeProject(t)

	stdout, stderr, err := execute(t, "--log-format=json", dir)
	require.NoError(t, err)

	var got []output
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.Len(t, got, 1)

	assert.Equal(t, filepath.Join(dir, "src", "Api.php"), got[0].Path)
	require.Len(t, got[0].Annotations, 2)
	assert.Equal(t, `Swagger\Annotations\Info`, got[0].Annotations[0].Name)
	assert.Equal(t, `SWG\Info`, got[0].Annotations[0].Alias)
	assert.Equal(t, map[string]any{"title": "Pets", "version": "1.0.0"}, got[0].Annotations[0].Fields)
	assert.Equal(t, `Swagger\Annotations\Post`, got[0].Annotations[1].Name)
	assert.Equal(t, []any{"pets"}, got[0].Annotations[1].Fields["tags"])

	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	require.Len(t, lines, 1)

	var warning map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &warning))
	assert.Equal(t, "WARN", warning["level"])
	assert.Equal(t, "[Syntax Error] Expected PlainValue, got ','", warning["msg"])
	assert.Equal(t, filepath.Join(dir, "src", "Api.php"), warning["file"])
	assert.InDelta(t, 11, warning["line"], 0)
	assert.InDelta(t, 17, warning["character"], 0)
}

func TestRunYAMLFile(t *testing.T) {
	dir := writeProject(t)
	out := filepath.Join(t.TempDir(), "annotations.yaml")

	stdout, _, err := execute(t, "--log-level=error", "-o", out, filepath.Join(dir, "src", "Api.php"))
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var got []output
	require.NoError(t, yaml.Unmarshal(data, &got))
	require.Len(t, got, 1)
	require.Len(t, got[0].Annotations, 2)
	assert.Equal(t, `Swagger\Annotations\Info`, got[0].Annotations[0].Name)
	assert.Equal(t, "Pets", got[0].Annotations[0].Fields["title"])
}

func TestRunExclude(t *testing.T) {
	dir := writeProject(t)

	stdout, _, err := execute(t, "--log-level=error", "--format=json", "--exclude=src", dir)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", stdout)
}

func TestRunFailOnWarning(t *testing.T) {
	dir := writeProject(t)

	stdout, _, err := execute(t, "--log-level=error", "--fail-on-warning", "--format=json", dir)
	require.ErrorIs(t, err, ErrFaults)
	assert.NotEmpty(t, stdout)
}

func TestRunErrors(t *testing.T) {
	dir := writeProject(t)

	tcs := map[string]struct {
		wantErr error
		args    []string
	}{
		"unknown format": {
			args:    []string{"--format=xml", dir},
			wantErr: ErrUnknownFormat,
		},
		"bad exclude pattern": {
			args:    []string{"--exclude=[", dir},
			wantErr: phpscan.ErrInvalidPattern,
		},
		"missing input": {
			args:    []string{filepath.Join(dir, "missing.php")},
			wantErr: phpscan.ErrReadInput,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	_, _, err := execute(t, "--log-level=loud", dir)
	require.Error(t, err)
}

func TestRegistry(t *testing.T) {
	dir := writeProject(t)
	out := filepath.Join(t.TempDir(), "registry.yaml")

	stdout, _, err := execute(t, "registry", "--log-level=error", "--required", "-o", out, dir)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	r, err := analyser.LoadRegistry(out)
	require.NoError(t, err)
	assert.Equal(t, []string{`Swagger\Annotations\Info`, `Swagger\Annotations\Post`}, r.Names())

	info := r.Lookup(`Swagger\Annotations\Info`)
	require.NotNil(t, info)
	require.NoError(t, info.Validate(map[string]any{"title": "Owners", "version": "2.0.0"}))
	require.Error(t, info.Validate(map[string]any{"title": "Owners"}))

	stdout, _, err = execute(t, "registry", "--log-level=error", "--format=json", dir)
	require.NoError(t, err)

	var doc struct {
		Annotations map[string]map[string]any `json:"annotations"`
	}

	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "object", doc.Annotations[`Swagger\Annotations\Post`]["type"])
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "docannot devel (revision "), stdout)
}

func TestOutputFormat(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		flag   string
		output string
		want   string
	}{
		"flag json":          {flag: "json", output: "out.yaml", want: formatJSON},
		"flag yml alias":     {flag: "YML", want: formatYAML},
		"yaml file":          {output: "out.yml", want: formatYAML},
		"json file":          {output: "out.JSON", want: formatJSON},
		"other file":         {output: "out.txt", want: formatJSON},
		"not a terminal":     {want: formatJSON},
		"stdout placeholder": {output: "-", want: formatJSON},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := outputFormat(tc.flag, tc.output, &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
