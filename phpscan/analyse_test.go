package phpscan_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/docannot/analyser"
	"go.jacobcolvin.com/docannot/phpscan"
	"go.jacobcolvin.com/docannot/stringtest"
)

type recorder struct {
	errs []error
	mu   sync.Mutex
}

func (r *recorder) Warn(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errs = append(r.errs, err)
}

func (r *recorder) warnings() []error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]error(nil), r.errs...)
}

var petsController = stringtest.JoinLF(
	"<?php",
	"namespace App;",
	"",
	`use Swagger\Annotations as SWG;`,
	"",
	"/**",
	` * @SWG\Info(title="Pets")`,
	" */",
	"class Api",
	"{",
	"    /**",
	`     * @SWG\Get(`,
	`     *     path="/pets",`,
	`     *     summary=`,
	"     * )",
	"     */",
	"    public function list() {}",
	"",
	`    /** @SWG\Post(path="/pets") */`,
	"    public function create() {}",
	"}",
)

func TestAnalyse(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	a := analyser.New(analyser.WithWarner(rec))

	got := phpscan.Analyse(t.Context(), a, "src/Api.php", []byte(petsController))
	require.Len(t, got, 2)

	info, post := got[0], got[1]
	assert.Equal(t, `Swagger\Annotations\Info`, info.Name)
	assert.Equal(t, 6, info.Context.Line)
	assert.Equal(t, "App", info.Context.Namespace)
	assert.Equal(t, "src/Api.php", info.Context.File)

	assert.Equal(t, `Swagger\Annotations\Post`, post.Name)
	assert.Equal(t, map[string]any{"path": "/pets"}, post.Fields)
	assert.Equal(t, 19, post.Context.Line)

	warnings := rec.warnings()
	require.Len(t, warnings, 1)

	var annErr *analyser.AnnotationError
	require.ErrorAs(t, warnings[0], &annErr)
	assert.Equal(t, "[Syntax Error] Expected PlainValue, got ')'", annErr.Message)
	assert.Equal(t, "src/Api.php", annErr.File)
	assert.Equal(t, 15, annErr.Line)
	assert.Equal(t, 8, annErr.Character)
}

func TestAnalyseUsesImports(t *testing.T) {
	t.Parallel()

	src := stringtest.JoinLF(
		"<?php",
		`use OpenApi\Annotations as OA;`,
		`/** @OA\Get(path="/") @SWG\Info */`,
	)

	p := analyser.NewDocParser(
		analyser.IgnoreNotImported(true),
		analyser.WithImports(analyser.DefaultImports),
		analyser.WithWhitelist([]string{`OpenApi\Annotations\`}),
	)
	a := analyser.New(analyser.WithParser(p), analyser.WithWarner(&recorder{}))

	got := phpscan.Analyse(t.Context(), a, "x.php", []byte(src))
	require.Len(t, got, 1)
	assert.Equal(t, `OpenApi\Annotations\Get`, got[0].Name)
}

func TestAnalyseStopsWhenDone(t *testing.T) {
	t.Parallel()

	calls := 0
	e := extractorFunc(func(context.Context, string, *analyser.Context) []*analyser.Annotation {
		calls++

		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	got := phpscan.Analyse(ctx, e, "src/Api.php", []byte(petsController))
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, calls)
}

type extractorFunc func(ctx context.Context, comment string, c *analyser.Context) []*analyser.Annotation

func (f extractorFunc) Extract(ctx context.Context, comment string, c *analyser.Context) []*analyser.Annotation {
	return f(ctx, comment, c)
}

func TestAnalyseFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	files := map[string]string{
		"a.php": "<?php\n/** @SWG\\Info(title=\"A\") */\n",
		"b.php": "<?php\n/** @SWG\\Tag(name=\"b\") */\n/** @SWG\\Tag(name=\"c\") */\n",
		"c.php": "<?php\necho 'no annotations';\n",
	}

	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	paths := []string{
		filepath.Join(dir, "c.php"),
		filepath.Join(dir, "a.php"),
		filepath.Join(dir, "b.php"),
	}

	tcs := map[string]struct {
		limit int
	}{
		"unlimited": {limit: 0},
		"one at a time": {limit: 1},
		"two at a time": {limit: 2},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			a := analyser.New(analyser.WithWarner(&recorder{}))

			results, err := phpscan.AnalyseFiles(t.Context(), a, paths, tc.limit)
			require.NoError(t, err)
			require.Len(t, results, 3)

			for i, path := range paths {
				assert.Equal(t, path, results[i].Path)
			}

			assert.Empty(t, results[0].Annotations)
			require.Len(t, results[1].Annotations, 1)
			assert.Equal(t, "A", results[1].Annotations[0].Fields["title"])
			require.Len(t, results[2].Annotations, 2)
			assert.Equal(t, "b", results[2].Annotations[0].Fields["name"])
			assert.Equal(t, "c", results[2].Annotations[1].Fields["name"])
			assert.Equal(t, 3, results[2].Annotations[1].Context.Line)
		})
	}
}

func TestAnalyseFilesReadError(t *testing.T) {
	t.Parallel()

	a := analyser.New(analyser.WithWarner(&recorder{}))

	_, err := phpscan.AnalyseFiles(t.Context(), a, []string{filepath.Join(t.TempDir(), "missing.php")}, 4)
	require.ErrorIs(t, err, phpscan.ErrReadInput)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCollect(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for _, name := range []string{
		"b.php",
		"a.PHP",
		"notes.txt",
		filepath.Join("sub", "x.php"),
		filepath.Join("sub", "x_test.php"),
		filepath.Join("vendor", "lib", "y.php"),
		filepath.Join(".git", "hook.php"),
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("<?php\n"), 0o644))
	}

	explicit := filepath.Join(dir, "notes.txt")

	tcs := map[string]struct {
		exclude []string
		want    []string
	}{
		"everything": {
			want: []string{
				filepath.Join(dir, "a.PHP"),
				filepath.Join(dir, "b.php"),
				filepath.Join(dir, "sub", "x.php"),
				filepath.Join(dir, "sub", "x_test.php"),
				filepath.Join(dir, "vendor", "lib", "y.php"),
				explicit,
			},
		},
		"excluded directory": {
			exclude: []string{"vendor"},
			want: []string{
				filepath.Join(dir, "a.PHP"),
				filepath.Join(dir, "b.php"),
				filepath.Join(dir, "sub", "x.php"),
				filepath.Join(dir, "sub", "x_test.php"),
				explicit,
			},
		},
		"excluded names and paths": {
			exclude: []string{"*_test.php", "b.php", "vendor/**", "notes.txt"},
			want: []string{
				filepath.Join(dir, "a.PHP"),
				filepath.Join(dir, "sub", "x.php"),
				explicit,
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := phpscan.Collect([]string{dir, explicit}, tc.exclude...)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCollectErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := phpscan.Collect([]string{filepath.Join(dir, "missing")})
	require.ErrorIs(t, err, phpscan.ErrReadInput)

	_, err = phpscan.Collect([]string{dir}, "[")
	require.ErrorIs(t, err, phpscan.ErrInvalidPattern)
}
