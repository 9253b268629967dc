package phpscan_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/docannot/phpscan"
	"go.jacobcolvin.com/docannot/stringtest"
)

func TestScan(t *testing.T) {
	t.Parallel()

	type comment struct {
		uses      map[string]string
		text      string
		namespace string
		line      int
	}

	tcs := map[string]struct {
		src           string
		want          []comment
		wantNamespace string
		wantUses      map[string]string
	}{
		"class with imports": {
			src: stringtest.JoinLF(
				"<?php",
				"",
				`namespace App\Http;`,
				"",
				`use Swagger\Annotations as SWG;`,
				`use OpenApi\Annotations as OA, Foo\Bar;`,
				"",
				"/**",
				` * @SWG\Info(title="Pets")`,
				" */",
				"class Pets",
				"{",
				"    use SomeTrait;",
				"",
				`    /** @OA\Get(path="/pets") */`,
				"    public function list() {}",
				"}",
			),
			want: []comment{
				{text: "/**\n * @SWG\\Info(title=\"Pets\")\n */", line: 8},
				{text: `/** @OA\Get(path="/pets") */`, line: 15},
			},
			wantNamespace: `App\Http`,
			wantUses: map[string]string{
				"swg": `Swagger\Annotations`,
				"oa":  `OpenApi\Annotations`,
				"bar": `Foo\Bar`,
			},
		},
		"lookalikes skipped": {
			src: stringtest.JoinLF(
				"<?php",
				`$a = "/** @Fake */ \" still string";`,
				`$b = '/** @Fake */ \' still';`,
				"// /** @Fake */",
				"# /** @Fake */",
				"/* /** @Fake */",
				"/**/",
				"$c = <<<EOT",
				"/** @Fake */",
				"EOT;",
				"$d = <<<'NOW'",
				"  /** @Fake */",
				"  NOW;",
				"#[Attribute]",
				"/** @Real */",
			),
			want: []comment{
				{text: "/** @Real */", line: 15},
			},
			wantUses: map[string]string{},
		},
		"inline html": {
			src: stringtest.JoinLF(
				"<html>",
				"/** not php */",
				"<?php /** @A */ ?>",
				"/** html again */",
				"<?= 1 ?>",
				"<?PHP",
				"/** @B */",
			),
			want: []comment{
				{text: "/** @A */", line: 3},
				{text: "/** @B */", line: 7},
			},
			wantUses: map[string]string{},
		},
		"braced namespaces": {
			src: stringtest.JoinLF(
				"<?php",
				"namespace Acme {",
				`    use Acme\Annotations as A;`,
				`    /** @A\Route */`,
				"    class X { use T; }",
				"}",
				"namespace {",
				`    use Other\Thing;`,
				"    /** @Thing */",
				"}",
			),
			want: []comment{
				{
					text:      `/** @A\Route */`,
					line:      4,
					namespace: "Acme",
					uses:      map[string]string{"a": `Acme\Annotations`},
				},
				{
					text: "/** @Thing */",
					line: 9,
					uses: map[string]string{"thing": `Other\Thing`},
				},
			},
			wantUses: map[string]string{"thing": `Other\Thing`},
		},
		"group and function imports": {
			src: stringtest.JoinLF(
				"<?php",
				`use Acme\{Route, Tag as T};`,
				`use function Acme\helper;`,
				`use const Acme\VERSION;`,
				`use \Lead\Slash;`,
				"/** @Route */",
			),
			want: []comment{
				{text: "/** @Route */", line: 6},
			},
			wantUses: map[string]string{
				"route": `Acme\Route`,
				"t":     `Acme\Tag`,
				"slash": `Lead\Slash`,
			},
		},
		"use keyword outside imports": {
			src: stringtest.JoinLF(
				"<?php",
				"$use = 1;",
				"$x->use;",
				"function f() { return function () use ($use) {}; }",
				"/** @Foo */",
			),
			want: []comment{
				{text: "/** @Foo */", line: 5},
			},
			wantUses: map[string]string{},
		},
		"unterminated doc comment": {
			src: "<?php\n/** @Foo(",
			want: []comment{
				{text: "/** @Foo(", line: 2},
			},
			wantUses: map[string]string{},
		},
		"no php tag": {
			src:      "/** @Foo */",
			wantUses: map[string]string{},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := phpscan.Scan([]byte(tc.src))
			require.Len(t, f.Comments, len(tc.want))

			for i, want := range tc.want {
				got := f.Comments[i]

				assert.Equal(t, want.text, got.Text)
				assert.Equal(t, want.line, got.Line)
				assert.Equal(t, strings.Index(tc.src, want.text), got.Offset)

				if want.uses != nil {
					assert.Equal(t, want.namespace, got.Namespace)
					assert.Equal(t, want.uses, got.Uses)
				}
			}

			assert.Equal(t, tc.wantNamespace, f.Namespace)
			assert.Equal(t, tc.wantUses, f.Uses)
		})
	}
}

func TestScanCommentsShareNamespaceImports(t *testing.T) {
	t.Parallel()

	src := stringtest.JoinLF(
		"<?php",
		"namespace App;",
		`use Acme\Route;`,
		"/** @Route */",
		"namespace Other;",
		"/** @Route */",
	)

	f := phpscan.Scan([]byte(src))
	require.Len(t, f.Comments, 2)

	assert.Equal(t, "App", f.Comments[0].Namespace)
	assert.Equal(t, map[string]string{"route": `Acme\Route`}, f.Comments[0].Uses)

	assert.Equal(t, "Other", f.Comments[1].Namespace)
	assert.Empty(t, f.Comments[1].Uses)
}
