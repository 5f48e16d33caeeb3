package lint

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sofmeright/loq/src/rules"
)

func TestGenerateBaseline_FixedPoint(t *testing.T) {
	ctx := context.Background()
	fsys := fstest.MapFS{
		"a.py": {Data: lines(600)},
		"b.py": {Data: lines(50)},
	}
	files := infos("a.py", "b.py")
	existing := newRuleSet(t, rules.Options{DefaultMaxLines: 500})

	generated, _, err := GenerateBaseline(ctx, files, existing, fsys)
	require.NoError(t, err)
	if diff := cmp.Diff([]rules.Rule{{Pattern: "a.py", MaxLines: 600}}, generated); diff != "" {
		t.Fatalf("baseline mismatch (-want +got):\n%s", diff)
	}

	applied, err := existing.WithRules(generated...)
	require.NoError(t, err)

	again, report, err := GenerateBaseline(ctx, files, applied, fsys)
	require.NoError(t, err)
	assert.Empty(t, again, "baseline of a baselined tree adds nothing")
	assert.True(t, report.Passed())

	// Growing the locked file by one line is a violation again.
	fsys["a.py"] = &fstest.MapFile{Data: lines(601)}
	engine, err := NewEngine(applied, fsys)
	require.NoError(t, err)
	grown := engine.Scan(ctx, files)
	require.Len(t, grown.Violations, 1)
	assert.Equal(t, Violation{Path: "a.py", Lines: 601, MaxLines: 600, Source: "a.py"}, grown.Violations[0])
}

func TestGenerateBaseline_NeverLowers(t *testing.T) {
	fsys := fstest.MapFS{
		"legacy/big.go": {Data: lines(800)},
		"legacy/ok.go":  {Data: lines(100)},
	}
	existing := newRuleSet(t, rules.Options{
		DefaultMaxLines: 50,
		Rules:           []rules.Rule{{Pattern: "legacy/**", MaxLines: 1000}},
	})

	generated, _, err := GenerateBaseline(context.Background(), infos("legacy/big.go", "legacy/ok.go"), existing, fsys)
	require.NoError(t, err)
	assert.Empty(t, generated, "files under their resolved limit keep their rule")
}

func TestGenerateBaseline_SkipsExcluded(t *testing.T) {
	fsys := fstest.MapFS{
		"vendor/huge.go": {Data: lines(9000)},
		"main.go":        {Data: lines(700)},
	}
	existing := newRuleSet(t, rules.Options{Exclude: []string{"vendor/**"}})

	generated, _, err := GenerateBaseline(context.Background(), infos("vendor/huge.go", "main.go"), existing, fsys)
	require.NoError(t, err)
	assert.Equal(t, []rules.Rule{{Pattern: "main.go", MaxLines: 700}}, generated)
}

func TestGenerateBaseline_EscapesGlobCharacters(t *testing.T) {
	fsys := fstest.MapFS{
		"app/[id]/page.tsx": {Data: lines(700)},
		"app/i/page.tsx":    {Data: lines(700)},
	}
	files := infos("app/[id]/page.tsx")
	existing := newRuleSet(t, rules.Options{})

	generated, _, err := GenerateBaseline(context.Background(), files, existing, fsys)
	require.NoError(t, err)
	require.Len(t, generated, 1)
	assert.Equal(t, `app/\[id\]/page.tsx`, generated[0].Pattern)

	applied, err := existing.WithRules(generated...)
	require.NoError(t, err)
	limit, _ := applied.Resolve("app/i/page.tsx")
	assert.Equal(t, 500, limit.MaxLines, "a baseline rule never covers sibling files")
	limit, _ = applied.Resolve("app/[id]/page.tsx")
	assert.Equal(t, 700, limit.MaxLines)
}

func TestGenerateBaseline_OrderFollowsInput(t *testing.T) {
	fsys := fstest.MapFS{
		"z.go": {Data: lines(510)},
		"a.go": {Data: lines(520)},
	}
	generated, _, err := GenerateBaseline(context.Background(), infos("z.go", "a.go"), newRuleSet(t, rules.Options{}), fsys)
	require.NoError(t, err)
	assert.Equal(t, []rules.Rule{{Pattern: "z.go", MaxLines: 510}, {Pattern: "a.go", MaxLines: 520}}, generated)
}

func TestBaselineRules_NilReport(t *testing.T) {
	assert.Nil(t, BaselineRules(nil))
	assert.Nil(t, BaselineRules(&Report{}))
}
