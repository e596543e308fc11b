package pages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

func TestResolveBrand_AcceptsEveryAlias(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"polo":           "Polo",
		"H&M":            "H&M",
		"hm":             "H&M",
		"Madame":         "Madame",
		"mast & harbour": "Mast & Harbour",
		"mast-harbour":   "Mast & Harbour",
		"babyhug":        "Babyhug",
		"allen solly":    "Allen Solly Junior",
		"allen-solly":    "Allen Solly Junior",
		"Kookie Kids":    "Kookie Kids",
		"kookie-kids":    "Kookie Kids",
		" biba ":         "Biba",
	}
	for keyword, want := range cases {
		got, err := resolveBrand(keyword)
		require.NoError(t, err, keyword)
		assert.Equal(t, want, got, keyword)
	}
	assert.Equal(t, `a[href="/brand_products/Mast & Harbour"]`, brandLink("Mast & Harbour"))
}

func TestResolveBrand_UnknownIsConfigurationError(t *testing.T) {
	t.Parallel()
	_, err := resolveBrand("gucci")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidConfiguration))
	assert.Contains(t, err.Error(), `unknown brand "gucci"`)
}

func TestResolveCategory(t *testing.T) {
	t.Parallel()
	for keyword, path := range map[string]string{
		"women": "/category_products/1",
		"MEN":   "/category_products/3",
		"Kids":  "/category_products/4",
	} {
		target, err := resolveCategory(keyword)
		require.NoError(t, err, keyword)
		assert.Equal(t, path, target.path)
		assert.Contains(t, target.link, path)
	}

	_, err := resolveCategory("pets")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidConfiguration))
}

func testResolveBrand_RejectsUnknown(t *rapid.T) {
	keyword := rapid.StringMatching(`[a-z]{3,12}`).Draw(t, "keyword")
	_, known := brandNames[keyword]
	_, err := resolveBrand(keyword)
	if known && err != nil {
		t.Fatalf("known keyword %q rejected: %v", keyword, err)
	}
	if !known && !errs.Is(err, errs.InvalidConfiguration) {
		t.Fatalf("unknown keyword %q accepted", keyword)
	}
}

func TestResolveBrand_RejectsUnknown(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testResolveBrand_RejectsUnknown)
}

func TestMatchAll(t *testing.T) {
	t.Parallel()
	require.NoError(t, MatchAll("top", []string{"Blue Top", "Winter Top", "Summer White Top"}))

	err := MatchAll("dress", []string{"Sleeveless Dress", "Blue Top"})
	require.Error(t, err)
	ae, ok := errs.AsAssertion(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Blue Top"}, ae.Actual)

	err = MatchAll("xyz", nil)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.AssertionFailed))
}

func testMatchAll_CaseInsensitive(t *rapid.T) {
	term := rapid.StringMatching(`[a-zA-Z]{1,8}`).Draw(t, "term")
	names := rapid.SliceOfN(rapid.StringMatching(`[a-z ]{0,6}`), 1, 5).Draw(t, "prefixes")
	for i := range names {
		names[i] = names[i] + strings.ToUpper(term) + " item"
	}
	if err := MatchAll(strings.ToLower(term), names); err != nil {
		t.Fatalf("MatchAll(%q, %q) = %v", term, names, err)
	}
}

func TestMatchAll_CaseInsensitive(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testMatchAll_CaseInsensitive)
}
