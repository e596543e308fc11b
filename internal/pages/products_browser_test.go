package pages

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

type fakeProduct struct {
	name, blurb, price string
}

var fakeCatalogue = []fakeProduct{
	{"Blue Top", "cotton", "Rs. 500"},
	{"Winter Top", "wool", "Rs. 600"},
	{"Men Tshirt", "goes with any top", "Rs. 400"},
}

const catalogueHTML = `<!doctype html><html><body>
<form action="/products" method="get">
<input type="text" id="search_product" name="search"><button type="submit" id="submit_search">Search</button>
</form>
<div class="features_items"><h2 class="title text-center">%s</h2>%s</div>
</body></html>`

// fakeCatalogueSite matches searches against names and blurbs, the way a
// loose storefront search would.
func fakeCatalogueSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, r *http.Request) {
		title := AllProductsTitle
		term := strings.ToLower(r.URL.Query().Get("search"))
		if r.URL.Query().Has("search") {
			title = SearchedProductsTitle
		}
		var cards strings.Builder
		for _, p := range fakeCatalogue {
			if term != "" && !strings.Contains(strings.ToLower(p.name+" "+p.blurb), term) {
				continue
			}
			fmt.Fprintf(&cards, `<div class="product-image-wrapper"><div class="productinfo text-center">
<h2>%s</h2><p>%s</p><span>%s</span></div></div>`, p.price, p.name, p.blurb)
		}
		fmt.Fprintf(w, catalogueHTML, title, cards.String())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch_BlankTermShowsFullCatalogue(t *testing.T) {
	srv := fakeCatalogueSite(t)
	set := browserPages(t, srv.URL)

	require.NoError(t, set.Home.SearchProduct(""))
	require.NoError(t, set.Products.AssertFullCatalogue())

	err := set.Products.AssertNoSearchResults()
	require.Error(t, err, "the unsearched listing is not an empty search")
	assert.True(t, errs.Is(err, errs.AssertionFailed), "got %v", err)
}

func TestSearch_UnknownTermListsNothing(t *testing.T) {
	srv := fakeCatalogueSite(t)
	set := browserPages(t, srv.URL)

	require.NoError(t, set.Home.SearchProduct("zz-no-such-product"))
	require.NoError(t, set.Products.AssertNoSearchResults())
	assert.Error(t, set.Products.AssertFullCatalogue())
}

func TestSearch_EveryResultNameMustContainTerm(t *testing.T) {
	srv := fakeCatalogueSite(t)
	set := browserPages(t, srv.URL)

	require.NoError(t, set.Home.SearchProduct("Blue"))
	require.NoError(t, set.Products.AssertURLContains("search=Blue"))
	require.NoError(t, set.Products.AssertSearchResultsContain("Blue"))

	// "Men Tshirt" matches "top" only through its blurb.
	require.NoError(t, set.Home.SearchProduct("top"))
	require.NoError(t, set.Products.AssertURLContains("search=top"))
	require.NoError(t, set.Products.AssertBodyContains("goes with any top"))
	err := set.Products.AssertSearchResultsContain("top")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.AssertionFailed), "got %v", err)
	assert.Contains(t, err.Error(), "Men Tshirt")
}
