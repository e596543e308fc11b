package pages

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/timing"
)

// Listing headings.
const (
	AllProductsTitle      = "All Products"
	SearchedProductsTitle = "Searched Products"
)

// ProductsLocators are the /products and product-details selectors.
type ProductsLocators struct {
	Title             string // listing heading, one
	SearchInput       string
	SearchButton      string
	Grid              string // listing container, one
	Card              string // product name and price blocks, many
	Wrapper           string // whole product card, many
	AddToCart         string // inside a card
	ViewProduct       string // inside a card
	Modal             string // add-to-cart confirmation
	ModalViewCart     string
	ModalContinue     string
	DetailName        string // product details, one
	DetailPrice       string
	DetailInfo        string // Category/Availability/Condition/Brand paragraphs
	Quantity          string
	DetailAddToCart   string
	ReviewName        string
	ReviewEmail       string
	ReviewText        string
	ReviewSubmit      string
	ReviewSuccess     string // text shown after a review is posted
	WriteYourReview   string
	SearchedHeading   string // "Searched Products" after a search
	BrandProductsPath string
}

// DefaultProductsLocators match automationexercise.com.
var DefaultProductsLocators = ProductsLocators{
	Title:             ".title.text-center",
	SearchInput:       "#search_product",
	SearchButton:      "#submit_search",
	Grid:              ".features_items",
	Card:              ".features_items .productinfo",
	Wrapper:           ".features_items .product-image-wrapper",
	AddToCart:         "a.add-to-cart",
	ViewProduct:       "a[href*='/product_details/']",
	Modal:             ".modal-content",
	ModalViewCart:     ".modal-body a[href='/view_cart']",
	ModalContinue:     "button.close-modal",
	DetailName:        ".product-information h2",
	DetailPrice:       ".product-information span span",
	DetailInfo:        ".product-information p",
	Quantity:          "#quantity",
	DetailAddToCart:   "button.cart",
	ReviewName:        "#name",
	ReviewEmail:       "#email",
	ReviewText:        "#review",
	ReviewSubmit:      "#button-review",
	ReviewSuccess:     "Thank you for your review.",
	WriteYourReview:   `a[href="#reviews"]`,
	SearchedHeading:   ".features_items .title",
	BrandProductsPath: "/brand_products/",
}

// brandNames maps every accepted keyword to the storefront's brand name.
var brandNames = map[string]string{
	"polo":           "Polo",
	"h&m":            "H&M",
	"hm":             "H&M",
	"madame":         "Madame",
	"mast & harbour": "Mast & Harbour",
	"mast-harbour":   "Mast & Harbour",
	"babyhug":        "Babyhug",
	"allen solly":    "Allen Solly Junior",
	"allen-solly":    "Allen Solly Junior",
	"kookie kids":    "Kookie Kids",
	"kookie-kids":    "Kookie Kids",
	"biba":           "Biba",
}

// resolveBrand maps a brand keyword to the storefront brand name.
func resolveBrand(keyword string) (string, error) {
	name, ok := brandNames[strings.ToLower(strings.TrimSpace(keyword))]
	if !ok {
		return "", errs.Newf(errs.InvalidConfiguration, "unknown brand %q", keyword)
	}
	return name, nil
}

func brandLink(name string) string {
	return fmt.Sprintf(`a[href="/brand_products/%s"]`, name)
}

// Products is the product listing and details pages.
type Products struct {
	Base
	L ProductsLocators
}

// NewProducts returns the products page object for s.
func NewProducts(s *browser.Session) *Products {
	return &Products{Base: newBase(s), L: DefaultProductsLocators}
}

// Open visits /products.
func (p *Products) Open() error { return p.Visit("/products") }

// Search submits term in the listing search box.
func (p *Products) Search(term string) error {
	if err := p.ClearAndType(p.L.SearchInput, term); err != nil {
		return err
	}
	return p.Click(p.L.SearchButton)
}

// FilterByCategory expands a sidebar category. Unknown keywords fail before
// any browser action.
func (p *Products) FilterByCategory(keyword string) error {
	target, err := resolveCategory(keyword)
	if err != nil {
		return err
	}
	return p.Click(target.hash)
}

// OpenCategory expands a category and follows its first sub-category link.
func (p *Products) OpenCategory(keyword string) error {
	target, err := resolveCategory(keyword)
	if err != nil {
		return err
	}
	if err := p.Click(target.hash); err != nil {
		return err
	}
	return p.ForceClick(target.link)
}

// FilterByBrand clicks a sidebar brand. Unknown keywords fail before any
// browser action.
func (p *Products) FilterByBrand(keyword string) error {
	name, err := resolveBrand(keyword)
	if err != nil {
		return err
	}
	return p.Click(brandLink(name))
}

func (p *Products) card(name string) (playwright.Locator, error) {
	loc := p.Locator(p.L.Wrapper).
		Filter(playwright.LocatorFilterOptions{Has: p.Locator(".productinfo").Filter(playwright.LocatorFilterOptions{HasText: name})}).
		First()
	return p.resolve(loc, fmt.Sprintf("product card %q", name), p.timeout)
}

// AddProductToCart adds the named product from the listing and waits for the modal.
func (p *Products) AddProductToCart(name string) error {
	c, err := p.card(name)
	if err != nil {
		return err
	}
	if err := actionErr("hover "+name, c.Hover()); err != nil {
		return err
	}
	btn := c.Locator(p.L.AddToCart).First()
	if err := actionErr("add "+name+" to cart", btn.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)})); err != nil {
		return err
	}
	return p.AssertVisible(p.L.Modal)
}

// ViewProduct opens the named product's details page.
func (p *Products) ViewProduct(name string) error {
	c, err := p.card(name)
	if err != nil {
		return err
	}
	return actionErr("view "+name, c.Locator(p.L.ViewProduct).First().Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)}))
}

// ViewFirstProduct opens the first product in the listing.
func (p *Products) ViewFirstProduct() error {
	if err := p.AssertVisible(p.L.Wrapper); err != nil {
		return err
	}
	return p.ForceClick(p.L.Wrapper + " " + p.L.ViewProduct)
}

// SetQuantity replaces the quantity on the details page.
func (p *Products) SetQuantity(qty int) error {
	return p.ClearAndType(p.L.Quantity, fmt.Sprint(qty))
}

// AddToCartFromDetails clicks the details-page add button and waits for the modal.
func (p *Products) AddToCartFromDetails() error {
	if err := p.Click(p.L.DetailAddToCart); err != nil {
		return err
	}
	return p.AssertVisible(p.L.Modal)
}

func (p *Products) ClickViewCartOnModal() error { return p.Click(p.L.ModalViewCart) }

// ClickContinueShoppingOnModal closes the modal and waits for it to hide.
func (p *Products) ClickContinueShoppingOnModal() error {
	if err := p.Click(p.L.ModalContinue); err != nil {
		return err
	}
	return p.poll("add-to-cart modal", "hidden", func() (bool, any, error) {
		visible, err := p.Locator(p.L.Modal).First().IsVisible()
		return !visible, visible, err
	})
}

// Review is the product review form input.
type Review struct {
	Name  string
	Email string
	Text  string
}

// SubmitReview posts a review on the details page.
func (p *Products) SubmitReview(r Review) error {
	for _, field := range []struct{ sel, val string }{
		{p.L.ReviewName, r.Name},
		{p.L.ReviewEmail, r.Email},
		{p.L.ReviewText, r.Text},
	} {
		if err := p.TypeOrClear(field.sel, field.val); err != nil {
			return err
		}
	}
	return p.Click(p.L.ReviewSubmit)
}

func (p *Products) AssertReviewSubmitted() error { return p.AssertBodyContains(p.L.ReviewSuccess) }

// ProductNames returns the names of every listed product.
func (p *Products) ProductNames() ([]string, error) {
	return p.Texts(p.L.Card + " p")
}

// ProductCount returns how many products are listed.
func (p *Products) ProductCount() (int, error) {
	return p.Count(p.L.Card)
}

// ProductPrice returns the listed price of the named product.
func (p *Products) ProductPrice(name string) (string, error) {
	c, err := p.card(name)
	if err != nil {
		return "", err
	}
	text, err := c.Locator(".productinfo h2").First().TextContent()
	return strings.TrimSpace(text), actionErr("price of "+name, err)
}

// AssertProductsPageLoaded checks the listing heading.
func (p *Products) AssertProductsPageLoaded() error {
	return p.AssertContainsText(p.L.Title, AllProductsTitle)
}

func (p *Products) AssertOnProductsPage() error { return p.AssertURLContains("/products") }

// AssertProductExists checks a listed card mentions name.
func (p *Products) AssertProductExists(name string) error {
	_, err := p.card(name)
	return err
}

// AssertProductNotExists checks no listed card mentions name.
func (p *Products) AssertProductNotExists(name string) error {
	return p.AssertNotExists(p.L.Card + fmt.Sprintf(":has-text(%q)", name))
}

// AssertSearchResultsContain checks at least one product is listed and every
// listed name contains term, case-insensitively.
func (p *Products) AssertSearchResultsContain(term string) error {
	if err := p.AssertVisible(p.L.Card); err != nil {
		return err
	}
	names, err := p.ProductNames()
	if err != nil {
		return err
	}
	return MatchAll(term, names)
}

// MatchAll checks names is non-empty and each contains term, case-insensitively.
func MatchAll(term string, names []string) error {
	if len(names) == 0 {
		return errs.Assertion("search results for "+term, "at least one product", "none")
	}
	needle := strings.ToLower(term)
	var misses []string
	for _, n := range names {
		if !strings.Contains(strings.ToLower(n), needle) {
			misses = append(misses, n)
		}
	}
	if len(misses) > 0 {
		return errs.Assertion("search results for "+term, "every name to contain "+term, misses)
	}
	return nil
}

// AssertNoSearchResults checks the searched listing renders without products.
func (p *Products) AssertNoSearchResults() error {
	if err := p.AssertContainsText(p.L.SearchedHeading, SearchedProductsTitle); err != nil {
		return err
	}
	return p.AssertNotExists(p.L.Card)
}

// AssertFullCatalogue checks the unsearched listing is shown: the "All
// Products" heading and at least one card.
func (p *Products) AssertFullCatalogue() error {
	if err := p.AssertOnProductsPage(); err != nil {
		return err
	}
	if err := p.AssertContainsText(p.L.SearchedHeading, AllProductsTitle); err != nil {
		return err
	}
	return p.poll("product cards", "at least one", func() (bool, any, error) {
		n, err := p.Locator(p.L.Card).Count()
		return n > 0, n, err
	})
}

// AssertCategoryFiltered checks the URL moved to the category's listing.
func (p *Products) AssertCategoryFiltered(keyword string) error {
	target, err := resolveCategory(keyword)
	if err != nil {
		return err
	}
	return p.AssertURLContains(target.path)
}

// AssertBrandFiltered checks the URL moved to the brand's listing.
func (p *Products) AssertBrandFiltered(keyword string) error {
	name, err := resolveBrand(keyword)
	if err != nil {
		return err
	}
	return p.poll("url", "brand page for "+name, func() (bool, any, error) {
		u := p.URL()
		decoded, derr := url.PathUnescape(u)
		if derr != nil {
			decoded = u
		}
		return strings.Contains(decoded, p.L.BrandProductsPath+name), u, nil
	})
}

// AssertOnProductDetails checks the details page shows a name, price and the
// category, availability, condition and brand lines.
func (p *Products) AssertOnProductDetails() error {
	if err := p.AssertURLContains("/product_details/"); err != nil {
		return err
	}
	if err := p.AssertVisible(p.L.DetailName); err != nil {
		return err
	}
	if err := p.AssertVisible(p.L.DetailPrice); err != nil {
		return err
	}
	for _, label := range []string{"Category", "Availability", "Condition", "Brand"} {
		if err := p.AssertContainsText(".product-information", label); err != nil {
			return err
		}
	}
	return nil
}

// MeasurePageLoadTime asserts the listing loaded within budget.
func (p *Products) MeasurePageLoadTime() error {
	_, err := p.MeasureLoadTime("Products page", timing.PageLoadBudget)
	return err
}
