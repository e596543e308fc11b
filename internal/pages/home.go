package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/cart"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/timing"
)

// HomeLocators are the home page selectors. Cardinality is what the live
// storefront renders.
type HomeLocators struct {
	ProductsLink     string // header nav, one
	CartLink         string // header nav plus footer links; first is used
	SignupLoginLink  string // header nav, one; absent while logged in
	ContactUsLink    string // header nav, one
	Logo             string // header, one
	CategoryPanel    string // sidebar accordion headers, three (Women, Men, Kids)
	FeaturedProducts string // product cards, many
	ProductInfo      string // name and price block inside each card
	AddToCart        string // inside a card, two (static and hover overlay)
	ViewProduct      string // inside a card, one
	ProductPrice     string // inside ProductInfo, one
	NewsletterInput  string // footer, one
	NewsletterButton string // footer, one
	NewsletterOK     string // footer alert, hidden until subscribe succeeds
	ScrollUp         string // fixed button, visible after scrolling
	ModalContent     string // add-to-cart modal
	ModalContinue    string // modal "Continue Shopping"
	Images           string
	Headings         string
}

// ContactLocators are the contact-us form selectors.
type ContactLocators struct {
	Name    string
	Email   string
	Subject string
	Message string
	Submit  string
	Success string // alert text shown after submit
	Home    string // "Home" button text shown after submit
}

// DefaultHomeLocators match automationexercise.com.
var DefaultHomeLocators = HomeLocators{
	ProductsLink:     "a[href='/products']",
	CartLink:         "a[href='/view_cart']",
	SignupLoginLink:  "a[href='/login']",
	ContactUsLink:    "a[href='/contact_us']",
	Logo:             "img[src='/static/images/home/logo.png']",
	CategoryPanel:    ".panel-title a",
	FeaturedProducts: ".features_items .product-image-wrapper",
	ProductInfo:      ".productinfo.text-center",
	AddToCart:        "a.add-to-cart",
	ViewProduct:      "a[href*='/product_details/']",
	ProductPrice:     "h2",
	NewsletterInput:  "#susbscribe_email",
	NewsletterButton: "#subscribe",
	NewsletterOK:     "#success-subscribe",
	ScrollUp:         "a[href='#top'] i.fa.fa-angle-up",
	ModalContent:     ".modal-content",
	ModalContinue:    ".modal-content .btn-success",
	Images:           "img",
	Headings:         "h1, h2, h3",
}

// DefaultContactLocators match automationexercise.com.
var DefaultContactLocators = ContactLocators{
	Name:    `input[data-qa="name"]`,
	Email:   `input[data-qa="email"]`,
	Subject: `input[data-qa="subject"]`,
	Message: `textarea[data-qa="message"]`,
	Submit:  `input[data-qa="submit-button"], input[type="submit"]`,
	Success: "Success! Your details have been submitted successfully.",
	Home:    "Home",
}

// Category is a sidebar category keyword.
type Category string

const (
	CategoryWomen Category = "women"
	CategoryMen   Category = "men"
	CategoryKids  Category = "kids"
)

type categoryTarget struct {
	panel string // accordion header text
	link  string // sidebar link selector
	hash  string // accordion anchor selector on /products
	path  string // category page path
}

// resolveCategory maps a keyword to its sidebar targets. Unknown keywords fail
// before the browser is touched.
func resolveCategory(keyword string) (categoryTarget, error) {
	switch Category(strings.ToLower(strings.TrimSpace(keyword))) {
	case CategoryWomen:
		return categoryTarget{panel: "Women", link: "a[href='/category_products/1']", hash: `a[href="#Women"]`, path: "/category_products/1"}, nil
	case CategoryMen:
		return categoryTarget{panel: "Men", link: "a[href='/category_products/3']", hash: `a[href="#Men"]`, path: "/category_products/3"}, nil
	case CategoryKids:
		return categoryTarget{panel: "Kids", link: "a[href='/category_products/4']", hash: `a[href="#Kids"]`, path: "/category_products/4"}, nil
	default:
		return categoryTarget{}, errs.Newf(errs.InvalidConfiguration, "unknown category %q", keyword)
	}
}

// Home is the storefront landing page.
type Home struct {
	Base
	L       HomeLocators
	Contact ContactLocators
}

// NewHome returns the home page object for s.
func NewHome(s *browser.Session) *Home {
	return &Home{Base: newBase(s), L: DefaultHomeLocators, Contact: DefaultContactLocators}
}

// Open visits "/".
func (h *Home) Open() error { return h.Visit("/") }

func (h *Home) ClickProducts() error    { return h.Click(h.L.ProductsLink) }
func (h *Home) ClickCart() error        { return h.Click(h.L.CartLink) }
func (h *Home) ClickSignupLogin() error { return h.Click(h.L.SignupLoginLink) }
func (h *Home) ClickContactUs() error   { return h.Click(h.L.ContactUsLink) }

// SearchProduct visits the listing and searches for term. A blank term leaves
// the full listing in place.
func (h *Home) SearchProduct(term string) error {
	if err := h.Visit("/products"); err != nil {
		return err
	}
	if strings.TrimSpace(term) == "" {
		return nil
	}
	if err := h.ClearAndType("input#search_product", term); err != nil {
		return err
	}
	return h.Click("button#submit_search")
}

// ClickCategory expands the category's accordion panel on the listing page and
// follows its first sub-category link.
func (h *Home) ClickCategory(keyword string) error {
	target, err := resolveCategory(keyword)
	if err != nil {
		return err
	}
	if err := h.Visit("/products"); err != nil {
		return err
	}
	panel := h.Locator(h.L.CategoryPanel).Filter(playwright.LocatorFilterOptions{HasText: target.panel}).First()
	if _, err := h.resolve(panel, "category panel "+target.panel, h.timeout); err != nil {
		return err
	}
	if err := actionErr("expand "+target.panel, panel.Click()); err != nil {
		return err
	}
	if _, err := h.Element(target.link); err != nil {
		return err
	}
	return h.ForceClick(target.link)
}

// FeaturedProductCount returns how many product cards are rendered.
func (h *Home) FeaturedProductCount() (int, error) {
	if err := h.AssertVisible(h.L.FeaturedProducts); err != nil {
		return 0, err
	}
	return h.Count(h.L.FeaturedProducts)
}

// card resolves the product card whose info block mentions name.
func (h *Home) card(name string) (playwright.Locator, error) {
	loc := h.Locator(h.L.FeaturedProducts).
		Filter(playwright.LocatorFilterOptions{Has: h.Locator(h.L.ProductInfo).Filter(playwright.LocatorFilterOptions{HasText: name})}).
		First()
	return h.resolve(loc, fmt.Sprintf("product card %q", name), h.timeout)
}

// AddProductToCart hovers the named card and clicks its add-to-cart button.
func (h *Home) AddProductToCart(name string) error {
	c, err := h.card(name)
	if err != nil {
		return err
	}
	if err := actionErr("hover "+name, c.Hover()); err != nil {
		return err
	}
	btn := c.Locator(h.L.AddToCart).First()
	return actionErr("add "+name+" to cart", btn.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)}))
}

// ViewProduct opens the named product's details page.
func (h *Home) ViewProduct(name string) error {
	c, err := h.card(name)
	if err != nil {
		return err
	}
	link := c.Locator(h.L.ViewProduct).First()
	return actionErr("view "+name, link.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)}))
}

// ProductPrice returns the listed price text of the named product.
func (h *Home) ProductPrice(name string) (string, error) {
	c, err := h.card(name)
	if err != nil {
		return "", err
	}
	text, err := c.Locator(h.L.ProductInfo + " " + h.L.ProductPrice).First().TextContent()
	return strings.TrimSpace(text), actionErr("price of "+name, err)
}

// AssertProductPriceFormat checks the named product's price reads "Rs. <digits>".
func (h *Home) AssertProductPriceFormat(name string) error {
	price, err := h.ProductPrice(name)
	if err != nil {
		return err
	}
	if !cart.IsPrice(price) {
		return errs.Assertion(name+" price", "Rs. <digits>", price)
	}
	return nil
}

// ContinueShopping dismisses the add-to-cart modal.
func (h *Home) ContinueShopping() error {
	if err := h.AssertVisible(h.L.ModalContent); err != nil {
		return err
	}
	return h.Click(h.L.ModalContinue)
}

// AssertModalContains checks the add-to-cart modal shows text.
func (h *Home) AssertModalContains(text string) error {
	return h.AssertContainsText(h.L.ModalContent, text)
}

// CloseModal dismisses the add-to-cart modal without waiting for it to animate.
func (h *Home) CloseModal() error { return h.ForceClick(h.L.ModalContinue) }

// ScrollToProduct scrolls the named card into view.
func (h *Home) ScrollToProduct(name string) error {
	c, err := h.card(name)
	if err != nil {
		return err
	}
	return actionErr("scroll to "+name, c.ScrollIntoViewIfNeeded())
}

// SubscribeToNewsletter submits email in the footer form.
func (h *Home) SubscribeToNewsletter(email string) error {
	if err := h.ScrollIntoView(h.L.NewsletterInput); err != nil {
		return err
	}
	if err := h.TypeOrClear(h.L.NewsletterInput, email); err != nil {
		return err
	}
	return h.Click(h.L.NewsletterButton)
}

func (h *Home) AssertSubscriptionSuccess() error { return h.AssertVisible(h.L.NewsletterOK) }

// AssertSubscriptionError checks the success alert never appeared, which is
// how the footer form reacts to invalid input.
func (h *Home) AssertSubscriptionError() error {
	if err := h.AssertVisible("body"); err != nil {
		return err
	}
	visible, err := h.IsVisible(h.L.NewsletterOK)
	if err != nil {
		return err
	}
	if visible {
		return errs.Assertion("newsletter success alert", "hidden", "visible")
	}
	return nil
}

func (h *Home) ClickScrollUp() error { return h.ForceClick(h.L.ScrollUp) }

func (h *Home) AssertScrollUpVisible() error { return h.AssertVisible(h.L.ScrollUp) }

// AssertScrolledToTop waits for the window to return to the top.
func (h *Home) AssertScrolledToTop() error {
	return h.poll("window.scrollY", "< 100", func() (bool, any, error) {
		y, err := h.Page().Evaluate(`() => window.scrollY`)
		if err != nil {
			return false, nil, err
		}
		f, _ := y.(float64)
		if i, ok := y.(int); ok {
			f = float64(i)
		}
		return f < 100, y, nil
	})
}

// AssertHomePageLoaded checks the logo and at least one product card.
func (h *Home) AssertHomePageLoaded() error {
	if err := h.AssertVisible(h.L.Logo); err != nil {
		return err
	}
	return h.AssertVisible(h.L.FeaturedProducts)
}

// AssertNavigationLinksVisible checks products, cart and signup/login links.
func (h *Home) AssertNavigationLinksVisible() error {
	for _, sel := range []string{h.L.ProductsLink, h.L.CartLink, h.L.SignupLoginLink} {
		if err := h.AssertVisible(sel); err != nil {
			return err
		}
	}
	return nil
}

// AssertProductExists checks a card for name is rendered.
func (h *Home) AssertProductExists(name string) error {
	_, err := h.card(name)
	return err
}

// MeasurePageLoadTime asserts the home page loaded within budget.
func (h *Home) MeasurePageLoadTime() error {
	_, err := h.MeasureLoadTime("Home page", timing.PageLoadBudget)
	return err
}

// AssertImagesHaveAlt checks every visible image declares an alt attribute.
func (h *Home) AssertImagesHaveAlt() error {
	missing, err := h.Page().Evaluate(`() => Array.from(document.images)
		.filter(img => img.offsetParent !== null && !img.hasAttribute('alt'))
		.map(img => img.getAttribute('src'))`)
	if err != nil {
		return actionErr("image alt audit", err)
	}
	if list, ok := missing.([]any); ok && len(list) > 0 {
		return errs.Assertion("images without alt", "none", list)
	}
	return nil
}

// AssertImagesHaveSrc checks every image is rendered with a src attribute.
func (h *Home) AssertImagesHaveSrc() error {
	broken, err := h.Page().Evaluate(`() => Array.from(document.images)
		.filter(img => img.offsetParent !== null && (!img.getAttribute('src') || (img.complete && img.naturalWidth === 0)))
		.map(img => img.getAttribute('src') || img.outerHTML.slice(0, 80))`)
	if err != nil {
		return actionErr("image src audit", err)
	}
	if list, ok := broken.([]any); ok && len(list) > 0 {
		return errs.Assertion("images without a loaded src", "none", list)
	}
	return nil
}

// AssertHasHeadings checks the document has at least one h1-h3.
func (h *Home) AssertHasHeadings() error {
	n, err := h.Count(h.L.Headings)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.Assertion("headings", "at least one", 0)
	}
	return nil
}

// OpenContactUs visits the contact form.
func (h *Home) OpenContactUs() error { return h.Visit("/contact_us") }

// ContactForm is the contact-us form input.
type ContactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// SubmitContactForm fills and submits the contact form. The confirm dialog
// the site raises is accepted by the session.
func (h *Home) SubmitContactForm(f ContactForm) error {
	fields := []struct{ sel, val string }{
		{h.Contact.Name, f.Name},
		{h.Contact.Email, f.Email},
		{h.Contact.Subject, f.Subject},
		{h.Contact.Message, f.Message},
	}
	for _, field := range fields {
		if err := h.TypeOrClear(field.sel, field.val); err != nil {
			return err
		}
	}
	return h.Click(h.Contact.Submit)
}

// AssertContactSuccess checks the confirmation text.
func (h *Home) AssertContactSuccess() error {
	return h.AssertBodyContains(h.Contact.Success)
}

// ContactHome clicks the "Home" button shown after a contact submission.
func (h *Home) ContactHome() error {
	loc := h.Locator("a.btn-success").Filter(playwright.LocatorFilterOptions{HasText: h.Contact.Home}).First()
	el, err := h.resolve(loc, "contact home button", h.timeout)
	if err != nil {
		return err
	}
	return actionErr("click contact home", el.Click())
}
