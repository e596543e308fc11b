package pages

import (
	"fmt"
	"strings"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/cart"
	"github.com/kuitang/storefront-e2e/internal/errs"
)

// Texts the cart and checkout flow asserts on.
const (
	CartEmptyText     = "Cart is empty!"
	CartSubscribedMsg = "You have been successfully subscribed!"
	OrderPlacedText   = "Order Placed!"
	ReviewOrderText   = "Review Your Order"
)

// CartLocators are the /view_cart, /checkout and /payment selectors.
type CartLocators struct {
	Table           string // cart or checkout review table, one while the cart has items
	Rows            string // one per product line
	RowName         string // inside a row
	RowPrice        string
	RowQuantity     string
	RowTotal        string
	RowDelete       string
	TotalRow        string // checkout only: the "Total Amount" row
	Breadcrumb      string
	ProceedCheckout string
	CheckoutModal   string // shown to guests instead of the checkout page
	ModalLogin      string
	Comment         string
	PlaceOrder      string
	CardName        string
	CardNumber      string
	CVC             string
	ExpiryMonth     string
	ExpiryYear      string
	PayButton       string
	OrderPlaced     string
	SubscribeInput  string
	SubscribeButton string
}

// DefaultCartLocators match automationexercise.com.
var DefaultCartLocators = CartLocators{
	Table:           "#cart_info",
	Rows:            "#cart_info tbody tr[id^='product-']",
	RowName:         ".cart_description h4 a",
	RowPrice:        ".cart_price p",
	RowQuantity:     ".cart_quantity button",
	RowTotal:        ".cart_total p.cart_total_price",
	RowDelete:       ".cart_delete a.cart_quantity_delete",
	TotalRow:        "#cart_info tbody tr:not([id]) .cart_total_price",
	Breadcrumb:      ".breadcrumb",
	ProceedCheckout: ".btn.btn-default.check_out",
	CheckoutModal:   "#checkoutModal .modal-content",
	ModalLogin:      "#checkoutModal a[href='/login']",
	Comment:         "textarea[name='message']",
	PlaceOrder:      "a[href='/payment']",
	CardName:        `[data-qa="name-on-card"]`,
	CardNumber:      `[data-qa="card-number"]`,
	CVC:             `[data-qa="cvc"]`,
	ExpiryMonth:     `[data-qa="expiry-month"]`,
	ExpiryYear:      `[data-qa="expiry-year"]`,
	PayButton:       `[data-qa="pay-button"]`,
	OrderPlaced:     `[data-qa="order-placed"]`,
	SubscribeInput:  "#susbscribe_email",
	SubscribeButton: "#subscribe",
}

// CheckoutData is the delivery form input.
type CheckoutData struct {
	Name         string
	Email        string
	Address      string
	City         string
	State        string
	Zipcode      string
	MobileNumber string
	Country      string
}

// DefaultCheckout is the delivery data QuickCheckout uses.
var DefaultCheckout = CheckoutData{
	Name:         "Test User",
	Email:        "test@example.com",
	Address:      "123 Test Street",
	City:         "Test City",
	State:        "Test State",
	Zipcode:      "12345",
	MobileNumber: "1234567890",
	Country:      "United States",
}

// PaymentData is the card form input.
type PaymentData struct {
	CardName    string
	CardNumber  string
	CVC         string
	ExpiryMonth string
	ExpiryYear  string
}

// TestCard is accepted by the storefront's fake payment step.
var TestCard = PaymentData{
	CardName:    "Test User",
	CardNumber:  "4111111111111111",
	CVC:         "123",
	ExpiryMonth: "12",
	ExpiryYear:  "2030",
}

// Cart is the cart, checkout and payment pages.
type Cart struct {
	Base
	L CartLocators
}

// NewCart returns the cart page object for s.
func NewCart(s *browser.Session) *Cart {
	return &Cart{Base: newBase(s), L: DefaultCartLocators}
}

// Open visits /view_cart.
func (c *Cart) Open() error { return c.Visit("/view_cart") }

const snapshotScript = `([rows, name, price, qty, total, grand]) => ({
	rows: Array.from(document.querySelectorAll(rows)).map(tr => ({
		product: (tr.querySelector(name) || {}).textContent || '',
		price: (tr.querySelector(price) || {}).textContent || '',
		quantity: (tr.querySelector(qty) || {}).textContent || '',
		total: (tr.querySelector(total) || {}).textContent || '',
	})),
	grand: (document.querySelector(grand) || {}).textContent || '',
})`

// Snapshot reads every rendered row. On the checkout page the grand total is read too.
func (c *Cart) Snapshot() (cart.Snapshot, error) {
	raw, err := c.Page().Evaluate(snapshotScript, []string{
		c.L.Rows, c.L.RowName, c.L.RowPrice, c.L.RowQuantity, c.L.RowTotal, c.L.TotalRow,
	})
	if err != nil {
		return cart.Snapshot{}, actionErr("read cart rows", err)
	}
	return parseSnapshot(raw)
}

// parseSnapshot converts the object snapshotScript returns.
func parseSnapshot(raw any) (cart.Snapshot, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return cart.Snapshot{}, errs.Newf(errs.Internal, "unexpected cart snapshot %T", raw)
	}
	var snap cart.Snapshot
	rows, _ := obj["rows"].([]any)
	for i, r := range rows {
		m, _ := r.(map[string]any)
		field := func(k string) string {
			s, _ := m[k].(string)
			return strings.TrimSpace(s)
		}
		price, err := cart.ParsePrice(field("price"))
		if err != nil {
			return cart.Snapshot{}, fmt.Errorf("row %d price: %w", i+1, err)
		}
		total, err := cart.ParsePrice(field("total"))
		if err != nil {
			return cart.Snapshot{}, fmt.Errorf("row %d total: %w", i+1, err)
		}
		var qty int
		if _, err := fmt.Sscan(field("quantity"), &qty); err != nil {
			return cart.Snapshot{}, errs.Assertion(fmt.Sprintf("row %d quantity", i+1), "an integer", field("quantity"))
		}
		snap.Rows = append(snap.Rows, cart.Row{
			Product:   field("product"),
			UnitPrice: price,
			Quantity:  qty,
			Total:     total,
		})
	}
	if g, _ := obj["grand"].(string); strings.TrimSpace(g) != "" {
		grand, err := cart.ParsePrice(strings.TrimSpace(g))
		if err != nil {
			return cart.Snapshot{}, fmt.Errorf("grand total: %w", err)
		}
		snap.GrandTotal = &grand
	}
	return snap, nil
}

func (c *Cart) row(name string) (playwright.Locator, error) {
	loc := c.Locator(c.L.Rows).Filter(playwright.LocatorFilterOptions{HasText: name}).First()
	return c.resolve(loc, fmt.Sprintf("cart row %q", name), c.timeout)
}

// RemoveItem deletes the named row and waits for it to disappear.
func (c *Cart) RemoveItem(name string) error {
	r, err := c.row(name)
	if err != nil {
		return err
	}
	if err := actionErr("remove "+name, r.Locator(c.L.RowDelete).First().Click()); err != nil {
		return err
	}
	return c.AssertProductNotInCart(name)
}

// RemoveFirstItem deletes the first row.
func (c *Cart) RemoveFirstItem() error {
	before, err := c.Count(c.L.Rows)
	if err != nil {
		return err
	}
	if before == 0 {
		return errs.Assertion("cart rows", "at least one", 0)
	}
	if err := c.Click(c.L.Rows + " " + c.L.RowDelete); err != nil {
		return err
	}
	return c.AssertRowCount(before - 1)
}

// ClearCart deletes rows until none remain.
func (c *Cart) ClearCart() error {
	n, err := c.Count(c.L.Rows)
	if err != nil {
		return err
	}
	for ; n > 0; n-- {
		if err := c.RemoveFirstItem(); err != nil {
			return err
		}
	}
	return nil
}

// ProceedToCheckout clicks the checkout button. Guests get a login modal
// instead of the checkout page.
func (c *Cart) ProceedToCheckout() error { return c.Click(c.L.ProceedCheckout) }

// AssertCheckoutRequiresLogin checks the guest checkout modal offers login.
func (c *Cart) AssertCheckoutRequiresLogin() error {
	if err := c.AssertVisible(c.L.CheckoutModal); err != nil {
		return err
	}
	return c.AssertVisible(c.L.ModalLogin)
}

// AssertOnCheckout waits for the checkout review page, grand total row included.
func (c *Cart) AssertOnCheckout() error {
	if err := c.AssertURLContains("/checkout"); err != nil {
		return err
	}
	if err := c.AssertBodyContains(ReviewOrderText); err != nil {
		return err
	}
	if err := c.AssertVisible(c.L.Table); err != nil {
		return err
	}
	return c.AssertVisible(c.L.TotalRow)
}

// FillCheckoutForm types delivery details into the matching inputs and selects
// the country. Registered users get their address prefilled and no inputs, so
// absent fields are skipped.
func (c *Cart) FillCheckoutForm(d CheckoutData) error {
	present := func(sel string) (bool, error) {
		n, err := c.Count(sel)
		return n > 0, err
	}
	for _, f := range []struct{ name, val string }{
		{"name", d.Name},
		{"email", d.Email},
		{"address", d.Address},
		{"city", d.City},
		{"state", d.State},
		{"zipcode", d.Zipcode},
		{"mobile_number", d.MobileNumber},
	} {
		sel := fmt.Sprintf(`input[name="%s"]`, f.name)
		ok, err := present(sel)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := c.ClearAndType(sel, f.val); err != nil {
			return err
		}
	}
	const country = `select[name="country"]`
	ok, err := present(country)
	if err != nil || !ok {
		return err
	}
	return c.Select(country, d.Country)
}

// QuickCheckout fills the delivery form with DefaultCheckout.
func (c *Cart) QuickCheckout() error { return c.FillCheckoutForm(DefaultCheckout) }

// PlaceOrder leaves a comment on the checkout page and moves to payment.
func (c *Cart) PlaceOrder(comment string) error {
	if comment != "" {
		if err := c.Type(c.L.Comment, comment); err != nil {
			return err
		}
	}
	return c.Click(c.L.PlaceOrder)
}

// FillPaymentForm types the card details.
func (c *Cart) FillPaymentForm(p PaymentData) error {
	for _, f := range []struct{ sel, val string }{
		{c.L.CardName, p.CardName},
		{c.L.CardNumber, p.CardNumber},
		{c.L.CVC, p.CVC},
		{c.L.ExpiryMonth, p.ExpiryMonth},
		{c.L.ExpiryYear, p.ExpiryYear},
	} {
		if err := c.ClearAndType(f.sel, f.val); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cart) PayAndConfirm() error { return c.Click(c.L.PayButton) }

// Pay fills the card form with p and submits it.
func (c *Cart) Pay(p PaymentData) error {
	if err := c.FillPaymentForm(p); err != nil {
		return err
	}
	return c.PayAndConfirm()
}

func (c *Cart) AssertOrderPlaced() error { return c.AssertContainsText(c.L.OrderPlaced, OrderPlacedText) }

// SubscribeToNewsletter submits email in the cart footer form.
func (c *Cart) SubscribeToNewsletter(email string) error {
	if err := c.ScrollIntoView(c.L.SubscribeInput); err != nil {
		return err
	}
	if err := c.TypeOrClear(c.L.SubscribeInput, email); err != nil {
		return err
	}
	return c.Click(c.L.SubscribeButton)
}

func (c *Cart) AssertSubscribed() error { return c.AssertBodyContains(CartSubscribedMsg) }

// AssertCartPageLoaded checks the breadcrumb names the cart.
func (c *Cart) AssertCartPageLoaded() error {
	if err := c.AssertURLContains("/view_cart"); err != nil {
		return err
	}
	return c.AssertContainsText(c.L.Breadcrumb, "Shopping Cart")
}

func (c *Cart) AssertCartIsEmpty() error { return c.AssertBodyContains(CartEmptyText) }

// AssertCartHasItems checks at least one product row is rendered.
func (c *Cart) AssertCartHasItems() error { return c.AssertVisible(c.L.Rows) }

// AssertProductInCart checks a row names product.
func (c *Cart) AssertProductInCart(name string) error {
	_, err := c.row(name)
	return err
}

// AssertProductNotInCart waits until no row names product.
func (c *Cart) AssertProductNotInCart(name string) error {
	return c.poll("cart rows for "+name, 0, func() (bool, any, error) {
		n, err := c.Locator(c.L.Rows).Filter(playwright.LocatorFilterOptions{HasText: name}).Count()
		return n == 0, n, err
	})
}

// AssertRowCount waits for exactly n rows.
func (c *Cart) AssertRowCount(n int) error {
	return c.poll("cart rows", n, func() (bool, any, error) {
		got, err := c.Locator(c.L.Rows).Count()
		return got == n, got, err
	})
}

// AssertProductQuantity checks the quantity of the named row.
func (c *Cart) AssertProductQuantity(name string, want int) error {
	if err := c.AssertProductInCart(name); err != nil {
		return err
	}
	snap, err := c.Snapshot()
	if err != nil {
		return err
	}
	r, ok := snap.Find(name)
	if !ok {
		return errs.Assertion("cart row", name, "absent")
	}
	if r.Quantity != want {
		return errs.Assertion(name+" quantity", want, r.Quantity)
	}
	return nil
}

// AssertTotals checks every row total is price times quantity and, on the
// checkout page, that the grand total equals the row sum.
func (c *Cart) AssertTotals() error {
	if err := c.AssertCartHasItems(); err != nil {
		return err
	}
	snap, err := c.Snapshot()
	if err != nil {
		return err
	}
	return snap.Verify()
}

// AssertPriceFormat checks every price and total cell reads "Rs. <digits>".
func (c *Cart) AssertPriceFormat() error {
	texts, err := c.Texts(c.L.Rows + " " + c.L.RowPrice)
	if err != nil {
		return err
	}
	totals, err := c.Texts(c.L.Rows + " " + c.L.RowTotal)
	if err != nil {
		return err
	}
	return checkPriceFormat(append(texts, totals...))
}

func checkPriceFormat(texts []string) error {
	if len(texts) == 0 {
		return errs.Assertion("cart prices", "at least one", "none")
	}
	for _, t := range texts {
		if !cart.IsPrice(t) {
			return errs.Assertion("cart price", "Rs. <digits>", t)
		}
	}
	return nil
}
