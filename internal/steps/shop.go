package steps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kuitang/storefront-e2e/internal/cart"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/pages"
)

func (w *World) shopBindings() []binding {
	return []binding{
		{`^I am on the products page$`, w.openProducts},
		{`^I navigate to the products page$`, w.openProducts},
		{`^I should be on the products page$`, w.urlContains("/products")},
		{`^I should measure the products page load time$`, w.measureProductsLoad},
		{`^I add product "([^"]*)" to the cart$`, w.addProduct},
		{`^I view product "([^"]*)"$`, w.viewProduct},
		{`^I should be on the product details page$`, w.urlContains("/product_details/")},
		{`^I click view cart on the modal$`, w.modalViewCart},
		{`^I click continue shopping on the modal$`, w.modalContinue},
		{`^I filter products by brand "([^"]*)"$`, w.filterBrand},
		{`^I should see products of brand "([^"]*)"$`, w.brandFiltered},
		{`^I set the product quantity to "([^"]*)"$`, w.setQuantity},
		{`^I add the product to cart from details$`, w.addFromDetails},
		{`^the cart should have (\d+) items$`, w.cartRows},
		{`^the cart should contain "([^"]*)"$`, w.cartContains},
		{`^each cart item should have valid price, quantity, and total$`, w.cartItemsValid},
		{`^the cart total should equal the sum of its rows$`, w.cartTotals},
		{`^I proceed to checkout$`, w.proceedToCheckout},
		{`^I should be on the checkout page$`, w.onCheckout},
		{`^checkout should ask me to log in$`, w.checkoutNeedsLogin},
		{`^I fill in the delivery details$`, w.fillDelivery},
		{`^I place the order with comment "([^"]*)"$`, w.placeOrder},
		{`^I pay with the test card$`, w.payWithTestCard},
		{`^the order should be placed$`, w.orderPlaced},
		{`^the first cart item should have quantity "([^"]*)"$`, w.firstQuantity},
		{`^I remove the first item from the cart$`, w.removeFirst},
		{`^the cart should be empty$`, w.cartEmpty},
		{`^the cart empty message should be visible$`, w.cartEmptyMessage},
		{`^I print the cart as a table$`, w.printCart},
		{`^the cart subscribe input should be visible$`, w.cartVisible(func(c *pages.Cart) string { return c.L.SubscribeInput })},
		{`^the cart subscribe button should be visible$`, w.cartVisible(func(c *pages.Cart) string { return c.L.SubscribeButton })},
		{`^I subscribe to the newsletter from cart with email "([^"]*)"$`, w.cartSubscribe},
		{`^the cart subscription success should be visible$`, w.cartSubscribed},
		{`^I scroll to the review section$`, w.scrollToReview},
		{`^the review section should be visible$`, w.reviewVisible},
		{`^I fill the review form with name "([^"]*)" and email "([^"]*)" and review "([^"]*)"$`, w.fillReview},
		{`^I submit the review form$`, w.submitReview},
		{`^the review success message should be visible$`, w.reviewSubmitted},
		{`^I go to the contact us page$`, w.goToContact},
		{`^I should be on the contact us page$`, w.urlContains("/contact_us")},
		{`^I fill the contact form with name "([^"]*)" and email "([^"]*)" and subject "([^"]*)" and message "([^"]*)"$`, w.fillContact},
		{`^I submit the contact form$`, w.submitContact},
		{`^I accept the alert$`, w.acceptAlert},
		{`^the contact form success message should be visible$`, w.contactSucceeded},
		{`^I click the contact us home button$`, w.contactHome},
	}
}

func (w *World) openProducts() error {
	return w.with(func(p *pages.Set) error { return p.Products.Open() })
}

func (w *World) measureProductsLoad() error {
	return w.with(func(p *pages.Set) error { return p.Products.MeasurePageLoadTime() })
}

func (w *World) addProduct(name string) error {
	return w.with(func(p *pages.Set) error { return p.Products.AddProductToCart(name) })
}

func (w *World) viewProduct(name string) error {
	return w.with(func(p *pages.Set) error { return p.Products.ViewProduct(name) })
}

func (w *World) modalViewCart() error {
	return w.with(func(p *pages.Set) error { return p.Products.ClickViewCartOnModal() })
}

func (w *World) modalContinue() error {
	return w.with(func(p *pages.Set) error { return p.Products.ClickContinueShoppingOnModal() })
}

func (w *World) filterBrand(brand string) error {
	return w.with(func(p *pages.Set) error { return p.Products.FilterByBrand(brand) })
}

func (w *World) brandFiltered(brand string) error {
	return w.with(func(p *pages.Set) error { return p.Products.AssertBrandFiltered(brand) })
}

func (w *World) setQuantity(qty string) error {
	n, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil || n <= 0 {
		return errs.Newf(errs.InvalidConfiguration, "quantity %q must be a positive integer", qty)
	}
	return w.with(func(p *pages.Set) error { return p.Products.SetQuantity(n) })
}

func (w *World) addFromDetails() error {
	return w.with(func(p *pages.Set) error { return p.Products.AddToCartFromDetails() })
}

func (w *World) cartRows(n int) error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertRowCount(n) })
}

func (w *World) cartContains(name string) error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertProductInCart(name) })
}

// cartItemsValid checks every row prices as "Rs. <digits>", holds at least
// one unit and totals to unit price times quantity.
func (w *World) cartItemsValid() error {
	return w.with(func(p *pages.Set) error {
		if err := p.Cart.AssertPriceFormat(); err != nil {
			return err
		}
		snap, err := p.Cart.Snapshot()
		if err != nil {
			return err
		}
		if len(snap.Rows) == 0 {
			return errs.Assertion("cart rows", "at least one", 0)
		}
		for _, r := range snap.Rows {
			if r.Quantity < 1 {
				return errs.Assertion(r.Product+" quantity", ">= 1", r.Quantity)
			}
		}
		return snap.Verify()
	})
}

func (w *World) cartTotals() error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertTotals() })
}

func (w *World) proceedToCheckout() error {
	return w.with(func(p *pages.Set) error { return p.Cart.ProceedToCheckout() })
}

func (w *World) onCheckout() error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertOnCheckout() })
}

func (w *World) checkoutNeedsLogin() error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertCheckoutRequiresLogin() })
}

func (w *World) fillDelivery() error {
	return w.with(func(p *pages.Set) error { return p.Cart.QuickCheckout() })
}

func (w *World) placeOrder(comment string) error {
	return w.with(func(p *pages.Set) error { return p.Cart.PlaceOrder(comment) })
}

func (w *World) payWithTestCard() error {
	return w.with(func(p *pages.Set) error { return p.Cart.Pay(pages.TestCard) })
}

func (w *World) orderPlaced() error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertOrderPlaced() })
}

func (w *World) firstQuantity(qty string) error {
	want, err := strconv.Atoi(strings.TrimSpace(qty))
	if err != nil {
		return errs.Newf(errs.InvalidConfiguration, "quantity %q must be an integer", qty)
	}
	return w.with(func(p *pages.Set) error {
		snap, err := p.Cart.Snapshot()
		if err != nil {
			return err
		}
		if len(snap.Rows) == 0 {
			return errs.Assertion("cart rows", "at least one", 0)
		}
		if got := snap.Rows[0].Quantity; got != want {
			return errs.Assertion("quantity of "+snap.Rows[0].Product, want, got)
		}
		return nil
	})
}

func (w *World) removeFirst() error {
	return w.with(func(p *pages.Set) error { return p.Cart.RemoveFirstItem() })
}

func (w *World) cartEmpty() error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertNotExists(p.Cart.L.Rows) })
}

func (w *World) cartEmptyMessage() error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertCartIsEmpty() })
}

func (w *World) printCart() error {
	return w.with(func(p *pages.Set) error {
		snap, err := p.Cart.Snapshot()
		if err != nil {
			return err
		}
		p.Cart.Session().Table(cartRows(snap))
		return nil
	})
}

func cartRows(snap cart.Snapshot) [][]string {
	rows := [][]string{{"product", "price", "quantity", "total"}}
	for _, r := range snap.Rows {
		rows = append(rows, []string{r.Product, cart.FormatPrice(r.UnitPrice), fmt.Sprint(r.Quantity), cart.FormatPrice(r.Total)})
	}
	if snap.GrandTotal != nil {
		rows = append(rows, []string{"total", "", "", cart.FormatPrice(*snap.GrandTotal)})
	}
	return rows
}

func (w *World) cartVisible(selector func(c *pages.Cart) string) func() error {
	return func() error {
		return w.with(func(p *pages.Set) error { return p.Cart.AssertVisible(selector(p.Cart)) })
	}
}

func (w *World) cartSubscribe(email string) error {
	return w.with(func(p *pages.Set) error { return p.Cart.SubscribeToNewsletter(email) })
}

func (w *World) cartSubscribed() error {
	return w.with(func(p *pages.Set) error { return p.Cart.AssertSubscribed() })
}

func (w *World) scrollToReview() error {
	return w.with(func(p *pages.Set) error { return p.Products.ScrollIntoView(p.Products.L.WriteYourReview) })
}

func (w *World) reviewVisible() error {
	return w.with(func(p *pages.Set) error { return p.Products.AssertVisible(p.Products.L.WriteYourReview) })
}

func (w *World) fillReview(name, email, text string) error {
	return w.with(func(p *pages.Set) error {
		l := p.Products.L
		for _, f := range [][2]string{{l.ReviewName, name}, {l.ReviewEmail, email}, {l.ReviewText, text}} {
			if err := p.Products.TypeOrClear(f[0], f[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *World) submitReview() error {
	return w.with(func(p *pages.Set) error { return p.Products.Click(p.Products.L.ReviewSubmit) })
}

func (w *World) reviewSubmitted() error {
	return w.with(func(p *pages.Set) error { return p.Products.AssertReviewSubmitted() })
}

func (w *World) goToContact() error {
	return w.with(func(p *pages.Set) error { return p.Home.ClickContactUs() })
}

func (w *World) fillContact(name, email, subject, message string) error {
	return w.with(func(p *pages.Set) error {
		c := p.Home.Contact
		for _, f := range [][2]string{{c.Name, name}, {c.Email, email}, {c.Subject, subject}, {c.Message, message}} {
			if err := p.Home.TypeOrClear(f[0], f[1]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *World) submitContact() error {
	return w.with(func(p *pages.Set) error { return p.Home.Click(p.Home.Contact.Submit) })
}

// acceptAlert is a no-op: sessions accept every dialog as it opens.
func (w *World) acceptAlert() error { return nil }

func (w *World) contactSucceeded() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertContactSuccess() })
}

func (w *World) contactHome() error {
	return w.with(func(p *pages.Set) error { return p.Home.ContactHome() })
}
