package steps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/pages"
	"github.com/kuitang/storefront-e2e/internal/timing"
	"github.com/kuitang/storefront-e2e/internal/urlutil"
)

func (w *World) homeBindings() []binding {
	return []binding{
		{`^I am on the home page$`, w.onHomePage},
		{`^the home page should be loaded$`, w.homeLoaded},
		{`^a screenshot of the home page is taken$`, w.screenshotHome},
		{`^all navigation links should be visible$`, w.navLinksVisible},
		{`^I click the products link$`, w.clickProducts},
		{`^I click the cart link$`, w.clickCart},
		{`^I click the signup/login link$`, w.clickSignupLogin},
		{`^I should be on the cart page$`, w.urlContains("/view_cart")},
		{`^I should be on the login page$`, w.urlContains("/login")},
		{`^I search for product "([^"]*)"$`, w.searchProduct},
		{`^the search results should contain "([^"]*)"$`, w.searchResultsContain},
		{`^no search results should be shown$`, w.noSearchResults},
		{`^the full catalogue should be shown$`, w.fullCatalogue},
		{`^I should remain on the home page$`, w.onRoot},
		{`^I should be on the home page$`, w.onRoot},
		{`^I click the (women|men|kids) category$`, w.clickCategory},
		{`^I should be on the category products page$`, w.urlContains("/category_products")},
		{`^the page should contain "([^"]*)"$`, w.pageContains},
		{`^there should be at least one featured product$`, w.hasFeaturedProducts},
		{`^a success modal should be visible$`, w.modalVisible},
		{`^the modal should contain "([^"]*)"$`, w.modalContains},
		{`^I close the modal$`, w.closeModal},
		{`^I scroll to product "([^"]*)"$`, w.scrollToProduct},
		{`^the product "([^"]*)" should exist$`, w.productExists},
		{`^I set the viewport to (mobile|tablet|desktop)$`, w.setViewport},
		{`^I test responsive design on "([^"]*)"$`, w.responsiveDesign},
		{`^the home page should be loaded on all viewports$`, w.loadedOnAllViewports},
		{`^I measure the home page load time$`, w.measureHomeLoad},
		{`^the load time should be less than (\d+) ms$`, w.loadTimeBelow},
		{`^all images should be visible and have src attribute$`, w.imagesHaveSrc},
		{`^all images should have alt text$`, w.imagesHaveAlt},
		{`^the page should have heading tags$`, w.hasHeadings},
		{`^I subscribe to the newsletter with email "([^"]*)"$`, w.subscribe},
		{`^I subscribe to the newsletter with a random email$`, w.subscribeRandom},
		{`^the subscription should be successful$`, w.subscriptionSucceeded},
		{`^the subscription should fail$`, w.subscriptionFailed},
		{`^the scroll up button should be visible$`, w.scrollUpVisible},
		{`^I click the scroll up button$`, w.clickScrollUp},
		{`^the page should be scrolled to the top$`, w.scrolledToTop},
		{`^I scroll to the bottom$`, w.scrollToBottom},
		{`^the price for product "([^"]*)" should contain "([^"]*)"$`, w.priceContains},
		{`^I log "([^"]*)"$`, w.log},
	}
}

func (w *World) onHomePage() error {
	return w.with(func(p *pages.Set) error { return p.Home.Open() })
}

func (w *World) homeLoaded() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertHomePageLoaded() })
}

func (w *World) screenshotHome(ctx context.Context) error {
	return w.with(func(p *pages.Set) error {
		_, err := p.Home.Screenshot(ctx, "home-page-loaded")
		return err
	})
}

func (w *World) navLinksVisible() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertNavigationLinksVisible() })
}

func (w *World) clickProducts() error {
	return w.with(func(p *pages.Set) error { return p.Home.ClickProducts() })
}

func (w *World) clickCart() error {
	return w.with(func(p *pages.Set) error { return p.Home.ClickCart() })
}

func (w *World) clickSignupLogin() error {
	return w.with(func(p *pages.Set) error { return p.Home.ClickSignupLogin() })
}

// urlContains builds a binding asserting the current URL contains fragment.
func (w *World) urlContains(fragment string) func() error {
	return func() error {
		return w.with(func(p *pages.Set) error { return p.Home.AssertURLContains(fragment) })
	}
}

func (w *World) onRoot() error {
	return w.with(func(p *pages.Set) error {
		return p.Home.AssertURLEquals(urlutil.Root(p.Home.BaseURL()))
	})
}

func (w *World) searchProduct(term string) error {
	return w.with(func(p *pages.Set) error { return p.Home.SearchProduct(term) })
}

// searchResultsContain checks every listed product name contains term.
func (w *World) searchResultsContain(term string) error {
	return w.with(func(p *pages.Set) error { return p.Products.AssertSearchResultsContain(term) })
}

func (w *World) noSearchResults() error {
	return w.with(func(p *pages.Set) error { return p.Products.AssertNoSearchResults() })
}

func (w *World) fullCatalogue() error {
	return w.with(func(p *pages.Set) error { return p.Products.AssertFullCatalogue() })
}

func (w *World) clickCategory(keyword string) error {
	return w.with(func(p *pages.Set) error { return p.Home.ClickCategory(keyword) })
}

func (w *World) pageContains(text string) error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertBodyContains(text) })
}

func (w *World) hasFeaturedProducts() error {
	return w.with(func(p *pages.Set) error {
		n, err := p.Home.FeaturedProductCount()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.Assertion("featured products", "at least one", 0)
		}
		return nil
	})
}

func (w *World) modalVisible() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertVisible(p.Home.L.ModalContent) })
}

func (w *World) modalContains(text string) error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertModalContains(text) })
}

func (w *World) closeModal() error {
	return w.with(func(p *pages.Set) error { return p.Home.CloseModal() })
}

func (w *World) scrollToProduct(name string) error {
	return w.with(func(p *pages.Set) error { return p.Home.ScrollToProduct(name) })
}

func (w *World) productExists(name string) error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertProductExists(name) })
}

func (w *World) setViewport(name string) error {
	v, err := browser.LookupViewport(name)
	if err != nil {
		return err
	}
	return w.with(func(p *pages.Set) error { return p.Home.Session().SetViewport(v) })
}

func (w *World) responsiveDesign(name string) error {
	v, err := browser.LookupViewport(name)
	if err != nil {
		return err
	}
	return w.with(func(p *pages.Set) error {
		if err := p.Home.Session().SetViewport(v); err != nil {
			return err
		}
		if err := p.Home.Open(); err != nil {
			return err
		}
		if err := p.Home.AssertHomePageLoaded(); err != nil {
			return err
		}
		w.viewports++
		return nil
	})
}

func (w *World) loadedOnAllViewports() error {
	if w.viewports == 0 {
		return errs.Assertion("viewports checked", "at least one", 0)
	}
	return nil
}

func (w *World) measureHomeLoad() error {
	return w.with(func(p *pages.Set) error {
		d, err := p.Home.MeasureLoadTime("Home page", timing.PageLoadBudget)
		w.loadTime = d
		return err
	})
}

func (w *World) loadTimeBelow(ms int) error {
	if w.loadTime == 0 {
		if err := w.measureHomeLoad(); err != nil && !errs.Is(err, errs.AssertionFailed) {
			return err
		}
	}
	return timing.AssertWithin("page load", w.loadTime, time.Duration(ms)*time.Millisecond)
}

func (w *World) imagesHaveSrc() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertImagesHaveSrc() })
}

func (w *World) imagesHaveAlt() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertImagesHaveAlt() })
}

func (w *World) hasHeadings() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertHasHeadings() })
}

func (w *World) subscribe(email string) error {
	return w.with(func(p *pages.Set) error { return p.Home.SubscribeToNewsletter(email) })
}

func (w *World) subscribeRandom() error {
	return w.subscribe(randomEmail())
}

func (w *World) subscriptionSucceeded() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertSubscriptionSuccess() })
}

func (w *World) subscriptionFailed() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertSubscriptionError() })
}

func (w *World) scrollUpVisible() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertScrollUpVisible() })
}

func (w *World) clickScrollUp() error {
	return w.with(func(p *pages.Set) error { return p.Home.ClickScrollUp() })
}

func (w *World) scrolledToTop() error {
	return w.with(func(p *pages.Set) error { return p.Home.AssertScrolledToTop() })
}

func (w *World) scrollToBottom() error {
	return w.with(func(p *pages.Set) error { return p.Home.ScrollToBottom() })
}

func (w *World) priceContains(name, text string) error {
	return w.with(func(p *pages.Set) error {
		price, err := p.Home.ProductPrice(name)
		if err != nil {
			return err
		}
		if !strings.Contains(price, text) {
			return errs.Assertion(fmt.Sprintf("price of %s", name), "to contain "+text, price)
		}
		return nil
	})
}

func (w *World) log(msg string) error {
	if w.env != nil && w.env.Session != nil {
		w.env.Session.Log(msg)
		return nil
	}
	obs.Log(msg)
	return nil
}
