package pages

import "github.com/kuitang/storefront-e2e/internal/browser"

// Set is every page object bound to one session.
type Set struct {
	Home     *Home
	Login    *Login
	Products *Products
	Cart     *Cart
}

// NewSet builds the page objects for s. Page objects hold nothing but the
// session and its base URL, so a Set is as disposable as the session.
func NewSet(s *browser.Session) *Set {
	return &Set{
		Home:     NewHome(s),
		Login:    NewLogin(s),
		Products: NewProducts(s),
		Cart:     NewCart(s),
	}
}
