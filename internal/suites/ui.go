package suites

import (
	"context"

	"github.com/kuitang/storefront-e2e/internal/datagen"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/fixtures"
	"github.com/kuitang/storefront-e2e/internal/pages"
	"github.com/kuitang/storefront-e2e/internal/scenario"
)

// JourneyProduct is the product the end-to-end journey buys.
const JourneyProduct = "Blue Top"

// OrderComment is left on the checkout page.
const OrderComment = "Please deliver between 9am and 5pm."

// UI returns the browser scenarios.
func UI() []scenario.Scenario {
	return []scenario.Scenario{
		HomePageSmoke(),
		EndToEndJourney(),
		LoginOutcomes(),
		DuplicateSignupFails(),
		SearchProducts("top"),
		CartTotals(JourneyProduct, "Men Tshirt"),
		CategoryFilter(string(pages.CategoryWomen)),
		UnknownFilterKeyword("garden"),
	}
}

func HomePageSmoke() scenario.Scenario {
	return scenario.Scenario{
		Name: "Home page loads with navigation",
		Tags: []string{"@ui", "@smoke"},
		Steps: func(env *scenario.Env) []scenario.Step {
			home := env.Pages.Home
			return []scenario.Step{
				scenario.Do("open home", home.Open),
				scenario.Do("home page is loaded", home.AssertHomePageLoaded),
				scenario.Do("navigation links are visible", home.AssertNavigationLinksVisible),
				scenario.Do("home page loads within budget", home.MeasurePageLoadTime),
			}
		},
	}
}

// EndToEndJourney registers TestUser<ts>, buys one Blue Top, checks the cart
// row, pays for the order and deletes the account.
func EndToEndJourney() scenario.Scenario {
	return scenario.Scenario{
		Name: "Complete user journey",
		Tags: []string{"@ui", "@e2e"},
		Steps: func(env *scenario.Env) []scenario.Step {
			p := env.Pages
			u := datagen.NewTestUser("test123")
			return []scenario.Step{
				scenario.Do("open home", p.Home.Open),
				scenario.Do("go to signup/login", p.Home.ClickSignupLogin),
				scenario.Do("sign up "+u.Email, func() error { return p.Login.Signup(u.Name, u.Email) }),
				scenario.Do("account form is shown", func() error {
					return p.Login.ExpectTransition(pages.LoggedOut, pages.RegistrationForm)
				}),
				scenario.Do("complete registration", func() error {
					if env.API != nil {
						env.Defer(func(ctx context.Context) error {
							_, err := env.API.DeleteAccount(ctx, u.Email, u.Password)
							return err
						})
					}
					return p.Login.CompleteRegistration(u.Profile)
				}),
				scenario.Do("account is created", p.Login.AssertAccountCreated),
				scenario.Do("continue", p.Login.ContinueAfterAccountCreation),
				scenario.Do("user is logged in", func() error {
					return p.Login.ExpectTransition(pages.AccountCreated, pages.LoggedIn)
				}),
				scenario.Do("open home", p.Home.Open),
				scenario.Do("add "+JourneyProduct+" to cart", func() error { return p.Home.AddProductToCart(JourneyProduct) }),
				scenario.Do("continue shopping", p.Home.ContinueShopping),
				scenario.Do("view cart", p.Home.ClickCart),
				scenario.Do("cart has one row", func() error { return p.Cart.AssertRowCount(1) }),
				scenario.Do("quantity is 1", func() error { return p.Cart.AssertProductQuantity(JourneyProduct, 1) }),
				scenario.Do("price is formatted", p.Cart.AssertPriceFormat),
				scenario.Do("total equals sum of rows", p.Cart.AssertTotals),
				scenario.Do("proceed to checkout", p.Cart.ProceedToCheckout),
				scenario.Do("checkout review is shown", p.Cart.AssertOnCheckout),
				scenario.Do("fill delivery details", p.Cart.QuickCheckout),
				scenario.Do("order total equals sum of rows", p.Cart.AssertTotals),
				scenario.Do("place order", func() error { return p.Cart.PlaceOrder(OrderComment) }),
				scenario.Do("pay with test card", func() error { return p.Cart.Pay(pages.TestCard) }),
				scenario.Do("order is placed", p.Cart.AssertOrderPlaced),
				scenario.Do("delete account", p.Login.DeleteAccount),
				scenario.Do("account is deleted", p.Login.AssertAccountDeleted),
			}
		},
	}
}

// LoginOutcomes: a registered pair logs in, an unregistered pair never does.
func LoginOutcomes() scenario.Scenario {
	return scenario.Scenario{
		Name: "Login succeeds only for registered credentials",
		Tags: []string{"@ui", "@login"},
		Steps: func(env *scenario.Env) []scenario.Step {
			p := env.Pages
			u := datagen.NewTestUser("test123")
			bad := fixtures.InvalidUser()
			return []scenario.Step{
				{Name: "register " + u.Email + " through the API", Run: func(ctx context.Context) error {
					if env.API == nil {
						return errs.New(errs.InvalidConfiguration, "login scenario needs an API client")
					}
					env.Defer(func(ctx context.Context) error {
						_, err := env.API.DeleteAccount(ctx, u.Email, u.Password)
						return err
					})
					resp, err := env.API.CreateAccount(ctx, fixtures.AccountPayload(u.Profile, u.Name, u.Email))
					if err != nil {
						return err
					}
					return resp.ExpectOutcome(201, "User created!")
				}},
				scenario.Do("open login", p.Login.Open),
				scenario.Do("log in with unregistered credentials", func() error { return p.Login.Login(bad.Email, bad.Password) }),
				scenario.Do("login fails", func() error {
					return p.Login.ExpectTransition(pages.LoggedOut, pages.LoginFailed)
				}),
				scenario.Do("log in with registered credentials", func() error {
					if err := p.Login.ClearLoginForm(); err != nil {
						return err
					}
					return p.Login.Login(u.Email, u.Password)
				}),
				scenario.Do("login succeeds", p.Login.AssertLoginSuccessful),
				scenario.Do("log out", p.Login.Logout),
				scenario.Do("back on login page", p.Login.AssertLoginPageLoaded),
			}
		},
	}
}

func DuplicateSignupFails() scenario.Scenario {
	return scenario.Scenario{
		Name: "Signup with an existing email fails",
		Tags: []string{"@ui", "@login", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			p := env.Pages
			u := datagen.NewTestUser("test123")
			return []scenario.Step{
				{Name: "register " + u.Email + " through the API", Run: func(ctx context.Context) error {
					if env.API == nil {
						return errs.New(errs.InvalidConfiguration, "signup scenario needs an API client")
					}
					env.Defer(func(ctx context.Context) error {
						_, err := env.API.DeleteAccount(ctx, u.Email, u.Password)
						return err
					})
					resp, err := env.API.CreateAccount(ctx, fixtures.AccountPayload(u.Profile, u.Name, u.Email))
					if err != nil {
						return err
					}
					return resp.ExpectOutcome(201, "User created!")
				}},
				scenario.Do("open login", p.Login.Open),
				scenario.Do("sign up with the same email", func() error { return p.Login.Signup(u.Name, u.Email) }),
				scenario.Do("signup is rejected", p.Login.AssertSignupFailed),
			}
		},
	}
}

// SearchProducts checks a matching term and a term nothing matches.
func SearchProducts(term string) scenario.Scenario {
	return scenario.Scenario{
		Name: "Search for " + term,
		Tags: []string{"@ui", "@search"},
		Steps: func(env *scenario.Env) []scenario.Step {
			products := env.Pages.Products
			return []scenario.Step{
				scenario.Do("open products", products.Open),
				scenario.Do("search "+term, func() error { return products.Search(term) }),
				scenario.Do("every result contains "+term, func() error { return products.AssertSearchResultsContain(term) }),
				scenario.Do("search for nothing", func() error { return products.Search("zz-" + datagen.UniqueSuffix()) }),
				scenario.Do("no results", products.AssertNoSearchResults),
			}
		},
	}
}

// CartTotals adds each product once, checks the total equals the sum of rows
// and that guests are sent to login at checkout.
func CartTotals(names ...string) scenario.Scenario {
	return scenario.Scenario{
		Name: "Cart total equals the sum of its rows",
		Tags: []string{"@ui", "@cart"},
		Steps: func(env *scenario.Env) []scenario.Step {
			products, cartPage := env.Pages.Products, env.Pages.Cart
			steps := []scenario.Step{scenario.Do("open products", products.Open)}
			for _, name := range names {
				steps = append(steps,
					scenario.Do("add "+name, func() error { return products.AddProductToCart(name) }),
					scenario.Do("continue shopping", products.ClickContinueShoppingOnModal),
				)
			}
			steps = append(steps,
				scenario.Do("open cart", cartPage.Open),
				scenario.Do("one row per product", func() error { return cartPage.AssertRowCount(len(names)) }),
				scenario.Do("prices are formatted", cartPage.AssertPriceFormat),
				scenario.Do("total equals sum of rows", cartPage.AssertTotals),
				scenario.Do("proceed to checkout as guest", cartPage.ProceedToCheckout),
				scenario.Do("checkout asks for login", cartPage.AssertCheckoutRequiresLogin),
				scenario.Do("reopen cart", cartPage.Open),
				scenario.Do("empty the cart", cartPage.ClearCart),
				scenario.Do("cart is empty", cartPage.AssertCartIsEmpty),
			)
			return steps
		},
	}
}

func CategoryFilter(keyword string) scenario.Scenario {
	return scenario.Scenario{
		Name: "Filter products by category " + keyword,
		Tags: []string{"@ui", "@filter"},
		Steps: func(env *scenario.Env) []scenario.Step {
			products := env.Pages.Products
			return []scenario.Step{
				scenario.Do("open products", products.Open),
				scenario.Do("open category "+keyword, func() error { return products.OpenCategory(keyword) }),
				scenario.Do("category page is shown", func() error { return products.AssertCategoryFiltered(keyword) }),
			}
		},
	}
}

// UnknownFilterKeyword checks an unrecognised keyword fails fast with a
// configuration error instead of being ignored.
func UnknownFilterKeyword(keyword string) scenario.Scenario {
	return scenario.Scenario{
		Name: "Unknown filter keyword is rejected",
		Tags: []string{"@ui", "@filter", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			products := env.Pages.Products
			return []scenario.Step{
				scenario.Do("filter by "+keyword, func() error {
					err := products.FilterByCategory(keyword)
					if !errs.Is(err, errs.InvalidConfiguration) {
						return errs.Assertion("filter error", errs.InvalidConfiguration, errs.CodeOf(err))
					}
					if err := products.FilterByBrand(keyword); !errs.Is(err, errs.InvalidConfiguration) {
						return errs.Assertion("brand filter error", errs.InvalidConfiguration, errs.CodeOf(err))
					}
					return nil
				}),
			}
		},
	}
}
