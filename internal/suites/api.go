// Package suites holds the imperative scenarios shared by the CLI and the
// live test packages.
package suites

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kuitang/storefront-e2e/internal/apiclient"
	"github.com/kuitang/storefront-e2e/internal/datagen"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/fixtures"
	"github.com/kuitang/storefront-e2e/internal/pages"
	"github.com/kuitang/storefront-e2e/internal/scenario"
	"github.com/kuitang/storefront-e2e/internal/timing"
)

// UnknownProductID is an id no catalogue product uses.
const UnknownProductID = 99999

// APILatencyBudget bounds a single productsList round trip.
const APILatencyBudget = 5 * time.Second

var productKeys = []string{"id", "name", "price", "brand", "category"}

// API returns the API scenarios. Cart endpoints are excluded unless withCart
// is set, since the public storefront does not serve them.
func API(withCart bool) []scenario.Scenario {
	out := []scenario.Scenario{
		ProductsListShape(),
		UnknownProductIsNotFound(),
		SearchMatchesTerm("top"),
		SearchWithoutTermIsRejected(),
		AccountLifecycle(),
		DuplicateRegistrationFails(),
		CreateAccountMissingFields(),
		VerifyLoginWithoutParameters(),
		WrongMethodIsRejected(),
		UnknownEndpointIsNotFound(),
		BrandsAndCategories(),
		ConcurrentProductLists(5),
	}
	if withCart {
		out = append(out, CartRoundTrip())
	}
	return out
}

// ProductsListShape: GET productsList returns 200 with a non-empty products
// array whose items all carry id, name, price, brand and category.
func ProductsListShape() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: products list returns every product with its fields",
		Tags: []string{"@api", "@smoke"},
		Steps: func(env *scenario.Env) []scenario.Step {
			var resp *apiclient.Response
			return []scenario.Step{
				{Name: "GET productsList", Run: func(ctx context.Context) (err error) {
					sw := timing.Start()
					resp, err = env.API.ProductsList(ctx)
					if err != nil {
						return err
					}
					return timing.AssertWithin("productsList", sw.Elapsed(), APILatencyBudget)
				}},
				scenario.Do("status is 200", func() error { return resp.ExpectStatus(http.StatusOK) }),
				scenario.Do("products is a non-empty array", func() error {
					_, err := resp.ExpectNonEmptyArray("products")
					return err
				}),
				scenario.Do("every product has its fields", func() error {
					return resp.ExpectEachHasKeys("products", productKeys...)
				}),
			}
		},
	}
}

// UnknownProductIsNotFound asserts the 404 itself instead of letting the
// client fail on it.
func UnknownProductIsNotFound() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: unknown product id returns 404",
		Tags: []string{"@api", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			var resp *apiclient.Response
			return []scenario.Step{
				{Name: fmt.Sprintf("GET getProductDetailsById?id=%d", UnknownProductID), Run: func(ctx context.Context) (err error) {
					resp, err = env.API.GetProductDetailsByID(ctx, UnknownProductID, apiclient.AllowErrorStatus())
					return err
				}},
				scenario.Do("status is 404", func() error { return resp.ExpectStatus(http.StatusNotFound) }),
			}
		},
	}
}

// SearchMatchesTerm checks every result contains term and a nonsense term
// returns nothing.
func SearchMatchesTerm(term string) scenario.Scenario {
	return scenario.Scenario{
		Name: "API: search for " + term + " only returns matching products",
		Tags: []string{"@api", "@search"},
		Steps: func(env *scenario.Env) []scenario.Step {
			var hit, miss *apiclient.Response
			return []scenario.Step{
				{Name: "POST searchProduct " + term, Run: func(ctx context.Context) (err error) {
					hit, err = env.API.SearchProduct(ctx, term)
					return err
				}},
				scenario.Do("every result contains the term", func() error {
					return pages.MatchAll(term, names(hit))
				}),
				{Name: "POST searchProduct with an unknown term", Run: func(ctx context.Context) (err error) {
					miss, err = env.API.SearchProduct(ctx, "zz-"+datagen.UniqueSuffix())
					return err
				}},
				scenario.Do("no results", func() error {
					items, err := miss.ExpectArray("products")
					if err != nil {
						return err
					}
					if len(items) != 0 {
						return errs.Assertion("products", "empty", len(items))
					}
					return nil
				}),
			}
		},
	}
}

func SearchWithoutTermIsRejected() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: search without search_product is a bad request",
		Tags: []string{"@api", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			var resp *apiclient.Response
			return []scenario.Step{
				{Name: "POST searchProduct without a term", Run: func(ctx context.Context) (err error) {
					resp, err = env.API.Do(ctx, apiclient.Request{
						Method: http.MethodPost,
						Path:   "/searchProduct",
						Form:   map[string]string{},
					})
					return err
				}},
				scenario.Do("responseCode is 400", func() error {
					return resp.ExpectOutcome(400, "search_product parameter is missing")
				}),
			}
		},
	}
}

// AccountLifecycle registers a fresh user, logs in, reads, updates and deletes
// the account. A failed attempt still deletes what it created.
func AccountLifecycle() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: account lifecycle",
		Tags: []string{"@api", "@account"},
		Steps: func(env *scenario.Env) []scenario.Step {
			u := datagen.NewTestUser("test123")
			payload := fixtures.AccountPayload(u.Profile, u.Name, u.Email)
			var resp *apiclient.Response
			call := func(name string, fn func(ctx context.Context) (*apiclient.Response, error)) scenario.Step {
				return scenario.Step{Name: name, Run: func(ctx context.Context) (err error) {
					resp, err = fn(ctx)
					return err
				}}
			}
			return []scenario.Step{
				call("POST createAccount", func(ctx context.Context) (*apiclient.Response, error) {
					env.Defer(func(ctx context.Context) error {
						_, err := env.API.DeleteAccount(ctx, u.Email, u.Password)
						return err
					})
					return env.API.CreateAccount(ctx, payload)
				}),
				scenario.Do("user created", func() error { return resp.ExpectOutcome(201, "User created!") }),
				call("POST verifyLogin", func(ctx context.Context) (*apiclient.Response, error) {
					return env.API.VerifyLogin(ctx, u.Email, u.Password)
				}),
				scenario.Do("user exists", func() error { return resp.ExpectOutcome(200, "User exists!") }),
				call("POST verifyLogin with a wrong password", func(ctx context.Context) (*apiclient.Response, error) {
					return env.API.VerifyLogin(ctx, u.Email, u.Password+"-wrong")
				}),
				scenario.Do("user not found", func() error { return resp.ExpectOutcome(404, "User not found!") }),
				call("GET getUserDetailByEmail", func(ctx context.Context) (*apiclient.Response, error) {
					return env.API.GetUserDetailByEmail(ctx, u.Email)
				}),
				scenario.Do("details match", func() error {
					if err := resp.ExpectKeys("user", "name", "email"); err != nil {
						return err
					}
					return resp.ExpectString("user.email", u.Email)
				}),
				call("PUT updateAccount", func(ctx context.Context) (*apiclient.Response, error) {
					updated := fixtures.AccountPayload(u.Profile, u.Name, u.Email)
					updated["city"] = "Springfield"
					return env.API.UpdateAccount(ctx, updated)
				}),
				scenario.Do("user updated", func() error { return resp.ExpectOutcome(200, "User updated!") }),
				call("DELETE deleteAccount", func(ctx context.Context) (*apiclient.Response, error) {
					return env.API.DeleteAccount(ctx, u.Email, u.Password)
				}),
				scenario.Do("account deleted", func() error { return resp.ExpectOutcome(200, "Account deleted!") }),
				call("POST verifyLogin after delete", func(ctx context.Context) (*apiclient.Response, error) {
					return env.API.VerifyLogin(ctx, u.Email, u.Password)
				}),
				scenario.Do("login no longer works", func() error { return resp.ExpectResponseCode(404) }),
			}
		},
	}
}

// DuplicateRegistrationFails: the same payload fails on an existing email and
// succeeds on a fresh one.
func DuplicateRegistrationFails() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: registering an existing email fails",
		Tags: []string{"@api", "@account", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			u := datagen.NewTestUser("test123")
			fresh := datagen.Email()
			register := func(email string, code int, msg string) scenario.Step {
				return scenario.Step{Name: "register " + email, Run: func(ctx context.Context) error {
					resp, err := env.API.CreateAccount(ctx, fixtures.AccountPayload(u.Profile, u.Name, email))
					if err != nil {
						return err
					}
					return resp.ExpectOutcome(code, msg)
				}}
			}
			env.Defer(func(ctx context.Context) error {
				var failures []error
				for _, email := range []string{u.Email, fresh} {
					if _, err := env.API.DeleteAccount(ctx, email, u.Password); err != nil {
						failures = append(failures, err)
					}
				}
				return errors.Join(failures...)
			})
			return []scenario.Step{
				register(u.Email, 201, "User created!"),
				register(u.Email, 400, "Email already exists!"),
				register(u.Email, 400, "Email already exists!"),
				register(fresh, 201, "User created!"),
			}
		},
	}
}

func CreateAccountMissingFields() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: createAccount without required fields is rejected",
		Tags: []string{"@api", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			return []scenario.Step{
				{Name: "POST createAccount with only an email", Run: func(ctx context.Context) error {
					resp, err := env.API.CreateAccount(ctx, map[string]string{"email": datagen.Email()}, apiclient.AllowErrorStatus())
					if err != nil {
						return err
					}
					return resp.ExpectResponseCode(400)
				}},
			}
		},
	}
}

func VerifyLoginWithoutParameters() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: verifyLogin without credentials is a bad request",
		Tags: []string{"@api", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			return []scenario.Step{
				{Name: "POST verifyLogin with empty credentials", Run: func(ctx context.Context) error {
					resp, err := env.API.VerifyLogin(ctx, "", "", apiclient.AllowErrorStatus())
					if err != nil {
						return err
					}
					return resp.ExpectOutcome(400, "missing")
				}},
			}
		},
	}
}

func WrongMethodIsRejected() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: POST to productsList is not supported",
		Tags: []string{"@api", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			return []scenario.Step{
				{Name: "POST productsList", Run: func(ctx context.Context) error {
					resp, err := env.API.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/productsList", AllowErrorStatus: true})
					if err != nil {
						return err
					}
					return resp.ExpectOutcome(405, "not supported")
				}},
			}
		},
	}
}

func UnknownEndpointIsNotFound() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: unknown endpoint returns 404",
		Tags: []string{"@api", "@negative"},
		Steps: func(env *scenario.Env) []scenario.Step {
			return []scenario.Step{
				{Name: "GET an endpoint that does not exist", Run: func(ctx context.Context) error {
					resp, err := env.API.Do(ctx, apiclient.Request{Path: "/doesNotExist", AllowErrorStatus: true})
					if err != nil {
						return err
					}
					return resp.ExpectStatus(http.StatusNotFound)
				}},
			}
		},
	}
}

func BrandsAndCategories() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: brands and categories are listed",
		Tags: []string{"@api"},
		Steps: func(env *scenario.Env) []scenario.Step {
			return []scenario.Step{
				{Name: "GET brandsList", Run: func(ctx context.Context) error {
					resp, err := env.API.BrandsList(ctx)
					if err != nil {
						return err
					}
					if _, err := resp.ExpectNonEmptyArray("brands"); err != nil {
						return err
					}
					return resp.ExpectEachHasKeys("brands", "id", "brand")
				}},
				{Name: "GET getAllCategoryList", Run: func(ctx context.Context) error {
					resp, err := env.API.GetAllCategoryList(ctx)
					if err != nil {
						return err
					}
					if _, err := resp.ExpectNonEmptyArray("categories"); err != nil {
						return err
					}
					return resp.ExpectEachHasKeys("categories", "id", "category", "usertype")
				}},
			}
		},
	}
}

// ConcurrentProductLists issues n productsList calls at once; each must
// succeed with the same product count.
func ConcurrentProductLists(n int) scenario.Scenario {
	return scenario.Scenario{
		Name: fmt.Sprintf("API: %d concurrent productsList calls agree", n),
		Tags: []string{"@api", "@concurrency"},
		Steps: func(env *scenario.Env) []scenario.Step {
			return []scenario.Step{
				{Name: "GET productsList concurrently", Run: func(ctx context.Context) error {
					var wg sync.WaitGroup
					counts := make([]int, n)
					errsOut := make([]error, n)
					for i := range n {
						wg.Add(1)
						go func() {
							defer wg.Done()
							resp, err := env.API.ProductsList(ctx)
							if err != nil {
								errsOut[i] = err
								return
							}
							items, err := resp.ExpectNonEmptyArray("products")
							errsOut[i] = err
							counts[i] = len(items)
						}()
					}
					wg.Wait()
					for _, err := range errsOut {
						if err != nil {
							return err
						}
					}
					for i, c := range counts {
						if c != counts[0] {
							return errs.Assertion(fmt.Sprintf("product count of call %d", i+1), counts[0], c)
						}
					}
					return nil
				}},
			}
		},
	}
}

// CartRoundTrip exercises addToCart, viewCart, updateCart and deleteCart.
func CartRoundTrip() scenario.Scenario {
	return scenario.Scenario{
		Name: "API: cart add, view, update and delete",
		Tags: []string{"@api", "@cart"},
		Steps: func(env *scenario.Env) []scenario.Step {
			var resp *apiclient.Response
			do := func(name string, fn func(ctx context.Context) (*apiclient.Response, error)) scenario.Step {
				return scenario.Step{Name: name, Run: func(ctx context.Context) (err error) {
					resp, err = fn(ctx)
					return err
				}}
			}
			view := do("GET viewCart", func(ctx context.Context) (*apiclient.Response, error) { return env.API.ViewCart(ctx) })
			return []scenario.Step{
				do("POST addToCart", func(ctx context.Context) (*apiclient.Response, error) { return env.API.AddToCart(ctx, 1, 2) }),
				view,
				scenario.Do("cart holds two of product 1", func() error {
					return expectCartQuantity(resp, 1, 2)
				}),
				do("PUT updateCart", func(ctx context.Context) (*apiclient.Response, error) { return env.API.UpdateCart(ctx, 1, 5) }),
				view,
				scenario.Do("quantity updated", func() error { return expectCartQuantity(resp, 1, 5) }),
				do("DELETE deleteCart", func(ctx context.Context) (*apiclient.Response, error) { return env.API.DeleteCart(ctx, 1) }),
				view,
				scenario.Do("cart is empty", func() error {
					items, err := resp.ExpectArray("products")
					if err != nil {
						return err
					}
					if len(items) != 0 {
						return errs.Assertion("cart products", "empty", len(items))
					}
					return nil
				}),
			}
		},
	}
}

func expectCartQuantity(resp *apiclient.Response, id, qty int) error {
	items, err := resp.ExpectNonEmptyArray("products")
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Get("id").Int() == int64(id) {
			if got := item.Get("quantity").Int(); got != int64(qty) {
				return errs.Assertion(fmt.Sprintf("quantity of product %d", id), qty, got)
			}
			return nil
		}
	}
	return errs.Assertion("cart products", fmt.Sprintf("product %d", id), "absent")
}

func names(resp *apiclient.Response) []string {
	var out []string
	resp.JSON("products.#.name").ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}
