package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) call(ctx context.Context, req Request, opts []Option) (*Response, error) {
	for _, opt := range opts {
		opt(&req)
	}
	return c.Do(ctx, req)
}

// ProductsList fetches every product.
func (c *Client) ProductsList(ctx context.Context, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{Method: http.MethodGet, Path: "/productsList"}, opts)
}

// SearchProduct searches products by name. The storefront only accepts the
// term as a POST form field.
func (c *Client) SearchProduct(ctx context.Context, term string, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   "/searchProduct",
		Form:   map[string]string{"search_product": term},
	}, opts)
}

// GetProductDetailsByID fetches one product.
func (c *Client) GetProductDetailsByID(ctx context.Context, id int, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodGet,
		Path:   "/getProductDetailsById",
		Query:  url.Values{"id": {strconv.Itoa(id)}},
	}, opts)
}

// CreateAccount registers an account from form fields (see fixtures.AccountPayload).
func (c *Client) CreateAccount(ctx context.Context, fields map[string]string, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{Method: http.MethodPost, Path: "/createAccount", Form: fields}, opts)
}

// VerifyLogin checks a credential pair.
func (c *Client) VerifyLogin(ctx context.Context, email, password string, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   "/verifyLogin",
		Form:   map[string]string{"email": email, "password": password},
	}, opts)
}

// UpdateAccount replaces an account's details.
func (c *Client) UpdateAccount(ctx context.Context, fields map[string]string, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{Method: http.MethodPut, Path: "/updateAccount", Form: fields}, opts)
}

// DeleteAccount removes an account.
func (c *Client) DeleteAccount(ctx context.Context, email, password string, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/deleteAccount",
		Form:   map[string]string{"email": email, "password": password},
	}, opts)
}

// GetUserDetailByEmail fetches an account's details.
func (c *Client) GetUserDetailByEmail(ctx context.Context, email string, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodGet,
		Path:   "/getUserDetailByEmail",
		Query:  url.Values{"email": {email}},
	}, opts)
}

// AddToCart adds quantity units of a product to the API cart.
func (c *Client) AddToCart(ctx context.Context, productID, quantity int, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodPost,
		Path:   "/addToCart",
		JSON:   cartItem{ID: productID, Quantity: quantity},
	}, opts)
}

// ViewCart fetches the API cart.
func (c *Client) ViewCart(ctx context.Context, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{Method: http.MethodGet, Path: "/viewCart"}, opts)
}

// UpdateCart sets the quantity of a product in the API cart.
func (c *Client) UpdateCart(ctx context.Context, productID, quantity int, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodPut,
		Path:   "/updateCart",
		JSON:   cartItem{ID: productID, Quantity: quantity},
	}, opts)
}

// DeleteCart removes a product from the API cart.
func (c *Client) DeleteCart(ctx context.Context, productID int, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodDelete,
		Path:   "/deleteCart",
		JSON:   cartItem{ID: productID},
	}, opts)
}

// BrandsList fetches every brand.
func (c *Client) BrandsList(ctx context.Context, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{Method: http.MethodGet, Path: "/brandsList"}, opts)
}

// GetBrandsProductsList fetches the products of one brand.
func (c *Client) GetBrandsProductsList(ctx context.Context, brandID int, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodGet,
		Path:   "/getBrandsProductsList",
		Query:  url.Values{"brand_id": {strconv.Itoa(brandID)}},
	}, opts)
}

// GetAllCategoryList fetches every category.
func (c *Client) GetAllCategoryList(ctx context.Context, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{Method: http.MethodGet, Path: "/getAllCategoryList"}, opts)
}

// GetCategoryList fetches the products of one category.
func (c *Client) GetCategoryList(ctx context.Context, categoryID int, opts ...Option) (*Response, error) {
	return c.call(ctx, Request{
		Method: http.MethodGet,
		Path:   "/getCategoryList",
		Query:  url.Values{"category_id": {strconv.Itoa(categoryID)}},
	}, opts)
}

type cartItem struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity,omitempty"`
}
