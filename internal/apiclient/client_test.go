package apiclient_test

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/kuitang/storefront-e2e/internal/apiclient"
	"github.com/kuitang/storefront-e2e/internal/apiclient/apitest"
	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/datagen"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/fixtures"
)

func newClient(t *testing.T) (*apiclient.Client, *apitest.Twin) {
	t.Helper()
	twin, srv := apitest.NewServer(t)
	p, ok := config.Builtin("default")
	require.True(t, ok)
	p.APIURL = srv.URL + "/api"
	p.APIRatePerSecond = 1000
	p.APIBurst = 100
	c := apiclient.New(&p)
	t.Cleanup(c.Close)
	return c, twin
}

func TestProductsList_Shape(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	resp, err := c.ProductsList(context.Background())
	require.NoError(t, err)
	require.NoError(t, resp.ExpectStatus(http.StatusOK))
	require.NoError(t, resp.ExpectResponseCode(200))
	require.NoError(t, resp.ExpectKeys("", "responseCode", "products"))
	items, err := resp.ExpectNonEmptyArray("products")
	require.NoError(t, err)
	assert.Len(t, items, len(apitest.Catalogue))
	require.NoError(t, resp.ExpectEachHasKeys("products", "id", "name", "price", "brand", "category"))
	require.NoError(t, resp.ExpectEach("products", func(_ int, item gjson.Result) error {
		return apiclient.HasKeys(item.Get("category"), "usertype", "category")
	}))
}

func TestDo_ThrottleDeadlineIsTimeout(t *testing.T) {
	t.Parallel()
	_, srv := apitest.NewServer(t)
	p, ok := config.Builtin("default")
	require.True(t, ok)
	p.APIURL = srv.URL + "/api"
	p.APIRatePerSecond = 0.001
	p.APIBurst = 1
	c := apiclient.New(&p)
	t.Cleanup(c.Close)

	_, err := c.ProductsList(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.ProductsList(ctx)
	require.Error(t, err)
	assert.Equal(t, errs.Timeout, errs.CodeOf(err), "got %v", err)
}

func TestSearchProduct_MatchesTerm(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	resp, err := c.SearchProduct(context.Background(), "top")
	require.NoError(t, err)
	require.NoError(t, resp.ExpectEach("products", func(_ int, item gjson.Result) error {
		if !strings.Contains(strings.ToLower(item.Get("name").String()), "top") {
			return errs.Assertion("name", "to contain top", item.Get("name").String())
		}
		return nil
	}))
	items, err := resp.ExpectNonEmptyArray("products")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(items), 3)

	empty, err := c.SearchProduct(context.Background(), "zzz-no-such-product")
	require.NoError(t, err)
	_, err = empty.ExpectNonEmptyArray("products")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.AssertionFailed))
}

func TestSearchProduct_MissingParameter(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	resp, err := c.Do(context.Background(), apiclient.Request{
		Method: http.MethodPost,
		Path:   "/searchProduct",
		Form:   map[string]string{},
	})
	require.NoError(t, err)
	require.NoError(t, resp.ExpectStatus(http.StatusOK))
	require.NoError(t, resp.ExpectOutcome(400, "search_product parameter is missing"))
}

func TestGetProductDetailsByID_UnknownIsHTTP404(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	resp, err := c.GetProductDetailsByID(context.Background(), 1)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectString("product.name", "Blue Top"))
	require.NoError(t, resp.ExpectInt("product.id", 1))

	resp, err = c.GetProductDetailsByID(context.Background(), 99999)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.UnexpectedStatus))
	require.NotNil(t, resp, "response must be returned alongside the status error")
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp, err = c.GetProductDetailsByID(context.Background(), 99999, apiclient.AllowErrorStatus())
	require.NoError(t, err)
	require.NoError(t, resp.ExpectStatus(http.StatusNotFound))
	require.NoError(t, resp.ExpectMessageContains("not found"))
}

func TestAccountLifecycle(t *testing.T) {
	t.Parallel()
	c, twin := newClient(t)
	ctx := context.Background()

	user := datagen.NewTestUser("Secret123")
	fields := fixtures.AccountPayload(user.Profile, user.Name, user.Email)

	resp, err := c.CreateAccount(ctx, fields)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectOutcome(201, "User created!"))
	assert.True(t, twin.HasAccount(user.Email))

	resp, err = c.CreateAccount(ctx, fields)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectOutcome(400, "Email already exists!"))

	resp, err = c.VerifyLogin(ctx, user.Email, user.Password)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectOutcome(200, "User exists!"))

	resp, err = c.VerifyLogin(ctx, user.Email, "wrong")
	require.NoError(t, err)
	require.NoError(t, resp.ExpectOutcome(404, "User not found!"))

	fields["city"] = "Springfield"
	resp, err = c.UpdateAccount(ctx, fields)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectOutcome(200, "User updated!"))

	resp, err = c.GetUserDetailByEmail(ctx, user.Email)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectKeys("user", "name", "email", "first_name", "last_name"))
	require.NoError(t, resp.ExpectString("user.email", user.Email))

	resp, err = c.DeleteAccount(ctx, user.Email, user.Password)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectOutcome(200, "Account deleted!"))
	assert.False(t, twin.HasAccount(user.Email))
}

func TestCreateAccount_MissingFieldsIsBadRequest(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	resp, err := c.CreateAccount(context.Background(), map[string]string{"email": datagen.Email()}, apiclient.AllowErrorStatus())
	require.NoError(t, err)
	require.NoError(t, resp.ExpectStatus(http.StatusBadRequest))
	require.NoError(t, resp.ExpectMessageContains("missing fields"))
}

func TestDo_MalformedBody(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)

	resp, err := c.Do(context.Background(), apiclient.Request{
		Method:           http.MethodPost,
		Path:             "/createAccount",
		Raw:              []byte(`{"email": `),
		ContentType:      "application/json",
		AllowErrorStatus: true,
	})
	require.NoError(t, err)
	require.NoError(t, resp.ExpectStatus(http.StatusBadRequest))
}

func TestDo_InvalidEndpointAndMethod(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)
	ctx := context.Background()

	resp, err := c.Do(ctx, apiclient.Request{Path: "/doesNotExist", AllowErrorStatus: true})
	require.NoError(t, err)
	require.NoError(t, resp.ExpectStatus(http.StatusNotFound))

	resp, err = c.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: "/productsList"})
	require.NoError(t, err)
	require.NoError(t, resp.ExpectOutcome(405, "not supported"))
}

func TestCartRoundTrip(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)
	ctx := context.Background()

	_, err := c.AddToCart(ctx, 1, 2)
	require.NoError(t, err)
	_, err = c.AddToCart(ctx, 2, 1)
	require.NoError(t, err)

	resp, err := c.ViewCart(ctx)
	require.NoError(t, err)
	items, err := resp.ExpectNonEmptyArray("products")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	require.NoError(t, resp.ExpectInt("products.0.quantity", 2))

	_, err = c.UpdateCart(ctx, 1, 5)
	require.NoError(t, err)
	resp, err = c.ViewCart(ctx)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectInt("products.0.quantity", 5))

	_, err = c.DeleteCart(ctx, 1)
	require.NoError(t, err)
	resp, err = c.ViewCart(ctx)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectString("products.0.name", "Men Tshirt"))
}

func TestBrandsAndCategories(t *testing.T) {
	t.Parallel()
	c, _ := newClient(t)
	ctx := context.Background()

	resp, err := c.BrandsList(ctx)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectEachHasKeys("brands", "id", "brand"))

	resp, err = c.GetBrandsProductsList(ctx, 3)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectEach("products", func(_ int, item gjson.Result) error {
		if item.Get("brand").String() != "Madame" {
			return errs.Assertion("brand", "Madame", item.Get("brand").String())
		}
		return nil
	}))

	resp, err = c.GetAllCategoryList(ctx)
	require.NoError(t, err)
	require.NoError(t, resp.ExpectEachHasKeys("categories", "id", "category", "usertype"))

	resp, err = c.GetCategoryList(ctx, 1)
	require.NoError(t, err)
	items, err := resp.ExpectNonEmptyArray("products")
	require.NoError(t, err)
	for _, item := range items {
		assert.Equal(t, "Dress", item.Get("category.category").String())
	}
}

func TestConcurrentCalls(t *testing.T) {
	t.Parallel()
	c, twin := newClient(t)

	var wg sync.WaitGroup
	errCh := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := c.ProductsList(context.Background())
			if err == nil {
				err = resp.ExpectResponseCode(200)
			}
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
	assert.Equal(t, 5, twin.Hits())
}

func TestDo_ContextDeadlineIsTimeout(t *testing.T) {
	t.Parallel()
	c, twin := newClient(t)
	twin.Latency = 500 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.ProductsList(ctx)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Timeout), "got %v", err)
}

func TestDo_UnreachableIsUnavailable(t *testing.T) {
	t.Parallel()
	c := apiclient.NewWithHTTPClient("http://127.0.0.1:1/api", &http.Client{Timeout: time.Second})

	_, err := c.ProductsList(context.Background())
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.Unavailable), "got %v", err)
}

func TestExpectations_FailWithAssertionDetail(t *testing.T) {
	t.Parallel()
	resp := &apiclient.Response{
		Method: http.MethodGet,
		Path:   "/productsList",
		Status: http.StatusOK,
		Body:   []byte(`{"responseCode": 200, "products": [{"id": 1}], "message": "ok"}`),
	}

	err := resp.ExpectResponseCode(201)
	require.Error(t, err)
	ae, ok := errs.AsAssertion(err)
	require.True(t, ok)
	assert.Equal(t, 201, ae.Expected)
	assert.EqualValues(t, 200, ae.Actual)

	require.Error(t, resp.ExpectEachHasKeys("products", "id", "name"))
	require.Error(t, resp.ExpectKeys("products.0", "price"))
	require.Error(t, resp.ExpectString("message", "nope"))
	_, err = resp.ExpectArray("message")
	require.Error(t, err)

	bad := &apiclient.Response{Method: http.MethodGet, Path: "/x", Body: []byte("<html>")}
	require.Error(t, bad.ExpectJSON())
	require.Error(t, bad.ExpectResponseCode(200))
}
