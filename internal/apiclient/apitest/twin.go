// Package apitest is an in-memory twin of the storefront's public API for
// hermetic tests. It reproduces the storefront's response conventions: most
// outcomes come back as HTTP 200 with the real result in a responseCode field,
// while unknown products, unknown endpoints and malformed bodies use real
// HTTP error statuses.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Category is a product's audience and kind.
type Category struct {
	UserType struct {
		UserType string `json:"usertype"`
	} `json:"usertype"`
	Category string `json:"category"`
}

// Product is one catalogue entry.
type Product struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Price    string   `json:"price"`
	Brand    string   `json:"brand"`
	Category Category `json:"category"`
}

type brand struct {
	ID    int    `json:"id"`
	Brand string `json:"brand"`
}

type categoryEntry struct {
	ID       int    `json:"id"`
	Category string `json:"category"`
	UserType string `json:"usertype"`
}

type cartLine struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

func product(id int, name, price, brandName, userType, kind string) Product {
	p := Product{ID: id, Name: name, Price: price, Brand: brandName}
	p.Category.UserType.UserType = userType
	p.Category.Category = kind
	return p
}

// Catalogue is the seeded product list.
var Catalogue = []Product{
	product(1, "Blue Top", "Rs. 500", "Polo", "Women", "Tops"),
	product(2, "Men Tshirt", "Rs. 400", "H&M", "Men", "Tshirts"),
	product(3, "Sleeveless Dress", "Rs. 1000", "Madame", "Women", "Dress"),
	product(4, "Stylish Dress", "Rs. 1500", "Madame", "Women", "Dress"),
	product(5, "Winter Top", "Rs. 600", "Mast & Harbour", "Women", "Tops"),
	product(6, "Summer White Top", "Rs. 400", "H&M", "Women", "Tops"),
	product(7, "Little Girls Mr. Panda Shirt", "Rs. 543", "Allen Solly Junior", "Kids", "Tops & Shirts"),
	product(8, "Sleeves Printed Top - White", "Rs. 499", "Babyhug", "Kids", "Dress"),
	product(9, "Pure Cotton V-Neck T-Shirt", "Rs. 1299", "Kookie Kids", "Men", "Tshirts"),
	product(10, "Cotton Silk Hand Block Print Saree", "Rs. 3000", "Biba", "Women", "Saree"),
}

var brands = []brand{
	{1, "Polo"}, {2, "H&M"}, {3, "Madame"}, {4, "Mast & Harbour"},
	{5, "Babyhug"}, {6, "Allen Solly Junior"}, {7, "Kookie Kids"}, {8, "Biba"},
}

var categories = []categoryEntry{
	{1, "Dress", "Women"}, {2, "Tops", "Women"}, {3, "Saree", "Women"},
	{4, "Tshirts", "Men"}, {5, "Jeans", "Men"},
	{6, "Dress", "Kids"}, {7, "Tops & Shirts", "Kids"},
}

// accountFields are required by createAccount.
var accountFields = []string{
	"name", "email", "password", "title", "birth_date", "birth_month", "birth_year",
	"firstname", "lastname", "company", "address1", "address2", "country",
	"zipcode", "state", "city", "mobile_number",
}

// Twin is the fake storefront API.
type Twin struct {
	Router *chi.Mux

	mu       sync.Mutex
	accounts map[string]map[string]string
	cart     map[int]int
	// Latency delays every response.
	Latency time.Duration
	hits    int
}

// New builds a twin with the seeded catalogue and no accounts.
func New() *Twin {
	tw := &Twin{
		Router:   chi.NewRouter(),
		accounts: make(map[string]map[string]string),
		cart:     make(map[int]int),
	}
	r := tw.Router
	r.Use(chimw.Recoverer)
	r.Use(tw.countAndDelay)

	r.Get("/api/productsList", tw.productsList)
	r.Post("/api/searchProduct", tw.searchProduct)
	r.Get("/api/getProductDetailsById", tw.productDetails)
	r.Post("/api/createAccount", tw.createAccount)
	r.Post("/api/verifyLogin", tw.verifyLogin)
	r.Put("/api/updateAccount", tw.updateAccount)
	r.Delete("/api/deleteAccount", tw.deleteAccount)
	r.Get("/api/getUserDetailByEmail", tw.userDetail)
	r.Post("/api/addToCart", tw.addToCart)
	r.Get("/api/viewCart", tw.viewCart)
	r.Put("/api/updateCart", tw.updateCart)
	r.Delete("/api/deleteCart", tw.deleteCart)
	r.Get("/api/brandsList", tw.brandsList)
	r.Get("/api/getBrandsProductsList", tw.brandProducts)
	r.Get("/api/getAllCategoryList", tw.categoryList)
	r.Get("/api/getCategoryList", tw.categoryProducts)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		envelope(w, http.StatusOK, 405, "This request method is not supported.")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"responseCode": 404, "message": "Not found"})
	})
	return tw
}

// NewServer starts the twin on an httptest server closed at test cleanup.
// The API root is server.URL + "/api".
func NewServer(t testing.TB) (*Twin, *httptest.Server) {
	t.Helper()
	tw := New()
	srv := httptest.NewServer(tw.Router)
	t.Cleanup(srv.Close)
	return tw, srv
}

// Hits returns how many requests the twin has served.
func (tw *Twin) Hits() int {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.hits
}

// HasAccount reports whether email is registered.
func (tw *Twin) HasAccount(email string) bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	_, ok := tw.accounts[strings.ToLower(email)]
	return ok
}

func (tw *Twin) countAndDelay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw.mu.Lock()
		tw.hits++
		delay := tw.Latency
		tw.mu.Unlock()
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (tw *Twin) productsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"responseCode": 200, "products": Catalogue})
}

func (tw *Twin) searchProduct(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	term, ok := r.PostForm["search_product"]
	if !ok {
		envelope(w, http.StatusOK, 400, "Bad request, search_product parameter is missing in POST request.")
		return
	}
	needle := strings.ToLower(strings.TrimSpace(term[0]))
	matches := []Product{}
	for _, p := range Catalogue {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"responseCode": 200, "products": matches})
}

func (tw *Twin) productDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		envelope(w, http.StatusBadRequest, 400, "Bad request, id parameter is missing or invalid.")
		return
	}
	for _, p := range Catalogue {
		if p.ID == id {
			writeJSON(w, http.StatusOK, map[string]any{"responseCode": 200, "product": p})
			return
		}
	}
	envelope(w, http.StatusNotFound, 404, "Product not found!")
}

// parseForm rejects bodies that claim to be forms but do not decode.
func parseForm(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		envelope(w, http.StatusBadRequest, 400, "Bad request, expected form data.")
		return nil, false
	}
	if err := r.ParseForm(); err != nil {
		envelope(w, http.StatusBadRequest, 400, "Bad request, malformed form data.")
		return nil, false
	}
	fields := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	return fields, true
}

func (tw *Twin) createAccount(w http.ResponseWriter, r *http.Request) {
	fields, ok := parseForm(w, r)
	if !ok {
		return
	}
	var missing []string
	for _, f := range accountFields {
		if fields[f] == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		envelope(w, http.StatusBadRequest, 400, "Bad request, missing fields: "+strings.Join(missing, ", "))
		return
	}
	email := strings.ToLower(fields["email"])
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if _, exists := tw.accounts[email]; exists {
		envelope(w, http.StatusOK, 400, "Email already exists!")
		return
	}
	tw.accounts[email] = fields
	envelope(w, http.StatusOK, 201, "User created!")
}

func (tw *Twin) verifyLogin(w http.ResponseWriter, r *http.Request) {
	fields, ok := parseForm(w, r)
	if !ok {
		return
	}
	if fields["email"] == "" || fields["password"] == "" {
		envelope(w, http.StatusOK, 400, "Bad request, email or password parameter is missing in POST request.")
		return
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()
	acct, exists := tw.accounts[strings.ToLower(fields["email"])]
	if !exists || acct["password"] != fields["password"] {
		envelope(w, http.StatusOK, 404, "User not found!")
		return
	}
	envelope(w, http.StatusOK, 200, "User exists!")
}

func (tw *Twin) updateAccount(w http.ResponseWriter, r *http.Request) {
	fields, ok := parseForm(w, r)
	if !ok {
		return
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()
	email := strings.ToLower(fields["email"])
	acct, exists := tw.accounts[email]
	if !exists || acct["password"] != fields["password"] {
		envelope(w, http.StatusOK, 404, "Account not found!")
		return
	}
	for k, v := range fields {
		acct[k] = v
	}
	envelope(w, http.StatusOK, 200, "User updated!")
}

func (tw *Twin) deleteAccount(w http.ResponseWriter, r *http.Request) {
	fields, ok := parseForm(w, r)
	if !ok {
		return
	}
	tw.mu.Lock()
	defer tw.mu.Unlock()
	email := strings.ToLower(fields["email"])
	acct, exists := tw.accounts[email]
	if !exists || acct["password"] != fields["password"] {
		envelope(w, http.StatusOK, 404, "Account not found!")
		return
	}
	delete(tw.accounts, email)
	envelope(w, http.StatusOK, 200, "Account deleted!")
}

func (tw *Twin) userDetail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.URL.Query().Get("email"))
	tw.mu.Lock()
	defer tw.mu.Unlock()
	acct, exists := tw.accounts[email]
	if !exists {
		envelope(w, http.StatusOK, 404, "Account not found with this email, try another email!")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"responseCode": 200,
		"user": map[string]any{
			"name":       acct["name"],
			"email":      acct["email"],
			"first_name": acct["firstname"],
			"last_name":  acct["lastname"],
			"country":    acct["country"],
		},
	})
}

func decodeCartLine(w http.ResponseWriter, r *http.Request) (cartLine, bool) {
	var line cartLine
	if err := json.NewDecoder(r.Body).Decode(&line); err != nil || line.ID == 0 {
		envelope(w, http.StatusBadRequest, 400, "Bad request, id parameter is missing or malformed.")
		return cartLine{}, false
	}
	return line, true
}

func (tw *Twin) addToCart(w http.ResponseWriter, r *http.Request) {
	line, ok := decodeCartLine(w, r)
	if !ok {
		return
	}
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	tw.mu.Lock()
	tw.cart[line.ID] += line.Quantity
	tw.mu.Unlock()
	envelope(w, http.StatusOK, 200, "Product added to cart!")
}

func (tw *Twin) viewCart(w http.ResponseWriter, r *http.Request) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	lines := []map[string]any{}
	for _, p := range Catalogue {
		if qty, ok := tw.cart[p.ID]; ok {
			lines = append(lines, map[string]any{"id": p.ID, "name": p.Name, "price": p.Price, "quantity": qty})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"responseCode": 200, "products": lines})
}

func (tw *Twin) updateCart(w http.ResponseWriter, r *http.Request) {
	line, ok := decodeCartLine(w, r)
	if !ok {
		return
	}
	tw.mu.Lock()
	tw.cart[line.ID] = line.Quantity
	tw.mu.Unlock()
	envelope(w, http.StatusOK, 200, "Cart updated!")
}

func (tw *Twin) deleteCart(w http.ResponseWriter, r *http.Request) {
	line, ok := decodeCartLine(w, r)
	if !ok {
		return
	}
	tw.mu.Lock()
	delete(tw.cart, line.ID)
	tw.mu.Unlock()
	envelope(w, http.StatusOK, 200, "Cart deleted!")
}

func (tw *Twin) brandsList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"responseCode": 200, "brands": brands})
}

func (tw *Twin) brandProducts(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.URL.Query().Get("brand_id"))
	name := ""
	for _, b := range brands {
		if b.ID == id {
			name = b.Brand
		}
	}
	matches := []Product{}
	for _, p := range Catalogue {
		if name != "" && p.Brand == name {
			matches = append(matches, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"responseCode": 200, "products": matches})
}

func (tw *Twin) categoryList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"responseCode": 200, "categories": categories})
}

func (tw *Twin) categoryProducts(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(r.URL.Query().Get("category_id"))
	var want *categoryEntry
	for i := range categories {
		if categories[i].ID == id {
			want = &categories[i]
		}
	}
	matches := []Product{}
	for _, p := range Catalogue {
		if want != nil && p.Category.Category == want.Category && p.Category.UserType.UserType == want.UserType {
			matches = append(matches, p)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"responseCode": 200, "products": matches})
}

func envelope(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]any{"responseCode": code, "message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	// The storefront labels its JSON as text/html; clients must not rely on the header.
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
