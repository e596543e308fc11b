package apiclient

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/logutil"
)

// Response is a fully read API response.
type Response struct {
	Method   string
	Path     string
	Status   int
	Header   http.Header
	Body     []byte
	Duration time.Duration
}

// JSON returns the value at a gjson path ("products.0.name", "products.#").
func (r *Response) JSON(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

func (r *Response) what(detail string) string {
	return fmt.Sprintf("%s %s %s", r.Method, r.Path, detail)
}

// ExpectStatus checks the HTTP status.
func (r *Response) ExpectStatus(code int) error {
	if r.Status != code {
		return errs.Assertion(r.what("status"), code, r.Status)
	}
	return nil
}

// ExpectJSON checks that the body parses as JSON.
func (r *Response) ExpectJSON() error {
	if !gjson.ValidBytes(r.Body) {
		return errs.Assertion(r.what("body"), "valid JSON", truncate(string(r.Body)))
	}
	return nil
}

// ExpectResponseCode checks the storefront's in-body responseCode, which can
// differ from the HTTP status.
func (r *Response) ExpectResponseCode(code int) error {
	if err := r.ExpectJSON(); err != nil {
		return err
	}
	v := r.JSON("responseCode")
	if v.Type != gjson.Number {
		return errs.Assertion(r.what("responseCode"), "a number", describe(v))
	}
	if int(v.Int()) != code {
		return errs.Assertion(r.what("responseCode"), code, v.Int())
	}
	return nil
}

// ExpectMessageContains checks that the in-body message contains text.
func (r *Response) ExpectMessageContains(text string) error {
	v := r.JSON("message")
	if v.Type != gjson.String {
		return errs.Assertion(r.what("message"), "a string", describe(v))
	}
	if !strings.Contains(v.String(), text) {
		return errs.Assertion(r.what("message"), fmt.Sprintf("to contain %q", text), v.String())
	}
	return nil
}

// ExpectOutcome checks responseCode and message together.
func (r *Response) ExpectOutcome(code int, message string) error {
	if err := r.ExpectResponseCode(code); err != nil {
		return err
	}
	return r.ExpectMessageContains(message)
}

// ExpectKeys checks that the object at path has every key. An empty path
// addresses the top-level object.
func (r *Response) ExpectKeys(path string, keys ...string) error {
	obj := r.root(path)
	if !obj.IsObject() {
		return errs.Assertion(r.what(label(path)), "an object", describe(obj))
	}
	var missing []string
	for _, k := range keys {
		if !obj.Get(gjsonEscape(k)).Exists() {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errs.Assertion(r.what(label(path)), "keys "+strings.Join(keys, ", "), "missing "+strings.Join(missing, ", "))
	}
	return nil
}

// ExpectArray checks that path holds an array and returns its elements.
func (r *Response) ExpectArray(path string) ([]gjson.Result, error) {
	v := r.JSON(path)
	if !v.IsArray() {
		return nil, errs.Assertion(r.what(path), "an array", describe(v))
	}
	return v.Array(), nil
}

// ExpectNonEmptyArray checks that path holds an array with at least one element.
func (r *Response) ExpectNonEmptyArray(path string) ([]gjson.Result, error) {
	items, err := r.ExpectArray(path)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errs.Assertion(r.what(path), "a non-empty array", "[]")
	}
	return items, nil
}

// ExpectEach runs check on every element of the array at path and stops at the first failure.
func (r *Response) ExpectEach(path string, check func(i int, item gjson.Result) error) error {
	items, err := r.ExpectArray(path)
	if err != nil {
		return err
	}
	for i, item := range items {
		if err := check(i, item); err != nil {
			return fmt.Errorf("%s[%d]: %w", path, i, err)
		}
	}
	return nil
}

// ExpectEachHasKeys checks that every element of the array at path has keys.
func (r *Response) ExpectEachHasKeys(path string, keys ...string) error {
	return r.ExpectEach(path, func(_ int, item gjson.Result) error {
		return HasKeys(item, keys...)
	})
}

// ExpectInt checks the integer at path.
func (r *Response) ExpectInt(path string, want int64) error {
	v := r.JSON(path)
	if v.Type != gjson.Number {
		return errs.Assertion(r.what(path), want, describe(v))
	}
	if v.Int() != want {
		return errs.Assertion(r.what(path), want, v.Int())
	}
	return nil
}

// ExpectString checks the string at path.
func (r *Response) ExpectString(path, want string) error {
	v := r.JSON(path)
	if v.Type != gjson.String || v.String() != want {
		return errs.Assertion(r.what(path), want, describe(v))
	}
	return nil
}

// HasKeys checks that item is an object with every key.
func HasKeys(item gjson.Result, keys ...string) error {
	if !item.IsObject() {
		return errs.Assertion("element", "an object", describe(item))
	}
	for _, k := range keys {
		if !item.Get(gjsonEscape(k)).Exists() {
			return errs.Assertion("element", "key "+k, "missing")
		}
	}
	return nil
}

func (r *Response) root(path string) gjson.Result {
	if path == "" {
		return gjson.ParseBytes(r.Body)
	}
	return r.JSON(path)
}

func label(path string) string {
	if path == "" {
		return "body"
	}
	return path
}

func describe(v gjson.Result) string {
	if !v.Exists() {
		return "nothing"
	}
	return truncate(v.Raw)
}

func truncate(s string) string {
	return logutil.Truncate(s, 120, "...")
}

var gjsonSpecial = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

func gjsonEscape(key string) string {
	return gjsonSpecial.Replace(key)
}
