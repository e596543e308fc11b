// Package cart models what the harness reads off the storefront's cart page:
// one row per product with unit price, quantity and row total, plus an
// optional grand total. The storefront does the arithmetic; this package only
// checks that what it rendered is self-consistent.
package cart

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

// PricePrefix is the currency marker the storefront prints before every amount.
const PricePrefix = "Rs."

var pricePattern = regexp.MustCompile(`^Rs\.\s*(\d{1,3}(?:,\d{3})+|\d+)$`)

// ParsePrice converts "Rs. 500" (or "Rs. 1,200") to an integer amount.
func ParsePrice(text string) (int, error) {
	m := pricePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, errs.Newf(errs.AssertionFailed, "price %q does not match %q", text, "Rs. <digits>")
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, errs.Wrap(errs.AssertionFailed, fmt.Sprintf("price %q", text), err)
	}
	return n, nil
}

// IsPrice reports whether text is a well-formed price.
func IsPrice(text string) bool {
	_, err := ParsePrice(text)
	return err == nil
}

// FormatPrice renders an amount the way the storefront does.
func FormatPrice(n int) string {
	return PricePrefix + " " + strconv.Itoa(n)
}

// Row is one rendered cart line.
type Row struct {
	Product   string
	UnitPrice int
	Quantity  int
	Total     int
}

// Snapshot is the cart as rendered at one instant.
type Snapshot struct {
	Rows []Row
	// GrandTotal is nil when the page renders no total row.
	GrandTotal *int
}

// Sum returns the sum of row totals.
func (s Snapshot) Sum() int {
	sum := 0
	for _, r := range s.Rows {
		sum += r.Total
	}
	return sum
}

// Find returns the first row whose product name contains name, case-insensitively.
func (s Snapshot) Find(name string) (Row, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, r := range s.Rows {
		if strings.Contains(strings.ToLower(r.Product), needle) {
			return r, true
		}
	}
	return Row{}, false
}

// Verify checks every row total against price times quantity, and the grand
// total against the row sum. All mismatches are reported together.
func (s Snapshot) Verify() error {
	var problems []string
	for i, r := range s.Rows {
		if r.Quantity <= 0 {
			problems = append(problems, fmt.Sprintf("row %d (%s): quantity %d is not positive", i+1, r.Product, r.Quantity))
		}
		if want := r.UnitPrice * r.Quantity; r.Total != want {
			problems = append(problems, fmt.Sprintf("row %d (%s): total %s, expected %s x %d = %s",
				i+1, r.Product, FormatPrice(r.Total), FormatPrice(r.UnitPrice), r.Quantity, FormatPrice(want)))
		}
	}
	if s.GrandTotal != nil && *s.GrandTotal != s.Sum() {
		problems = append(problems, fmt.Sprintf("grand total %s, expected sum of rows %s",
			FormatPrice(*s.GrandTotal), FormatPrice(s.Sum())))
	}
	if len(problems) > 0 {
		return errs.New(errs.AssertionFailed, "cart totals inconsistent:\n  - "+strings.Join(problems, "\n  - "))
	}
	return nil
}
