package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

func TestParseSnapshot(t *testing.T) {
	t.Parallel()
	raw := map[string]any{
		"rows": []any{
			map[string]any{"product": " Blue Top ", "price": "Rs. 500", "quantity": "2", "total": "Rs. 1000"},
			map[string]any{"product": "Men Tshirt", "price": "Rs. 400", "quantity": "1", "total": "Rs. 400"},
		},
		"grand": "Rs. 1400",
	}
	snap, err := parseSnapshot(raw)
	require.NoError(t, err)
	require.Len(t, snap.Rows, 2)
	assert.Equal(t, "Blue Top", snap.Rows[0].Product)
	assert.Equal(t, 2, snap.Rows[0].Quantity)
	require.NotNil(t, snap.GrandTotal)
	assert.Equal(t, 1400, *snap.GrandTotal)
	require.NoError(t, snap.Verify())
}

func TestParseSnapshot_NoGrandTotalOnCartPage(t *testing.T) {
	t.Parallel()
	snap, err := parseSnapshot(map[string]any{
		"rows":  []any{map[string]any{"product": "Winter Top", "price": "Rs. 600", "quantity": "3", "total": "Rs. 1800"}},
		"grand": "",
	})
	require.NoError(t, err)
	assert.Nil(t, snap.GrandTotal)
	assert.Equal(t, 1800, snap.Sum())
}

func TestParseSnapshot_Malformed(t *testing.T) {
	t.Parallel()
	_, err := parseSnapshot("nope")
	require.Error(t, err)

	_, err = parseSnapshot(map[string]any{
		"rows": []any{map[string]any{"product": "X", "price": "500", "quantity": "1", "total": "Rs. 500"}},
	})
	require.Error(t, err)

	_, err = parseSnapshot(map[string]any{
		"rows": []any{map[string]any{"product": "X", "price": "Rs. 500", "quantity": "one", "total": "Rs. 500"}},
	})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.AssertionFailed))
}

func TestCheckPriceFormat(t *testing.T) {
	t.Parallel()
	require.NoError(t, checkPriceFormat([]string{"Rs. 500", "Rs. 1000"}))
	require.Error(t, checkPriceFormat([]string{"Rs. 500", "$10"}))
	require.Error(t, checkPriceFormat(nil))
}
