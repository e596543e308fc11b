package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUser_AllFieldsPresent(t *testing.T) {
	t.Parallel()
	u := ValidUser()
	for field, v := range map[string]string{
		"password":     u.Password,
		"firstName":    u.FirstName,
		"lastName":     u.LastName,
		"address":      u.Address,
		"country":      u.Country,
		"state":        u.State,
		"city":         u.City,
		"zipcode":      u.Zipcode,
		"mobileNumber": u.MobileNumber,
	} {
		assert.NotEmpty(t, v, field)
	}
}

func TestValidUser_ReturnsCopy(t *testing.T) {
	t.Parallel()
	u := ValidUser()
	u.FirstName = "Mutated"
	assert.NotEqual(t, "Mutated", ValidUser().FirstName)
}

func TestAccountPayload_HasEveryAPIField(t *testing.T) {
	t.Parallel()
	p := AccountPayload(ValidUser(), "Ada", "ada@example.com")
	for _, key := range []string{
		"name", "email", "password", "title", "birth_date", "birth_month", "birth_year",
		"firstname", "lastname", "company", "address1", "address2", "country",
		"zipcode", "state", "city", "mobile_number",
	} {
		assert.NotEmpty(t, p[key], key)
	}
	assert.Equal(t, "ada@example.com", p["email"])
}
