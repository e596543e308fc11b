// Package fixtures exposes static test data bundled with the harness.
package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed users.json
var usersJSON []byte

// UserData is the registration profile typed into the account-information form.
type UserData struct {
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Company      string `json:"company"`
	Address      string `json:"address"`
	Address2     string `json:"address2"`
	Country      string `json:"country"`
	State        string `json:"state"`
	City         string `json:"city"`
	Zipcode      string `json:"zipcode"`
	MobileNumber string `json:"mobileNumber"`
	Title        string `json:"title"`
	BirthDate    string `json:"birthDate"`
	BirthMonth   string `json:"birthMonth"`
	BirthYear    string `json:"birthYear"`
}

// Credentials is an email/password pair.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type usersFile struct {
	ValidUser   UserData    `json:"validUser"`
	InvalidUser Credentials `json:"invalidUser"`
}

var users usersFile

func init() {
	if err := json.Unmarshal(usersJSON, &users); err != nil {
		panic(fmt.Sprintf("fixtures: users.json: %v", err))
	}
}

// ValidUser returns a copy of the canonical registration profile.
func ValidUser() UserData {
	return users.ValidUser
}

// InvalidUser returns credentials that no account uses.
func InvalidUser() Credentials {
	return users.InvalidUser
}

// AccountPayload maps a profile onto the createAccount/updateAccount form fields.
func AccountPayload(u UserData, name, email string) map[string]string {
	return map[string]string{
		"name":          name,
		"email":         email,
		"password":      u.Password,
		"title":         u.Title,
		"birth_date":    u.BirthDate,
		"birth_month":   u.BirthMonth,
		"birth_year":    u.BirthYear,
		"firstname":     u.FirstName,
		"lastname":      u.LastName,
		"company":       u.Company,
		"address1":      u.Address,
		"address2":      u.Address2,
		"country":       u.Country,
		"zipcode":       u.Zipcode,
		"state":         u.State,
		"city":          u.City,
		"mobile_number": u.MobileNumber,
	}
}
