package pages

import (
	"strings"
	"time"

	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/fixtures"
	"github.com/kuitang/storefront-e2e/internal/urlutil"
)

// Texts the login flow asserts on.
const (
	LoginFormTitle   = "Login to your account"
	SignupFormTitle  = "New User Signup!"
	LoggedInAs       = "Logged in as"
	EnterAccountInfo = "Enter Account Information"
	AccountCreatedH2 = "Account Created!"
	DeleteAccountURL = "/delete_account"
)

// LoginLocators are the /login and registration selectors.
type LoginLocators struct {
	LoginEmail     string
	LoginPassword  string
	LoginButton    string
	LoginTitle     string
	LoginError     string // red paragraph under the login form after a bad attempt
	SignupName     string
	SignupEmail    string
	SignupButton   string
	SignupTitle    string
	SignupError    string // "Email Address already exist!"
	TitleMr        string
	TitleMrs       string
	Password       string
	Days           string
	Months         string
	Years          string
	FirstName      string
	LastName       string
	Company        string
	Address        string
	Address2       string
	Country        string
	State          string
	City           string
	Zipcode        string
	MobileNumber   string
	CreateAccount  string
	AccountCreated string // h2 on /account_created
	Continue       string
	Logout         string // header, only while logged in
	DeleteAccount  string // header, only while logged in
	LoggedInBanner string
}

// DefaultLoginLocators match automationexercise.com.
var DefaultLoginLocators = LoginLocators{
	LoginEmail:     `[data-qa="login-email"]`,
	LoginPassword:  `[data-qa="login-password"]`,
	LoginButton:    `[data-qa="login-button"]`,
	LoginTitle:     ".login-form h2",
	LoginError:     ".login-form p",
	SignupName:     `[data-qa="signup-name"]`,
	SignupEmail:    `[data-qa="signup-email"]`,
	SignupButton:   `[data-qa="signup-button"]`,
	SignupTitle:    ".signup-form h2",
	SignupError:    ".signup-form p",
	TitleMr:        "#id_gender1",
	TitleMrs:       "#id_gender2",
	Password:       `input[name="password"]`,
	Days:           `select[data-qa="days"]`,
	Months:         `select[data-qa="months"]`,
	Years:          `select[data-qa="years"]`,
	FirstName:      `input[name="first_name"]`,
	LastName:       `input[name="last_name"]`,
	Company:        `input[name="company"]`,
	Address:        `input[name="address1"]`,
	Address2:       `input[name="address2"]`,
	Country:        `select[name="country"]`,
	State:          `input[name="state"]`,
	City:           `input[name="city"]`,
	Zipcode:        `input[name="zipcode"]`,
	MobileNumber:   `input[name="mobile_number"]`,
	CreateAccount:  `button[data-qa="create-account"]`,
	AccountCreated: `h2[data-qa="account-created"]`,
	Continue:       `a[data-qa="continue-button"]`,
	Logout:         `a[href="/logout"]`,
	DeleteAccount:  `a[href="/delete_account"]`,
	LoggedInBanner: "a:has-text('Logged in as')",
}

// Login is the /login page plus the registration flow it leads to.
type Login struct {
	Base
	L LoginLocators
}

// NewLogin returns the login page object for s.
func NewLogin(s *browser.Session) *Login {
	return &Login{Base: newBase(s), L: DefaultLoginLocators}
}

// Open visits /login.
func (l *Login) Open() error { return l.Visit("/login") }

// Login submits the login form. Empty values leave the field cleared.
func (l *Login) Login(email, password string) error {
	if err := l.TypeOrClear(l.L.LoginEmail, email); err != nil {
		return err
	}
	if err := l.TypeOrClear(l.L.LoginPassword, password); err != nil {
		return err
	}
	return l.Click(l.L.LoginButton)
}

// Signup submits the new-user form. Empty values leave the field cleared.
func (l *Login) Signup(name, email string) error {
	if err := l.TypeOrClear(l.L.SignupName, name); err != nil {
		return err
	}
	if err := l.TypeOrClear(l.L.SignupEmail, email); err != nil {
		return err
	}
	return l.Click(l.L.SignupButton)
}

// CompleteRegistration fills the account information form and submits it.
func (l *Login) CompleteRegistration(u fixtures.UserData) error {
	title := l.L.TitleMr
	if strings.EqualFold(u.Title, "Mrs") {
		title = l.L.TitleMrs
	}
	if visible, _ := l.IsVisible(title); visible {
		if err := l.Click(title); err != nil {
			return err
		}
	}
	steps := []func() error{
		func() error { return l.Type(l.L.Password, u.Password) },
		func() error { return l.optionalSelect(l.L.Days, u.BirthDate) },
		func() error { return l.optionalSelect(l.L.Months, u.BirthMonth) },
		func() error { return l.optionalSelect(l.L.Years, u.BirthYear) },
		func() error { return l.Type(l.L.FirstName, u.FirstName) },
		func() error { return l.Type(l.L.LastName, u.LastName) },
		func() error { return l.optionalType(l.L.Company, u.Company) },
		func() error { return l.Type(l.L.Address, u.Address) },
		func() error { return l.optionalType(l.L.Address2, u.Address2) },
		func() error { return l.Select(l.L.Country, u.Country) },
		func() error { return l.Type(l.L.State, u.State) },
		func() error { return l.Type(l.L.City, u.City) },
		func() error { return l.Type(l.L.Zipcode, u.Zipcode) },
		func() error { return l.Type(l.L.MobileNumber, u.MobileNumber) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return l.Click(l.L.CreateAccount)
}

func (l *Login) optionalType(selector, text string) error {
	if text == "" {
		return nil
	}
	return l.Type(selector, text)
}

func (l *Login) optionalSelect(selector, option string) error {
	if option == "" {
		return nil
	}
	return l.Select(selector, option)
}

// QuickRegistration signs up name and email and completes registration with
// the fixture profile and password.
func (l *Login) QuickRegistration(name, email, password string) error {
	if err := l.Signup(name, email); err != nil {
		return err
	}
	u := fixtures.ValidUser()
	if password != "" {
		u.Password = password
	}
	return l.CompleteRegistration(u)
}

func (l *Login) ContinueAfterAccountCreation() error { return l.Click(l.L.Continue) }

// Logout clicks the header logout link.
func (l *Login) Logout() error { return l.Click(l.L.Logout) }

// LogoutIfLoggedIn logs out when a session is active and is a no-op otherwise.
func (l *Login) LogoutIfLoggedIn() error {
	loggedIn, err := l.IsUserLoggedIn()
	if err != nil || !loggedIn {
		return err
	}
	return l.Logout()
}

// DeleteAccount clicks the header delete-account link.
func (l *Login) DeleteAccount() error { return l.Click(l.L.DeleteAccount) }

func (l *Login) ClearLoginForm() error {
	if err := l.Clear(l.L.LoginEmail); err != nil {
		return err
	}
	return l.Clear(l.L.LoginPassword)
}

func (l *Login) ClearSignupForm() error {
	if err := l.Clear(l.L.SignupName); err != nil {
		return err
	}
	return l.Clear(l.L.SignupEmail)
}

func (l *Login) LoginEmailValue() (string, error)  { return l.Value(l.L.LoginEmail) }
func (l *Login) SignupEmailValue() (string, error) { return l.Value(l.L.SignupEmail) }

// AssertEmailFieldType checks the login email input's type attribute.
func (l *Login) AssertEmailFieldType(want string) error {
	return l.AssertAttribute(l.L.LoginEmail, "type", want)
}

// AssertPasswordFieldType checks the login password input's type attribute.
func (l *Login) AssertPasswordFieldType(want string) error {
	return l.AssertAttribute(l.L.LoginPassword, "type", want)
}

// AssertLoginPageLoaded checks both form titles.
func (l *Login) AssertLoginPageLoaded() error {
	if err := l.AssertContainsText(l.L.LoginTitle, LoginFormTitle); err != nil {
		return err
	}
	return l.AssertContainsText(l.L.SignupTitle, SignupFormTitle)
}

// AssertLoginAndSignupFormsVisible checks every input and button of both forms.
func (l *Login) AssertLoginAndSignupFormsVisible() error {
	for _, sel := range []string{
		l.L.LoginEmail, l.L.LoginPassword, l.L.LoginButton,
		l.L.SignupName, l.L.SignupEmail, l.L.SignupButton,
	} {
		if err := l.AssertVisible(sel); err != nil {
			return err
		}
	}
	return nil
}

// AssertLoginSuccessful requires both the site root URL and the "Logged in as" banner.
func (l *Login) AssertLoginSuccessful() error {
	if err := l.AssertURLEquals(urlutil.Root(l.baseURL)); err != nil {
		return err
	}
	return l.AssertBodyContains(LoggedInAs)
}

func (l *Login) AssertLoginFailed() error { return l.AssertVisible(l.L.LoginError) }

// AssertSignupSuccessful checks the signup form is gone and the account form shows.
func (l *Login) AssertSignupSuccessful() error {
	if err := l.AssertNotExists(l.L.SignupEmail); err != nil {
		return err
	}
	return l.AssertBodyContains(EnterAccountInfo)
}

func (l *Login) AssertSignupFailed() error { return l.AssertVisible(l.L.SignupError) }

func (l *Login) AssertAccountCreated() error {
	return l.AssertContainsText(l.L.AccountCreated, AccountCreatedH2)
}

func (l *Login) AssertAccountDeleted() error { return l.AssertURLContains(DeleteAccountURL) }

// IsUserLoggedIn reports whether the logged-in banner is visible now.
func (l *Login) IsUserLoggedIn() (bool, error) {
	return l.IsVisible(l.L.LoggedInBanner)
}

// DetectState derives the auth state from the rendered page.
func (l *Login) DetectState() (AuthState, error) {
	url := l.URL()
	switch {
	case strings.Contains(url, DeleteAccountURL):
		return AccountDeleted, nil
	case strings.Contains(url, "/account_created"):
		return AccountCreated, nil
	case strings.Contains(url, "/signup"):
		return RegistrationForm, nil
	}
	loggedIn, err := l.IsUserLoggedIn()
	if err != nil {
		return LoggedOut, err
	}
	if loggedIn {
		return LoggedIn, nil
	}
	if strings.Contains(url, "/login") {
		failed, err := l.IsVisible(l.L.LoginError)
		if err != nil {
			return LoggedOut, err
		}
		if failed {
			return LoginFailed, nil
		}
	}
	return LoggedOut, nil
}

// ExpectTransition checks from->to is legal and that the page settles in to.
func (l *Login) ExpectTransition(from, to AuthState) error {
	if !CanTransition(from, to) {
		return errs.Newf(errs.InvalidConfiguration, "illegal auth transition %s -> %s", from, to)
	}
	var got AuthState
	deadline := time.Now().Add(l.timeout)
	for {
		state, err := l.DetectState()
		if err != nil {
			return err
		}
		got = state
		if got == to || time.Now().After(deadline) {
			break
		}
		time.Sleep(pollInterval)
	}
	if got != to {
		return errs.Assertion("auth state", to.String(), got.String())
	}
	return nil
}
