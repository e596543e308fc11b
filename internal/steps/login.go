package steps

import (
	"github.com/kuitang/storefront-e2e/internal/datagen"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/fixtures"
	"github.com/kuitang/storefront-e2e/internal/pages"
)

// RegistrationPassword is the password of users registered by "I register a new user".
const RegistrationPassword = "test123"

func randomEmail() string { return datagen.Email() }

func (w *World) loginBindings() []binding {
	return []binding{
		{`^I am on the login page$`, w.onLoginPage},
		{`^I register a new user$`, w.registerNewUser},
		{`^I complete registration with valid data$`, w.completeRegistration},
		{`^I should see the account created message$`, w.accountCreated},
		{`^I logout$`, w.logout},
		{`^I login with the same credentials$`, w.loginAgain},
		{`^I login with email "([^"]*)" and password "([^"]*)"$`, w.loginWith},
		{`^I should be logged in successfully$`, w.loggedIn},
		{`^I should see a login error$`, w.loginError},
		{`^I should remain on the login page$`, w.urlContains("/login")},
		{`^I type "([^"]*)" into the login email field$`, w.typeInto(func(l *pages.Login) string { return l.L.LoginEmail })},
		{`^I type "([^"]*)" into the login password field$`, w.typeInto(func(l *pages.Login) string { return l.L.LoginPassword })},
		{`^I type "([^"]*)" into the signup name field$`, w.typeInto(func(l *pages.Login) string { return l.L.SignupName })},
		{`^I type "([^"]*)" into the signup email field$`, w.typeInto(func(l *pages.Login) string { return l.L.SignupEmail })},
		{`^I clear the login form$`, w.clearLoginForm},
		{`^I clear the signup form$`, w.clearSignupForm},
		{`^the login email field should be empty$`, w.fieldEmpty(func(l *pages.Login) (string, error) { return l.LoginEmailValue() })},
		{`^the signup email field should be empty$`, w.fieldEmpty(func(l *pages.Login) (string, error) { return l.SignupEmailValue() })},
		{`^I signup with name "([^"]*)" and email "([^"]*)"$`, w.signupWith},
		{`^I signup with the registered email$`, w.signupRegistered},
		{`^I should see a signup error$`, w.signupError},
		{`^the email field should have type "([^"]*)"$`, w.emailFieldType},
		{`^the password field should have type "([^"]*)"$`, w.passwordFieldType},
		{`^I click the login button$`, w.clickLoginButton},
		{`^I delete the account$`, w.deleteAccount},
		{`^I should see the account deleted message$`, w.accountDeleted},
		{`^the auth state should be "([^"]*)"$`, w.authStateIs},
	}
}

func (w *World) onLoginPage() error {
	return w.with(func(p *pages.Set) error { return p.Login.Open() })
}

// registerNewUser signs up TestUser<ts>, completes the account form and
// continues to the logged-in home page.
func (w *World) registerNewUser() error {
	return w.with(func(p *pages.Set) error {
		u := datagen.NewTestUser(RegistrationPassword)
		u.Profile.Address = datagen.Address()
		u.Profile.Zipcode = datagen.Zipcode()
		u.Profile.MobileNumber = datagen.MobileNumber()
		if err := p.Login.Signup(u.Name, u.Email); err != nil {
			return err
		}
		w.rememberAccount(u.Email, u.Password)
		for _, step := range []func() error{
			p.Login.WaitForPageLoad,
			func() error { return p.Login.CompleteRegistration(u.Profile) },
			p.Login.WaitForPageLoad,
			p.Login.AssertAccountCreated,
			p.Login.ContinueAfterAccountCreation,
			p.Login.WaitForPageLoad,
		} {
			if err := step(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *World) completeRegistration() error {
	return w.with(func(p *pages.Set) error {
		u := fixtures.ValidUser()
		email := datagen.Email()
		if err := p.Login.Signup(datagen.Name(), email); err != nil {
			return err
		}
		w.rememberAccount(email, u.Password)
		if err := p.Login.WaitForPageLoad(); err != nil {
			return err
		}
		if err := p.Login.CompleteRegistration(u); err != nil {
			return err
		}
		return p.Login.WaitForPageLoad()
	})
}

func (w *World) accountCreated() error {
	return w.with(func(p *pages.Set) error { return p.Login.AssertAccountCreated() })
}

func (w *World) logout() error {
	return w.with(func(p *pages.Set) error {
		if err := p.Login.Logout(); err != nil {
			return err
		}
		return p.Login.WaitForPageLoad()
	})
}

func (w *World) loginAgain() error {
	if w.email == "" {
		return errs.New(errs.InvalidConfiguration, "no user was registered in this scenario")
	}
	return w.with(func(p *pages.Set) error {
		if err := p.Login.Open(); err != nil {
			return err
		}
		return w.loginWith(w.email, w.password)
	})
}

func (w *World) loginWith(email, password string) error {
	return w.with(func(p *pages.Set) error {
		if err := p.Login.Login(email, password); err != nil {
			return err
		}
		return p.Login.WaitForPageLoad()
	})
}

func (w *World) loggedIn() error {
	return w.with(func(p *pages.Set) error { return p.Login.AssertLoginSuccessful() })
}

func (w *World) loginError() error {
	return w.with(func(p *pages.Set) error { return p.Login.AssertLoginFailed() })
}

func (w *World) typeInto(field func(l *pages.Login) string) func(string) error {
	return func(text string) error {
		return w.with(func(p *pages.Set) error { return p.Login.Type(field(p.Login), text) })
	}
}

func (w *World) clearLoginForm() error {
	return w.with(func(p *pages.Set) error { return p.Login.ClearLoginForm() })
}

func (w *World) clearSignupForm() error {
	return w.with(func(p *pages.Set) error { return p.Login.ClearSignupForm() })
}

func (w *World) fieldEmpty(value func(l *pages.Login) (string, error)) func() error {
	return func() error {
		return w.with(func(p *pages.Set) error {
			v, err := value(p.Login)
			if err != nil {
				return err
			}
			if v != "" {
				return errs.Assertion("field value", "", v)
			}
			return nil
		})
	}
}

func (w *World) signupWith(name, email string) error {
	return w.with(func(p *pages.Set) error {
		if err := p.Login.Signup(name, email); err != nil {
			return err
		}
		return p.Login.WaitForPageLoad()
	})
}

func (w *World) signupRegistered() error {
	if w.email == "" {
		return errs.New(errs.InvalidConfiguration, "no user was registered in this scenario")
	}
	return w.with(func(p *pages.Set) error {
		if err := p.Login.Open(); err != nil {
			return err
		}
		return w.signupWith("Returning Shopper", w.email)
	})
}

func (w *World) signupError() error {
	return w.with(func(p *pages.Set) error { return p.Login.AssertSignupFailed() })
}

func (w *World) emailFieldType(want string) error {
	return w.with(func(p *pages.Set) error { return p.Login.AssertEmailFieldType(want) })
}

func (w *World) passwordFieldType(want string) error {
	return w.with(func(p *pages.Set) error { return p.Login.AssertPasswordFieldType(want) })
}

func (w *World) clickLoginButton() error {
	return w.with(func(p *pages.Set) error {
		if err := p.Login.Click(p.Login.L.LoginButton); err != nil {
			return err
		}
		return p.Login.WaitForPageLoad()
	})
}

func (w *World) deleteAccount() error {
	return w.with(func(p *pages.Set) error {
		if err := p.Login.DeleteAccount(); err != nil {
			return err
		}
		return p.Login.WaitForPageLoad()
	})
}

func (w *World) accountDeleted() error {
	return w.with(func(p *pages.Set) error { return p.Login.AssertAccountDeleted() })
}

func (w *World) authStateIs(name string) error {
	want, err := pages.ParseAuthState(name)
	if err != nil {
		return err
	}
	return w.with(func(p *pages.Set) error {
		got, err := p.Login.DetectState()
		if err != nil {
			return err
		}
		if got != want {
			return errs.Assertion("auth state", want.String(), got.String())
		}
		return nil
	})
}
