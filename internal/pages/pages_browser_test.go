package pages

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
)

const loginHTML = `<!doctype html><html><body>
<div class="login-form"><h2>Login to your account</h2>
<form method="post" action="/login">
<input type="email" name="email" data-qa="login-email">
<input type="password" name="password" data-qa="login-password">
%s
<button type="submit" data-qa="login-button">Login</button></form></div>
<div class="signup-form"><h2>New User Signup!</h2>
<input type="text" data-qa="signup-name"><input type="email" data-qa="signup-email">
<button data-qa="signup-button">Signup</button></div>
</body></html>`

const homeHTML = `<!doctype html><html><body>
<ul><li><a href="/logout"> Logout</a></li><li><a href="/delete_account"> Delete Account</a></li>
<li><a href="#"> Logged in as <b>Tester</b></a></li></ul></body></html>`

// fakeLoginSite accepts one credential pair and keeps the session in a cookie.
func fakeLoginSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, loginHTML, "")
	})
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("email") == "tester@example.com" && r.FormValue("password") == "secret" {
			http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "ok", Path: "/"})
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		fmt.Fprintf(w, loginHTML, `<p style="color: red;">Your email or password is incorrect!</p>`)
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sessionid"); err == nil && c.Value == "ok" {
			fmt.Fprint(w, homeHTML)
			return
		}
		fmt.Fprint(w, `<html><body><a href="/login">Signup / Login</a></body></html>`)
	})
	mux.HandleFunc("GET /logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sessionid", Value: "", Path: "/", MaxAge: -1})
		http.Redirect(w, r, "/login", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func browserPages(t *testing.T, baseURL string) *Set {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping browser test in short mode")
	}
	p, ok := config.Builtin("default")
	require.True(t, ok)
	p.BaseURL = baseURL
	p.Headless = true
	p.DefaultCommandTimeout = 2 * time.Second
	p.ScreenshotOnFailure = false
	d := browser.LaunchForTest(t, &p)
	return NewSet(browser.SessionForTest(t, d))
}

func TestLogin_InvalidThenValid(t *testing.T) {
	srv := fakeLoginSite(t)
	set := browserPages(t, srv.URL)
	l := set.Login

	require.NoError(t, l.Open())
	require.NoError(t, l.AssertLoginPageLoaded())
	require.NoError(t, l.AssertLoginAndSignupFormsVisible())
	require.NoError(t, l.AssertEmailFieldType("email"))
	require.NoError(t, l.AssertPasswordFieldType("password"))

	require.NoError(t, l.Login("tester@example.com", "wrong"))
	require.NoError(t, l.ExpectTransition(LoggedOut, LoginFailed))
	require.NoError(t, l.AssertLoginFailed())

	require.NoError(t, l.ClearLoginForm())
	v, err := l.LoginEmailValue()
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, l.Login("tester@example.com", "secret"))
	require.NoError(t, l.ExpectTransition(LoginFailed, LoggedIn))
	require.NoError(t, l.AssertLoginSuccessful())

	require.NoError(t, l.LogoutIfLoggedIn())
	require.NoError(t, l.ExpectTransition(LoggedIn, LoggedOut))
	require.NoError(t, l.LogoutIfLoggedIn(), "logout while logged out is a no-op")
}

func TestLogin_IllegalTransitionRejected(t *testing.T) {
	srv := fakeLoginSite(t)
	set := browserPages(t, srv.URL)

	require.NoError(t, set.Login.Open())
	err := set.Login.ExpectTransition(LoggedOut, AccountCreated)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidConfiguration))
}

func TestBase_MissingElementIsElementNotFound(t *testing.T) {
	srv := fakeLoginSite(t)
	set := browserPages(t, srv.URL)

	require.NoError(t, set.Home.Visit("/login"))
	err := set.Home.Click("#does-not-exist")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ElementNotFound), "got %v", err)

	err = set.Home.AssertBodyContains("text that never appears")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.AssertionFailed))
}

func TestBase_StubAndIntercept(t *testing.T) {
	srv := fakeLoginSite(t)
	set := browserPages(t, srv.URL)
	b := set.Home

	require.NoError(t, b.Visit("/login"))
	require.NoError(t, b.Stub("GET", "**/api/productsList", http.StatusServiceUnavailable, `{"message":"down"}`))

	resp, err := b.InterceptAndWait("GET", "**/api/productsList", "products", func() error {
		_, err := b.Page().Evaluate(`() => fetch('/api/productsList')`)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status())

	aliased, err := b.Session().Alias("products")
	require.NoError(t, err)
	assert.Equal(t, resp.URL(), aliased.URL())

	shot, err := b.Screenshot(context.Background(), "stubbed")
	require.NoError(t, err)
	assert.Empty(t, shot, "sessions without a store keep screenshots in memory only")
}
