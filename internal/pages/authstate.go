package pages

import (
	"strings"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

// AuthState is where a visitor stands in the signup and login flow.
type AuthState int

const (
	LoggedOut AuthState = iota
	RegistrationForm
	AccountCreated
	LoggedIn
	LoginFailed
	AccountDeleted
)

var authStateNames = [...]string{
	LoggedOut:        "logged_out",
	RegistrationForm: "registration_form",
	AccountCreated:   "account_created",
	LoggedIn:         "logged_in",
	LoginFailed:      "login_failed",
	AccountDeleted:   "account_deleted",
}

func (s AuthState) String() string {
	if s < 0 || int(s) >= len(authStateNames) {
		return "unknown"
	}
	return authStateNames[s]
}

// AuthStates lists every state.
func AuthStates() []AuthState {
	return []AuthState{LoggedOut, RegistrationForm, AccountCreated, LoggedIn, LoginFailed, AccountDeleted}
}

var authTransitions = map[AuthState][]AuthState{
	LoggedOut:        {RegistrationForm, LoggedIn, LoginFailed},
	RegistrationForm: {AccountCreated},
	AccountCreated:   {LoggedIn},
	LoggedIn:         {LoggedOut, AccountDeleted},
	LoginFailed:      {LoggedOut, LoggedIn},
	AccountDeleted:   nil,
}

// CanTransition reports whether the storefront can move a visitor from one
// state to another in a single action. AccountDeleted is terminal.
func CanTransition(from, to AuthState) bool {
	for _, next := range authTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseAuthState resolves a state name such as "logged in" or "logged_in".
func ParseAuthState(name string) (AuthState, error) {
	want := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	for _, s := range AuthStates() {
		if s.String() == want {
			return s, nil
		}
	}
	return 0, errs.Newf(errs.InvalidConfiguration, "unknown auth state %q", name)
}
