package pages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/storefront-e2e/internal/errs"
)

func TestCanTransition_Table(t *testing.T) {
	t.Parallel()
	legal := [][2]AuthState{
		{LoggedOut, RegistrationForm},
		{RegistrationForm, AccountCreated},
		{AccountCreated, LoggedIn},
		{LoggedOut, LoggedIn},
		{LoggedOut, LoginFailed},
		{LoginFailed, LoggedOut},
		{LoginFailed, LoggedIn},
		{LoggedIn, LoggedOut},
		{LoggedIn, AccountDeleted},
	}
	for _, tr := range legal {
		assert.True(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	illegal := [][2]AuthState{
		{LoggedOut, AccountCreated},
		{RegistrationForm, LoggedIn},
		{LoginFailed, AccountDeleted},
		{LoggedIn, LoginFailed},
		{AccountDeleted, LoggedOut},
	}
	for _, tr := range illegal {
		assert.False(t, CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}
}

func testAccountDeletedIsTerminal(t *rapid.T) {
	to := rapid.SampledFrom(AuthStates()).Draw(t, "to")
	if CanTransition(AccountDeleted, to) {
		t.Fatalf("AccountDeleted -> %s must be illegal", to)
	}
}

func TestAccountDeletedIsTerminal(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testAccountDeletedIsTerminal)
}

func testNoSelfTransitions(t *rapid.T) {
	s := rapid.SampledFrom(AuthStates()).Draw(t, "state")
	if CanTransition(s, s) {
		t.Fatalf("%s -> %s must not be a transition", s, s)
	}
}

func TestNoSelfTransitions(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testNoSelfTransitions)
}

// Every state is reachable from LoggedOut, and only LoggedIn leads to deletion.
func TestReachability(t *testing.T) {
	t.Parallel()
	seen := map[AuthState]bool{LoggedOut: true}
	queue := []AuthState{LoggedOut}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range AuthStates() {
			if CanTransition(cur, next) && !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, s := range AuthStates() {
		assert.True(t, seen[s], "%s unreachable", s)
	}
	for _, s := range AuthStates() {
		if s != LoggedIn {
			assert.False(t, CanTransition(s, AccountDeleted), "%s -> account_deleted", s)
		}
	}
}

func TestAuthState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "login_failed", LoginFailed.String())
	assert.Equal(t, "unknown", AuthState(42).String())
}

func TestParseAuthState(t *testing.T) {
	t.Parallel()
	for _, s := range AuthStates() {
		got, err := ParseAuthState(strings.ReplaceAll(s.String(), "_", " "))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseAuthState("banned")
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidConfiguration))
}
