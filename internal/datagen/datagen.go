// Package datagen produces unique registration data for scenarios.
// Emails and names embed a millisecond timestamp that is strictly increasing
// across the process, so two values drawn in the same millisecond still differ.
// A random tail keeps values from parallel processes apart.
package datagen

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kuitang/storefront-e2e/internal/fixtures"
)

var (
	stampMu sync.Mutex
	last    int64
	now     = func() time.Time { return time.Now() }
)

// stamp returns the current Unix millisecond time, bumped past the last value issued.
func stamp() int64 {
	stampMu.Lock()
	defer stampMu.Unlock()
	ts := now().UnixMilli()
	if ts <= last {
		ts = last + 1
	}
	last = ts
	return ts
}

// entropyDigits is how many random digits follow the timestamp.
const entropyDigits = 6

// unique returns the next timestamp followed by random digits.
func unique() string {
	return strconv.FormatInt(stamp(), 10) + digits(entropyDigits)
}

// Email returns test<ts><rand>@example.com.
func Email() string {
	return "test" + unique() + "@example.com"
}

// Name returns TestUser<ts><rand>.
func Name() string {
	return "TestUser" + unique()
}

// UniqueSuffix returns a random identifier for run IDs and artifact keys.
func UniqueSuffix() string {
	return uuid.NewString()
}

// Zipcode returns five random digits.
func Zipcode() string {
	return digits(5)
}

// MobileNumber returns ten random digits not starting with zero.
func MobileNumber() string {
	return strconv.Itoa(1+randInt(9)) + digits(9)
}

// Address returns a plausible street address.
func Address() string {
	streets := []string{"Main St", "Oak Ave", "Elm Street", "Market Rd", "Harbour Way"}
	return fmt.Sprintf("%d %s", 1+randInt(9999), streets[randInt(len(streets))])
}

// TestUser is a fresh identity for signup scenarios.
type TestUser struct {
	Name     string
	Email    string
	Password string
	Profile  fixtures.UserData
}

// NewTestUser returns a user with a unique name and email. An empty password
// falls back to the fixture password.
func NewTestUser(password string) TestUser {
	profile := fixtures.ValidUser()
	if password == "" {
		password = profile.Password
	}
	profile.Password = password
	return TestUser{
		Name:     Name(),
		Email:    Email(),
		Password: password,
		Profile:  profile,
	}
}

func digits(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + randInt(10))
	}
	return string(buf)
}

func randInt(max int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(fmt.Sprintf("datagen: crypto/rand failed: %v", err))
	}
	return int(v.Int64())
}
