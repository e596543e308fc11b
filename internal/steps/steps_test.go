package steps

import (
	"bytes"
	"context"
	"regexp"
	"sync"
	"testing"

	"github.com/cucumber/godog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/scenario"
)

// samplePhrases are concrete step texts the feature files use.
var samplePhrases = []string{
	`I am on the home page`,
	`the home page should be loaded`,
	`a screenshot of the home page is taken`,
	`all navigation links should be visible`,
	`I click the products link`,
	`I should be on the cart page`,
	`I click the signup/login link`,
	`I should be on the login page`,
	`I search for product "Top"`,
	`the search results should contain "Top"`,
	`no search results should be shown`,
	`the full catalogue should be shown`,
	`I should remain on the home page`,
	`I click the women category`,
	`I click the men category`,
	`I click the kids category`,
	`I should be on the category products page`,
	`the page should contain "Women - Dress Products"`,
	`there should be at least one featured product`,
	`a success modal should be visible`,
	`the modal should contain "Added!"`,
	`I close the modal`,
	`I scroll to product "Blue Top"`,
	`the product "Blue Top" should exist`,
	`I set the viewport to mobile`,
	`I set the viewport to tablet`,
	`the load time should be less than 5000 ms`,
	`all images should be visible and have src attribute`,
	`all images should have alt text`,
	`the page should have heading tags`,
	`I subscribe to the newsletter with email "invalid-email"`,
	`the subscription should fail`,
	`the scroll up button should be visible`,
	`I click the scroll up button`,
	`the page should be scrolled to the top`,
	`I scroll to the bottom`,
	`I click the cart link`,
	`the price for product "Blue Top" should contain "Rs."`,
	`I am on the login page`,
	`I register a new user`,
	`I logout`,
	`I login with the same credentials`,
	`I login with email "wrong@example.com" and password "wrongpass"`,
	`I should be logged in successfully`,
	`I should see a login error`,
	`I should remain on the login page`,
	`I type "a@b.com" into the login email field`,
	`I type "secret" into the login password field`,
	`I clear the login form`,
	`the login email field should be empty`,
	`I signup with name "Test" and email "test@example.com"`,
	`I signup with the registered email`,
	`I should see a signup error`,
	`I complete registration with valid data`,
	`I should see the account created message`,
	`I type "Test" into the signup name field`,
	`I type "x@y.com" into the signup email field`,
	`I clear the signup form`,
	`the signup email field should be empty`,
	`the email field should have type "email"`,
	`the password field should have type "password"`,
	`I click the login button`,
	`I delete the account`,
	`I should see the account deleted message`,
	`I subscribe to the newsletter with a random email`,
	`the subscription should be successful`,
	`I test responsive design on "iphone-6"`,
	`the home page should be loaded on all viewports`,
	`I navigate to the products page`,
	`I measure the home page load time`,
	`I should measure the products page load time`,
	`I go to the contact us page`,
	`I should be on the contact us page`,
	`I fill the contact form with name "Jane" and email "jane@example.com" and subject "Hi" and message "Hello"`,
	`I submit the contact form`,
	`I accept the alert`,
	`the contact form success message should be visible`,
	`I click the contact us home button`,
	`I should be on the home page`,
	`I am on the products page`,
	`the cart subscribe input should be visible`,
	`the cart subscribe button should be visible`,
	`I subscribe to the newsletter from cart with email "a@b.com"`,
	`the cart subscription success should be visible`,
	`I click continue shopping on the modal`,
	`the cart should have 2 items`,
	`the cart should contain "Blue Top"`,
	`each cart item should have valid price, quantity, and total`,
	`I set the product quantity to "4"`,
	`I add the product to cart from details`,
	`the first cart item should have quantity "4"`,
	`I remove the first item from the cart`,
	`the cart should be empty`,
	`the cart empty message should be visible`,
	`I scroll to the review section`,
	`the review section should be visible`,
	`I fill the review form with name "Jane" and email "jane@example.com" and review "Great"`,
	`I submit the review form`,
	`the review success message should be visible`,
	`I add product "Blue Top" to the cart`,
	`I view product "Blue Top"`,
	`I should be on the products page`,
	`I click view cart on the modal`,
	`I should be on the product details page`,
	`I log "checkpoint"`,
	`I print the cart as a table`,
	`the cart total should equal the sum of its rows`,
	`I proceed to checkout`,
	`I should be on the checkout page`,
	`checkout should ask me to log in`,
	`I fill in the delivery details`,
	`I place the order with comment "Leave at the door."`,
	`I pay with the test card`,
	`the order should be placed`,
	`I filter products by brand "Polo"`,
	`I should see products of brand "Polo"`,
	`the auth state should be "logged in"`,
}

func compiled(t *testing.T) []*regexp.Regexp {
	t.Helper()
	var out []*regexp.Regexp
	for _, p := range Phrases() {
		re, err := regexp.Compile(p)
		require.NoError(t, err, p)
		out = append(out, re)
	}
	return out
}

func TestPhrases_UniqueAndAnchored(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for _, p := range Phrases() {
		assert.False(t, seen[p], "duplicate pattern %s", p)
		seen[p] = true
		assert.Regexp(t, `^\^.*\$$`, p)
	}
}

func TestPhrases_EverySampleMatchesExactlyOne(t *testing.T) {
	t.Parallel()
	patterns := compiled(t)
	for _, text := range samplePhrases {
		var hits []string
		for _, re := range patterns {
			if re.MatchString(text) {
				hits = append(hits, re.String())
			}
		}
		assert.Len(t, hits, 1, "%q matched %v", text, hits)
	}
}

func TestPhrases_EveryBindingIsExercised(t *testing.T) {
	t.Parallel()
	for _, re := range compiled(t) {
		used := false
		for _, text := range samplePhrases {
			if re.MatchString(text) {
				used = true
				break
			}
		}
		assert.True(t, used, "no sample phrase for %s", re)
	}
}

// runFeature runs one in-memory feature against browserless environments.
func runFeature(t *testing.T, feature string) (int, []Outcome) {
	t.Helper()
	var (
		mu       sync.Mutex
		outcomes []Outcome
	)
	deps := Deps{
		NewEnv: func(context.Context, string) (*scenario.Env, error) { return &scenario.Env{}, nil },
		OnFinish: func(o Outcome) {
			mu.Lock()
			defer mu.Unlock()
			outcomes = append(outcomes, o)
		},
	}
	var out bytes.Buffer
	suite := godog.TestSuite{
		Name:                "steps",
		ScenarioInitializer: func(sc *godog.ScenarioContext) { Register(sc, deps) },
		Options: &godog.Options{
			Format:          "progress",
			Output:          &out,
			NoColors:        true,
			Strict:          true,
			FeatureContents: []godog.Feature{{Name: "inline.feature", Contents: []byte(feature)}},
		},
	}
	status := suite.Run()
	t.Log(out.String())
	return status, outcomes
}

func TestRegister_LogStepPassesWithoutBrowser(t *testing.T) {
	var task bytes.Buffer
	restore := obs.SetTaskOutput(&task)
	defer restore()

	status, outcomes := runFeature(t, `Feature: logging
  Scenario: log a checkpoint
    When I log "checkpoint reached"
`)
	assert.Equal(t, 0, status)
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
	assert.Empty(t, outcomes[0].FailedStep)
	assert.Contains(t, task.String(), "checkpoint reached")
}

func TestRegister_RecordsFirstFailedStep(t *testing.T) {
	status, outcomes := runFeature(t, `Feature: failing
  Scenario: browser step without a browser
    When I log "before"
    And I am on the home page
    Then the home page should be loaded
`)
	assert.NotEqual(t, 0, status)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "I am on the home page", outcomes[0].FailedStep)
	require.Error(t, outcomes[0].Err)
	assert.True(t, errs.Is(outcomes[0].Err, errs.InvalidConfiguration))
}

func TestRegister_ScenariosGetSeparateWorlds(t *testing.T) {
	status, outcomes := runFeature(t, `Feature: isolation
  Scenario: viewports never checked
    Then the home page should be loaded on all viewports

  Scenario: login without registering
    When I login with the same credentials
`)
	assert.NotEqual(t, 0, status)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Error(t, o.Err, o.Scenario)
	}
	assert.True(t, errs.Is(outcomes[1].Err, errs.InvalidConfiguration))
}

func TestRegister_UndefinedStepFailsStrictRun(t *testing.T) {
	status, _ := runFeature(t, `Feature: undefined
  Scenario: unknown phrase
    When I dance on the checkout button
`)
	assert.NotEqual(t, 0, status)
}

func TestCartRows(t *testing.T) {
	t.Parallel()
	total := 900
	rows := cartRows(cartSnapshot(total))
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"product", "price", "quantity", "total"}, rows[0])
	assert.Equal(t, []string{"Blue Top", "Rs. 500", "1", "Rs. 500"}, rows[1])
	assert.Equal(t, []string{"total", "", "", "Rs. 900"}, rows[3])
}
