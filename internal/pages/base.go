// Package pages holds the storefront's page objects. Every page embeds Base,
// whose primitives resolve selectors with auto-waiting and return errors
// instead of chaining: a selector that matches nothing within the command
// timeout is an errs.ElementNotFound, never a silent no-op.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/storefront-e2e/internal/browser"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/logutil"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/timing"
	"github.com/kuitang/storefront-e2e/internal/urlutil"
)

const pollInterval = 100 * time.Millisecond

// Base wraps a session with selector-parameterized primitives.
type Base struct {
	session *browser.Session
	baseURL string
	timeout time.Duration
	log     *slog.Logger
}

func newBase(s *browser.Session) Base {
	p := s.Profile()
	return Base{
		session: s,
		baseURL: p.BaseURL,
		timeout: p.DefaultCommandTimeout,
		log:     obs.Pkg("pages").With("session", s.Name),
	}
}

// Session returns the session the page drives.
func (b *Base) Session() *browser.Session { return b.session }

// Page returns the underlying Playwright page.
func (b *Base) Page() playwright.Page { return b.session.Page }

// URL returns the current page URL.
func (b *Base) URL() string { return b.session.Page.URL() }

// BaseURL returns the site root the page navigates under.
func (b *Base) BaseURL() string { return b.baseURL }

// Visit navigates to path under the base URL and waits for DOMContentLoaded.
func (b *Base) Visit(path string) error {
	target := urlutil.BuildAbsolute(b.baseURL, path)
	b.log.Debug("visit", "url", target)
	_, err := b.session.Page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   browser.Timeout(b.session.Profile().PageLoadTimeout),
	})
	if err != nil {
		if isTimeout(err) {
			return errs.Wrap(errs.Timeout, "visit "+path, err)
		}
		return errs.Wrap(errs.Unavailable, "visit "+path, err)
	}
	return nil
}

// Locator returns an unresolved locator for selector.
func (b *Base) Locator(selector string) playwright.Locator {
	return b.session.Page.Locator(selector)
}

// Element resolves the first visible match of selector.
func (b *Base) Element(selector string) (playwright.Locator, error) {
	return b.resolve(b.Locator(selector).First(), selector, b.timeout)
}

// WaitForVisible resolves selector with an explicit timeout.
func (b *Base) WaitForVisible(selector string, timeout time.Duration) (playwright.Locator, error) {
	return b.resolve(b.Locator(selector).First(), selector, timeout)
}

// WaitForPageLoad waits for the document body to render.
func (b *Base) WaitForPageLoad() error {
	_, err := b.WaitForVisible("body", b.session.Profile().PageLoadTimeout)
	return err
}

func (b *Base) resolve(loc playwright.Locator, desc string, timeout time.Duration) (playwright.Locator, error) {
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: browser.Timeout(timeout),
	})
	if err != nil {
		b.session.DumpState("element_not_found")
		return nil, errs.Wrap(errs.ElementNotFound, fmt.Sprintf("%s not visible within %s", desc, timeout), err)
	}
	return loc, nil
}

// Click clicks the first visible match.
func (b *Base) Click(selector string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	return actionErr("click "+selector, el.Click())
}

// ForceClick clicks without actionability checks, for links hidden behind
// overlays or collapsed panels.
func (b *Base) ForceClick(selector string) error {
	el := b.Locator(selector).First()
	if err := el.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: browser.Timeout(b.timeout),
	}); err != nil {
		b.session.DumpState("element_not_found")
		return errs.Wrap(errs.ElementNotFound, selector+" not attached", err)
	}
	return actionErr("click "+selector, el.Click(playwright.LocatorClickOptions{Force: playwright.Bool(true)}))
}

// Type appends text to the field as key presses.
func (b *Base) Type(selector, text string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	return actionErr("type into "+selector, el.PressSequentially(text))
}

// ClearAndType replaces the field's value.
func (b *Base) ClearAndType(selector, text string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	return actionErr("fill "+selector, el.Fill(text))
}

// Clear empties the field.
func (b *Base) Clear(selector string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	return actionErr("clear "+selector, el.Clear())
}

// TypeOrClear types text, or clears the field when text is empty so the
// browser's own required-field validation applies.
func (b *Base) TypeOrClear(selector, text string) error {
	if text == "" {
		return b.Clear(selector)
	}
	return b.Type(selector, text)
}

// Select picks an option by value or, failing that, by label.
func (b *Base) Select(selector, option string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	if _, err := el.SelectOption(playwright.SelectOptionValues{Values: &[]string{option}}); err == nil {
		return nil
	}
	_, err = el.SelectOption(playwright.SelectOptionValues{Labels: &[]string{option}})
	return actionErr(fmt.Sprintf("select %q in %s", option, selector), err)
}

// IsVisible reports whether selector currently has a visible match. It does not wait.
func (b *Base) IsVisible(selector string) (bool, error) {
	visible, err := b.Locator(selector).First().IsVisible()
	if err != nil {
		return false, errs.Wrap(errs.Unavailable, "visibility of "+selector, err)
	}
	return visible, nil
}

// AssertVisible fails with ElementNotFound when selector never becomes visible.
func (b *Base) AssertVisible(selector string) error {
	_, err := b.Element(selector)
	return err
}

// AssertNotExists waits until selector matches nothing.
func (b *Base) AssertNotExists(selector string) error {
	return b.poll(selector+" count", 0, func() (bool, any, error) {
		n, err := b.Locator(selector).Count()
		return n == 0, n, err
	})
}

// ScrollIntoView scrolls the first match into the viewport.
func (b *Base) ScrollIntoView(selector string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	return actionErr("scroll to "+selector, el.ScrollIntoViewIfNeeded())
}

// ScrollToBottom scrolls the window to the end of the document.
func (b *Base) ScrollToBottom() error {
	_, err := b.session.Page.Evaluate(`() => window.scrollTo(0, document.body.scrollHeight)`)
	return actionErr("scroll to bottom", err)
}

// Text returns the text content of the first visible match.
func (b *Base) Text(selector string) (string, error) {
	el, err := b.Element(selector)
	if err != nil {
		return "", err
	}
	text, err := el.TextContent()
	return strings.TrimSpace(text), actionErr("text of "+selector, err)
}

// Value returns the current value of an input.
func (b *Base) Value(selector string) (string, error) {
	el, err := b.Element(selector)
	if err != nil {
		return "", err
	}
	v, err := el.InputValue()
	return v, actionErr("value of "+selector, err)
}

// Attribute returns an attribute of the first visible match.
func (b *Base) Attribute(selector, name string) (string, error) {
	el, err := b.Element(selector)
	if err != nil {
		return "", err
	}
	v, err := el.GetAttribute(name)
	return v, actionErr(fmt.Sprintf("attribute %s of %s", name, selector), err)
}

// Count returns how many elements match selector right now.
func (b *Base) Count(selector string) (int, error) {
	n, err := b.Locator(selector).Count()
	return n, actionErr("count "+selector, err)
}

// Texts returns the text of every match.
func (b *Base) Texts(selector string) ([]string, error) {
	texts, err := b.Locator(selector).AllTextContents()
	if err != nil {
		return nil, actionErr("texts of "+selector, err)
	}
	for i := range texts {
		texts[i] = strings.TrimSpace(texts[i])
	}
	return texts, nil
}

// AssertContainsText waits for selector's text to contain text.
func (b *Base) AssertContainsText(selector, text string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	return b.poll(selector+" text", "to contain "+text, func() (bool, any, error) {
		got, err := el.TextContent()
		return strings.Contains(got, text), strings.TrimSpace(got), err
	})
}

// AssertHasValue waits for an input to hold value.
func (b *Base) AssertHasValue(selector, value string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	return b.poll(selector+" value", value, func() (bool, any, error) {
		got, err := el.InputValue()
		return got == value, got, err
	})
}

// AssertAttribute waits for an attribute to equal want.
func (b *Base) AssertAttribute(selector, name, want string) error {
	el, err := b.Element(selector)
	if err != nil {
		return err
	}
	return b.poll(selector+" "+name, want, func() (bool, any, error) {
		got, err := el.GetAttribute(name)
		return got == want, got, err
	})
}

// AssertURLContains waits for the URL to contain fragment.
func (b *Base) AssertURLContains(fragment string) error {
	return b.poll("url", "to contain "+fragment, func() (bool, any, error) {
		u := b.URL()
		return strings.Contains(u, fragment), u, nil
	})
}

// AssertURLEquals waits for the URL to equal want, ignoring a trailing slash
// and fragment.
func (b *Base) AssertURLEquals(want string) error {
	return b.poll("url", want, func() (bool, any, error) {
		u := b.URL()
		return urlutil.SameDocument(u, want), u, nil
	})
}

// AssertBodyContains waits for the page body to contain text.
func (b *Base) AssertBodyContains(text string) error {
	return b.bodyText("to contain "+text, func(body string) bool { return strings.Contains(body, text) })
}

// AssertBodyNotContains waits for the page body to stop containing text.
func (b *Base) AssertBodyNotContains(text string) error {
	return b.bodyText("not to contain "+text, func(body string) bool { return !strings.Contains(body, text) })
}

func (b *Base) bodyText(expected string, ok func(string) bool) error {
	body, err := b.Element("body")
	if err != nil {
		return err
	}
	return b.poll("body", expected, func() (bool, any, error) {
		text, err := body.InnerText()
		return ok(text), logutil.Truncate(text, 200, "..."), err
	})
}

// Screenshot stores a full-page screenshot.
func (b *Base) Screenshot(ctx context.Context, name string) (string, error) {
	return b.session.Screenshot(ctx, name)
}

// InterceptAndWait runs trigger and waits for a response matching urlGlob,
// storing it on the session under alias. The response method must match.
func (b *Base) InterceptAndWait(method, urlGlob, alias string, trigger func() error) (playwright.Response, error) {
	resp, err := b.session.Page.ExpectResponse(urlGlob, trigger, playwright.PageExpectResponseOptions{
		Timeout: browser.Timeout(b.session.Profile().ResponseTimeout),
	})
	if err != nil {
		if isTimeout(err) {
			return nil, errs.Wrap(errs.Timeout, fmt.Sprintf("wait for @%s (%s %s)", alias, method, urlGlob), err)
		}
		return nil, err
	}
	if got := resp.Request().Method(); !strings.EqualFold(got, method) {
		return nil, errs.Assertion("@"+alias+" method", method, got)
	}
	b.session.Remember(alias, resp)
	return resp, nil
}

// Stub answers every request for urlGlob with status and body. Used only to
// simulate network failures.
func (b *Base) Stub(method, urlGlob string, status int, body string) error {
	err := b.session.Page.Route(urlGlob, func(route playwright.Route) {
		if !strings.EqualFold(route.Request().Method(), method) {
			_ = route.Continue()
			return
		}
		_ = route.Fulfill(playwright.RouteFulfillOptions{
			Status:      playwright.Int(status),
			ContentType: playwright.String("application/json"),
			Body:        body,
		})
	})
	return actionErr("stub "+urlGlob, err)
}

// MeasureLoadTime reads the navigation timing of the current document and
// fails when DOMContentLoaded took longer than max.
func (b *Base) MeasureLoadTime(label string, max time.Duration) (time.Duration, error) {
	var elapsed time.Duration
	err := b.poll(label+" navigation timing", "available", func() (bool, any, error) {
		raw, err := b.session.Page.Evaluate(`() => performance.timing.toJSON()`)
		if err != nil {
			return false, nil, err
		}
		nt, err := timing.FromMap(raw)
		if err != nil {
			return false, nil, err
		}
		d, err := nt.DOMContentLoaded()
		if err != nil {
			return false, "not yet", nil
		}
		elapsed = d
		return true, d, nil
	})
	if err != nil {
		return 0, err
	}
	b.log.Info("page_load_time", "label", label, "ms", elapsed.Milliseconds())
	return elapsed, timing.AssertWithin(label, elapsed, max)
}

// poll re-evaluates check until it passes or the command timeout elapses.
// The last observed value is reported on failure.
func (b *Base) poll(what string, expected any, check func() (bool, any, error)) error {
	deadline := time.Now().Add(b.timeout)
	var actual any
	for {
		ok, got, err := check()
		if err != nil {
			return actionErr(what, err)
		}
		if ok {
			return nil
		}
		actual = got
		if time.Now().After(deadline) {
			return errs.Assertion(what, expected, actual)
		}
		time.Sleep(pollInterval)
	}
}

func actionErr(what string, err error) error {
	if err == nil {
		return nil
	}
	if isTimeout(err) {
		return errs.Wrap(errs.ElementNotFound, what, err)
	}
	return errs.Wrap(errs.Unavailable, what, err)
}

func isTimeout(err error) bool {
	return errors.Is(err, playwright.ErrTimeout)
}
