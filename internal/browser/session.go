package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/storefront-e2e/internal/artifacts"
	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/logutil"
	"github.com/kuitang/storefront-e2e/internal/obs"
)

// Session is a browser context and page that belong to exactly one scenario
// attempt. It starts with no cookies or storage.
type Session struct {
	Name    string
	Context playwright.BrowserContext
	Page    playwright.Page

	profile  *config.Profile
	store    artifacts.Store
	runID    string
	filter   *ErrorFilter
	videoDir string
	log      *slog.Logger

	mu        sync.Mutex
	aliases   map[string]playwright.Response
	artifacts []string
	closed    bool
}

func newSession(ctx context.Context, b playwright.Browser, p *config.Profile, store artifacts.Store, runID, name string) (*Session, error) {
	filter, err := NewErrorFilter(p.BenignPageErrors)
	if err != nil {
		return nil, err
	}

	opts := playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: p.ViewportWidth, Height: p.ViewportHeight},
	}
	var videoDir string
	if p.Video {
		videoDir, err = os.MkdirTemp("", "storefront-e2e-video-*")
		if err != nil {
			return nil, errs.Wrap(errs.Internal, "create video dir", err)
		}
		opts.RecordVideo = &playwright.RecordVideo{
			Dir:  videoDir,
			Size: &playwright.Size{Width: p.ViewportWidth, Height: p.ViewportHeight},
		}
	}

	bc, err := b.NewContext(opts)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "could not create browser context", err)
	}
	bc.SetDefaultTimeout(float64(p.DefaultCommandTimeout.Milliseconds()))
	bc.SetDefaultNavigationTimeout(float64(p.PageLoadTimeout.Milliseconds()))

	page, err := bc.NewPage()
	if err != nil {
		_ = bc.Close()
		return nil, errs.Wrap(errs.Unavailable, "could not create page", err)
	}

	s := &Session{
		Name:     name,
		Context:  bc,
		Page:     page,
		profile:  p,
		store:    store,
		runID:    runID,
		filter:   filter,
		videoDir: videoDir,
		log:      obs.From(ctx).With("pkg", "browser", "session", name),
		aliases:  make(map[string]playwright.Response),
	}
	page.OnPageError(func(err error) {
		if s.filter.Observe(err.Error()) {
			s.log.Warn("page_error", "error", err.Error(), "url", page.URL())
			return
		}
		s.log.Debug("page_error_benign", "error", err.Error())
	})
	// Native confirm/alert dialogs (the contact form) would otherwise block the page.
	page.OnDialog(func(d playwright.Dialog) {
		s.log.Debug("dialog_accepted", "type", d.Type(), "message", d.Message())
		_ = d.Accept()
	})

	if err := s.Reset(ctx); err != nil {
		_ = bc.Close()
		return nil, err
	}
	return s, nil
}

// Profile returns the session's configuration.
func (s *Session) Profile() *config.Profile {
	return s.profile
}

// Reset clears cookies and web storage and restores the profile viewport.
func (s *Session) Reset(ctx context.Context) error {
	if err := s.Context.ClearCookies(); err != nil {
		return errs.Wrap(errs.Unavailable, "clear cookies", err)
	}
	if s.Page.URL() != "about:blank" {
		if _, err := s.Page.Evaluate(`() => { try { localStorage.clear(); sessionStorage.clear(); } catch (e) {} }`); err != nil {
			return errs.Wrap(errs.Unavailable, "clear storage", err)
		}
	}
	if err := s.Page.SetViewportSize(s.profile.ViewportWidth, s.profile.ViewportHeight); err != nil {
		return errs.Wrap(errs.Unavailable, "set viewport", err)
	}
	return nil
}

// Remember stores an intercepted response under alias.
func (s *Session) Remember(alias string, resp playwright.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[alias] = resp
}

// Alias returns the response stored under alias.
func (s *Session) Alias(alias string) (playwright.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.aliases[alias]
	if !ok {
		return nil, errs.Newf(errs.InvalidConfiguration, "no intercepted response aliased @%s", alias)
	}
	return resp, nil
}

// UnexpectedPageErrors returns script errors that matched no benign pattern.
func (s *Session) UnexpectedPageErrors() []string {
	return s.filter.Unexpected()
}

// CheckPageErrors fails only when the profile asks for it.
func (s *Session) CheckPageErrors() error {
	unexpected := s.filter.Unexpected()
	if len(unexpected) == 0 || !s.profile.FailOnPageErrors {
		return nil
	}
	return errs.Assertion("page script errors", "none", unexpected)
}

// Artifacts returns the locations of everything this session stored.
func (s *Session) Artifacts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.artifacts...)
}

func (s *Session) put(ctx context.Context, name, ext, contentType string, data []byte) (string, error) {
	if s.store == nil {
		return "", nil
	}
	loc, err := s.store.Put(ctx, artifacts.Key(s.runID, s.Name, name, ext), data, contentType)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.artifacts = append(s.artifacts, loc)
	s.mu.Unlock()
	return loc, nil
}

// Screenshot stores a full-page screenshot under name.
func (s *Session) Screenshot(ctx context.Context, name string) (string, error) {
	data, err := s.Page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(true)})
	if err != nil {
		return "", errs.Wrap(errs.Unavailable, "screenshot "+name, err)
	}
	return s.put(ctx, name, "png", "image/png", data)
}

// CaptureFailure stores a "<scenario> - failed" screenshot when the profile
// enables it. Errors are logged, never returned: the scenario already failed.
func (s *Session) CaptureFailure(ctx context.Context, scenario string) string {
	if !s.profile.ScreenshotOnFailure {
		return ""
	}
	loc, err := s.Screenshot(ctx, scenario+" - failed")
	if err != nil {
		s.log.Warn("failure_screenshot_error", "error", err)
		return ""
	}
	s.log.Info("failure_screenshot", "location", loc, "url", s.Page.URL())
	return loc
}

// Close closes the context and, when recording, stores the video.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	var video playwright.Video
	if s.videoDir != "" {
		video = s.Page.Video()
	}
	if err := s.Context.Close(); err != nil {
		return fmt.Errorf("close browser context: %w", err)
	}
	if video == nil {
		return nil
	}
	defer os.RemoveAll(s.videoDir)

	path, err := video.Path()
	if err != nil {
		s.log.Warn("video_path_error", "error", err)
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("video_read_error", "error", err)
		return nil
	}
	loc, err := s.put(ctx, "video", "webm", "video/webm", data)
	if err != nil {
		return err
	}
	s.log.Info("video_stored", "location", loc, "bytes", len(data))
	return nil
}

// Log prints through the task sink.
func (s *Session) Log(msg string) {
	obs.Log(msg)
}

// Table prints rows through the task sink.
func (s *Session) Table(rows [][]string) {
	obs.Table(rows)
}

// DumpState logs the current URL, title and a content preview. Called when an
// element cannot be resolved.
func (s *Session) DumpState(reason string) {
	title, _ := s.Page.Title()
	content, _ := s.Page.Content()
	s.log.Warn(reason, "url", s.Page.URL(), "title", title, "content_preview", logutil.Truncate(content, 500, "..."))
}

// Timeout converts a duration to Playwright milliseconds.
func Timeout(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
