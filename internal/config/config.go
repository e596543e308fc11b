// Package config resolves the run profile for the storefront harness.
// A built-in profile (default, dev, qa, prod) is overlaid with an optional YAML
// profile file, then a .env file, then E2E_* environment variables.
// The resolved profile is read once at process start and never mutated.
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Mode selects which retry count applies.
type Mode string

const (
	ModeRun  Mode = "run"
	ModeOpen Mode = "open"
)

// Retries holds whole-scenario retry counts per mode.
type Retries struct {
	RunMode  int `yaml:"runMode"`
	OpenMode int `yaml:"openMode"`
}

// Credentials is a pre-registered account on the storefront.
type Credentials struct {
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Profile is a named bundle of run settings.
type Profile struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"baseUrl"`
	APIURL  string `yaml:"apiUrl"`

	ViewportWidth  int `yaml:"viewportWidth"`
	ViewportHeight int `yaml:"viewportHeight"`

	DefaultCommandTimeout time.Duration `yaml:"defaultCommandTimeout"`
	RequestTimeout        time.Duration `yaml:"requestTimeout"`
	ResponseTimeout       time.Duration `yaml:"responseTimeout"`
	PageLoadTimeout       time.Duration `yaml:"pageLoadTimeout"`

	Retries Retries `yaml:"retries"`
	Mode    Mode    `yaml:"mode"`

	Video               bool   `yaml:"video"`
	ScreenshotOnFailure bool   `yaml:"screenshotOnRunFailure"`
	Headless            bool   `yaml:"headless"`
	Browser             string `yaml:"browser"`

	// Tags is a godog tag expression selecting feature scenarios, e.g. "@smoke && ~@wip".
	Tags string `yaml:"tags"`
	// FeaturePaths are searched for .feature files.
	FeaturePaths []string `yaml:"featurePaths"`

	LogTag   string `yaml:"logTag"`
	LogLevel string `yaml:"logLevel"`

	TestUser Credentials `yaml:"testUser"`

	ArtifactsDir      string `yaml:"artifactsDir"`
	ArtifactsBucket   string `yaml:"artifactsBucket"`
	ArtifactsEndpoint string `yaml:"artifactsEndpoint"`
	ArtifactsRegion   string `yaml:"artifactsRegion"`

	ReportDir  string `yaml:"reportDir"`
	ReportJSON bool   `yaml:"reportJson"`

	BenignPageErrors []string `yaml:"benignPageErrors"`
	FailOnPageErrors bool     `yaml:"failOnPageErrors"`

	APIRatePerSecond float64 `yaml:"apiRatePerSecond"`
	APIBurst         int     `yaml:"apiBurst"`

	NotifyTo     string `yaml:"notifyTo"`
	NotifyFrom   string `yaml:"notifyFrom"`
	ResendAPIKey string `yaml:"-"`
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// DefaultBenignPageErrors are script errors the storefront throws on its own
// (ad and analytics scripts) that say nothing about the flow under test.
var DefaultBenignPageErrors = []string{
	`(?i)adsbygoogle`,
	`(?i)googletag`,
	`(?i)ResizeObserver loop`,
	`(?i)Script error\.?$`,
	`(?i)Cannot read properties of (null|undefined) \(reading '(push|style)'\)`,
}

func base() Profile {
	return Profile{
		Name:                  "default",
		BaseURL:               "https://www.automationexercise.com",
		ViewportWidth:         1280,
		ViewportHeight:        720,
		DefaultCommandTimeout: 15 * time.Second,
		RequestTimeout:        15 * time.Second,
		ResponseTimeout:       15 * time.Second,
		PageLoadTimeout:       45 * time.Second,
		Retries:               Retries{RunMode: 2, OpenMode: 0},
		Mode:                  ModeRun,
		ScreenshotOnFailure:   true,
		Headless:              true,
		Browser:               "chromium",
		LogLevel:              "info",
		TestUser:              Credentials{Email: "test@example.com", Password: "test123"},
		ArtifactsDir:          "artifacts",
		ArtifactsRegion:       "us-east-1",
		ReportDir:             "results",
		ReportJSON:            true,
		FeaturePaths:          []string{"features"},
		BenignPageErrors:      append([]string(nil), DefaultBenignPageErrors...),
		APIRatePerSecond:      5,
		APIBurst:              5,
		NotifyFrom:            "e2e@storefront-e2e.dev",
	}
}

// Builtin returns the named built-in profile.
func Builtin(name string) (Profile, bool) {
	p := base()
	switch name {
	case "", "default":
		return p, true
	case "dev":
		p.Name = "dev"
		p.Video = true
		p.DefaultCommandTimeout = 10 * time.Second
		p.RequestTimeout = 10 * time.Second
		p.ResponseTimeout = 10 * time.Second
		p.PageLoadTimeout = 30 * time.Second
		p.Retries = Retries{RunMode: 1, OpenMode: 0}
		p.LogTag = "DEV"
		p.LogLevel = "debug"
		p.TestUser = Credentials{Email: "dev-test@example.com", Password: "dev123"}
		return p, true
	case "qa":
		p.Name = "qa"
		p.LogTag = "QA"
		return p, true
	case "prod":
		p.Name = "prod"
		p.LogTag = "PROD"
		p.LogLevel = "warn"
		return p, true
	default:
		return Profile{}, false
	}
}

// BuiltinNames lists the built-in profiles in display order.
func BuiltinNames() []string {
	return []string{"default", "dev", "qa", "prod"}
}

// Load resolves a profile. An empty name falls back to E2E_PROFILE, then "default".
func Load(name string) (*Profile, error) {
	if dotenv := strings.TrimSpace(os.Getenv("E2E_DOTENV")); dotenv != "" {
		// godotenv.Load never overrides variables already present in the environment.
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("load dotenv %s: %w", dotenv, err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	if name == "" {
		name = getEnvOrDefault("E2E_PROFILE", "default")
	}
	p, ok := Builtin(name)
	if !ok {
		return nil, &ValidationError{Errors: []string{
			fmt.Sprintf("unknown profile %q (known: %s)", name, strings.Join(BuiltinNames(), ", ")),
		}}
	}

	if file := strings.TrimSpace(os.Getenv("E2E_PROFILE_FILE")); file != "" {
		if err := overlayFile(&p, file); err != nil {
			return nil, err
		}
	}

	applyEnv(&p)

	if p.APIURL == "" {
		p.APIURL = strings.TrimRight(p.BaseURL, "/") + "/api"
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// overlayFile decodes a YAML profile on top of p. Durations use Go syntax ("15s").
func overlayFile(p *Profile, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile file %s: %w", path, err)
	}
	name := p.Name
	if err := yaml.Unmarshal(data, p); err != nil {
		return fmt.Errorf("parse profile file %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	return nil
}

func applyEnv(p *Profile) {
	p.BaseURL = getEnvOrDefault("E2E_BASE_URL", p.BaseURL)
	p.APIURL = getEnvOrDefault("E2E_API_URL", p.APIURL)
	p.ViewportWidth = parseIntOrDefault("E2E_VIEWPORT_WIDTH", p.ViewportWidth)
	p.ViewportHeight = parseIntOrDefault("E2E_VIEWPORT_HEIGHT", p.ViewportHeight)
	p.DefaultCommandTimeout = parseDurationOrDefault("E2E_COMMAND_TIMEOUT", p.DefaultCommandTimeout)
	p.RequestTimeout = parseDurationOrDefault("E2E_REQUEST_TIMEOUT", p.RequestTimeout)
	p.ResponseTimeout = parseDurationOrDefault("E2E_RESPONSE_TIMEOUT", p.ResponseTimeout)
	p.PageLoadTimeout = parseDurationOrDefault("E2E_PAGE_LOAD_TIMEOUT", p.PageLoadTimeout)
	if v := os.Getenv("E2E_RETRIES"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			p.Retries.RunMode = n
		}
	}
	p.Mode = Mode(getEnvOrDefault("E2E_MODE", string(p.Mode)))
	p.Video = parseBoolOrDefault("E2E_VIDEO", p.Video)
	p.ScreenshotOnFailure = parseBoolOrDefault("E2E_SCREENSHOT_ON_FAILURE", p.ScreenshotOnFailure)
	p.Headless = parseBoolOrDefault("E2E_HEADLESS", p.Headless)
	p.Browser = getEnvOrDefault("E2E_BROWSER", p.Browser)
	p.LogLevel = getEnvOrDefault("E2E_LOG_LEVEL", p.LogLevel)
	p.Tags = getEnvOrDefault("E2E_TAGS", p.Tags)
	p.TestUser.Email = getEnvOrDefault("E2E_TEST_USER_EMAIL", p.TestUser.Email)
	p.TestUser.Password = getEnvOrDefault("E2E_TEST_USER_PASSWORD", p.TestUser.Password)
	p.ArtifactsDir = getEnvOrDefault("E2E_ARTIFACTS_DIR", p.ArtifactsDir)
	p.ArtifactsBucket = getEnvOrDefault("E2E_ARTIFACTS_BUCKET", p.ArtifactsBucket)
	p.ArtifactsEndpoint = getEnvOrDefault("AWS_ENDPOINT_URL_S3", p.ArtifactsEndpoint)
	p.ArtifactsRegion = getEnvOrDefault("AWS_REGION", p.ArtifactsRegion)
	p.ReportDir = getEnvOrDefault("E2E_REPORT_DIR", p.ReportDir)
	p.ReportJSON = parseBoolOrDefault("E2E_REPORT_JSON", p.ReportJSON)
	p.FailOnPageErrors = parseBoolOrDefault("E2E_FAIL_ON_PAGE_ERRORS", p.FailOnPageErrors)
	if extra := os.Getenv("E2E_BENIGN_PAGE_ERRORS"); extra != "" {
		for _, pattern := range strings.Split(extra, ",") {
			if pattern = strings.TrimSpace(pattern); pattern != "" {
				p.BenignPageErrors = append(p.BenignPageErrors, pattern)
			}
		}
	}
	p.APIRatePerSecond = parseFloat64OrDefault("E2E_API_RPS", p.APIRatePerSecond)
	p.APIBurst = parseIntOrDefault("E2E_API_BURST", p.APIBurst)
	p.NotifyTo = getEnvOrDefault("E2E_NOTIFY_TO", p.NotifyTo)
	p.NotifyFrom = getEnvOrDefault("E2E_NOTIFY_FROM", p.NotifyFrom)
	p.ResendAPIKey = getEnvOrDefault("RESEND_API_KEY", p.ResendAPIKey)
}

// Validate checks the profile and reports every problem at once.
func (p *Profile) Validate() error {
	var errs []string

	if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("baseUrl %q must be an absolute URL", p.BaseURL))
	}
	if p.APIURL != "" {
		if u, err := url.Parse(p.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("apiUrl %q must be an absolute URL", p.APIURL))
		}
	}
	if p.ViewportWidth <= 0 || p.ViewportHeight <= 0 {
		errs = append(errs, "viewport width and height must be positive")
	}
	for name, d := range map[string]time.Duration{
		"defaultCommandTimeout": p.DefaultCommandTimeout,
		"requestTimeout":        p.RequestTimeout,
		"responseTimeout":       p.ResponseTimeout,
		"pageLoadTimeout":       p.PageLoadTimeout,
	} {
		if d <= 0 {
			errs = append(errs, name+" must be positive")
		}
	}
	if p.Retries.RunMode < 0 || p.Retries.OpenMode < 0 {
		errs = append(errs, "retries must not be negative")
	}
	if p.Mode != ModeRun && p.Mode != ModeOpen {
		errs = append(errs, fmt.Sprintf("mode %q must be run or open", p.Mode))
	}
	switch p.Browser {
	case "chromium", "firefox", "webkit":
	default:
		errs = append(errs, fmt.Sprintf("browser %q must be chromium, firefox or webkit", p.Browser))
	}
	for _, pattern := range p.BenignPageErrors {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Sprintf("benign page error pattern %q: %v", pattern, err))
		}
	}
	if p.ArtifactsBucket != "" && p.ArtifactsRegion == "" {
		errs = append(errs, "artifacts bucket requires AWS_REGION")
	}
	if p.APIRatePerSecond <= 0 {
		errs = append(errs, "apiRatePerSecond must be positive")
	}
	if p.APIBurst <= 0 {
		errs = append(errs, "apiBurst must be positive")
	}
	if p.NotifyTo != "" && p.ResendAPIKey == "" {
		errs = append(errs, "RESEND_API_KEY is required when notifyTo is set")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// RetriesForMode returns the retry count that applies to the active mode.
func (p *Profile) RetriesForMode() int {
	if p.Mode == ModeOpen {
		return p.Retries.OpenMode
	}
	return p.Retries.RunMode
}

// Rows renders the profile for the table task.
func (p *Profile) Rows() [][]string {
	storage := "local: " + p.ArtifactsDir
	if p.ArtifactsBucket != "" {
		storage = "s3: " + p.ArtifactsBucket
	}
	return [][]string{
		{"setting", "value"},
		{"profile", p.Name},
		{"baseUrl", p.BaseURL},
		{"apiUrl", p.APIURL},
		{"viewport", fmt.Sprintf("%dx%d", p.ViewportWidth, p.ViewportHeight)},
		{"commandTimeout", p.DefaultCommandTimeout.String()},
		{"pageLoadTimeout", p.PageLoadTimeout.String()},
		{"retries", fmt.Sprintf("run=%d open=%d (mode %s)", p.Retries.RunMode, p.Retries.OpenMode, p.Mode)},
		{"video", strconv.FormatBool(p.Video)},
		{"screenshotOnFailure", strconv.FormatBool(p.ScreenshotOnFailure)},
		{"browser", fmt.Sprintf("%s (headless=%t)", p.Browser, p.Headless)},
		{"logLevel", p.LogLevel},
		{"testUser", p.TestUser.Email},
		{"artifacts", storage},
		{"features", strings.Join(p.FeaturePaths, ",")},
		{"tags", p.Tags},
	}
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseFloat64OrDefault(key string, defaultValue float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
