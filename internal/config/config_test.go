package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func clearE2EEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "E2E_") || key == "RESEND_API_KEY" || key == "AWS_ENDPOINT_URL_S3" || key == "AWS_REGION" {
			t.Setenv(key, "")
		}
	}
}

func TestBuiltin_ProfilesMatchRunnerDefaults(t *testing.T) {
	t.Parallel()

	def, ok := Builtin("default")
	require.True(t, ok)
	assert.Equal(t, "https://www.automationexercise.com", def.BaseURL)
	assert.Equal(t, 1280, def.ViewportWidth)
	assert.Equal(t, 720, def.ViewportHeight)
	assert.Equal(t, 15*time.Second, def.DefaultCommandTimeout)
	assert.Equal(t, 45*time.Second, def.PageLoadTimeout)
	assert.Equal(t, Retries{RunMode: 2, OpenMode: 0}, def.Retries)
	assert.False(t, def.Video)
	assert.True(t, def.ScreenshotOnFailure)
	assert.Empty(t, def.LogTag)

	dev, ok := Builtin("dev")
	require.True(t, ok)
	assert.True(t, dev.Video)
	assert.Equal(t, 10*time.Second, dev.DefaultCommandTimeout)
	assert.Equal(t, 30*time.Second, dev.PageLoadTimeout)
	assert.Equal(t, 1, dev.Retries.RunMode)
	assert.Equal(t, "DEV", dev.LogTag)
	assert.Equal(t, "dev-test@example.com", dev.TestUser.Email)

	for _, name := range []string{"qa", "prod"} {
		p, ok := Builtin(name)
		require.True(t, ok, name)
		assert.Equal(t, def.DefaultCommandTimeout, p.DefaultCommandTimeout, name)
		assert.Equal(t, def.Retries, p.Retries, name)
		assert.Equal(t, def.BaseURL, p.BaseURL, name)
	}

	_, ok = Builtin("staging")
	assert.False(t, ok)
}

func TestLoad_DerivesAPIURLAndValidates(t *testing.T) {
	clearE2EEnv(t)

	p, err := Load("qa")
	require.NoError(t, err)
	assert.Equal(t, "qa", p.Name)
	assert.Equal(t, "https://www.automationexercise.com/api", p.APIURL)
	assert.Equal(t, 2, p.RetriesForMode())
}

func TestLoad_UnknownProfile(t *testing.T) {
	clearE2EEnv(t)

	_, err := Load("staging")
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), `unknown profile "staging"`)
}

func TestLoad_ProfileFromEnvName(t *testing.T) {
	clearE2EEnv(t)
	t.Setenv("E2E_PROFILE", "dev")

	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "dev", p.Name)
	assert.Equal(t, 1, p.RetriesForMode())
}

func TestLoad_EnvOverridesBeatFile(t *testing.T) {
	clearE2EEnv(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
baseUrl: https://staging.example.test
viewportWidth: 1920
pageLoadTimeout: 60s
retries:
  runMode: 4
  openMode: 1
benignPageErrors:
  - "(?i)hotjar"
`), 0o644))
	t.Setenv("E2E_PROFILE_FILE", file)
	t.Setenv("E2E_VIEWPORT_WIDTH", "1440")
	t.Setenv("E2E_MODE", "open")
	t.Setenv("E2E_TAGS", "@smoke && ~@wip")

	p, err := Load("default")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Name)
	assert.Equal(t, "https://staging.example.test", p.BaseURL)
	assert.Equal(t, "https://staging.example.test/api", p.APIURL)
	assert.Equal(t, 1440, p.ViewportWidth)
	assert.Equal(t, 720, p.ViewportHeight)
	assert.Equal(t, 60*time.Second, p.PageLoadTimeout)
	assert.Equal(t, ModeOpen, p.Mode)
	assert.Equal(t, 1, p.RetriesForMode())
	assert.Equal(t, []string{"(?i)hotjar"}, p.BenignPageErrors)
	assert.Equal(t, "@smoke && ~@wip", p.Tags)
}

func TestLoad_DotenvDoesNotOverrideEnvironment(t *testing.T) {
	clearE2EEnv(t)

	dir := t.TempDir()
	dotenv := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(dotenv, []byte("E2E_BROWSER=firefox\nE2E_HEADLESS=false\n"), 0o644))
	t.Setenv("E2E_DOTENV", dotenv)
	t.Setenv("E2E_HEADLESS", "true")
	// godotenv sets E2E_BROWSER through os.Setenv; register it so the test restores it.
	t.Setenv("E2E_BROWSER", "")
	require.NoError(t, os.Unsetenv("E2E_BROWSER"))

	p, err := Load("default")
	require.NoError(t, err)
	assert.Equal(t, "firefox", p.Browser)
	assert.True(t, p.Headless)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	t.Parallel()

	p, _ := Builtin("default")
	p.BaseURL = "/relative"
	p.PageLoadTimeout = 0
	p.Retries.RunMode = -1
	p.Browser = "lynx"
	p.BenignPageErrors = []string{"("}
	p.NotifyTo = "ops@example.com"

	err := p.Validate()
	require.Error(t, err)
	msg := err.Error()
	for _, expected := range []string{
		"baseUrl",
		"pageLoadTimeout",
		"retries",
		"lynx",
		"benign page error pattern",
		"RESEND_API_KEY",
	} {
		if !strings.Contains(msg, expected) {
			t.Fatalf("expected validation error to mention %q, got: %v", expected, err)
		}
	}
}

func testValidate_RejectsNegativeRetries(t *rapid.T) {
	p, _ := Builtin(rapid.SampledFrom(BuiltinNames()).Draw(t, "profile"))
	p.Retries.RunMode = rapid.IntRange(-100, -1).Draw(t, "run")

	err := p.Validate()
	if err == nil {
		t.Fatal("expected validation error for negative retries")
	}
	if !strings.Contains(err.Error(), "retries must not be negative") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_RejectsNegativeRetries(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidate_RejectsNegativeRetries)
}

func TestRows_IncludesResolvedSettings(t *testing.T) {
	t.Parallel()
	p, _ := Builtin("dev")
	rows := p.Rows()
	require.Equal(t, []string{"setting", "value"}, rows[0])
	flat := make(map[string]string)
	for _, row := range rows[1:] {
		flat[row[0]] = row[1]
	}
	assert.Equal(t, "dev", flat["profile"])
	assert.Equal(t, "1280x720", flat["viewport"])
	assert.Equal(t, "true", flat["video"])
	assert.Equal(t, "local: artifacts", flat["artifacts"])
	assert.Equal(t, "features", flat["features"])
}

func TestHelperParsers_DefaultOnBadInput(t *testing.T) {
	t.Setenv("CFG_TEST_INT", "not-an-int")
	t.Setenv("CFG_TEST_FLOAT", "not-a-float")
	t.Setenv("CFG_TEST_DUR", "not-a-duration")
	t.Setenv("CFG_TEST_BOOL", "maybe")
	if got := parseIntOrDefault("CFG_TEST_INT", 7); got != 7 {
		t.Fatalf("parseIntOrDefault fallback mismatch: got=%d want=7", got)
	}
	if got := parseFloat64OrDefault("CFG_TEST_FLOAT", 3.5); got != 3.5 {
		t.Fatalf("parseFloat64OrDefault fallback mismatch: got=%v want=3.5", got)
	}
	if got := parseDurationOrDefault("CFG_TEST_DUR", 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("parseDurationOrDefault fallback mismatch: got=%v want=%v", got, 2*time.Minute)
	}
	if got := parseBoolOrDefault("CFG_TEST_BOOL", true); !got {
		t.Fatalf("parseBoolOrDefault fallback mismatch: got=%v want=true", got)
	}
}

func TestGetEnvOrDefault_TrimsWhitespace(t *testing.T) {
	key := "CFG_TEST_STR_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	t.Setenv(key, "   value   ")

	if got := getEnvOrDefault(key, "fallback"); got != "value" {
		t.Fatalf("getEnvOrDefault trim mismatch: got=%q want=%q", got, "value")
	}
}
