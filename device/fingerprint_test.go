package device

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFingerprint() Fingerprint {
	return Fingerprint{
		UserAgent:           "Mozilla/5.0",
		Language:            "en-US",
		Platform:            "linux/amd64",
		ScreenWidth:         1920,
		ScreenHeight:        1080,
		ColorDepth:          24,
		Timezone:            "Europe/Berlin",
		TimezoneOffset:      60,
		HardwareConcurrency: 8,
	}
}

func TestFingerprint_CanonicalStable(t *testing.T) {
	f := testFingerprint()
	assert.Equal(t, f.Canonical(), testFingerprint().Canonical())
	assert.Equal(t, "Mozilla/5.0|en-US|linux/amd64|1920x1080|24|Europe/Berlin|60|8", f.Canonical())
}

func TestFingerprint_CanonicalChangesWithFields(t *testing.T) {
	base := testFingerprint()

	other := base
	other.ScreenWidth = 1280
	assert.NotEqual(t, base.Canonical(), other.Canonical())

	other = base
	other.Language = "de-DE"
	assert.NotEqual(t, base.Canonical(), other.Canonical())
}

func TestFingerprint_NormalizesUnicode(t *testing.T) {
	a := testFingerprint()
	a.Timezone = "Am\u00e9rica"
	b := testFingerprint()
	b.Timezone = "Ame\u0301rica"
	assert.Equal(t, a.Canonical(), b.Canonical())
}

func TestFingerprint_Hash(t *testing.T) {
	f := testFingerprint()
	h := f.Hash()
	assert.Len(t, h, HashLength)
	assert.Equal(t, h, testFingerprint().Hash())

	g := f
	g.HardwareConcurrency = 4
	assert.NotEqual(t, h, g.Hash())
}

func TestFingerprint_WithoutGeometry(t *testing.T) {
	a := testFingerprint()
	b := testFingerprint()
	b.ScreenWidth, b.ScreenHeight = 80, 24

	assert.NotEqual(t, a.Canonical(), b.Canonical())
	assert.Equal(t, a.WithoutGeometry().Canonical(), b.WithoutGeometry().Canonical())
	assert.Equal(t, 1920, a.ScreenWidth, "receiver is not modified")
}

func TestFingerprint_WithoutZoneOffset(t *testing.T) {
	winter := testFingerprint()
	summer := testFingerprint()
	summer.TimezoneOffset = winter.TimezoneOffset + 60

	assert.NotEqual(t, winter.Canonical(), summer.Canonical())
	assert.Equal(t, winter.WithoutZoneOffset().Canonical(), summer.WithoutZoneOffset().Canonical())

	other := testFingerprint()
	other.Timezone = "Asia/Tokyo"
	assert.NotEqual(t, winter.WithoutZoneOffset().Canonical(), other.WithoutZoneOffset().Canonical(),
		"zone name still counts")
}

func TestFromHost(t *testing.T) {
	t.Setenv("LANG", "fr_FR.UTF-8")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("TZ", "Europe/Paris")

	f := FromHost()
	assert.Equal(t, "fr-FR", f.Language)
	assert.Equal(t, "Europe/Paris", f.Timezone)
	assert.NotEmpty(t, f.Platform)
	assert.Positive(t, f.HardwareConcurrency)
	assert.Equal(t, f.Canonical(), FromHost().Canonical(), "FromHost should be stable within a process")
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("User-Agent", "Mozilla/5.0 (X11)")
	r.Header.Set("Accept-Language", "en-GB;q=0.9,en;q=0.8")
	r.Header.Set("Sec-CH-UA-Platform", `"Linux"`)
	r.Header.Set("Sec-CH-Viewport-Width", "1440")
	r.Header.Set("Sec-CH-Viewport-Height", "900")
	r.Header.Set("X-Timezone-Offset", "-300")

	f := FromRequest(r)
	require.Equal(t, "Mozilla/5.0 (X11)", f.UserAgent)
	assert.Equal(t, "en-GB", f.Language)
	assert.Equal(t, "Linux", f.Platform)
	assert.Equal(t, 1440, f.ScreenWidth)
	assert.Equal(t, 900, f.ScreenHeight)
	assert.Equal(t, -300, f.TimezoneOffset)
	assert.Zero(t, f.HardwareConcurrency)
}

func TestColorDepth(t *testing.T) {
	assert.Equal(t, 24, colorDepth("truecolor", "xterm"))
	assert.Equal(t, 8, colorDepth("", "xterm-256color"))
	assert.Equal(t, 0, colorDepth("", "dumb"))
	assert.Equal(t, 4, colorDepth("", "vt100"))
}
