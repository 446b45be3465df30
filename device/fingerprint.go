// Package device collects the environment attributes that salt the token
// vault's key derivation.
//
// A Fingerprint is best-effort, low-entropy data (user agent, locale, screen
// geometry, timezone). It ties persisted ciphertext to the environment that
// wrote it, but it is obfuscation and not a security boundary: anyone who can
// read the session secret can usually reconstruct the fingerprint as well.
package device

import (
	"crypto/sha256"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/jmcleod/tokenvault/internal/util"
)

// HashLength is the number of hex characters in Hash.
const HashLength = 16

// Fingerprint describes the environment a vault runs in.
type Fingerprint struct {
	UserAgent           string `json:"user_agent"`
	Language            string `json:"language"`
	Platform            string `json:"platform"`
	ScreenWidth         int    `json:"screen_width"`
	ScreenHeight        int    `json:"screen_height"`
	ColorDepth          int    `json:"color_depth"`
	Timezone            string `json:"timezone"`
	TimezoneOffset      int    `json:"timezone_offset"`
	HardwareConcurrency int    `json:"hardware_concurrency"`
}

// Canonical returns the stable string form used as key-derivation salt.
// String fields are NFKD-normalised so equivalent Unicode spellings match.
func (f Fingerprint) Canonical() string {
	parts := []string{
		util.Normalize(f.UserAgent),
		util.Normalize(f.Language),
		util.Normalize(f.Platform),
		strconv.Itoa(f.ScreenWidth) + "x" + strconv.Itoa(f.ScreenHeight),
		strconv.Itoa(f.ColorDepth),
		util.Normalize(f.Timezone),
		strconv.Itoa(f.TimezoneOffset),
		strconv.Itoa(f.HardwareConcurrency),
	}
	return strings.Join(parts, "|")
}

// Hash returns a short hex digest of the canonical form, safe to send in
// request headers.
func (f Fingerprint) Hash() string {
	sum := sha256.Sum256([]byte(f.Canonical()))
	return util.HexEncode(sum[:])[:HashLength]
}

// WithoutGeometry returns f with the screen size cleared. Terminal geometry
// changes with every window resize, so callers that derive keys across
// several processes drop it.
func (f Fingerprint) WithoutGeometry() Fingerprint {
	f.ScreenWidth, f.ScreenHeight = 0, 0
	return f
}

// WithoutZoneOffset returns f with the UTC offset cleared. The offset moves
// across daylight-saving changes while the zone name does not, so a key
// derived from it would change twice a year.
func (f Fingerprint) WithoutZoneOffset() Fingerprint {
	f.TimezoneOffset = 0
	return f
}

// FromHost builds a Fingerprint for the current process.
func FromHost() Fingerprint {
	name, offset := time.Now().Zone()
	f := Fingerprint{
		UserAgent:           "tokenvault/" + runtime.Version(),
		Language:            hostLanguage(),
		Platform:            runtime.GOOS + "/" + runtime.GOARCH,
		ColorDepth:          colorDepth(os.Getenv("COLORTERM"), os.Getenv("TERM")),
		Timezone:            zoneName(name),
		TimezoneOffset:      offset / 60,
		HardwareConcurrency: runtime.NumCPU(),
	}
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, h, err := term.GetSize(fd); err == nil {
			f.ScreenWidth, f.ScreenHeight = w, h
		}
	}
	return f
}

// FromRequest builds a Fingerprint from the headers a browser sends. Client
// hint headers are used when present.
func FromRequest(r *http.Request) Fingerprint {
	f := Fingerprint{
		UserAgent: r.Header.Get("User-Agent"),
		Language:  firstLanguage(r.Header.Get("Accept-Language")),
		Platform:  strings.Trim(r.Header.Get("Sec-CH-UA-Platform"), `"`),
		Timezone:  r.Header.Get("X-Timezone"),
	}
	f.ScreenWidth = atoiOrZero(r.Header.Get("Sec-CH-Viewport-Width"))
	f.ScreenHeight = atoiOrZero(r.Header.Get("Sec-CH-Viewport-Height"))
	f.HardwareConcurrency = atoiOrZero(r.Header.Get("X-Hardware-Concurrency"))
	f.TimezoneOffset = atoiOrZero(r.Header.Get("X-Timezone-Offset"))
	return f
}

func hostLanguage() string {
	for _, k := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(k); v != "" {
			// en_US.UTF-8 -> en-US
			v, _, _ = strings.Cut(v, ".")
			return strings.ReplaceAll(v, "_", "-")
		}
	}
	return "und"
}

func zoneName(abbrev string) string {
	if tz := os.Getenv("TZ"); tz != "" {
		return tz
	}
	if loc := time.Local.String(); loc != "Local" {
		return loc
	}
	return abbrev
}

func colorDepth(colorterm, termName string) int {
	switch {
	case colorterm == "truecolor" || colorterm == "24bit":
		return 24
	case strings.Contains(termName, "256color"):
		return 8
	case termName == "" || termName == "dumb":
		return 0
	default:
		return 4
	}
}

func firstLanguage(accept string) string {
	lang, _, _ := strings.Cut(accept, ",")
	lang, _, _ = strings.Cut(lang, ";")
	return strings.TrimSpace(lang)
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
