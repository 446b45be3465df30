package vault

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jmcleod/tokenvault/internal/uuid"
)

// ExpiryWarningWindow is how close to expiry a token must be before the
// audit reports it.
const ExpiryWarningWindow = 60 * time.Second

// AuditContext describes the environment being audited.
type AuditContext struct {
	// Origin is the console origin. Nil falls back to the vault's configured
	// origin; if neither is set the transport check is skipped.
	Origin *url.URL
}

// AuditReport is the result of PerformSecurityAudit. Secure is true exactly
// when Issues is empty.
type AuditReport struct {
	ID              string    `json:"id"`
	CheckedAt       time.Time `json:"checked_at"`
	Secure          bool      `json:"secure"`
	Issues          []string  `json:"issues"`
	Recommendations []string  `json:"recommendations"`
}

func (r *AuditReport) add(issue, recommendation string) {
	r.Issues = append(r.Issues, issue)
	r.Recommendations = append(r.Recommendations, recommendation)
}

// PerformSecurityAudit inspects the origin, durable storage usage, and token
// lifetimes. It never modifies vault state.
func (v *Vault) PerformSecurityAudit(ac AuditContext) AuditReport {
	v.mu.Lock()
	defer v.mu.Unlock()

	report := AuditReport{
		ID:              uuid.New(),
		CheckedAt:       v.now(),
		Issues:          []string{},
		Recommendations: []string{},
	}

	origin := ac.Origin
	if origin == nil {
		origin = v.origin
	}
	if origin != nil && !secureOrigin(origin) {
		report.add(
			fmt.Sprintf("console origin %s is not served over HTTPS", origin.Host),
			"serve the console over HTTPS",
		)
	}

	if used, err := v.unrelatedUsage(); err != nil {
		v.logger.Warn("audit could not measure durable storage", "error", err)
	} else if used > v.unrelatedLimit {
		report.add(
			fmt.Sprintf("durable storage holds %d bytes of unrelated data (limit %d)", used, v.unrelatedLimit),
			"clear unused application data from durable storage",
		)
	}

	slots := make([]Slot, 0, len(v.tokens))
	for slot := range v.tokens {
		slots = append(slots, slot)
	}
	slices.Sort(slots)
	now := v.now()
	for _, slot := range slots {
		if v.tokens[slot].ExpiresAt.Sub(now) < ExpiryWarningWindow {
			report.add(
				fmt.Sprintf("%s token expires within %s", slot, ExpiryWarningWindow),
				fmt.Sprintf("refresh the %s token or sign in again", slot),
			)
		}
	}

	report.Secure = len(report.Issues) == 0
	v.logger.Info("security audit completed",
		"report_id", report.ID,
		"secure", report.Secure,
		"issues", len(report.Issues),
	)
	return report
}

func secureOrigin(u *url.URL) bool {
	if strings.EqualFold(u.Scheme, "https") {
		return true
	}
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

// unrelatedUsage sums key and value sizes in durable storage, excluding the
// vault's own entry.
func (v *Vault) unrelatedUsage() (int, error) {
	keys, err := v.durable.Keys()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, key := range keys {
		if key == StorageKey {
			continue
		}
		val, err := v.durable.Get(key)
		if err != nil {
			continue
		}
		total += len(key) + len(val)
	}
	return total, nil
}
