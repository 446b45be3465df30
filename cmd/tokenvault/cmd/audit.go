package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jmcleod/tokenvault/vault"
)

var (
	auditOrigin string
	auditJSON   bool
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the vault security audit",
	Long: `Checks that the console origin uses HTTPS, that durable storage is not
crowded with unrelated data, and that no stored token is about to expire.
The audit never changes vault state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(vault.WithSweepInterval(0))
		if err != nil {
			return err
		}
		defer s.Close()

		var ac vault.AuditContext
		if auditOrigin != "" {
			u, err := url.Parse(auditOrigin)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return fmt.Errorf("--audit-origin must be an absolute URL")
			}
			ac.Origin = u
		}

		report := s.vault.PerformSecurityAudit(ac)
		if auditJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printAuditReport(cmd, report)
		return nil
	},
}

func printAuditReport(cmd *cobra.Command, report vault.AuditReport) {
	out := cmd.OutOrStdout()
	if report.Secure {
		fmt.Fprintln(out, "secure: no issues found")
		return
	}
	fmt.Fprintf(out, "insecure: %d issue(s)\n", len(report.Issues))
	for i, issue := range report.Issues {
		fmt.Fprintf(out, "  - %s\n    fix: %s\n", issue, report.Recommendations[i])
	}
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().StringVar(&auditOrigin, "audit-origin", "", "Origin to audit instead of the configured console origin")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print JSON")
}
