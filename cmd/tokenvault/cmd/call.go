package cmd

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmcleod/tokenvault/client"
	"github.com/jmcleod/tokenvault/vault"
)

var callData string

var callCmd = &cobra.Command{
	Use:   "call <method> <path>",
	Short: "Send an authenticated request to the console backend",
	Long: `Sends a request to the configured backend with the vault's secure headers:
the device fingerprint and, when a valid access token is stored, a bearer
Authorization header. The response body is written to stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		method := strings.ToUpper(args[0])
		ref, err := url.Parse(args[1])
		if err != nil {
			return fmt.Errorf("parsing path: %w", err)
		}
		base, err := cfg.Backend()
		if err != nil {
			return err
		}
		target := base.ResolveReference(ref)

		s, err := openSession(vault.WithSweepInterval(0))
		if err != nil {
			return err
		}
		defer s.Close()

		var body io.Reader
		if callData != "" {
			body = strings.NewReader(callData)
		}
		req, err := http.NewRequestWithContext(cmd.Context(), method, target.String(), body)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := client.NewClient(s.vault, s.jar).Do(req)
		if err != nil {
			return fmt.Errorf("calling backend: %w", err)
		}
		defer resp.Body.Close()

		fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s\n", method, target.Redacted(), resp.Status)
		if _, err := io.Copy(cmd.OutOrStdout(), resp.Body); err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return fmt.Errorf("backend returned %s", resp.Status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
	callCmd.Flags().StringVarP(&callData, "data", "d", "", "JSON request body")
}
