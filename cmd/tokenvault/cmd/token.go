package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmcleod/tokenvault/vault"
)

var tokenListJSON bool

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage session tokens",
	Long: `Store, read, and remove the session tokens held in the vault.
Slots are "access" and "refresh".`,
}

var tokenStoreCmd = &cobra.Command{
	Use:   "store <slot>",
	Short: "Store a token read from the terminal or stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		token, err := readSecret(cmd, fmt.Sprintf("%s token: ", slot))
		if err != nil {
			return err
		}

		s, err := openSession(vault.WithSweepInterval(0))
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.vault.StoreToken(slot, token); err != nil {
			return err
		}
		for _, info := range s.vault.Tokens() {
			if info.Slot == slot {
				fmt.Fprintf(cmd.OutOrStdout(), "stored %s token, expires %s\n", slot, info.ExpiresAt.Format(time.RFC3339))
			}
		}
		if cfg.SessionFile == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning: no session file configured; this token is unreadable once the process exits")
		}
		return nil
	},
}

var tokenGetCmd = &cobra.Command{
	Use:   "get <slot>",
	Short: "Print a token if it is present and valid",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		s, err := openSession(vault.WithSweepInterval(0))
		if err != nil {
			return err
		}
		defer s.Close()

		res := s.vault.Lookup(slot)
		switch res.Status {
		case vault.StatusValid:
			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
			return nil
		case vault.StatusRejected:
			return fmt.Errorf("%s token rejected (%s) and removed", slot, res.Reason)
		default:
			return fmt.Errorf("no %s token stored", slot)
		}
	},
}

var tokenRemoveCmd = &cobra.Command{
	Use:   "remove <slot>",
	Short: "Remove one token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := parseSlot(args[0])
		if err != nil {
			return err
		}
		s, err := openSession(vault.WithSweepInterval(0))
		if err != nil {
			return err
		}
		defer s.Close()

		s.vault.RemoveToken(slot)
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s token\n", slot)
		return nil
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(vault.WithSweepInterval(0))
		if err != nil {
			return err
		}
		defer s.Close()

		s.vault.ClearAllTokens()
		fmt.Fprintln(cmd.OutOrStdout(), "cleared all tokens")
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List token metadata",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(vault.WithSweepInterval(0))
		if err != nil {
			return err
		}
		defer s.Close()

		infos := s.vault.Tokens()
		if tokenListJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(infos)
		}
		if len(infos) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no tokens stored")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLOT\tCREATED\tEXPIRES\tLAST USED\tUSES")
		for _, info := range infos {
			lastUsed := "-"
			if !info.LastUsedAt.IsZero() {
				lastUsed = info.LastUsedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
				info.Slot,
				info.CreatedAt.Format(time.RFC3339),
				info.ExpiresAt.Format(time.RFC3339),
				lastUsed,
				info.UseCount,
			)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenStoreCmd, tokenGetCmd, tokenRemoveCmd, tokenClearCmd, tokenListCmd)
	tokenListCmd.Flags().BoolVar(&tokenListJSON, "json", false, "Print JSON")
}
