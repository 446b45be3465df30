package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/tokenvault/vault"
)

var wipeYes bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Destroy every stored credential",
	Long: `Emergency wipe: clears all tokens, empties durable and session storage,
and starts a fresh session. This cannot be undone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !wipeYes {
			ok, err := confirm(cmd, "Type 'wipe' to destroy all stored credentials: ", "wipe")
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("wipe aborted")
			}
		}

		s, err := openSession(vault.WithSweepInterval(0))
		if err != nil {
			return err
		}
		defer s.Close()

		s.vault.EmergencyWipe()
		fmt.Fprintln(cmd.OutOrStdout(), "all credentials wiped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wipeCmd)
	wipeCmd.Flags().BoolVarP(&wipeYes, "yes", "y", false, "Skip the confirmation prompt")
}
