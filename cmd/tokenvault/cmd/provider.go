package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/tokenvault/dotoken"
	"github.com/jmcleod/tokenvault/internal/util"
	"github.com/jmcleod/tokenvault/vault"
)

var (
	providerKeyFile string
	providerReveal  bool
)

var providerCmd = &cobra.Command{
	Use:   "provider",
	Short: "Cloud-provider API token helpers",
	Long: `Validate cloud-provider tokens (dop_v1_ followed by 64 lowercase hex
characters) and encrypt them for transport to the backend. Tokens are read
from the terminal without echo, or from stdin.`,
}

var providerValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the format of a provider token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := readSecret(cmd, "Provider token: ")
		if err != nil {
			return err
		}
		res := dotoken.Validate(token)
		if !res.Valid {
			return errors.New(res.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "valid: %s\n", dotoken.Mask(token))
		return nil
	},
}

var providerEncryptCmd = &cobra.Command{
	Use:   "encrypt",
	Short: "Encrypt a provider token for transport",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := readSecret(cmd, "Provider token: ")
		if err != nil {
			return err
		}
		if res := dotoken.Validate(token); !res.Valid {
			return errors.New(res.Error)
		}

		s, opts, err := openTransport()
		if err != nil {
			return err
		}
		defer s.Close()

		ct, err := s.vault.EncryptDOToken(token, opts...)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ct)
		return nil
	},
}

var providerDecryptCmd = &cobra.Command{
	Use:   "decrypt <ciphertext>",
	Short: "Decrypt a transport ciphertext",
	Long: `Decrypt a value produced by "provider encrypt" with the same key. The
token is printed masked unless --reveal is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, opts, err := openTransport()
		if err != nil {
			return err
		}
		defer s.Close()

		token, err := s.vault.DecryptDOToken(args[0], opts...)
		if err != nil {
			return err
		}
		if providerReveal {
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), dotoken.Mask(token))
		return nil
	},
}

// openTransport opens a session and the transport options selected by
// --key-file.
func openTransport() (*session, []vault.TransportOption, error) {
	key, err := readKeyFile(providerKeyFile)
	if err != nil {
		return nil, nil, err
	}
	s, err := openSession(vault.WithSweepInterval(0))
	if err != nil {
		util.WipeBytes(key)
		return nil, nil, err
	}
	if key == nil {
		return s, nil, nil
	}
	return s, []vault.TransportOption{vault.WithTransportKey(key)}, nil
}

func init() {
	rootCmd.AddCommand(providerCmd)
	providerCmd.AddCommand(providerValidateCmd, providerEncryptCmd, providerDecryptCmd)
	providerCmd.PersistentFlags().StringVar(&providerKeyFile, "key-file", "", "File holding a transport key shared with the backend; defaults to the vault key")
	providerDecryptCmd.Flags().BoolVar(&providerReveal, "reveal", false, "Print the plaintext token")
}
