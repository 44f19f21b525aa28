package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcules/student-success/internal/auth"
)

// NewHashPasswordCommand prints the bcrypt hash for auth.admin_password_hash.
func NewHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash of an admin password",
		Long:  "Print the bcrypt hash of an admin password. Without an argument the password is read from the first line of stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := secretArg(cmd, args)
			if err != nil {
				return err
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return WrapExitError(ExitCommandError, "hash password", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// NewHashKeyCommand prints the sha256 hash for auth.api_key_hashes.
func NewHashKeyCommand(rootOpts *RootOptions) *cobra.Command {
	var generate bool

	cmd := &cobra.Command{
		Use:   "hash-key [key]",
		Short: "Print the stored hash of an API key",
		Long:  "Print the sha256 hash of an API key, or with --generate create a new key and print both.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if generate {
				key, hash, err := auth.GenerateKey()
				if err != nil {
					return WrapExitError(ExitFailure, "generate key", err)
				}
				if rootOpts.Format == "json" {
					return writeJSON(out, map[string]string{"key": key, "hash": hash})
				}
				fmt.Fprintf(out, "key:  %s\nhash: %s\n", key, hash)
				return nil
			}
			key, err := secretArg(cmd, args)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, auth.HashKey(key))
			return nil
		},
	}

	cmd.Flags().BoolVar(&generate, "generate", false, "create a new random key")
	return cmd
}

func secretArg(cmd *cobra.Command, args []string) (string, error) {
	var secret string
	if len(args) == 1 {
		secret = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", NewExitError(ExitCommandError, "no secret given on the command line or stdin")
		}
		secret = line
	}
	secret = strings.TrimRight(secret, "\r\n")
	if secret == "" {
		return "", NewExitError(ExitCommandError, "secret is empty")
	}
	return secret, nil
}
