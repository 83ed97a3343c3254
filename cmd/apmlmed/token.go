package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tomiamao/apmlme/internal/smebridge"
)

var tokenSubject string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage SME bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for an SME connection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if c.SME.JWTSecret == "" {
			return errors.New("sme.jwt_secret is not set")
		}

		tok, err := smebridge.IssueToken([]byte(c.SME.JWTSecret), tokenSubject, c.SME.TokenTTL)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
		return err
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenSubject, "subject", "sme", "token subject")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}
