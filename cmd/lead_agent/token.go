package main

import (
	"fmt"

	"github.com/jonathan/lead-scraper/internal/config"
	"github.com/jonathan/lead-scraper/internal/server"
	"github.com/spf13/cobra"
)

var tokenClient string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token",
	Long:  `Signs a bearer token for the named client with API_JWT_SECRET. Tokens expire after JWT_EXPIRATION_HOURS (default 24).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		jwtConfig, err := config.NewJWTConfig()
		if err != nil {
			return err
		}
		token, err := server.NewJWTService(jwtConfig).GenerateToken(tokenClient)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenClient, "client", "", "Client name embedded in the token")
	_ = tokenCmd.MarkFlagRequired("client")
	rootCmd.AddCommand(tokenCmd)
}
