package main

import (
	"fmt"

	"github.com/jonathan/lead-scraper/internal/schemas"
	"github.com/spf13/cobra"
)

var (
	validateJSON   string
	validateSchema string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a JSON file against an embedded schema",
	Long:  `Checks a search output file (default schema leads.schema.json) or a business info document against its JSON Schema.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := schemas.ValidateFile(validateSchema, validateJSON); err != nil {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Validation failed")
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Validation passed")
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateJSON, "json", "", "Path to the JSON file to validate")
	validateCmd.Flags().StringVar(&validateSchema, "schema", schemas.LeadsSchema, "Embedded schema name")
	_ = validateCmd.MarkFlagRequired("json")
	rootCmd.AddCommand(validateCmd)
}
