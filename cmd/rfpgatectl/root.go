package main

import (
	"github.com/spf13/cobra"
)

var (
	serverURL     string
	outputFmt     string
	asUser        string
	asRole        string
	asCompany     string
	asCompanyRole string
)

var rootCmd = &cobra.Command{
	Use:   "rfpgatectl",
	Short: "CLI for the rfpgate server",
	Long: `rfpgatectl drives the procurement portal's access-control engine from
the command line: inspect RFPs, review access requests, countersign or
reject NDAs, and read audit trails.

Identity is asserted through the same trusted proxy headers the server
expects; use --as-user and --as-role to act as a given principal.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "rfpgate server URL")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&asUser, "as-user", "", "User ID to act as (X-Remote-User)")
	rootCmd.PersistentFlags().StringVar(&asRole, "as-role", "admin", "Role to act as: admin, client_reviewer, bidder")
	rootCmd.PersistentFlags().StringVar(&asCompany, "as-company", "", "Company ID to act as")
	rootCmd.PersistentFlags().StringVar(&asCompanyRole, "as-company-role", "", "Company role to act as: admin, member")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(rfpsCmd)
	rootCmd.AddCommand(accessRequestsCmd)
	rootCmd.AddCommand(ndaCmd)
}
