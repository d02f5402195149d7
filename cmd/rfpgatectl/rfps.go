package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rfpItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	Status      string `json:"status"`
	ClientID    string `json:"clientId"`
	CreatedAt   string `json:"createdAt"`
}

type documentItem struct {
	ID          string `json:"id"`
	RFPID       string `json:"rfpId"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	RequiresNDA bool   `json:"requiresNda"`
}

var rfpsCmd = &cobra.Command{
	Use:   "rfps",
	Short: "Inspect and manage RFPs",
}

var rfpsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List RFPs visible to the acting user",
	RunE:  runRFPsList,
}

var rfpsGetCmd = &cobra.Command{
	Use:   "get <rfp-id>",
	Short: "Get a single RFP",
	Args:  cobra.ExactArgs(1),
	RunE:  runRFPsGet,
}

var rfpsDocumentsCmd = &cobra.Command{
	Use:   "documents <rfp-id>",
	Short: "List an RFP's documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runRFPsDocuments,
}

func init() {
	rfpsCmd.AddCommand(rfpsListCmd)
	rfpsCmd.AddCommand(rfpsGetCmd)
	rfpsCmd.AddCommand(rfpsDocumentsCmd)
}

func runRFPsList(cmd *cobra.Command, args []string) error {
	client := newClient()

	var resp struct {
		RFPs []rfpItem `json:"rfps"`
	}
	if err := client.getJSON(apiBase+"/rfps", &resp); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(resp)
	}

	rows := make([][]string, 0, len(resp.RFPs))
	for _, r := range resp.RFPs {
		rows = append(rows, []string{r.ID, truncate(r.Title, 40), r.Visibility, r.Status, r.ClientID})
	}
	printTable([]string{"ID", "Title", "Visibility", "Status", "Client"}, rows)
	return nil
}

func runRFPsGet(cmd *cobra.Command, args []string) error {
	client := newClient()

	var r rfpItem
	if err := client.getJSON(apiBase+"/rfps/"+args[0], &r); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(r)
	}

	printTable([]string{"Field", "Value"}, [][]string{
		{"ID", r.ID},
		{"Title", r.Title},
		{"Description", truncate(r.Description, 60)},
		{"Visibility", r.Visibility},
		{"Status", r.Status},
		{"Client", r.ClientID},
		{"Created", r.CreatedAt},
	})
	return nil
}

func runRFPsDocuments(cmd *cobra.Command, args []string) error {
	client := newClient()

	var resp struct {
		Documents []documentItem `json:"documents"`
	}
	if err := client.getJSON(apiBase+"/rfps/"+args[0]+"/documents", &resp); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(resp)
	}

	rows := make([][]string, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		rows = append(rows, []string{d.ID, truncate(d.Name, 40), d.ContentType, fmt.Sprintf("%t", d.RequiresNDA)})
	}
	printTable([]string{"ID", "Name", "Content-Type", "NDA"}, rows)
	return nil
}
