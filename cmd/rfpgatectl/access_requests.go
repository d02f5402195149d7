package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

type accessRequestItem struct {
	ID           string `json:"id"`
	RFPID        string `json:"rfpId"`
	UserID       string `json:"userId"`
	Status       string `json:"status"`
	Message      string `json:"message"`
	DecidedBy    string `json:"decidedBy"`
	DecisionNote string `json:"decisionNote"`
	CreatedAt    string `json:"createdAt"`
}

var (
	arFilterRFP    string
	arFilterStatus string
	arDecisionNote string
)

var accessRequestsCmd = &cobra.Command{
	Use:     "access-requests",
	Aliases: []string{"ar"},
	Short:   "Review access requests for confidential RFPs",
}

var accessRequestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List access requests",
	RunE:  runAccessRequestsList,
}

var accessRequestsApproveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a pending access request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAccessRequestDecision(args[0], "approve")
	},
}

var accessRequestsRejectCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Reject a pending access request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAccessRequestDecision(args[0], "reject")
	},
}

func init() {
	accessRequestsListCmd.Flags().StringVar(&arFilterRFP, "rfp", "", "Filter by RFP ID")
	accessRequestsListCmd.Flags().StringVar(&arFilterStatus, "status", "", "Filter by status: pending, approved, rejected")
	accessRequestsApproveCmd.Flags().StringVar(&arDecisionNote, "note", "", "Decision note recorded on the request")
	accessRequestsRejectCmd.Flags().StringVar(&arDecisionNote, "note", "", "Decision note recorded on the request")

	accessRequestsCmd.AddCommand(accessRequestsListCmd)
	accessRequestsCmd.AddCommand(accessRequestsApproveCmd)
	accessRequestsCmd.AddCommand(accessRequestsRejectCmd)
}

func runAccessRequestsList(cmd *cobra.Command, args []string) error {
	client := newClient()

	q := url.Values{}
	if arFilterRFP != "" {
		q.Set("rfpId", arFilterRFP)
	}
	if arFilterStatus != "" {
		q.Set("status", arFilterStatus)
	}
	path := apiBase + "/access-requests"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Requests []accessRequestItem `json:"requests"`
	}
	if err := client.getJSON(path, &resp); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(resp)
	}

	rows := make([][]string, 0, len(resp.Requests))
	for _, r := range resp.Requests {
		rows = append(rows, []string{r.ID, r.RFPID, r.UserID, r.Status, truncate(r.Message, 40)})
	}
	printTable([]string{"ID", "RFP", "User", "Status", "Message"}, rows)
	return nil
}

func runAccessRequestDecision(id, verb string) error {
	client := newClient()

	var rec accessRequestItem
	body := map[string]string{"note": arDecisionNote}
	if err := client.postJSON(apiBase+"/access-requests/"+id+"/"+verb, body, &rec); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(rec)
	}

	fmt.Printf("Request %s is now %s\n", rec.ID, rec.Status)
	return nil
}
