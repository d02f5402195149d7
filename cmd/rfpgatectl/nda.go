package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

type ndaRecordItem struct {
	ID              string `json:"id"`
	RFPID           string `json:"rfpId"`
	UserID          string `json:"userId"`
	CompanyID       string `json:"companyId"`
	Status          string `json:"status"`
	SignerName      string `json:"signerName"`
	RejectionReason string `json:"rejectionReason"`
}

type ndaPartyStatus struct {
	Exists                  bool   `json:"exists"`
	ID                      string `json:"id"`
	Status                  string `json:"status"`
	SignaturePresent        bool   `json:"signaturePresent"`
	CountersignaturePresent bool   `json:"countersignaturePresent"`
	RejectionReason         string `json:"rejectionReason"`
}

type auditEntryItem struct {
	ID        string         `json:"id"`
	NDAID     string         `json:"ndaId"`
	NDAKind   string         `json:"ndaKind"`
	Action    string         `json:"action"`
	Actor     string         `json:"actor"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt string         `json:"createdAt"`
}

var (
	ndaCountersignName  string
	ndaCountersignTitle string
	ndaRejectReason     string
	ndaAuditPageSize    int
	ndaAuditPageToken   string
)

var ndaCmd = &cobra.Command{
	Use:   "nda",
	Short: "Drive the NDA countersignature workflow",
}

var ndaStatusCmd = &cobra.Command{
	Use:   "status <rfp-id>",
	Short: "Show the acting user's NDA standing for an RFP",
	Args:  cobra.ExactArgs(1),
	RunE:  runNDAStatus,
}

var ndaCountersignCmd = &cobra.Command{
	Use:   "countersign <kind> <nda-id>",
	Short: "Countersign a signed NDA (kind: individual or company)",
	Args:  cobra.ExactArgs(2),
	RunE:  runNDACountersign,
}

var ndaRejectCmd = &cobra.Command{
	Use:   "reject <kind> <nda-id>",
	Short: "Reject a signed NDA (kind: individual or company)",
	Args:  cobra.ExactArgs(2),
	RunE:  runNDAReject,
}

var ndaAuditCmd = &cobra.Command{
	Use:   "audit <kind> <nda-id>",
	Short: "Read an NDA's audit trail",
	Args:  cobra.ExactArgs(2),
	RunE:  runNDAAudit,
}

func init() {
	ndaCountersignCmd.Flags().StringVar(&ndaCountersignName, "name", "", "Countersigner name (required)")
	ndaCountersignCmd.Flags().StringVar(&ndaCountersignTitle, "title", "", "Countersigner title")
	ndaRejectCmd.Flags().StringVar(&ndaRejectReason, "reason", "", "Rejection reason (required)")
	ndaAuditCmd.Flags().IntVar(&ndaAuditPageSize, "page-size", 0, "Entries per page")
	ndaAuditCmd.Flags().StringVar(&ndaAuditPageToken, "page-token", "", "Continuation token from a previous page")

	ndaCmd.AddCommand(ndaStatusCmd)
	ndaCmd.AddCommand(ndaCountersignCmd)
	ndaCmd.AddCommand(ndaRejectCmd)
	ndaCmd.AddCommand(ndaAuditCmd)
}

func runNDAStatus(cmd *cobra.Command, args []string) error {
	client := newClient()

	var view struct {
		RFPID      string         `json:"rfpId"`
		Individual ndaPartyStatus `json:"individual"`
		Company    ndaPartyStatus `json:"company"`
	}
	if err := client.getJSON(apiBase+"/rfps/"+args[0]+"/nda/status", &view); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(view)
	}

	rows := [][]string{
		partyRow("individual", view.Individual),
		partyRow("company", view.Company),
	}
	printTable([]string{"Kind", "NDA ID", "Status", "Countersigned", "Rejection Reason"}, rows)
	return nil
}

func partyRow(kind string, p ndaPartyStatus) []string {
	if !p.Exists {
		return []string{kind, "-", "none", "-", "-"}
	}
	return []string{kind, p.ID, p.Status, fmt.Sprintf("%t", p.CountersignaturePresent), p.RejectionReason}
}

func runNDACountersign(cmd *cobra.Command, args []string) error {
	if ndaCountersignName == "" {
		return fmt.Errorf("--name is required")
	}
	client := newClient()

	var rec ndaRecordItem
	body := map[string]string{"name": ndaCountersignName, "title": ndaCountersignTitle}
	if err := client.postJSON(apiBase+"/ndas/"+args[0]+"/"+args[1]+"/countersign", body, &rec); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(rec)
	}

	fmt.Printf("NDA %s is now %s\n", rec.ID, rec.Status)
	return nil
}

func runNDAReject(cmd *cobra.Command, args []string) error {
	if ndaRejectReason == "" {
		return fmt.Errorf("--reason is required")
	}
	client := newClient()

	var rec ndaRecordItem
	body := map[string]string{"reason": ndaRejectReason}
	if err := client.postJSON(apiBase+"/ndas/"+args[0]+"/"+args[1]+"/reject", body, &rec); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(rec)
	}

	fmt.Printf("NDA %s is now %s\n", rec.ID, rec.Status)
	return nil
}

func runNDAAudit(cmd *cobra.Command, args []string) error {
	client := newClient()

	q := url.Values{}
	if ndaAuditPageSize > 0 {
		q.Set("pageSize", fmt.Sprintf("%d", ndaAuditPageSize))
	}
	if ndaAuditPageToken != "" {
		q.Set("pageToken", ndaAuditPageToken)
	}
	path := apiBase + "/ndas/" + args[0] + "/" + args[1] + "/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Entries       []auditEntryItem `json:"entries"`
		NextPageToken string           `json:"nextPageToken"`
	}
	if err := client.getJSON(path, &resp); err != nil {
		return err
	}

	if outputFmt == "json" || outputFmt == "yaml" {
		return printOutput(resp)
	}

	rows := make([][]string, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		rows = append(rows, []string{e.CreatedAt, e.Action, e.Actor})
	}
	printTable([]string{"Time", "Action", "Actor"}, rows)
	if resp.NextPageToken != "" {
		fmt.Printf("\nNext page: --page-token %s\n", resp.NextPageToken)
	}
	return nil
}
