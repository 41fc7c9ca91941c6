package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"gbbackend/clients"
	"gbbackend/models"
	"gbbackend/services"
)

// SyncUseCase mirrors a user's paid Freelancer.com work into their connected
// QuickBooks company. All provider traffic goes through the connections
// service, which handles token freshness and the 401 retry bound.
type SyncUseCase struct {
	connectionsService services.ConnectionsService
}

func NewSyncUseCase(connectionsService services.ConnectionsService) *SyncUseCase {
	return &SyncUseCase{connectionsService: connectionsService}
}

// Freelancer wire format for the projects listing
type freelancerProjectsResponse struct {
	Result struct {
		Projects []struct {
			ID       int64  `json:"id"`
			Title    string `json:"title"`
			Currency struct {
				Code string `json:"code"`
			} `json:"currency"`
			AmountPaid    decimal.Decimal `json:"amount_paid"`
			TimeSubmitted int64           `json:"time_submitted"`
		} `json:"projects"`
	} `json:"result"`
}

// QuickBooks wire format for invoice creation
type quickbooksInvoiceResponse struct {
	Invoice struct {
		ID        string          `json:"Id"`
		DocNumber string          `json:"DocNumber"`
		TotalAmt  decimal.Decimal `json:"TotalAmt"`
		TxnDate   string          `json:"TxnDate"`
	} `json:"Invoice"`
}

// SyncEarnings fetches the user's completed, paid Freelancer projects and
// creates one QuickBooks invoice per project.
func (u *SyncUseCase) SyncEarnings(ctx context.Context, userID string) (*models.EarningsSyncResult, error) {
	log.Printf("📋 Starting earnings sync for user: %s", userID)

	projects, err := u.fetchPaidProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch paid projects: %w", err)
	}

	result := &models.EarningsSyncResult{
		UserID:          userID,
		ProjectsFetched: len(projects),
		TotalSynced:     decimal.Zero,
	}

	if len(projects) == 0 {
		log.Printf("📋 No paid projects to sync for user %s", userID)
		result.CompletedAt = time.Now().UTC()
		return result, nil
	}

	realmID, err := u.quickbooksRealmID(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, project := range projects {
		invoice, err := u.createInvoice(ctx, userID, realmID, project)
		if err != nil {
			return nil, fmt.Errorf("failed to create invoice for project %d: %w", project.ProjectID, err)
		}
		log.Printf("📋 Created invoice %s for project %q (%s %s)",
			invoice.InvoiceID, project.Title, project.AmountPaid, project.Currency)
		result.InvoicesCreated++
		result.TotalSynced = result.TotalSynced.Add(project.AmountPaid)
	}

	result.CompletedAt = time.Now().UTC()
	log.Printf("📋 Completed successfully - synced %d invoices totalling %s for user %s",
		result.InvoicesCreated, result.TotalSynced, userID)
	return result, nil
}

// ListRecentInvoices queries the connected QuickBooks company for its most
// recent invoices.
func (u *SyncUseCase) ListRecentInvoices(ctx context.Context, userID string) ([]models.QuickBooksInvoice, error) {
	log.Printf("📋 Starting to list recent invoices for user: %s", userID)

	realmID, err := u.quickbooksRealmID(ctx, userID)
	if err != nil {
		return nil, err
	}

	query := url.QueryEscape("SELECT * FROM Invoice ORDER BY TxnDate DESC MAXRESULTS 25")
	resp, err := u.connectionsService.CallWithAuth(ctx, userID, models.ProviderQuickBooks, clients.ResourceRequest{
		Method: "GET",
		Path:   fmt.Sprintf("/v3/company/%s/query?query=%s", realmID, query),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}

	var queryResp struct {
		QueryResponse struct {
			Invoice []struct {
				ID        string          `json:"Id"`
				DocNumber string          `json:"DocNumber"`
				TotalAmt  decimal.Decimal `json:"TotalAmt"`
				TxnDate   string          `json:"TxnDate"`
				CurrencyRef struct {
					Value string `json:"value"`
				} `json:"CurrencyRef"`
				CustomerRef struct {
					Value string `json:"value"`
				} `json:"CustomerRef"`
			} `json:"Invoice"`
		} `json:"QueryResponse"`
	}
	if err := json.Unmarshal(resp.Body, &queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode invoice query response: %w", err)
	}

	invoices := make([]models.QuickBooksInvoice, 0, len(queryResp.QueryResponse.Invoice))
	for _, inv := range queryResp.QueryResponse.Invoice {
		txnDate, _ := time.Parse("2006-01-02", inv.TxnDate)
		invoices = append(invoices, models.QuickBooksInvoice{
			InvoiceID:   inv.ID,
			DocNumber:   inv.DocNumber,
			CustomerRef: inv.CustomerRef.Value,
			Currency:    inv.CurrencyRef.Value,
			TotalAmount: inv.TotalAmt,
			TxnDate:     txnDate,
		})
	}

	log.Printf("📋 Completed successfully - found %d invoices", len(invoices))
	return invoices, nil
}

func (u *SyncUseCase) fetchPaidProjects(ctx context.Context, userID string) ([]models.FreelancerProject, error) {
	resp, err := u.connectionsService.CallWithAuth(ctx, userID, models.ProviderFreelancer, clients.ResourceRequest{
		Method: "GET",
		Path:   "/projects/0.1/projects/?statuses[]=closed&role=freelancer&limit=50",
	})
	if err != nil {
		return nil, err
	}

	var projectsResp freelancerProjectsResponse
	if err := json.Unmarshal(resp.Body, &projectsResp); err != nil {
		return nil, fmt.Errorf("failed to decode projects response: %w", err)
	}

	projects := make([]models.FreelancerProject, 0, len(projectsResp.Result.Projects))
	for _, p := range projectsResp.Result.Projects {
		// Unpaid or zero-value projects have nothing to invoice
		if p.AmountPaid.IsZero() {
			continue
		}
		projects = append(projects, models.FreelancerProject{
			ProjectID:   p.ID,
			Title:       p.Title,
			Currency:    p.Currency.Code,
			AmountPaid:  p.AmountPaid,
			CompletedAt: time.Unix(p.TimeSubmitted, 0).UTC(),
		})
	}

	return projects, nil
}

func (u *SyncUseCase) quickbooksRealmID(ctx context.Context, userID string) (string, error) {
	maybeConn, err := u.connectionsService.GetConnection(ctx, userID, models.ProviderQuickBooks)
	if err != nil {
		return "", fmt.Errorf("failed to get QuickBooks connection: %w", err)
	}
	if !maybeConn.IsPresent() || !maybeConn.MustGet().Connected() {
		return "", fmt.Errorf("quickbooks is not connected")
	}
	return *maybeConn.MustGet().ExternalAccountID, nil
}

func (u *SyncUseCase) createInvoice(
	ctx context.Context,
	userID, realmID string,
	project models.FreelancerProject,
) (*models.QuickBooksInvoice, error) {
	amount, _ := project.AmountPaid.Float64()
	body, err := json.Marshal(map[string]any{
		"DocNumber": "FL-" + strconv.FormatInt(project.ProjectID, 10),
		"Line": []map[string]any{
			{
				"Amount":      amount,
				"Description": project.Title,
				"DetailType":  "SalesItemLineDetail",
				"SalesItemLineDetail": map[string]any{
					"ItemRef": map[string]string{"value": "1"},
				},
			},
		},
		"CustomerRef": map[string]string{"value": "1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice: %w", err)
	}

	resp, err := u.connectionsService.CallWithAuth(ctx, userID, models.ProviderQuickBooks, clients.ResourceRequest{
		Method: "POST",
		Path:   fmt.Sprintf("/v3/company/%s/invoice", realmID),
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var invoiceResp quickbooksInvoiceResponse
	if err := json.Unmarshal(resp.Body, &invoiceResp); err != nil {
		return nil, fmt.Errorf("failed to decode invoice response: %w", err)
	}

	txnDate, _ := time.Parse("2006-01-02", invoiceResp.Invoice.TxnDate)
	return &models.QuickBooksInvoice{
		InvoiceID:   invoiceResp.Invoice.ID,
		DocNumber:   invoiceResp.Invoice.DocNumber,
		Currency:    project.Currency,
		TotalAmount: invoiceResp.Invoice.TotalAmt,
		TxnDate:     txnDate,
	}, nil
}
