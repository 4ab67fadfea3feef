package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/example/ec-marketplace/internal/domain/order"
)

var (
	// ErrTransactionNotFound means the processor has no record for the
	// reference yet, typically because the buyer has not completed the
	// interactive payment step. Callers treat this as "stay pending".
	ErrTransactionNotFound = errors.New("transaction not found at processor")

	// ErrProcessor covers unreachable-processor and unexpected-response
	// failures.
	ErrProcessor = errors.New("payment processor error")
)

// Config carries the processor credentials and endpoint. It is constructed
// explicitly in main and passed into NewClient; nothing here is read from
// ambient globals.
type Config struct {
	BaseURL   string
	ServerKey string
	Timeout   time.Duration
}

// Client wraps the external payment processor's hosted-payment API. It
// exposes exactly two operations: creating a payment session for an order
// and querying a transaction's status by order reference.
type Client struct {
	baseURL    string
	serverKey  string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		serverKey:  cfg.ServerKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SessionRequest is the payload for creating a hosted-payment session.
type SessionRequest struct {
	Reference  string
	Amount     int64
	BuyerName  string
	BuyerEmail string
	Items      []order.Item
}

type sessionItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
}

type sessionPayload struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount int64  `json:"gross_amount"`
	} `json:"transaction_details"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
	} `json:"customer_details"`
	ItemDetails []sessionItem `json:"item_details"`
}

type sessionResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// CreateSession creates a hosted-payment session and returns its token. It
// is a one-shot attempt with no retry; the buyer is waiting on an
// interactive checkout call, so on failure the order must be canceled and
// the error surfaced instead of retried silently.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	var payload sessionPayload
	payload.TransactionDetails.OrderID = req.Reference
	payload.TransactionDetails.GrossAmount = req.Amount
	payload.CustomerDetails.FirstName = req.BuyerName
	payload.CustomerDetails.Email = req.BuyerEmail
	for _, item := range req.Items {
		payload.ItemDetails = append(payload.ItemDetails, sessionItem{
			ID:       item.ProductID,
			Name:     item.Title,
			Price:    item.UnitPrice,
			Quantity: item.Quantity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/snap/v1/transactions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProcessor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: session creation returned %d: %s", ErrProcessor, resp.StatusCode, readBody(resp.Body))
	}

	var session sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("%w: invalid session response: %v", ErrProcessor, err)
	}
	if session.Token == "" {
		return "", fmt.Errorf("%w: session response missing token", ErrProcessor)
	}

	return session.Token, nil
}

// QueryStatus fetches the processor-side status for an order reference.
// A processor 404 maps to ErrTransactionNotFound, a normal outcome meaning
// the buyer has not paid yet.
func (c *Client) QueryStatus(ctx context.Context, reference string) (*TransactionStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/"+reference+"/status", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProcessor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrTransactionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status query returned %d: %s", ErrProcessor, resp.StatusCode, readBody(resp.Body))
	}

	var status TransactionStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("%w: invalid status response: %v", ErrProcessor, err)
	}

	// Some processors report 404 inside a 200 envelope.
	if status.StatusCode == "404" {
		return nil, ErrTransactionNotFound
	}

	return &status, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.serverKey, "")
}

func readBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 512))
	if err != nil {
		return ""
	}
	return string(data)
}
