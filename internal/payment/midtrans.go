package payment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
)

// SnapRequest is the subset of the Midtrans Snap create-transaction payload
// this service sends. gross_amount is in whole IDR.
type SnapRequest struct {
	TransactionDetails TransactionDetails `json:"transaction_details"`
	CustomerDetails    CustomerDetails    `json:"customer_details"`
}

type TransactionDetails struct {
	OrderID     string `json:"order_id"`
	GrossAmount int64  `json:"gross_amount"`
}

type CustomerDetails struct {
	FirstName string `json:"first_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// SnapToken is what the mobile client needs to open the payment page.
type SnapToken struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type snapErrorResponse struct {
	ErrorMessages []string `json:"error_messages"`
}

// SnapClient issues Snap tokens against the Midtrans API. It carries no
// transaction state; order IDs are minted by the caller.
type SnapClient struct {
	baseURL    string
	serverKey  string
	httpClient *http.Client
}

// NewSnapClient builds a client for the given Snap base URL, e.g.
// https://app.sandbox.midtrans.com/snap/v1.
func NewSnapClient(baseURL, serverKey string, timeout time.Duration) *SnapClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SnapClient{
		baseURL:    baseURL,
		serverKey:  serverKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CreateTransaction requests a Snap token for the given order. Midtrans
// authenticates with HTTP Basic where the username is the server key and the
// password is empty.
func (c *SnapClient) CreateTransaction(ctx context.Context, reqBody SnapRequest) (*SnapToken, error) {
	if reqBody.TransactionDetails.OrderID == "" {
		return nil, shared.NewValidationError("order_id is required")
	}
	if reqBody.TransactionDetails.GrossAmount <= 0 {
		return nil, shared.NewValidationError("gross_amount must be positive")
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal snap request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build snap request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.serverKey+":")))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, shared.NewUnavailableError("payment gateway unreachable: " + err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read snap response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errResp snapErrorResponse
		if json.Unmarshal(body, &errResp) == nil && len(errResp.ErrorMessages) > 0 {
			return nil, shared.NewUnavailableError("payment gateway rejected order: " + errResp.ErrorMessages[0])
		}
		return nil, shared.NewUnavailableError(fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}

	var token SnapToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("decode snap response: %w", err)
	}
	if token.Token == "" {
		return nil, shared.NewUnavailableError("payment gateway returned an empty token")
	}
	return &token, nil
}
