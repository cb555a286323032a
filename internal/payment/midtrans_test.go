package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gerakkita/service-transit/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapRequest() SnapRequest {
	return SnapRequest{
		TransactionDetails: TransactionDetails{OrderID: "TXN-ABCD2345", GrossAmount: 15000},
		CustomerDetails:    CustomerDetails{FirstName: "Budi", Email: "budi@example.com"},
	}
}

func TestCreateTransaction_ReturnsToken(t *testing.T) {
	var gotAuth string
	var gotBody SnapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(SnapToken{Token: "snap-token-123", RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/snap-token-123"})
	}))
	defer srv.Close()

	client := NewSnapClient(srv.URL, "SB-Mid-server-testkey", time.Second)
	token, err := client.CreateTransaction(context.Background(), snapRequest())

	require.NoError(t, err)
	assert.Equal(t, "snap-token-123", token.Token)
	assert.NotEmpty(t, token.RedirectURL)
	assert.Equal(t, "Basic U0ItTWlkLXNlcnZlci10ZXN0a2V5Og==", gotAuth)
	assert.Equal(t, "TXN-ABCD2345", gotBody.TransactionDetails.OrderID)
	assert.Equal(t, int64(15000), gotBody.TransactionDetails.GrossAmount)
}

func TestCreateTransaction_SurfacesGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(snapErrorResponse{ErrorMessages: []string{"Access denied due to unauthorized transaction"}})
	}))
	defer srv.Close()

	client := NewSnapClient(srv.URL, "wrong-key", time.Second)
	_, err := client.CreateTransaction(context.Background(), snapRequest())

	assert.Equal(t, shared.KindUnavailable, shared.KindOf(err))
	assert.Contains(t, err.Error(), "Access denied")
}

func TestCreateTransaction_RejectsEmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(SnapToken{})
	}))
	defer srv.Close()

	client := NewSnapClient(srv.URL, "SB-Mid-server-testkey", time.Second)
	_, err := client.CreateTransaction(context.Background(), snapRequest())

	assert.Equal(t, shared.KindUnavailable, shared.KindOf(err))
}

func TestCreateTransaction_ValidatesInput(t *testing.T) {
	client := NewSnapClient("http://localhost:0", "key", time.Second)

	req := snapRequest()
	req.TransactionDetails.OrderID = ""
	_, err := client.CreateTransaction(context.Background(), req)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))

	req = snapRequest()
	req.TransactionDetails.GrossAmount = 0
	_, err = client.CreateTransaction(context.Background(), req)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
}

func TestCreateTransaction_UnreachableGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewSnapClient(srv.URL, "key", time.Second)
	_, err := client.CreateTransaction(context.Background(), snapRequest())

	assert.Equal(t, shared.KindUnavailable, shared.KindOf(err))
}
