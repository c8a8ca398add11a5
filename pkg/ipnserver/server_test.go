package ipnserver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librapay/internal/constants"
	"librapay/internal/gateway"
	"librapay/internal/notify"
	"librapay/internal/platform"
	"librapay/internal/store"
)

const (
	testKeyHex  = "1A2B3C4D5E6F70819203A4B5C6D7E8F9"
	testOrderID = "912345678901"
)

type memStore struct {
	mu  sync.Mutex
	txs map[string]*store.Transaction
}

func (m *memStore) Create(tx *store.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *tx
	m.txs[tx.OrderID] = &cp
	return nil
}

func (m *memStore) FindByOrderID(orderID string) (*store.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *memStore) FindPendingByOrderIDAndToken(orderID, token string) (*store.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[orderID]
	if !ok || tx.Token != token || tx.Status != constants.StatusPending {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *memStore) FindByOrderIDAndStatus(orderID, status string) (*store.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[orderID]
	if !ok || tx.Status != status {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (m *memStore) ExistsByOrderID(orderID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.txs[orderID]
	return ok, nil
}

func (m *memStore) UpdateResponseFields(tx *store.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.txs[tx.OrderID]; ok {
		stored.Action = tx.Action
		stored.ResultCode = tx.ResultCode
		stored.Message = tx.Message
		stored.RRN = tx.RRN
		stored.IntRef = tx.IntRef
		stored.Approval = tx.Approval
	}
	return nil
}

func (m *memStore) TransitionIfPending(orderID, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[orderID]
	if !ok || tx.Status != constants.StatusPending {
		return false, nil
	}
	tx.Status = status
	return true, nil
}

type memPlatform struct {
	mu        sync.Mutex
	payments  map[string]bool
	delivered int
}

func (m *memPlatform) GetGatewayConfiguration(component, paymentArea, itemID string) (*platform.GatewayConfig, error) {
	return &platform.GatewayConfig{
		Enabled:       true,
		Terminal:      "70000123",
		Merchant:      "700000000123456",
		MerchName:     "Example School",
		MerchURL:      "https://school.example.com",
		Email:         "billing@school.example.com",
		EncryptionKey: testKeyHex,
	}, nil
}

func (m *memPlatform) GetPayable(component, paymentArea, itemID string) (*platform.Payable, error) {
	return &platform.Payable{Amount: decimal.RequireFromString("10.50"), Currency: "RON", AccountID: "7"}, nil
}

func (m *memPlatform) GetGatewaySurcharge() (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (m *memPlatform) PaymentExists(component, paymentArea, itemID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payments[component+itemID+userID], nil
}

func (m *memPlatform) SavePayment(accountID, component, paymentArea, itemID, userID string, amount decimal.Decimal, currency string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[component+itemID+userID] = true
	return "payment-1", nil
}

func (m *memPlatform) DeliverOrder(component, paymentArea, itemID, paymentID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered++
	return nil
}

func (m *memPlatform) GetSuccessURL(component, paymentArea, itemID string) (string, error) {
	return "https://school.example.com/course/42", nil
}

type nopNotifier struct{}

func (nopNotifier) SendPaymentNotification(notify.PaymentNotification) error { return nil }

func newTestServer(t *testing.T, withPending bool) (*Server, *memStore, *memPlatform) {
	t.Helper()

	st := &memStore{txs: make(map[string]*store.Transaction)}
	pl := &memPlatform{payments: make(map[string]bool)}

	if withPending {
		require.NoError(t, st.Create(&store.Transaction{
			OrderID:     testOrderID,
			UserID:      "9001",
			Component:   "enrol_fee",
			PaymentArea: "fee",
			ItemID:      "42",
			Amount:      decimal.RequireFromString("10.50"),
			Currency:    "RON",
			Status:      constants.StatusPending,
			Token:       "tok",
		}))
	}

	reconciler := gateway.NewReconciler(st, pl, nopNotifier{}, nil)
	return NewServer(":0", reconciler), st, pl
}

func approvedForm() url.Values {
	return url.Values{
		"TERMINAL":  {"70000123"},
		"TRTYPE":    {"0"},
		"ORDER":     {testOrderID},
		"AMOUNT":    {"10.50"},
		"CURRENCY":  {"RON"},
		"DESC":      {"Advanced Go course"},
		"ACTION":    {"0"},
		"RC":        {"00"},
		"MESSAGE":   {"Approved"},
		"RRN":       {"527306445746"},
		"INT_REF":   {"A1B2C3D4E5F6A7B8"},
		"APPROVAL":  {"123456"},
		"TIMESTAMP": {"20260830120500"},
		"NONCE":     {"FFEEDDCC00112233FFEEDDCC00112233"},
		"P_SIGN":    {"E422C7BDB7706B5057030583F62A325559DABF0D"},
	}
}

func postIPN(t *testing.T, srv *Server, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ipn", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIPNApprovedAcks(t *testing.T) {
	srv, st, pl := newTestServer(t, true)

	rec := postIPN(t, srv, approvedForm())
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Body.String())

	tx, err := st.FindByOrderID(testOrderID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, tx.Status)
	assert.Equal(t, 1, pl.delivered)
}

func TestIPNRetryStillAcks(t *testing.T) {
	srv, _, pl := newTestServer(t, true)

	postIPN(t, srv, approvedForm())
	rec := postIPN(t, srv, approvedForm())

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Body.String())
	assert.Equal(t, 1, pl.delivered)
}

func TestIPNUnknownOrderRequestsRetry(t *testing.T) {
	srv, st, _ := newTestServer(t, false)

	rec := postIPN(t, srv, approvedForm())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEqual(t, "1", strings.TrimSpace(rec.Body.String()))

	// the notification must not create a transaction
	exists, _ := st.ExistsByOrderID(testOrderID)
	assert.False(t, exists)
}

func TestIPNForgedSignatureRejected(t *testing.T) {
	srv, st, pl := newTestServer(t, true)

	form := approvedForm()
	form.Set("AMOUNT", "0.01")

	rec := postIPN(t, srv, form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tx, _ := st.FindByOrderID(testOrderID)
	assert.Equal(t, constants.StatusPending, tx.Status)
	assert.Equal(t, 0, pl.delivered)
}

func TestIPNMissingFieldsRejected(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	rec := postIPN(t, srv, url.Values{"ORDER": {testOrderID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIPNMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/ipn", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
