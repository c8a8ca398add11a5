package gateway

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"librapay/internal/notify"
	"librapay/internal/platform"
	"librapay/internal/store"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

const testKeyHex = "1A2B3C4D5E6F70819203A4B5C6D7E8F9"

func testConfig() *platform.GatewayConfig {
	return &platform.GatewayConfig{
		Enabled:       true,
		TestMode:      true,
		Terminal:      "70000123",
		Merchant:      "700000000123456",
		MerchName:     "Example School",
		MerchURL:      "https://school.example.com",
		Email:         "billing@school.example.com",
		EncryptionKey: testKeyHex,
	}
}

// fakeStore is an in-memory TransactionStore with the same pending-gated
// transition semantics as the SQL implementation.
type fakeStore struct {
	mu  sync.Mutex
	txs map[string]*store.Transaction
}

func newFakeStore() *fakeStore {
	return &fakeStore{txs: make(map[string]*store.Transaction)}
}

func (f *fakeStore) Create(tx *store.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *tx
	f.txs[tx.OrderID] = &cp
	return nil
}

func (f *fakeStore) FindByOrderID(orderID string) (*store.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[orderID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeStore) FindPendingByOrderIDAndToken(orderID, token string) (*store.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[orderID]
	if !ok || tx.Token != token || tx.Status != "pending" {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeStore) FindByOrderIDAndStatus(orderID, status string) (*store.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[orderID]
	if !ok || tx.Status != status {
		return nil, store.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeStore) ExistsByOrderID(orderID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.txs[orderID]
	return ok, nil
}

func (f *fakeStore) UpdateResponseFields(tx *store.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.txs[tx.OrderID]
	if !ok {
		return store.ErrNotFound
	}
	stored.Action = tx.Action
	stored.ResultCode = tx.ResultCode
	stored.Message = tx.Message
	stored.RRN = tx.RRN
	stored.IntRef = tx.IntRef
	stored.Approval = tx.Approval
	return nil
}

func (f *fakeStore) TransitionIfPending(orderID, status string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.txs[orderID]
	if !ok || tx.Status != "pending" {
		return false, nil
	}
	tx.Status = status
	return true, nil
}

// fakePlatform records delivery calls and simulates the payment ledger.
type fakePlatform struct {
	mu sync.Mutex

	config    *platform.GatewayConfig
	configErr error
	payable   *platform.Payable
	surcharge decimal.Decimal

	successURL string

	payments       map[string]bool
	savePayments   int
	deliveredCount int
	deliverErr     error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		config: testConfig(),
		payable: &platform.Payable{
			Amount:    decimal.RequireFromString("10.50"),
			Currency:  "RON",
			AccountID: "7",
		},
		surcharge:  decimal.Zero,
		successURL: "https://school.example.com/course/42",
		payments:   make(map[string]bool),
	}
}

func paymentKey(component, paymentArea, itemID, userID string) string {
	return component + "/" + paymentArea + "/" + itemID + "/" + userID
}

func (f *fakePlatform) GetGatewayConfiguration(component, paymentArea, itemID string) (*platform.GatewayConfig, error) {
	if f.configErr != nil {
		return nil, f.configErr
	}
	return f.config, nil
}

func (f *fakePlatform) GetPayable(component, paymentArea, itemID string) (*platform.Payable, error) {
	return f.payable, nil
}

func (f *fakePlatform) GetGatewaySurcharge() (decimal.Decimal, error) {
	return f.surcharge, nil
}

func (f *fakePlatform) PaymentExists(component, paymentArea, itemID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.payments[paymentKey(component, paymentArea, itemID, userID)], nil
}

func (f *fakePlatform) SavePayment(accountID, component, paymentArea, itemID, userID string, amount decimal.Decimal, currency string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments[paymentKey(component, paymentArea, itemID, userID)] = true
	f.savePayments++
	return "payment-1", nil
}

func (f *fakePlatform) DeliverOrder(component, paymentArea, itemID, paymentID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deliverErr != nil {
		return f.deliverErr
	}
	f.deliveredCount++
	return nil
}

func (f *fakePlatform) GetSuccessURL(component, paymentArea, itemID string) (string, error) {
	return f.successURL, nil
}

func (f *fakePlatform) delivered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deliveredCount
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.PaymentNotification
}

func (f *fakeNotifier) SendPaymentNotification(n notify.PaymentNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) notifications() []notify.PaymentNotification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.PaymentNotification, len(f.sent))
	copy(out, f.sent)
	return out
}
