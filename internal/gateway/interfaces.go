package gateway

import (
	"github.com/shopspring/decimal"

	"librapay/internal/notify"
	"librapay/internal/platform"
	"librapay/internal/store"
)

// TransactionStore is the persistence surface the gateway core needs. All
// reads are strongly consistent with prior writes.
type TransactionStore interface {
	Create(tx *store.Transaction) error
	FindByOrderID(orderID string) (*store.Transaction, error)
	FindPendingByOrderIDAndToken(orderID, token string) (*store.Transaction, error)
	FindByOrderIDAndStatus(orderID, status string) (*store.Transaction, error)
	ExistsByOrderID(orderID string) (bool, error)
	UpdateResponseFields(tx *store.Transaction) error
	TransitionIfPending(orderID, status string) (bool, error)
}

// PlatformClient is the host platform's core-payment collaborator surface.
type PlatformClient interface {
	GetGatewayConfiguration(component, paymentArea, itemID string) (*platform.GatewayConfig, error)
	GetPayable(component, paymentArea, itemID string) (*platform.Payable, error)
	GetGatewaySurcharge() (decimal.Decimal, error)
	PaymentExists(component, paymentArea, itemID, userID string) (bool, error)
	SavePayment(accountID, component, paymentArea, itemID, userID string, amount decimal.Decimal, currency string) (string, error)
	DeliverOrder(component, paymentArea, itemID, paymentID, userID string) error
	GetSuccessURL(component, paymentArea, itemID string) (string, error)
}

// Notifier delivers user-facing payment outcome messages.
type Notifier interface {
	SendPaymentNotification(n notify.PaymentNotification) error
}

// OrderLocker serializes reconciliation per order id. Implementations return
// ok=false when another invocation holds the lock.
type OrderLocker func(orderID string) (release func(), ok bool, err error)

// NoopLocker is used when Redis is unavailable (dev mode); the store-level
// conditional transition remains the delivery guard.
func NoopLocker(orderID string) (func(), bool, error) {
	return func() {}, true, nil
}
