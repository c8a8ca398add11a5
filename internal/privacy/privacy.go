// Package privacy implements the data-subject-rights surface over the
// transaction records: export of a user's payment history and erasure of the
// personal linkage while the financial rows stay behind for audit.
package privacy

import (
	"time"

	"github.com/golang/glog"

	"librapay/internal/constants"
	"librapay/internal/store"
)

// TransactionStore is the subset of the store the privacy surface needs.
type TransactionStore interface {
	ListByUserID(userID string) ([]store.Transaction, error)
	AnonymizeByUserID(userID string) (int64, error)
}

// ExportedTransaction is the per-transaction view handed to the data subject.
type ExportedTransaction struct {
	OrderID  string    `json:"order_id"`
	Amount   string    `json:"amount"`
	Currency string    `json:"currency"`
	Status   string    `json:"status"`
	Outcome  string    `json:"outcome"`
	Created  time.Time `json:"created"`
}

type Service struct {
	store TransactionStore
}

func NewService(txStore TransactionStore) *Service {
	return &Service{store: txStore}
}

// Export returns all of a user's transactions in export shape.
func (s *Service) Export(userID string) ([]ExportedTransaction, error) {
	txs, err := s.store.ListByUserID(userID)
	if err != nil {
		return nil, err
	}

	out := make([]ExportedTransaction, 0, len(txs))
	for _, tx := range txs {
		outcome := "failed"
		if tx.Action == constants.ActionApproved {
			outcome = "approved"
		}
		out = append(out, ExportedTransaction{
			OrderID:  tx.OrderID,
			Amount:   tx.Amount.StringFixed(2),
			Currency: tx.Currency,
			Status:   tx.Status,
			Outcome:  outcome,
			Created:  tx.CreatedAt,
		})
	}
	return out, nil
}

// Erase removes the user linkage from all of the user's transactions and
// returns how many rows were anonymized.
func (s *Service) Erase(userID string) (int64, error) {
	n, err := s.store.AnonymizeByUserID(userID)
	if err != nil {
		return 0, err
	}
	glog.Infof("anonymized %d transactions for user %s", n, userID)
	return n, nil
}
