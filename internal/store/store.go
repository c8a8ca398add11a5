// Package store owns the transactions table, the single source of truth for
// every payment order handed to the provider.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"librapay/internal/constants"
)

// ErrNotFound is returned by lookups that match no transaction.
var ErrNotFound = errors.New("transaction not found")

// Transaction is one order's lifecycle record. The provider response mirror
// columns (action..approval) always hold the last values seen on either
// callback channel.
type Transaction struct {
	ID          int64           `json:"id" db:"id"`
	OrderID     string          `json:"order_id" db:"order_id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Component   string          `json:"component" db:"component"`
	PaymentArea string          `json:"payment_area" db:"payment_area"`
	ItemID      string          `json:"item_id" db:"item_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Currency    string          `json:"currency" db:"currency"`
	Action      string          `json:"action" db:"action"`
	ResultCode  string          `json:"result_code" db:"result_code"`
	Message     string          `json:"message" db:"message"`
	RRN         string          `json:"rrn" db:"rrn"`
	IntRef      string          `json:"int_ref" db:"int_ref"`
	Approval    string          `json:"approval" db:"approval"`
	Status      string          `json:"status" db:"status"`
	Token       string          `json:"token" db:"token"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

type Store struct {
	db *sqlx.DB
}

// New connects to PostgreSQL using the POSTGRES_* environment variables and
// makes sure the schema exists.
func New() (*Store, error) {
	dbHost := getEnvOrDefault("POSTGRES_HOST", "localhost")
	dbPort := getEnvOrDefault("POSTGRES_PORT", "5432")
	dbName := getEnvOrDefault("POSTGRES_DB", "librapay")
	dbUser := getEnvOrDefault("POSTGRES_USER", "postgres")
	dbPassword := getEnvOrDefault("POSTGRES_PASSWORD", "password")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		dbHost, dbPort, dbUser, dbPassword, dbName)

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		glog.Errorf("Failed to connect to PostgreSQL: %v", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		glog.Errorf("Failed to ping PostgreSQL: %v", err)
		return nil, err
	}

	glog.Infof("Connected to PostgreSQL successfully")

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		glog.Errorf("Failed to initialize transactions schema: %v", err)
		return nil, err
	}

	return s, nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(db *sqlx.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// initSchema creates the transactions table if it does not exist. The unique
// constraint on order_id is the ultimate guard against order id collisions,
// independent of the generator's retry loop.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS librapay_transactions (
		id BIGSERIAL PRIMARY KEY,
		order_id VARCHAR(19) NOT NULL UNIQUE,
		user_id VARCHAR(255) NOT NULL,
		component VARCHAR(100) NOT NULL,
		payment_area VARCHAR(100) NOT NULL,
		item_id VARCHAR(100) NOT NULL,
		amount NUMERIC(20,2) NOT NULL,
		currency VARCHAR(3) NOT NULL DEFAULT 'RON',
		action VARCHAR(10) NOT NULL DEFAULT '',
		result_code VARCHAR(10) NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		rrn VARCHAR(50) NOT NULL DEFAULT '',
		int_ref VARCHAR(50) NOT NULL DEFAULT '',
		approval VARCHAR(50) NOT NULL DEFAULT '',
		status VARCHAR(10) NOT NULL DEFAULT 'pending',
		token VARCHAR(64) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_librapay_tx_user ON librapay_transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_librapay_tx_status ON librapay_transactions(order_id, status);`

	_, err := s.db.Exec(schema)
	return err
}

// Create inserts a new pending transaction and fills in its id.
func (s *Store) Create(tx *Transaction) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}
	if tx.Status == "" {
		tx.Status = constants.StatusPending
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO librapay_transactions
			(order_id, user_id, component, payment_area, item_id, amount, currency,
			 action, result_code, message, rrn, int_ref, approval, status, token, created_at)
		VALUES
			(:order_id, :user_id, :component, :payment_area, :item_id, :amount, :currency,
			 :action, :result_code, :message, :rrn, :int_ref, :approval, :status, :token, :created_at)
		RETURNING id`

	rows, err := s.db.NamedQuery(query, tx)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&tx.ID); err != nil {
			return err
		}
	}
	return rows.Err()
}

// FindByOrderID returns the transaction for an order id regardless of status.
func (s *Store) FindByOrderID(orderID string) (*Transaction, error) {
	var tx Transaction
	err := s.db.Get(&tx, `SELECT * FROM librapay_transactions WHERE order_id = $1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindPendingByOrderIDAndToken is the synchronous callback lookup: the
// (order id, token, pending) tuple is the only identity proof the redirect
// carries.
func (s *Store) FindPendingByOrderIDAndToken(orderID, token string) (*Transaction, error) {
	var tx Transaction
	err := s.db.Get(&tx,
		`SELECT * FROM librapay_transactions WHERE order_id = $1 AND token = $2 AND status = $3`,
		orderID, token, constants.StatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// FindByOrderIDAndStatus looks up a transaction in a specific status.
func (s *Store) FindByOrderIDAndStatus(orderID, status string) (*Transaction, error) {
	var tx Transaction
	err := s.db.Get(&tx,
		`SELECT * FROM librapay_transactions WHERE order_id = $1 AND status = $2`,
		orderID, status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ExistsByOrderID reports whether any transaction uses the order id.
func (s *Store) ExistsByOrderID(orderID string) (bool, error) {
	var exists bool
	err := s.db.Get(&exists,
		`SELECT EXISTS(SELECT 1 FROM librapay_transactions WHERE order_id = $1)`, orderID)
	return exists, err
}

// UpdateResponseFields refreshes the provider response mirror columns.
func (s *Store) UpdateResponseFields(tx *Transaction) error {
	if tx == nil {
		return errors.New("transaction cannot be nil")
	}

	_, err := s.db.Exec(`
		UPDATE librapay_transactions
		   SET action = $1, result_code = $2, message = $3, rrn = $4, int_ref = $5, approval = $6
		 WHERE order_id = $7`,
		tx.Action, tx.ResultCode, tx.Message, tx.RRN, tx.IntRef, tx.Approval, tx.OrderID)
	return err
}

// TransitionIfPending atomically moves a pending transaction to a terminal
// status. It reports whether this call performed the transition, which is the
// storage-level guard against the sync and async channels both completing the
// same order.
func (s *Store) TransitionIfPending(orderID, status string) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE librapay_transactions
		   SET status = $1
		 WHERE order_id = $2 AND status = $3`,
		status, orderID, constants.StatusPending)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUserID returns all transactions of a user, newest first. Used by the
// data-subject export endpoint.
func (s *Store) ListByUserID(userID string) ([]Transaction, error) {
	var txs []Transaction
	err := s.db.Select(&txs,
		`SELECT * FROM librapay_transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	return txs, err
}

// AnonymizeByUserID detaches a user from their transactions while keeping the
// rows for financial audit. Returns the number of rows touched.
func (s *Store) AnonymizeByUserID(userID string) (int64, error) {
	res, err := s.db.Exec(`
		UPDATE librapay_transactions
		   SET user_id = '', token = '', message = ''
		 WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HealthCheck pings the database.
func (s *Store) HealthCheck() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	return s.db.Close()
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
