package gateway

import "fmt"

// The reconciliation error taxonomy. Each callback entry point translates
// these into its own external signal (redirect message or HTTP status); none
// of them escapes a handler unhandled.

// ConfigurationError: the gateway is disabled or misconfigured for the
// purchasable. Fatal for the invocation, nothing is mutated.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("gateway configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ValidationError: the response is missing required fields.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid provider response: " + e.Reason
}

// SignatureError: the response signature does not verify. The transaction is
// never mutated and delivery never happens on an unverified response.
type SignatureError struct {
	OrderID string
}

func (e *SignatureError) Error() string {
	return "invalid response signature for order " + e.OrderID
}

// CorrelationError: order/token/purchasable identifiers do not line up with
// the stored transaction; treated as forged.
type CorrelationError struct {
	OrderID string
}

func (e *CorrelationError) Error() string {
	return "correlation mismatch for order " + e.OrderID
}

// NotFoundRaceError: the async notification arrived before any row for the
// order exists. Benign; the provider retries until acknowledged.
type NotFoundRaceError struct {
	OrderID string
}

func (e *NotFoundRaceError) Error() string {
	return "no transaction yet for order " + e.OrderID
}

// AlreadyProcessedError: idempotent duplicate of a finished transaction.
// Informational, not a failure.
type AlreadyProcessedError struct {
	OrderID string
}

func (e *AlreadyProcessedError) Error() string {
	return "order " + e.OrderID + " already processed"
}

// BusyError: another callback for the same order holds the reconcile lock.
type BusyError struct {
	OrderID string
}

func (e *BusyError) Error() string {
	return "order " + e.OrderID + " is being reconciled"
}
