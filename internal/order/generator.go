// Package order produces the identifiers the gateway sends to the provider:
// numeric order ids, one-time nonces and callback verification tokens. All
// randomness comes from crypto/rand; nothing here is derived from the clock
// or a counter.
package order

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/golang/glog"

	"librapay/internal/constants"
)

// ExistsFunc reports whether an order id is already taken. The transaction
// store provides the real implementation.
type ExistsFunc func(orderID string) (bool, error)

type Generator struct {
	exists ExistsFunc
}

func NewGenerator(exists ExistsFunc) *Generator {
	return &Generator{exists: exists}
}

const orderIDDigits = 12

// OrderID returns a fresh 12-digit order id (first digit non-zero) that does
// not collide with any stored transaction. It retries a bounded number of
// times; collisions are operationally impossible at this keyspace, so the
// retry loop is a guard, not a correctness mechanism. The database unique
// constraint on order_id is the final guarantor.
func (g *Generator) OrderID() (string, error) {
	for i := 0; i < constants.OrderIDMaxGenAttempts; i++ {
		id, err := randomOrderID()
		if err != nil {
			return "", err
		}

		taken, err := g.exists(id)
		if err != nil {
			return "", fmt.Errorf("order id existence check: %w", err)
		}
		if !taken {
			return id, nil
		}

		glog.Warningf("order id collision on %s, attempt %d", id, i+1)
	}

	// All attempts collided, which indicates a broken random source or a
	// lying existence check rather than genuine exhaustion. Hand out one
	// more fresh id and let the unique constraint reject it if it is in
	// fact taken.
	glog.Errorf("order id generation exhausted %d attempts", constants.OrderIDMaxGenAttempts)
	return randomOrderID()
}

func randomOrderID() (string, error) {
	digits := make([]byte, orderIDDigits)

	first, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return "", err
	}
	digits[0] = byte('1' + first.Int64())

	for i := 1; i < orderIDDigits; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + d.Int64())
	}

	return string(digits), nil
}

// Nonce returns the 32-hex-character one-time value included in every signed
// request.
func Nonce() (string, error) {
	return randomHex(16)
}

// Token returns the 64-hex-character verification token embedded into the
// BACKREF URL. It stands in for session state across the cross-domain
// redirect, so its entropy is what authenticates the synchronous callback.
func Token() (string, error) {
	return randomHex(32)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
