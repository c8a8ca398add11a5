package gateway

import (
	"net/url"

	"github.com/thoas/go-funk"

	"librapay/internal/constants"
	"librapay/internal/signer"
)

// responseFieldNames enumerates every field the provider includes in its
// callbacks, in wire order.
var responseFieldNames = []string{
	"TERMINAL", "TRTYPE", "ORDER", "AMOUNT", "CURRENCY", "DESC",
	"ACTION", "RC", "MESSAGE", "RRN", "INT_REF", "APPROVAL",
	"TIMESTAMP", "NONCE", "P_SIGN",
}

// ProviderResponse is the fixed-shape decoding of a provider callback. All
// fields default to the empty string; TrType and Currency additionally carry
// wire defaults applied only when the field is absent (an explicitly empty
// field stays empty, matching the provider's signing behavior).
type ProviderResponse struct {
	Terminal  string
	TrType    string
	Order     string
	Amount    string
	Currency  string
	Desc      string
	Action    string
	RC        string
	Message   string
	RRN       string
	IntRef    string
	Approval  string
	Timestamp string
	Nonce     string
	PSign     string
}

// ParseResponse extracts the provider fields from decoded query/form values.
// Only the known field names are read; unknown extra parameters are ignored.
func ParseResponse(values url.Values) *ProviderResponse {
	fields := make(map[string]string, len(responseFieldNames))
	for _, name := range responseFieldNames {
		fields[name] = values.Get(name)
	}

	r := &ProviderResponse{
		Terminal:  fields["TERMINAL"],
		TrType:    fields["TRTYPE"],
		Order:     fields["ORDER"],
		Amount:    fields["AMOUNT"],
		Currency:  fields["CURRENCY"],
		Desc:      fields["DESC"],
		Action:    fields["ACTION"],
		RC:        fields["RC"],
		Message:   fields["MESSAGE"],
		RRN:       fields["RRN"],
		IntRef:    fields["INT_REF"],
		Approval:  fields["APPROVAL"],
		Timestamp: fields["TIMESTAMP"],
		Nonce:     fields["NONCE"],
		PSign:     fields["P_SIGN"],
	}

	// Absent-vs-empty matters for the signed defaults.
	if !values.Has("TRTYPE") {
		r.TrType = "0"
	}
	if !values.Has("CURRENCY") {
		r.Currency = constants.Currency
	}

	return r
}

// Validate checks the minimum required field set. ACTION "0" means approved,
// so presence is tested with explicit empty-string comparison rather than any
// generic emptiness notion.
func (r *ProviderResponse) Validate() error {
	if r.Order == "" {
		return &ValidationError{Reason: "missing ORDER"}
	}
	if r.Action == "" {
		return &ValidationError{Reason: "missing ACTION"}
	}
	if r.PSign == "" {
		return &ValidationError{Reason: "missing P_SIGN"}
	}
	return nil
}

// SignatureFields returns the response field vector in the order the
// signature covers; P_SIGN itself is excluded.
func (r *ProviderResponse) SignatureFields() []string {
	return []string{
		r.Terminal,
		r.TrType,
		r.Order,
		r.Amount,
		r.Currency,
		r.Desc,
		r.Action,
		r.RC,
		r.Message,
		r.RRN,
		r.IntRef,
		r.Approval,
		r.Timestamp,
		r.Nonce,
	}
}

// VerifySignature checks P_SIGN against the shared secret.
func (r *ProviderResponse) VerifySignature(key []byte) bool {
	return signer.Verify(r.SignatureFields(), key, r.PSign)
}

// Approved reports whether the provider authorized the payment.
func (r *ProviderResponse) Approved() bool {
	return r.Action == constants.ActionApproved && r.RC == constants.ResultCodeAuthorized
}

var declineMessages = map[string]string{
	constants.ActionDuplicate:       "This transaction has already been submitted.",
	constants.ActionDenied:          "Transaction was denied by the bank. Please check your card details or try a different payment method.",
	constants.ActionProcessingError: "A processing error occurred. Please try again later.",
}

// DeclineMessage maps known decline action codes to user-facing reasons and
// falls back to the provider message, then to a generic failure text.
func (r *ProviderResponse) DeclineMessage() string {
	if funk.Contains(declineMessages, r.Action) {
		return declineMessages[r.Action]
	}
	if r.Message != "" {
		return r.Message
	}
	return "Payment failed. Please try again or contact support."
}

// RequestSignatureFields builds the field vector signed on the outbound
// authorization request. Order is fixed by the provider; the two empty slots
// are reserved fields that sign as "-".
func RequestSignatureFields(amount, orderID, desc, timestamp, nonce, backref string, cfg SigningConfig) []string {
	return []string{
		amount,
		constants.Currency,
		orderID,
		desc,
		cfg.MerchName,
		cfg.MerchURL,
		cfg.Merchant,
		cfg.Terminal,
		cfg.Email,
		"0",
		"",
		"",
		timestamp,
		nonce,
		backref,
	}
}

// SigningConfig is the subset of the gateway configuration covered by the
// request signature.
type SigningConfig struct {
	Terminal  string
	Merchant  string
	MerchName string
	MerchURL  string
	Email     string
}
