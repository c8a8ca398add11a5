package gateway

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librapay/internal/signer"
)

func approvedValues() url.Values {
	return url.Values{
		"TERMINAL":  {"70000123"},
		"TRTYPE":    {"0"},
		"ORDER":     {"912345678901"},
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

func TestParseResponseDefaults(t *testing.T) {
	// TRTYPE and CURRENCY absent from the wire take their signed defaults
	r := ParseResponse(url.Values{
		"ORDER":  {"912345678901"},
		"ACTION": {"0"},
		"P_SIGN": {"ABC"},
	})
	assert.Equal(t, "0", r.TrType)
	assert.Equal(t, "RON", r.Currency)

	// explicitly empty stays empty
	r = ParseResponse(url.Values{
		"ORDER":    {"912345678901"},
		"TRTYPE":   {""},
		"CURRENCY": {""},
	})
	assert.Equal(t, "", r.TrType)
	assert.Equal(t, "", r.Currency)
}

func TestParseResponseIgnoresUnknownParameters(t *testing.T) {
	values := approvedValues()
	values.Set("EXTRA", "ignored")
	values.Set("token", "carried-by-backref")

	r := ParseResponse(values)
	assert.Equal(t, "912345678901", r.Order)
	assert.Equal(t, "E422C7BDB7706B5057030583F62A325559DABF0D", r.PSign)
}

func TestResponseValidate(t *testing.T) {
	testCases := []struct {
		values url.Values
		valid  bool
	}{
		{approvedValues(), true},
		{url.Values{"ACTION": {"0"}, "P_SIGN": {"X"}}, false},
		{url.Values{"ORDER": {"912345678901"}, "P_SIGN": {"X"}}, false},
		{url.Values{"ORDER": {"912345678901"}, "ACTION": {"0"}}, false},
	}
	for _, test := range testCases {
		err := ParseResponse(test.values).Validate()
		if test.valid {
			assert.NoError(t, err)
		} else {
			assert.Error(t, err)
		}
	}
}

func TestResponseVerifySignature(t *testing.T) {
	key, err := signer.KeyFromHex(testKeyHex)
	require.NoError(t, err)

	r := ParseResponse(approvedValues())
	assert.True(t, r.VerifySignature(key))

	tampered := approvedValues()
	tampered.Set("AMOUNT", "0.01")
	assert.False(t, ParseResponse(tampered).VerifySignature(key))
}

func TestResponseVerifySignatureWithAbsentDefaults(t *testing.T) {
	// the provider signs "0" and "RON" even when TRTYPE and CURRENCY are
	// not sent back, so a response without them still verifies
	key, _ := signer.KeyFromHex(testKeyHex)

	values := approvedValues()
	values.Del("TRTYPE")
	values.Del("CURRENCY")
	assert.True(t, ParseResponse(values).VerifySignature(key))
}

func TestApproved(t *testing.T) {
	testCases := []struct {
		action   string
		rc       string
		expected bool
	}{
		{"0", "00", true},
		{"0", "05", false},
		{"1", "00", false},
		{"2", "05", false},
		{"", "", false},
	}
	for _, test := range testCases {
		r := &ProviderResponse{Action: test.action, RC: test.rc}
		assert.Equal(t, test.expected, r.Approved())
	}
}

func TestDeclineMessage(t *testing.T) {
	testCases := []struct {
		action   string
		message  string
		expected string
	}{
		{"1", "", "This transaction has already been submitted."},
		{"2", "Do not honour", "Transaction was denied by the bank. Please check your card details or try a different payment method."},
		{"3", "", "A processing error occurred. Please try again later."},
		{"9", "Custom provider text", "Custom provider text"},
		{"9", "", "Payment failed. Please try again or contact support."},
	}
	for _, test := range testCases {
		r := &ProviderResponse{Action: test.action, Message: test.message}
		assert.Equal(t, test.expected, r.DeclineMessage())
	}
}

func TestRequestSignatureFields(t *testing.T) {
	key, _ := signer.KeyFromHex(testKeyHex)

	fields := RequestSignatureFields(
		"10.50",
		"912345678901",
		"Advanced Go course",
		"20260830120000",
		"AABBCCDD00112233AABBCCDD00112233",
		"https://school.example.com/librapay/v1/process?component=enrol_fee&itemid=42&paymentarea=fee&token=deadbeef",
		SigningConfig{
			Terminal:  "70000123",
			Merchant:  "700000000123456",
			MerchName: "Example School",
			MerchURL:  "https://school.example.com",
			Email:     "billing@school.example.com",
		})

	require.Len(t, fields, 15)
	// the two reserved slots sign as "-"
	assert.Equal(t, "", fields[10])
	assert.Equal(t, "", fields[11])

	assert.Equal(t, "63E61F194240DA79E50C7156D389B0B5456A2A5D", signer.Sign(fields, key))
}
