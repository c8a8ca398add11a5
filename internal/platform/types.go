package platform

import (
	"github.com/shopspring/decimal"
)

// GatewayConfig is the per-purchasable gateway configuration resolved from
// the platform's payment accounts. Field shapes follow the merchant contract
// with LibraPay; violations make the gateway unusable for the purchasable.
type GatewayConfig struct {
	Enabled       bool   `json:"enabled"`
	TestMode      bool   `json:"testmode"`
	Terminal      string `json:"terminal" vd:"regexp('^\\d{8}$'); msg:'terminal must be exactly 8 digits'"`
	Merchant      string `json:"merchant" vd:"regexp('^\\d{15}$'); msg:'merchant must be exactly 15 digits'"`
	MerchName     string `json:"merchname" vd:"len($)>0; msg:'merchant name is required'"`
	MerchURL      string `json:"merchurl" vd:"len($)>0; msg:'merchant url is required'"`
	Email         string `json:"email" vd:"email($); msg:'merchant email is invalid'"`
	EncryptionKey string `json:"encryptionkey" vd:"regexp('^[a-fA-F0-9]{32}$'); msg:'encryption key must be 32 hex characters'"`
}

// Payable describes what is being bought: cost, currency and the payment
// account the money is recorded against.
type Payable struct {
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	AccountID string          `json:"account_id"`
}

// UserProfile carries the buyer details forwarded to the provider in
// DATA_CUSTOM. Everything besides Email and Name may be empty; defaults are
// substituted when building the payload.
type UserProfile struct {
	ID      string `json:"id" vd:"len($)>0; msg:'user id is required'"`
	Email   string `json:"email" vd:"email($); msg:'user email is invalid'"`
	Name    string `json:"name" vd:"len($)>0; msg:'user name is required'"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

type response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type configResponse struct {
	response
	Data *GatewayConfig `json:"data"`
}

type payableResponse struct {
	response
	Data *Payable `json:"data"`
}

type surchargeResponse struct {
	response
	Data struct {
		Percent decimal.Decimal `json:"percent"`
	} `json:"data"`
}

type existsResponse struct {
	response
	Data struct {
		Exists bool `json:"exists"`
	} `json:"data"`
}

type savePaymentResponse struct {
	response
	Data struct {
		PaymentID string `json:"payment_id"`
	} `json:"data"`
}

type successURLResponse struct {
	response
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// AccessTokenRequest asks the platform for a scoped token to call the
// core-payment APIs.
type AccessTokenRequest struct {
	AppKey    string            `json:"app_key"`
	Timestamp int64             `json:"timestamp"`
	Token     string            `json:"token"`
	Perm      PermissionRequire `json:"perm"`
}

type PermissionRequire struct {
	Group    string   `json:"group"`
	Version  string   `json:"version"`
	DataType string   `json:"dataType"`
	Ops      []string `json:"ops"`
}

type accessTokenResponse struct {
	response
	Data struct {
		AccessToken string `json:"access_token"`
	} `json:"data"`
}
