package gateway

import (
	"fmt"
	"net/url"
	"time"

	"github.com/golang/glog"
	"github.com/shopspring/decimal"

	"librapay/internal/conf"
	"librapay/internal/constants"
	"librapay/internal/order"
	"librapay/internal/platform"
	"librapay/internal/signer"
	"librapay/internal/store"
)

// InitiateRequest is the platform's request to start a payment.
type InitiateRequest struct {
	Component   string               `json:"component" vd:"len($)>0; msg:'component is required'"`
	PaymentArea string               `json:"paymentarea" vd:"len($)>0; msg:'paymentarea is required'"`
	ItemID      string               `json:"itemid" vd:"len($)>0; msg:'itemid is required'"`
	Description string               `json:"description" vd:"len($)>0; msg:'description is required'"`
	User        platform.UserProfile `json:"user"`
}

// FormField preserves the provider's field order for the auto-submit form.
type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RedirectForm is everything the frontend needs to POST the user to the
// provider.
type RedirectForm struct {
	URL     string      `json:"url"`
	Method  string      `json:"method"`
	Fields  []FormField `json:"fields"`
	OrderID string      `json:"order_id"`
}

// Initiator builds signed authorization requests and persists the pending
// transaction.
type Initiator struct {
	store    TransactionStore
	platform PlatformClient
	orders   *order.Generator
}

func NewInitiator(txStore TransactionStore, platformClient PlatformClient) *Initiator {
	return &Initiator{
		store:    txStore,
		platform: platformClient,
		orders:   order.NewGenerator(txStore.ExistsByOrderID),
	}
}

// FormatAmount renders an amount with exactly 2 fractional digits, the only
// form the provider accepts.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// ProviderTimestamp renders the current time in the provider's fixed UTC
// format.
func ProviderTimestamp(now time.Time) string {
	return now.UTC().Format(constants.ProviderTimestampLayout)
}

// Initiate resolves the purchasable, generates the order identity, persists
// the pending transaction and returns the signed redirect form. Any failure
// before persistence is terminal; no partial transaction is ever written.
func (i *Initiator) Initiate(req InitiateRequest) (*RedirectForm, error) {
	cfg, err := i.platform.GetGatewayConfiguration(req.Component, req.PaymentArea, req.ItemID)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	payable, err := i.platform.GetPayable(req.Component, req.PaymentArea, req.ItemID)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	surcharge, err := i.platform.GetGatewaySurcharge()
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	cost := platform.GetRoundedCost(payable.Amount, surcharge)
	amount := FormatAmount(cost)

	orderID, err := i.orders.OrderID()
	if err != nil {
		return nil, fmt.Errorf("generate order id: %w", err)
	}
	nonce, err := order.Nonce()
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	token, err := order.Token()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	timestamp := ProviderTimestamp(time.Now())

	backref := buildBackref(req.Component, req.PaymentArea, req.ItemID, token)
	desc := Truncate(req.Description, constants.DescriptionMaxLen)

	dataCustom, err := BuildDataCustom(req.Description, amount, req.User)
	if err != nil {
		return nil, fmt.Errorf("build DATA_CUSTOM: %w", err)
	}

	key, err := signer.KeyFromHex(cfg.EncryptionKey)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	fields := RequestSignatureFields(amount, orderID, desc, timestamp, nonce, backref, SigningConfig{
		Terminal:  cfg.Terminal,
		Merchant:  cfg.Merchant,
		MerchName: cfg.MerchName,
		MerchURL:  cfg.MerchURL,
		Email:     cfg.Email,
	})
	psign := signer.Sign(fields, key)

	tx := &store.Transaction{
		OrderID:     orderID,
		UserID:      req.User.ID,
		Component:   req.Component,
		PaymentArea: req.PaymentArea,
		ItemID:      req.ItemID,
		Amount:      cost,
		Currency:    constants.Currency,
		Status:      constants.StatusPending,
		Token:       token,
	}
	if err := i.store.Create(tx); err != nil {
		return nil, fmt.Errorf("persist pending transaction: %w", err)
	}

	glog.Infof("initiated payment order %s for user %s, amount %s %s",
		orderID, req.User.ID, amount, constants.Currency)

	return &RedirectForm{
		URL:     providerURL(cfg.TestMode),
		Method:  "POST",
		OrderID: orderID,
		Fields: []FormField{
			{Name: "AMOUNT", Value: amount},
			{Name: "CURRENCY", Value: constants.Currency},
			{Name: "ORDER", Value: orderID},
			{Name: "DESC", Value: desc},
			{Name: "TERMINAL", Value: cfg.Terminal},
			{Name: "TIMESTAMP", Value: timestamp},
			{Name: "NONCE", Value: nonce},
			{Name: "BACKREF", Value: backref},
			{Name: "DATA_CUSTOM", Value: dataCustom},
			{Name: "P_SIGN", Value: psign},
		},
	}, nil
}

func providerURL(testMode bool) string {
	if testMode {
		return constants.ProviderURLTest
	}
	return constants.ProviderURLLive
}

// buildBackref embeds the purchasable identity and the verification token
// into the callback URL; the token is the only thing that later authenticates
// the synchronous callback, since no session survives the cross-domain
// redirect.
func buildBackref(component, paymentArea, itemID, token string) string {
	q := url.Values{}
	q.Set("component", component)
	q.Set("paymentarea", paymentArea)
	q.Set("itemid", itemID)
	q.Set("token", token)
	return conf.GetCallbackBaseURL() + "/process?" + q.Encode()
}
