// Package platform is the client side of the host platform's core-payment
// collaborator APIs: gateway configuration, payable resolution, the payment
// ledger and order delivery.
package platform

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	vd "github.com/bytedance/go-tagexpr/v2/validator"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-resty/resty/v2"
	"github.com/golang/glog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"librapay/internal/constants"
)

var (
	appKey    = ""
	appSecret = ""
)

func init() {
	appKey = os.Getenv("OS_APP_KEY")
	appSecret = os.Getenv("OS_APP_SECRET")
}

const (
	GroupID           = "core-payment.payment-server"
	APIVersion        = "v1"
	AccessTokenHeader = "X-Access-Token"
)

type Client struct {
	httpClient *resty.Client
}

func NewClient() *Client {
	c := resty.New()

	return &Client{
		httpClient: c.SetTimeout(5 * time.Second),
	}
}

func (c *Client) getAccessToken() (string, error) {
	host, port := constants.GetCorePaymentHostAndPort()
	url := fmt.Sprintf("http://%s:%s/permission/v1alpha1/access", host, port)
	now := time.Now().UnixMilli() / 1000

	password := appKey + strconv.Itoa(int(now)) + appSecret
	encode, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	perm := AccessTokenRequest{
		AppKey:    appKey,
		Timestamp: now,
		Token:     string(encode),
		Perm: PermissionRequire{
			Group:    GroupID,
			Version:  APIVersion,
			DataType: "payment",
			Ops: []string{
				"Create",
			},
		},
	}

	resp, err := c.httpClient.R().
		SetHeader(restful.HEADER_ContentType, restful.MIME_JSON).
		SetResult(&accessTokenResponse{}).
		SetBody(perm).
		Post(url)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("access token non-200: %d", resp.StatusCode())
	}

	tokenResp := resp.Result().(*accessTokenResponse)
	if tokenResp.Code != 0 {
		return "", errors.New(tokenResp.Message)
	}
	return tokenResp.Data.AccessToken, nil
}

func (c *Client) get(url string, result interface{}) error {
	token, err := c.getAccessToken()
	if err != nil {
		return err
	}

	resp, err := c.httpClient.R().
		SetHeader(AccessTokenHeader, token).
		SetResult(result).
		Get(url)
	if err != nil {
		glog.Warningf("url:%s get err:%s", url, err.Error())
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		glog.Warningf("url:%s get resp.StatusCode():%d not 200", url, resp.StatusCode())
		return errors.New(string(resp.Body()))
	}
	return nil
}

func (c *Client) post(url string, body interface{}, result interface{}) error {
	token, err := c.getAccessToken()
	if err != nil {
		return err
	}

	resp, err := c.httpClient.R().
		SetHeaders(map[string]string{
			restful.HEADER_ContentType: restful.MIME_JSON,
			AccessTokenHeader:          token,
		}).
		SetResult(result).
		SetBody(body).
		Post(url)
	if err != nil {
		glog.Warningf("url:%s post err:%s", url, err.Error())
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		glog.Warningf("url:%s post resp.StatusCode():%d not 200", url, resp.StatusCode())
		return errors.New(string(resp.Body()))
	}
	return nil
}

// GetGatewayConfiguration resolves the LibraPay configuration for a
// purchasable and validates its shape.
func (c *Client) GetGatewayConfiguration(component, paymentArea, itemID string) (*GatewayConfig, error) {
	host, port := constants.GetCorePaymentHostAndPort()
	url := fmt.Sprintf(constants.CorePaymentConfigURLTempl,
		host, port, constants.GatewayName, component, paymentArea, itemID)

	var result configResponse
	if err := c.get(url, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 || result.Data == nil {
		return nil, fmt.Errorf("gateway configuration unavailable: %s", result.Message)
	}

	cfg := result.Data
	if !cfg.Enabled {
		return nil, errors.New("gateway is disabled for this purchasable")
	}
	if err := vd.Validate(cfg); err != nil {
		return nil, fmt.Errorf("gateway misconfigured: %w", err)
	}
	return cfg, nil
}

// GetPayable resolves cost, currency and account for a purchasable.
func (c *Client) GetPayable(component, paymentArea, itemID string) (*Payable, error) {
	host, port := constants.GetCorePaymentHostAndPort()
	url := fmt.Sprintf(constants.CorePaymentPayableURLTempl, host, port, component, paymentArea, itemID)

	var result payableResponse
	if err := c.get(url, &result); err != nil {
		return nil, err
	}
	if result.Code != 0 || result.Data == nil {
		return nil, fmt.Errorf("payable unavailable: %s", result.Message)
	}
	return result.Data, nil
}

// GetGatewaySurcharge returns the configured surcharge percentage for this
// gateway.
func (c *Client) GetGatewaySurcharge() (decimal.Decimal, error) {
	host, port := constants.GetCorePaymentHostAndPort()
	url := fmt.Sprintf(constants.CorePaymentSurchargeURLTempl, host, port, constants.GatewayName)

	var result surchargeResponse
	if err := c.get(url, &result); err != nil {
		return decimal.Zero, err
	}
	if result.Code != 0 {
		return decimal.Zero, errors.New(result.Message)
	}
	return result.Data.Percent, nil
}

// GetRoundedCost applies the surcharge percentage to the base amount and
// rounds to the currency's 2 fractional digits.
func GetRoundedCost(amount, surchargePercent decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return amount.Mul(hundred.Add(surchargePercent)).Div(hundred).Round(2)
}

// PaymentExists reports whether the platform ledger already has a payment for
// this (component, area, item, user, gateway) tuple. This is the reconciler's
// delivery guard.
func (c *Client) PaymentExists(component, paymentArea, itemID, userID string) (bool, error) {
	host, port := constants.GetCorePaymentHostAndPort()
	url := fmt.Sprintf(constants.CorePaymentPaymentExistsURLTempl,
		host, port, component, paymentArea, itemID, userID, constants.GatewayName)

	var result existsResponse
	if err := c.get(url, &result); err != nil {
		return false, err
	}
	if result.Code != 0 {
		return false, errors.New(result.Message)
	}
	return result.Data.Exists, nil
}

// SavePayment records the payment in the platform ledger and returns its id.
func (c *Client) SavePayment(accountID, component, paymentArea, itemID, userID string, amount decimal.Decimal, currency string) (string, error) {
	host, port := constants.GetCorePaymentHostAndPort()
	url := fmt.Sprintf(constants.CorePaymentSavePaymentURLTempl, host, port)

	body := map[string]interface{}{
		"account_id":   accountID,
		"component":    component,
		"payment_area": paymentArea,
		"item_id":      itemID,
		"user_id":      userID,
		"amount":       amount,
		"currency":     currency,
		"gateway":      constants.GatewayName,
	}

	var result savePaymentResponse
	if err := c.post(url, body, &result); err != nil {
		return "", err
	}
	if result.Code != 0 {
		return "", errors.New(result.Message)
	}
	return result.Data.PaymentID, nil
}

// DeliverOrder asks the platform to hand the purchased item to the user.
func (c *Client) DeliverOrder(component, paymentArea, itemID, paymentID, userID string) error {
	host, port := constants.GetCorePaymentHostAndPort()
	url := fmt.Sprintf(constants.CorePaymentDeliverURLTempl, host, port)

	body := map[string]interface{}{
		"component":    component,
		"payment_area": paymentArea,
		"item_id":      itemID,
		"payment_id":   paymentID,
		"user_id":      userID,
	}

	var result response
	if err := c.post(url, body, &result); err != nil {
		return err
	}
	if result.Code != 0 {
		return errors.New(result.Message)
	}
	return nil
}

// GetSuccessURL returns where the user lands after a successful payment.
func (c *Client) GetSuccessURL(component, paymentArea, itemID string) (string, error) {
	host, port := constants.GetCorePaymentHostAndPort()
	url := fmt.Sprintf(constants.CorePaymentSuccessURLTempl, host, port, component, paymentArea, itemID)

	var result successURLResponse
	if err := c.get(url, &result); err != nil {
		return "", err
	}
	if result.Code != 0 {
		return "", errors.New(result.Message)
	}
	return result.Data.URL, nil
}
