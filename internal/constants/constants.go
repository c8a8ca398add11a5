package constants

import "os"

const (
	GatewayName = "librapay"
	Currency    = "RON"

	APIServerListenAddress = ":81"
	IPNServerListenAddress = ":82"

	// LibraPay authorization endpoints. Which one is used depends on the
	// testmode flag of the resolved gateway configuration.
	ProviderURLTest = "https://merchant.librapay.ro/pay_auth.php"
	ProviderURLLive = "https://secure.librapay.ro/pay_auth.php"

	DescriptionMaxLen = 50

	// Timestamp format required by the provider, always UTC.
	ProviderTimestampLayout = "20060102150405"
)

const (
	CorePaymentConfigURLTempl        = "http://%s:%s/core-payment/v1/gateways/%s/config?component=%s&paymentarea=%s&itemid=%s"
	CorePaymentPayableURLTempl       = "http://%s:%s/core-payment/v1/payable?component=%s&paymentarea=%s&itemid=%s"
	CorePaymentSurchargeURLTempl     = "http://%s:%s/core-payment/v1/gateways/%s/surcharge"
	CorePaymentPaymentExistsURLTempl = "http://%s:%s/core-payment/v1/payments/exists?component=%s&paymentarea=%s&itemid=%s&userid=%s&gateway=%s"
	CorePaymentSavePaymentURLTempl   = "http://%s:%s/core-payment/v1/payments"
	CorePaymentDeliverURLTempl       = "http://%s:%s/core-payment/v1/deliveries"
	CorePaymentSuccessURLTempl       = "http://%s:%s/core-payment/v1/success-url?component=%s&paymentarea=%s&itemid=%s"

	CorePaymentHostEnv = "CORE_PAYMENT_SERVICE_HOST"
	CorePaymentPortEnv = "CORE_PAYMENT_SERVICE_PORT"
)

const (
	// Default DATA_CUSTOM values for profile fields the platform has no
	// value for. These literals are part of the wire contract with the
	// provider's fraud screening and must not change.
	DefaultCity    = "N/A"
	DefaultAddress = "N/A"
	DefaultCountry = "RO"
	DefaultPhone   = "0000000000"
)

// Transaction statuses as persisted in the transactions table.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Provider response codes.
const (
	ActionApproved        = "0"
	ActionDuplicate       = "1"
	ActionDenied          = "2"
	ActionProcessingError = "3"

	ResultCodeAuthorized = "00"
)

const (
	OrderIDMaxGenAttempts = 10

	NotifyPaymentSucceeded = "payment_successful"
	NotifyPaymentFailed    = "payment_failed"
)

func GetCorePaymentHostAndPort() (string, string) {
	return os.Getenv(CorePaymentHostEnv), os.Getenv(CorePaymentPortEnv)
}
