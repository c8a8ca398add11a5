package gateway

import (
	"errors"

	"github.com/golang/glog"

	"librapay/internal/conf"
	"librapay/internal/constants"
	"librapay/internal/notify"
	"librapay/internal/signer"
	"librapay/internal/store"
)

// Correlation identifies which purchasable a synchronous callback claims to
// belong to, plus the verification token issued at initiation.
type Correlation struct {
	Component   string
	PaymentArea string
	ItemID      string
	Token       string
}

// NoticeKind categorizes the user-facing outcome of the synchronous path.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// ReturnOutcome tells the synchronous handler where to send the browser and
// what to say.
type ReturnOutcome struct {
	RedirectURL string
	Message     string
	Notice      NoticeKind
}

// Reconciler converges the synchronous redirect and the asynchronous
// notification onto the one transaction record, guaranteeing at-most-once
// delivery of the purchased item.
type Reconciler struct {
	store    TransactionStore
	platform PlatformClient
	notifier Notifier
	lock     OrderLocker
}

func NewReconciler(txStore TransactionStore, platformClient PlatformClient, notifier Notifier, lock OrderLocker) *Reconciler {
	if lock == nil {
		lock = NoopLocker
	}
	return &Reconciler{
		store:    txStore,
		platform: platformClient,
		notifier: notifier,
		lock:     lock,
	}
}

// ProcessReturn handles the provider's browser redirect (BACKREF). Identity
// is proven solely by the (order id, token, pending) tuple; the user session
// is not trusted.
func (r *Reconciler) ProcessReturn(corr Correlation, resp *ProviderResponse) (*ReturnOutcome, error) {
	if err := resp.Validate(); err != nil {
		return nil, err
	}

	release, ok, err := r.lock(resp.Order)
	if err != nil {
		// Lock service failure must not take payments down; the store's
		// conditional transition still prevents double delivery.
		glog.Warningf("order lock unavailable for %s: %v", resp.Order, err)
	} else if !ok {
		return nil, &BusyError{OrderID: resp.Order}
	} else {
		defer release()
	}

	pending, err := r.store.FindPendingByOrderIDAndToken(resp.Order, corr.Token)
	if errors.Is(err, store.ErrNotFound) {
		// Distinguish an idempotent duplicate from a forged or expired
		// callback.
		if _, err := r.store.FindByOrderIDAndStatus(resp.Order, constants.StatusCompleted); err == nil {
			return nil, &AlreadyProcessedError{OrderID: resp.Order}
		}
		return nil, &CorrelationError{OrderID: resp.Order}
	}
	if err != nil {
		return nil, err
	}

	if pending.Component != corr.Component ||
		pending.PaymentArea != corr.PaymentArea ||
		pending.ItemID != corr.ItemID {
		return nil, &CorrelationError{OrderID: resp.Order}
	}

	cfg, err := r.platform.GetGatewayConfiguration(pending.Component, pending.PaymentArea, pending.ItemID)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	key, err := signer.KeyFromHex(cfg.EncryptionKey)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}

	if !resp.VerifySignature(key) {
		glog.Errorf("signature verification failed on sync callback for order %s", resp.Order)
		return nil, &SignatureError{OrderID: resp.Order}
	}

	r.refreshResponseFields(pending, resp)

	successURL, err := r.platform.GetSuccessURL(pending.Component, pending.PaymentArea, pending.ItemID)
	if err != nil {
		glog.Warningf("success url unavailable for order %s: %v", resp.Order, err)
		successURL = conf.GetPlatformRootURL()
	}

	notification := notify.PaymentNotification{
		UserID:      pending.UserID,
		Amount:      FormatAmount(pending.Amount),
		Currency:    pending.Currency,
		Description: resp.Desc,
		OrderID:     pending.OrderID,
		URL:         successURL,
	}

	if resp.Approved() {
		transitioned, err := r.store.TransitionIfPending(pending.OrderID, constants.StatusCompleted)
		if err != nil {
			return nil, err
		}

		if transitioned {
			if err := r.deliverOnce(pending); err != nil {
				// Status is already terminal; delivery will be retried
				// by the provider's asynchronous channel.
				glog.Errorf("deliver order %s: %v", pending.OrderID, err)
			}

			notification.Kind = constants.NotifyPaymentSucceeded
			if err := r.notifier.SendPaymentNotification(notification); err != nil {
				glog.Warningf("send success notification for order %s: %v", pending.OrderID, err)
			}
		}

		return &ReturnOutcome{
			RedirectURL: successURL,
			Message:     "Payment was successful. Thank you for your purchase!",
			Notice:      NoticeSuccess,
		}, nil
	}

	transitioned, err := r.store.TransitionIfPending(pending.OrderID, constants.StatusFailed)
	if err != nil {
		return nil, err
	}

	if transitioned {
		notification.Kind = constants.NotifyPaymentFailed
		if err := r.notifier.SendPaymentNotification(notification); err != nil {
			glog.Warningf("send failure notification for order %s: %v", pending.OrderID, err)
		}
	}

	return &ReturnOutcome{
		RedirectURL: conf.GetPlatformRootURL(),
		Message:     resp.DeclineMessage(),
		Notice:      NoticeError,
	}, nil
}

// ProcessIPN handles the provider's server-to-server notification. There is
// no token; correlation is by order id alone, and an unknown order is a
// benign race the provider resolves by retrying.
func (r *Reconciler) ProcessIPN(resp *ProviderResponse) error {
	if err := resp.Validate(); err != nil {
		return err
	}

	release, ok, err := r.lock(resp.Order)
	if err != nil {
		glog.Warningf("order lock unavailable for %s: %v", resp.Order, err)
	} else if !ok {
		return &BusyError{OrderID: resp.Order}
	} else {
		defer release()
	}

	tx, err := r.store.FindByOrderID(resp.Order)
	if errors.Is(err, store.ErrNotFound) {
		return &NotFoundRaceError{OrderID: resp.Order}
	}
	if err != nil {
		return err
	}

	cfg, err := r.platform.GetGatewayConfiguration(tx.Component, tx.PaymentArea, tx.ItemID)
	if err != nil {
		return &ConfigurationError{Err: err}
	}
	key, err := signer.KeyFromHex(cfg.EncryptionKey)
	if err != nil {
		return &ConfigurationError{Err: err}
	}

	if !resp.VerifySignature(key) {
		glog.Errorf("signature verification failed on IPN for order %s", resp.Order)
		return &SignatureError{OrderID: resp.Order}
	}

	// Keep the audit trail current across repeated retries; the detail
	// columns may refresh even after the sync channel set a terminal
	// status.
	if tx.Action != resp.Action {
		r.refreshResponseFields(tx, resp)
	}

	if resp.Approved() {
		if _, err := r.store.TransitionIfPending(tx.OrderID, constants.StatusCompleted); err != nil {
			return err
		}
		if err := r.deliverOnce(tx); err != nil {
			return err
		}
		return nil
	}

	if _, err := r.store.TransitionIfPending(tx.OrderID, constants.StatusFailed); err != nil {
		return err
	}
	return nil
}

// refreshResponseFields mirrors the provider's latest response details onto
// the transaction row.
func (r *Reconciler) refreshResponseFields(tx *store.Transaction, resp *ProviderResponse) {
	tx.Action = resp.Action
	tx.ResultCode = resp.RC
	tx.Message = resp.Message
	tx.RRN = resp.RRN
	tx.IntRef = resp.IntRef
	tx.Approval = resp.Approval

	if err := r.store.UpdateResponseFields(tx); err != nil {
		glog.Warningf("update response fields for order %s: %v", tx.OrderID, err)
	}
}

// deliverOnce records the payment and delivers the item unless the platform
// ledger already holds a payment for this purchase. The ledger check is what
// keeps the two callback channels from both delivering.
func (r *Reconciler) deliverOnce(tx *store.Transaction) error {
	exists, err := r.platform.PaymentExists(tx.Component, tx.PaymentArea, tx.ItemID, tx.UserID)
	if err != nil {
		return err
	}
	if exists {
		glog.Infof("payment already recorded for order %s, skipping delivery", tx.OrderID)
		return nil
	}

	payable, err := r.platform.GetPayable(tx.Component, tx.PaymentArea, tx.ItemID)
	if err != nil {
		return err
	}

	paymentID, err := r.platform.SavePayment(
		payable.AccountID, tx.Component, tx.PaymentArea, tx.ItemID, tx.UserID, tx.Amount, tx.Currency)
	if err != nil {
		return err
	}

	if err := r.platform.DeliverOrder(tx.Component, tx.PaymentArea, tx.ItemID, paymentID, tx.UserID); err != nil {
		return err
	}

	glog.Infof("delivered order %s to user %s (payment %s)", tx.OrderID, tx.UserID, paymentID)
	return nil
}
