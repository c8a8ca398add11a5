// Copyright 2022 bytetrade
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package v1

import (
	"errors"
	"net/http"
	"net/url"

	"librapay/internal/conf"
	"librapay/internal/gateway"

	"github.com/emicklei/go-restful/v3"
	"github.com/golang/glog"
)

// The shopper lands here from the payment page. Whatever happens, the answer
// is a redirect back into the platform; errors become a notice on the landing
// page, never a bare HTTP error the shopper cannot act on.
func (h *Handler) process(req *restful.Request, resp *restful.Response) {
	r := req.Request
	if err := r.ParseForm(); err != nil {
		redirectWithNotice(resp, r, conf.GetPlatformRootURL(),
			"Invalid response received from the payment gateway.", gateway.NoticeError)
		return
	}

	// r.Form merges the query string and the POST body, so the provider may
	// return the shopper with either method
	corr := gateway.Correlation{
		Component:   r.Form.Get(ParamComponent),
		PaymentArea: r.Form.Get(ParamPaymentArea),
		ItemID:      r.Form.Get(ParamItemID),
		Token:       r.Form.Get(ParamToken),
	}
	provResp := gateway.ParseResponse(r.Form)

	outcome, err := h.reconciler.ProcessReturn(corr, provResp)
	if err != nil {
		glog.Warningf("process return for order %s failed: %s", provResp.Order, err.Error())
		target, message, notice := classifyReturnError(err)
		redirectWithNotice(resp, r, target, message, notice)
		return
	}

	redirectWithNotice(resp, r, outcome.RedirectURL, outcome.Message, outcome.Notice)
}

func classifyReturnError(err error) (target, message string, notice gateway.NoticeKind) {
	target = conf.GetPlatformRootURL()
	notice = gateway.NoticeError

	var (
		valErr  *gateway.ValidationError
		sigErr  *gateway.SignatureError
		corrErr *gateway.CorrelationError
		doneErr *gateway.AlreadyProcessedError
		busyErr *gateway.BusyError
		confErr *gateway.ConfigurationError
	)
	switch {
	case errors.As(err, &valErr):
		message = "Invalid response received from the payment gateway."
	case errors.As(err, &sigErr):
		message = "Payment verification failed. The response signature is invalid."
	case errors.As(err, &corrErr):
		message = "Payment session verification failed. Please try the payment again."
	case errors.As(err, &doneErr):
		message = "This payment has already been processed."
		notice = gateway.NoticeWarning
	case errors.As(err, &busyErr):
		message = "Your payment is still being processed. You will be notified once it completes."
		notice = gateway.NoticeWarning
	case errors.As(err, &confErr):
		message = "The payment gateway is not available right now. Please try again later."
	default:
		message = "An error occurred while processing the payment. Please contact support."
	}
	return target, message, notice
}

func redirectWithNotice(resp *restful.Response, req *http.Request, target, message string, notice gateway.NoticeKind) {
	u, err := url.Parse(target)
	if err != nil {
		u, _ = url.Parse(conf.GetPlatformRootURL())
	}
	q := u.Query()
	q.Set("paygw_message", message)
	q.Set("paygw_notice", string(notice))
	u.RawQuery = q.Encode()

	http.Redirect(resp.ResponseWriter, req, u.String(), http.StatusFound)
}
