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

	"librapay/internal/gateway"
	"librapay/pkg/api"

	vd "github.com/bytedance/go-tagexpr/v2/validator"
	"github.com/emicklei/go-restful/v3"
	"github.com/golang/glog"
)

func (h *Handler) pay(req *restful.Request, resp *restful.Response) {
	var payReq gateway.InitiateRequest
	if err := req.ReadEntity(&payReq); err != nil {
		api.HandleBadRequest(resp, err)
		return
	}

	if err := vd.Validate(&payReq); err != nil {
		api.HandleBadRequest(resp, err)
		return
	}

	form, err := h.initiator.Initiate(payReq)
	if err != nil {
		glog.Warningf("initiate payment for %s/%s/%s failed: %s",
			payReq.Component, payReq.PaymentArea, payReq.ItemID, err.Error())

		var confErr *gateway.ConfigurationError
		if errors.As(err, &confErr) {
			api.HandleBadRequest(resp, errors.New("payment gateway is not configured for this purchase"))
			return
		}
		api.HandleInternalError(resp, err)
		return
	}

	api.Succeed(resp, form)
}
