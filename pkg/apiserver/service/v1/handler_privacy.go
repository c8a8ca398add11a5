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
	"fmt"

	"librapay/pkg/api"

	"github.com/emicklei/go-restful/v3"
	"github.com/golang/glog"
)

func (h *Handler) exportUserData(req *restful.Request, resp *restful.Response) {
	userID := req.PathParameter(ParamUserID)
	if userID == "" {
		api.HandleBadRequest(resp, fmt.Errorf("userid is nil"))
		return
	}

	transactions, err := h.privacy.Export(userID)
	if err != nil {
		glog.Warningf("export transactions for user %s failed: %s", userID, err.Error())
		api.HandleInternalError(resp, err)
		return
	}

	api.Succeed(resp, transactions)
}

func (h *Handler) eraseUserData(req *restful.Request, resp *restful.Response) {
	userID := req.PathParameter(ParamUserID)
	if userID == "" {
		api.HandleBadRequest(resp, fmt.Errorf("userid is nil"))
		return
	}

	anonymized, err := h.privacy.Erase(userID)
	if err != nil {
		glog.Warningf("anonymize transactions for user %s failed: %s", userID, err.Error())
		api.HandleInternalError(resp, err)
		return
	}

	api.Succeed(resp, map[string]int64{"anonymized": anonymized})
}
