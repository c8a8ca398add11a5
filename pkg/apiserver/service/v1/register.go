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
	"net/http"

	"librapay/internal/gateway"
	"librapay/internal/store"
	"librapay/pkg/api"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
)

const (
	APIRootPath = "/librapay"
	Version     = "v1"

	ParamUserID      = "userid"
	ParamComponent   = "component"
	ParamPaymentArea = "paymentarea"
	ParamItemID      = "itemid"
	ParamToken       = "token"
)

var (
	ModuleTags = []string{"librapay"}
)

func newWebService() *restful.WebService {
	webservice := restful.WebService{}

	webservice.Path(fmt.Sprintf("%s/%s", APIRootPath, Version)).
		Produces(restful.MIME_JSON)

	return &webservice
}

func AddToContainer(c *restful.Container, initiator *gateway.Initiator, reconciler *gateway.Reconciler, txStore *store.Store) error {
	ws := newWebService()
	handler := newHandler(initiator, reconciler, txStore)

	ws.Route(ws.POST("/pay").
		To(handler.pay).
		Doc("start a payment and get the provider redirect form").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Reads(gateway.InitiateRequest{}).
		Returns(http.StatusOK, "redirect form built", &gateway.RedirectForm{}))

	ws.Route(ws.GET("/process").
		To(handler.process).
		Doc("handle the shopper's return from the payment page").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Param(ws.QueryParameter(ParamComponent, "purchasable component")).
		Param(ws.QueryParameter(ParamPaymentArea, "purchasable payment area")).
		Param(ws.QueryParameter(ParamItemID, "purchasable item id")).
		Param(ws.QueryParameter(ParamToken, "verification token issued at initiation")).
		Returns(http.StatusFound, "redirected with the payment outcome", nil))

	// the provider may POST the shopper back with the response fields in the
	// form body instead of the query string
	ws.Route(ws.POST("/process").
		To(handler.process).
		Doc("handle the shopper's return from the payment page").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Consumes("application/x-www-form-urlencoded", restful.MIME_JSON).
		Returns(http.StatusFound, "redirected with the payment outcome", nil))

	ws.Route(ws.GET("/transactions/user/{"+ParamUserID+"}").
		To(handler.exportUserData).
		Doc("export the transactions recorded for a user").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Param(ws.PathParameter(ParamUserID, "the id of the user")).
		Returns(http.StatusOK, "success to export the user transactions", &api.Response{}))

	ws.Route(ws.DELETE("/transactions/user/{"+ParamUserID+"}").
		To(handler.eraseUserData).
		Doc("anonymize the transactions recorded for a user").
		Metadata(restfulspec.KeyOpenAPITags, ModuleTags).
		Param(ws.PathParameter(ParamUserID, "the id of the user")).
		Returns(http.StatusOK, "success to anonymize the user transactions", &api.Response{}))

	c.Add(ws)

	return nil
}
