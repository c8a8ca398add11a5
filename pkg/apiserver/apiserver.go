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

package apiserver

import (
	"librapay/internal/conf"
	"librapay/internal/constants"
	"librapay/internal/gateway"
	"librapay/internal/notify"
	"librapay/internal/platform"
	"librapay/internal/redisdb"
	"librapay/internal/store"
	servicev1 "librapay/pkg/apiserver/service/v1"
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/golang/glog"
)

type APIServer struct {
	Server *http.Server

	// RESTful Server
	container *restful.Container

	Store      *store.Store
	Reconciler *gateway.Reconciler
	Initiator  *gateway.Initiator
}

func New() (*APIServer, error) {
	as := &APIServer{}

	server := &http.Server{
		Addr: constants.APIServerListenAddress,
	}

	as.Server = server
	return as, nil
}

func (s *APIServer) PrepareRun() error {
	conf.Init()

	txStore, err := store.New()
	if err != nil {
		return err
	}
	s.Store = txStore

	var lock gateway.OrderLocker = gateway.NoopLocker
	if conf.GetDevMode() {
		glog.Infof("Development environment detected, per-order locking disabled")
	} else {
		if err := redisdb.Init(); err != nil {
			glog.Fatalf("redisdb init err%s", err.Error())
		}
		lock = redisdb.AcquireOrderLock
	}

	sender, err := notify.NewSender()
	if err != nil {
		return err
	}

	platformClient := platform.NewClient()
	s.Initiator = gateway.NewInitiator(txStore, platformClient)
	s.Reconciler = gateway.NewReconciler(txStore, platformClient, sender, lock)

	s.container = restful.NewContainer()
	s.container.Filter(logRequestAndResponse)
	s.container.Router(restful.CurlyRouter{})
	s.container.RecoverHandler(func(panicReason interface{}, httpWriter http.ResponseWriter) {
		logStackOnRecover(panicReason, httpWriter)
	})

	s.installModuleAPI()
	s.installAPIDocs()

	for _, ws := range s.container.RegisteredWebServices() {
		glog.Infof("registered module: %s", ws.RootPath())
	}

	s.Server.Handler = s.container

	return nil
}

func (s *APIServer) Run() error {
	return s.Server.ListenAndServe()
}

func (s *APIServer) installAPIDocs() {
	config := restfulspec.Config{
		WebServices:                   s.container.RegisteredWebServices(), // you control what services are visible
		APIPath:                       "/librapay/v1/apidocs.json",
		PostBuildSwaggerObjectHandler: enrichSwaggerObject}
	s.container.Add(restfulspec.NewOpenAPIService(config))

	cors := restful.CrossOriginResourceSharing{
		AllowedHeaders: []string{"Content-Type", "Accept"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		CookiesAllowed: false,
		Container:      restful.DefaultContainer}
	s.container.Filter(cors.Filter)
}

func (s *APIServer) installModuleAPI() {
	_ = servicev1.AddToContainer(s.container, s.Initiator, s.Reconciler, s.Store)
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "LibraPay Gateway",
			Description: "Payment gateway bridge between the platform's core payment subsystem and LibraPay",
			Contact: &spec.ContactInfo{
				ContactInfoProps: spec.ContactInfoProps{
					Name:  "bytetrade",
					Email: "dev@bytetrade.io",
					URL:   "http://bytetrade.io",
				},
			},
			License: &spec.License{
				LicenseProps: spec.LicenseProps{
					Name: "Apache License 2.0",
					URL:  "http://www.apache.org/licenses/LICENSE-2.0",
				},
			},
			Version: "1.0.0",
		},
	}
	swo.Tags = []spec.Tag{{TagProps: spec.TagProps{
		Name:        "LibraPay",
		Description: "Card payment processing via LibraPay"}}}
	swo.Schemes = []string{"http", "https"}
}
