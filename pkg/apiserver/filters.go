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
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/golang/glog"
)

func logRequestAndResponse(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
	start := time.Now()
	chain.ProcessFilter(req, resp)

	// Never log query strings here; the sync callback carries the
	// verification token as a query parameter.
	glog.Infof("%s - \"%s %s\" %d %d %dms",
		req.Request.RemoteAddr,
		req.Request.Method,
		req.Request.URL.Path,
		resp.StatusCode(),
		resp.ContentLength(),
		time.Since(start).Milliseconds())
}

func logStackOnRecover(panicReason interface{}, w http.ResponseWriter) {
	var buffer [4096]byte
	n := runtime.Stack(buffer[:], false)
	glog.Errorf("recovered from panic: %v\n%s", panicReason, buffer[:n])

	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(fmt.Sprintf("{\"code\":%d,\"message\":\"internal error\"}", http.StatusInternalServerError)))
}
