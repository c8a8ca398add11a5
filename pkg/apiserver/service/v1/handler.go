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
	"librapay/internal/gateway"
	"librapay/internal/privacy"
	"librapay/internal/store"
)

type Handler struct {
	initiator  *gateway.Initiator
	reconciler *gateway.Reconciler
	privacy    *privacy.Service
}

func newHandler(initiator *gateway.Initiator, reconciler *gateway.Reconciler, txStore *store.Store) *Handler {
	return &Handler{
		initiator:  initiator,
		reconciler: reconciler,
		privacy:    privacy.NewService(txStore),
	}
}
