// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/collator-staking/api/admin/apilogs"
	"github.com/vechain/collator-staking/api/admin/loglevel"
	"github.com/vechain/collator-staking/api/utils"
)

// New returns the admin router, serving the runtime log level and the API request log switch.
func New(logLevel *slog.LevelVar, apiLogs *atomic.Bool) http.HandlerFunc {
	router := mux.NewRouter()
	sub := router.PathPrefix("/admin").Subrouter()

	loglevel.New(logLevel).Mount(sub, "/loglevel")
	apilogs.New(apiLogs).Mount(sub, "/apilogs")

	router.NotFoundHandler = utils.WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error {
		return utils.NotFound(nil)
	})

	return handlers.CompressHandler(router).ServeHTTP
}
