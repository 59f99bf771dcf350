// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"math/big"
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/collator-staking/api/staking"
	"github.com/vechain/collator-staking/api/utils"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/log"
	"github.com/vechain/collator-staking/logdb"
	"github.com/vechain/collator-staking/state"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger *atomic.Bool // nil disables request logs
	EnableMetrics   bool
	EventsLimit     uint64
}

// New return api router
func New(
	stater *state.Stater,
	cfg *staker.Config,
	existentialDeposit *big.Int,
	logDB logdb.Reader,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	router.Path("/").HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, "/staking/round", http.StatusTemporaryRedirect)
		})

	staking.New(stater, cfg, existentialDeposit, logDB, opts.EventsLimit).
		Mount(router, "/staking")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	router.NotFoundHandler = utils.WrapHandlerFunc(func(http.ResponseWriter, *http.Request) error {
		return utils.NotFound(nil)
	})

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger != nil {
		handler = RequestLoggerHandler(handler, logger, opts.EnableReqLogger)
	}

	return handler.ServeHTTP
}
