// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/vechain/collator-staking/log"
)

// LogStatus is the body of the api logs toggle.
type LogStatus struct {
	Enabled bool `json:"enabled"`
}

// RequestLoggerHandler logs every request with its response status and duration while enabled is set.
// The staking api is read-only so request bodies are not recorded.
func RequestLoggerHandler(handler http.Handler, logger log.Logger, enabled *atomic.Bool) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		if !enabled.Load() {
			handler.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		mrw := newMetricsResponseWriter(w)

		handler.ServeHTTP(mrw, r)

		logger.Info("API Request",
			"uri", r.URL.String(),
			"method", r.Method,
			"status", mrw.statusCode,
			"elapsed", time.Since(start),
		)
	}

	return http.HandlerFunc(fn)
}
