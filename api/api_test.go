// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/collator-staking/api/staking"
	"github.com/vechain/collator-staking/builtin/staker"
	"github.com/vechain/collator-staking/logdb"
	"github.com/vechain/collator-staking/lvldb"
	"github.com/vechain/collator-staking/metrics"
	"github.com/vechain/collator-staking/state"
	"github.com/vechain/collator-staking/thor"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	res, err := client.Get(url) // #nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func newEmptyBackend(t *testing.T) (*state.Stater, *logdb.LogDB) {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return state.NewStater(lvldb.NewMem()), db
}

func TestRouter(t *testing.T) {
	stater, db := newEmptyBackend(t)
	ts := httptest.NewServer(New(stater, staker.DefaultConfig(), big.NewInt(1), db, Options{
		AllowedOrigins: "*",
		EventsLimit:    100,
		PprofOn:        true,
	}))
	t.Cleanup(ts.Close)

	_, code := httpGet(t, ts.URL+"/")
	assert.Equal(t, http.StatusTemporaryRedirect, code)

	_, code = httpGet(t, ts.URL+"/staking/round")
	assert.Equal(t, http.StatusOK, code)

	_, code = httpGet(t, ts.URL+"/staking/unknown")
	assert.Equal(t, http.StatusNotFound, code)

	_, code = httpGet(t, ts.URL+"/debug/pprof/")
	assert.Equal(t, http.StatusOK, code)
}

func TestMetricsMiddleware(t *testing.T) {
	stater, db := newEmptyBackend(t)

	router := mux.NewRouter()
	staking.New(stater, staker.DefaultConfig(), big.NewInt(1), db, 100).Mount(router, "/staking")
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.Use(metricsMiddleware)
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)

	httpGet(t, ts.URL+"/staking/round")
	httpGet(t, ts.URL+"/staking/candidates/"+thor.Address{}.String())
	httpGet(t, ts.URL+"/staking/candidates/0x")

	body, _ := httpGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	family, ok := families["staking_metrics_api_request_count"]
	require.True(t, ok)
	m := family.GetMetric()
	assert.Equal(t, 3, len(m), "should be 3 metric entries")

	codes := make(map[string]string)
	for _, metric := range m {
		labels := make(map[string]string)
		for _, l := range metric.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, http.MethodGet, labels["method"])
		assert.Equal(t, float64(1), metric.GetCounter().GetValue())
		codes[labels["code"]] = labels["name"]
	}
	assert.Equal(t, map[string]string{
		"200": "GET /staking/round",
		"404": "GET /staking/candidates/{address}",
		"400": "GET /staking/candidates/{address}",
	}, codes)

	_, ok = families["staking_metrics_api_duration_ms"]
	assert.True(t, ok)
}
