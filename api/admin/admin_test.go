// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRouter(t *testing.T) {
	var (
		level   slog.LevelVar
		apiLogs atomic.Bool
	)
	ts := httptest.NewServer(New(&level, &apiLogs))
	t.Cleanup(ts.Close)

	res, err := http.Post(ts.URL+"/admin/loglevel", "application/json", strings.NewReader(`{"level":"debug"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, slog.LevelDebug, level.Level())

	res, err = http.Post(ts.URL+"/admin/apilogs", "application/json", strings.NewReader(`{"enabled":true}`))
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"enabled":true}`, string(body))
	assert.True(t, apiLogs.Load())

	res, err = http.Get(ts.URL + "/admin/health")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}
