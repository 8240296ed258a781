package httptransport

import "expvar"

var (
	metricSSEConnectionsTotal  = expvar.NewInt("bet_sse_connections_total")
	metricSSEConnectionsActive = expvar.NewInt("bet_sse_connections_active")
	metricWSConnectionsActive  = expvar.NewInt("player_ws_connections_active")
	metricRateLimited          = expvar.NewInt("player_rate_limited_total")
	metricHTTPServerErrors     = expvar.NewInt("http_internal_errors_total")
)
