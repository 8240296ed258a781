package engine

import "expvar"

var (
	metricBetsSubmitted = expvar.NewInt("bets_submitted_total")
	metricBetsConfirmed = expvar.NewInt("bets_confirmed_total")
	metricBetsSettled   = expvar.NewInt("bets_settled_total")
	metricBetsRejected  = expvar.NewInt("bets_rejected_total")
	metricLockBusy      = expvar.NewInt("bet_lock_busy_total")
	metricCellsRevealed = expvar.NewInt("cells_revealed_total")

	metricSubmitReplayed = expvar.NewInt("bets_submit_replayed_total")
)
