package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SessionsIssued counts sessions minted by the issuer.
var SessionsIssued = promauto.NewCounter(prometheus.CounterOpts{
	Name: "qrattend_sessions_issued_total",
	Help: "Number of attendance sessions issued.",
})

// Redemptions counts redemption attempts by outcome kind ("ok" on success,
// otherwise the stable error tag).
var Redemptions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "qrattend_redemptions_total",
	Help: "Number of token redemption attempts by outcome.",
}, []string{"outcome"})

// SessionsReaped counts expired sessions physically deleted by the worker.
var SessionsReaped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "qrattend_sessions_reaped_total",
	Help: "Number of expired sessions deleted by the reaper.",
})
