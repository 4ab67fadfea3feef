package checkout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_orders_created_total",
		Help: "Orders created at checkout, by payment method.",
	}, []string{"payment_method"})

	reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketplace_reconciliations_total",
		Help: "Read-triggered reconciliation outcomes.",
	}, []string{"result"})
)

const (
	reconcileResultTransitioned = "transitioned"
	reconcileResultUnchanged    = "unchanged"
	reconcileResultLostRace     = "lost_race"
	reconcileResultError        = "error"
)
