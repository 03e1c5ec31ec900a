package pager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for pager sessions.
var (
	pagerBatchesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listings_pager_batches_appended_total",
		Help: "Total batches appended to the displayed sequence",
	})

	pagerPrefetchHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listings_pager_prefetch_hits_total",
		Help: "Show-more requests served instantly from the pending buffer",
	})

	pagerFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listings_pager_fetches_total",
		Help: "Total batch fetches issued by sessions, by result",
	}, []string{"result"}) // "ok", "error", "deduplicated"

	pagerPendingBatches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "listings_pager_pending_batches",
		Help: "Batches currently parked in pending buffers",
	})
)
