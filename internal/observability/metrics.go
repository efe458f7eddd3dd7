package observability

import (
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the settlement engine.
type Metrics struct {
	// --- Lifecycle operations ---
	OpsApplied  *prometheus.CounterVec   // op
	OpsRejected *prometheus.CounterVec   // op, reason
	OpDuration  *prometheus.HistogramVec // op

	// --- Price validation ---
	PriceRejections *prometheus.CounterVec // kind
	PricesValidated prometheus.Counter

	// --- Economic state ---
	PositionsOpen      prometheus.Gauge
	InstrumentExposure *prometheus.GaugeVec   // instrument, whole units
	PoolBalance        prometheus.Gauge       // whole units
	PayoutsTotal       prometheus.Counter     // whole units, cumulative
	Liquidations       *prometheus.CounterVec // instrument

	// --- Outbound & persistence ---
	OutboundDrops      prometheus.Counter
	PersistErrors      *prometheus.CounterVec // error_type
	PersistRetry       prometheus.Counter
	PersistRowsWritten prometheus.Counter
	PersistBatchDur    prometheus.Histogram
	PersistBatchSize   prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	opBuckets := []float64{
		0.00001, 0.000025, 0.00005, 0.0001, 0.00025,
		0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		OpsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "synth_engine_ops_applied_total",
			Help: "Lifecycle operations applied",
		}, []string{"op"}),

		OpsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "synth_engine_ops_rejected_total",
			Help: "Lifecycle operations rejected (config, market data, economic state)",
		}, []string{"op", "reason"}),

		OpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "synth_engine_op_duration_seconds",
			Help:    "Time to complete one lifecycle operation",
			Buckets: opBuckets,
		}, []string{"op"}),

		PriceRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "synth_oracle_rejections_total",
			Help: "Quote bundles rejected by validation stage",
		}, []string{"kind"}),

		PricesValidated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synth_oracle_validated_total",
			Help: "Quote bundles that passed all validation stages",
		}),

		PositionsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "synth_positions_open",
			Help: "Currently open positions",
		}),

		InstrumentExposure: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "synth_instrument_exposure_units",
			Help: "Aggregate notional exposure per instrument, whole base units",
		}, []string{"instrument"}),

		PoolBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "synth_pool_balance_units",
			Help: "Liquidity pool capital, whole base units",
		}),

		PayoutsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synth_payouts_units_total",
			Help: "Cumulative payouts to traders, whole base units",
		}),

		Liquidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "synth_liquidations_total",
			Help: "Forced closes executed",
		}, []string{"instrument"}),

		OutboundDrops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synth_outbound_drops_total",
			Help: "Notifications dropped due to full outbound channel",
		}),

		PersistErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "synth_persist_errors_total",
			Help: "Settlement history persistence errors",
		}, []string{"error_type"}),

		PersistRetry: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synth_persist_retry_total",
			Help: "Settlement history write retries",
		}),

		PersistRowsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "synth_persist_rows_written_total",
			Help: "Settlement history rows written",
		}),

		PersistBatchDur: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "synth_persist_batch_duration_seconds",
			Help:    "Postgres batch write duration",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),

		PersistBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "synth_persist_batch_size",
			Help:    "Rows per history batch",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// WadToUnits converts an 18-decimal fixed-point value to float64 whole units
// for gauge exports. Lossy: gauges are observability, not money.
func WadToUnits(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	f.Quo(f, new(big.Float).SetFloat64(1e18))
	out, _ := f.Float64()
	return out
}
