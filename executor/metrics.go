package executor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// executorMetrics tracks per-chain execution outcomes. The collectors are
// intentionally unregistered; callers wanting scrape exposure add them to
// their own registry via Collectors.
type executorMetrics struct {
	executions        *prometheus.CounterVec
	executionLatency  prometheus.Histogram
	gasUsed           prometheus.Histogram
	approvals         prometheus.Counter
	estimateFallbacks prometheus.Counter
}

func newExecutorMetrics(chain string) *executorMetrics {
	labels := prometheus.Labels{"chain": chain}

	return &executorMetrics{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "arb_executions_total",
			Help:        "Number of arbitrage execution attempts by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		executionLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "arb_execution_latency_seconds",
			Help:        "End-to-end latency of arbitrage executions",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}),
		gasUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "arb_gas_used",
			Help:        "Gas used by confirmed arbitrage transactions",
			Buckets:     prometheus.ExponentialBuckets(21000, 2, 8),
			ConstLabels: labels,
		}),
		approvals: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "arb_approvals_total",
			Help:        "Number of confirmed token approvals",
			ConstLabels: labels,
		}),
		estimateFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "arb_gas_estimate_fallbacks_total",
			Help:        "Number of times gas estimation failed and the fallback limit was used",
			ConstLabels: labels,
		}),
	}
}

func (m *executorMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.executions,
		m.executionLatency,
		m.gasUsed,
		m.approvals,
		m.estimateFallbacks,
	}
}
