package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

const namespace = "intcheck"

// Collector owns every metric the demo exports. It keeps its own registry
// so that several collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	checksTotal      *prometheus.CounterVec
	checkRequests    *prometheus.CounterVec
	lastCheck        prometheus.Gauge
	lastCheckPassed  prometheus.Gauge
	workerIterations *prometheus.CounterVec
	workerSignals    *prometheus.CounterVec
	workerLatched    *prometheus.GaugeVec
	restartRequests  prometheus.Counter
}

// Options configures a Collector
type Options struct {
	// HostMetrics adds CPU and memory gauges sampled on scrape.
	HostMetrics bool
	// RuntimeMetrics adds the Go runtime and process collectors.
	RuntimeMetrics bool
}

// NewCollector creates and registers all metrics
func NewCollector(opts Options) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		checksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checks_total",
				Help:      "Status checks performed by result",
			},
			[]string{"result"},
		),
		checkRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "check_requests_total",
				Help:      "Origins that contributed to a performed check",
			},
			[]string{"origin"},
		),
		lastCheck: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_check_number",
			Help:      "Number of the most recent status check",
		}),
		lastCheckPassed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_check_passed",
			Help:      "1 if the most recent status check passed, 0 otherwise",
		}),
		workerIterations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_iterations_total",
				Help:      "Calculations completed per worker",
			},
			[]string{"worker"},
		),
		workerSignals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "worker_signals_total",
				Help:      "Liveness check-ins per worker",
			},
			[]string{"worker"},
		),
		workerLatched: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "worker_latched",
				Help:      "1 once a worker has produced a wrong result",
			},
			[]string{"worker"},
		),
		restartRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restart_requests_total",
			Help:      "Restart requests received (restart is not supported at runtime)",
		}),
	}

	c.registry.MustRegister(
		c.checksTotal,
		c.checkRequests,
		c.lastCheck,
		c.lastCheckPassed,
		c.workerIterations,
		c.workerSignals,
		c.workerLatched,
		c.restartRequests,
	)

	// Always export both results, even before the first check
	c.checksTotal.WithLabelValues("pass")
	c.checksTotal.WithLabelValues("fail")

	if opts.HostMetrics {
		c.registry.MustRegister(newHostCollectors()...)
	}
	if opts.RuntimeMetrics {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

func newHostCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_cpu_percent",
			Help:      "Host CPU usage percentage since the previous scrape",
		}, func() float64 {
			percent, err := cpu.Percent(0, false)
			if err != nil || len(percent) == 0 {
				return 0
			}
			return percent[0]
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "host_memory_used_bytes",
			Help:      "Host memory in use",
		}, func() float64 {
			vm, err := mem.VirtualMemory()
			if err != nil {
				return 0
			}
			return float64(vm.Used)
		}),
	}
}

// InitWorkers exports zero values for each worker so dashboards see every
// worker before its first iteration.
func (c *Collector) InitWorkers(n int) {
	for id := 0; id < n; id++ {
		label := strconv.Itoa(id)
		c.workerIterations.WithLabelValues(label)
		c.workerSignals.WithLabelValues(label)
		c.workerLatched.WithLabelValues(label).Set(0)
	}
}

// WorkerIteration implements intmath.Recorder
func (c *Collector) WorkerIteration(id int) {
	c.workerIterations.WithLabelValues(strconv.Itoa(id)).Inc()
}

// WorkerSignal implements intmath.Recorder
func (c *Collector) WorkerSignal(id int) {
	c.workerSignals.WithLabelValues(strconv.Itoa(id)).Inc()
}

// WorkerLatched implements intmath.Recorder
func (c *Collector) WorkerLatched(id int) {
	c.workerLatched.WithLabelValues(strconv.Itoa(id)).Set(1)
}

// CheckCompleted implements monitor.Recorder
func (c *Collector) CheckCompleted(number uint64, passed bool, origins []string) {
	result := "fail"
	passedValue := 0.0
	if passed {
		result = "pass"
		passedValue = 1
	}
	c.checksTotal.WithLabelValues(result).Inc()
	c.lastCheck.Set(float64(number))
	c.lastCheckPassed.Set(passedValue)
	for _, origin := range origins {
		c.checkRequests.WithLabelValues(origin).Inc()
	}
}

// RestartRequested counts an unsupported restart request
func (c *Collector) RestartRequested() {
	c.restartRequests.Inc()
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteText gathers every metric family whose name has prefix and writes
// it in the text exposition format. An empty prefix writes everything.
func (c *Collector) WriteText(w io.Writer, prefix string) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	encoder := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if prefix != "" && !strings.HasPrefix(mf.GetName(), prefix) {
			continue
		}
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
