// Package metrics exports the ant controller's per-tick state as Prometheus
// metrics.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/selforg/antscale/colony"
)

const namespace = "antscale"

// Exporter mirrors controller tick reports into Prometheus collectors.
// Safe for concurrent use; the collectors synchronize internally.
type Exporter struct {
	pheromone        *prometheus.GaugeVec
	votes            *prometheus.GaugeVec
	poolSize         prometheus.Gauge
	ticks            prometheus.Counter
	actions          *prometheus.CounterVec
	serversRequested *prometheus.CounterVec
}

// NewExporter creates the collectors and registers them with reg.
func NewExporter(reg prometheus.Registerer) (*Exporter, error) {
	e := &Exporter{
		pheromone: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pheromone_level",
				Help:      "Pheromone level per server after the last tick's decay.",
			},
			[]string{"server"},
		),
		votes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "votes",
				Help:      "Ant votes cast in the last tick by morph.",
			},
			[]string{"morph"},
		),
		poolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_servers",
			Help:      "Servers known to the colony in the last tick.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Controller ticks observed.",
		}),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scale_actions_total",
				Help:      "Actuation requests by action.",
			},
			[]string{"action"},
		),
		serversRequested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "servers_requested_total",
				Help:      "Servers requested by action.",
			},
			[]string{"action"},
		),
	}
	for _, c := range []prometheus.Collector{e.pheromone, e.votes, e.poolSize, e.ticks, e.actions, e.serversRequested} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering antscale metrics: %w", err)
		}
	}
	return e, nil
}

// Observe records one tick report. Pheromone series of servers that left
// the pool are dropped.
func (e *Exporter) Observe(r colony.TickReport) {
	e.ticks.Inc()
	e.pheromone.Reset()
	for s, level := range r.Levels {
		e.pheromone.WithLabelValues(strconv.Itoa(int(s))).Set(level)
	}
	e.poolSize.Set(float64(len(r.Levels)))
	e.votes.WithLabelValues(colony.ScaleUp.String()).Set(float64(r.Votes.ScaleUp))
	e.votes.WithLabelValues(colony.ScaleDown.String()).Set(float64(r.Votes.ScaleDown))
	e.votes.WithLabelValues(colony.Stable.String()).Set(float64(r.Votes.Stable))
	if r.Action != colony.ActionNone && r.Action != "" {
		e.actions.WithLabelValues(string(r.Action)).Inc()
		e.serversRequested.WithLabelValues(string(r.Action)).Add(float64(r.Magnitude))
	}
}

// WriteTextfile writes everything g gathers to path in the text exposition
// format, for node_exporter's textfile collector or offline inspection.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
