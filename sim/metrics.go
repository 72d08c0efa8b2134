package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trolley_ticks_total",
		Help: "Simulation ticks executed",
	})
	warningsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trolley_warnings_total",
		Help: "Non-fatal rule violations recorded",
	})
	fatalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trolley_fatals_total",
		Help: "Run-ending rule violations by kind",
	}, []string{"kind"})
	resetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trolley_resets_total",
		Help: "Full resets performed",
	})
	runsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trolley_runs_completed_total",
		Help: "Runs completed with a stop at the store",
	})

	speedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trolley_speed",
		Help: "Current speed in playback-rate units",
	})
	positionGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trolley_position",
		Help: "Current route position (0..1)",
	})
	cylinderGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trolley_cylinder_psi",
		Help: "Brake cylinder pressure",
	})
	reservoirGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trolley_reservoir_psi",
		Help: "Brake reservoir pressure",
	})
)
