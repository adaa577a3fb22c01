package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Jackkkkkkkkkkkk123/openclaw-avatar-sub003/pkg/domain"
)

// Collector bridges engine lifecycle hooks to Prometheus metrics. Wire it
// with engine options:
//
//	col := observability.NewCollector("avatar")
//	col.MustRegister(prometheus.DefaultRegisterer)
//	eng := avatar.New(avatar.WithMetrics(col))
type Collector struct {
	ticks        prometheus.Counter
	tickDuration prometheus.Histogram
	activeLayers prometheus.Gauge
	blendFinal   prometheus.Gauge
	motions      *prometheus.CounterVec
	conflicts    prometheus.Counter
	switches     *prometheus.CounterVec
	reactions    *prometheus.CounterVec
	steps        *prometheus.CounterVec
}

// NewCollector builds the metric set under the given namespace
// (conventionally "avatar").
func NewCollector(namespace string) *Collector {
	return &Collector{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total engine ticks processed",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent computing one tick",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		activeLayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_layers",
			Help:      "Layers currently contributing weight",
		}),
		blendFinal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blend_final_weight",
			Help:      "Combined blend weight after capping",
		}),
		motions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "motions_total",
			Help:      "Motion arbitration outcomes",
		}, []string{"kind", "region"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expression_conflicts_total",
			Help:      "Conflicting expression pairs detected",
		}),
		switches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emotion_switches_total",
			Help:      "Smart emotion switch attempts",
		}, []string{"committed"}),
		reactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reactions_total",
			Help:      "Text reactions triggered",
		}, []string{"rule"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sequence_steps_total",
			Help:      "Sequence steps applied",
		}, []string{"sequence"}),
	}
}

// MustRegister registers every metric on reg, panicking on duplicates the
// same way prometheus.MustRegister does.
func (c *Collector) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(
		c.ticks,
		c.tickDuration,
		c.activeLayers,
		c.blendFinal,
		c.motions,
		c.conflicts,
		c.switches,
		c.reactions,
		c.steps,
	)
}

// Hooks returns the lifecycle hooks feeding this collector.
func (c *Collector) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTick: func(e domain.TickEvent) {
			c.ticks.Inc()
			c.tickDuration.Observe(e.Elapsed.Seconds())
			c.activeLayers.Set(float64(e.ActiveLayers))
		},
		OnMotion: func(e domain.MotionEvent) {
			c.motions.WithLabelValues(string(e.Kind), string(e.Region)).Inc()
		},
		OnBlend: func(e domain.BlendResult) {
			c.blendFinal.Set(e.Final)
		},
		OnSelection: func(e domain.Selection) {
			if n := len(e.Conflicts); n > 0 {
				c.conflicts.Add(float64(n))
			}
		},
		OnEmotionChange: func(e domain.EmotionChange) {
			c.switches.WithLabelValues(strconv.FormatBool(e.Committed)).Inc()
		},
		OnReaction: func(e domain.Reaction) {
			c.reactions.WithLabelValues(e.Rule).Inc()
		},
		OnSequenceStep: func(e domain.SequenceEvent) {
			c.steps.WithLabelValues(e.Sequence).Inc()
		},
	}
}
