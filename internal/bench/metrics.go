package bench

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	variantLabel = "variant"
	sizeLabel    = "size"
)

var (
	buildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quadtree_build_duration_seconds",
		Help:    "Wall time of one timed quadtree build.",
		Buckets: prometheus.ExponentialBuckets(1e-7, 4, 16),
	}, []string{
		variantLabel,
		sizeLabel,
	})

	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quadtree_builds_total",
		Help: "The number of timed quadtree builds.",
	}, []string{
		variantLabel,
	})

	treeLeaves = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "quadtree_leaves",
		Help: "Leaf count of the most recent tree per variant and size.",
	}, []string{
		variantLabel,
		sizeLabel,
	})
)

func observeBuild(variant string, size int, seconds float64) {
	s := strconv.Itoa(size)
	buildDuration.WithLabelValues(variant, s).Observe(seconds)
	buildsTotal.WithLabelValues(variant).Inc()
}

func observeLeaves(variant string, size, leaves int) {
	treeLeaves.WithLabelValues(variant, strconv.Itoa(size)).Set(float64(leaves))
}
