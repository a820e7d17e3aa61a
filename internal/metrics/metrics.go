// Package metrics carries the ambient prometheus instrumentation for the
// index pipeline, the same promauto wiring style as the teacher's
// top-level metrics package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var HitsIndexed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sphx_hits_indexed_total",
		Help: "Hits accepted by the hit builder, by word dictionary mode",
	},
	[]string{"dict_mode"},
)

var WordsInterned = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "sphx_words_interned_total",
		Help: "Distinct keywords assigned a word id by the dictionary",
	},
)

var CrcCollisions = promauto.NewCounter(
	prometheus.CounterOpts{
		Name: "sphx_dict_crc_collisions_total",
		Help: "Keyword CRC collisions resolved during interning",
	},
)

var DictionaryBytes = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "sphx_dictionary_bytes",
		Help: "Size in bytes of the most recently finalized dictionary blob",
	},
)

var ArenaBytesUsed = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "sphx_arena_bytes_used",
		Help: "Bytes allocated out of a shared-memory arena",
	},
	[]string{"arena"},
)

var ArenaTagsLive = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "sphx_arena_tags_live",
		Help: "Live allocation tags in a shared-memory arena",
	},
	[]string{"arena"},
)

var KillListSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "sphx_kill_list_size",
		Help: "Documents currently marked dead in the kill list",
	},
)

var IndexBuildLatencyHistogram = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "sphx_index_build_latency_seconds",
		Help:    "Wall time spent finalizing an index's file set",
		Buckets: prometheus.ExponentialBuckets(0.001, 10, 8),
	},
	[]string{"stage"},
)
