// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "curator"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	ArticlesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_ingested_total",
		Help:      "New articles stored by a source refresh.",
	}, []string{"source"})

	FeedFetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_fetch_failures_total",
		Help:      "Failed source refreshes.",
	}, []string{"source"})

	CommentTreeSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "comment_tree_comments",
		Help:      "Number of comments per built comment tree.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	})

	ArticlesCleanedUp = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_cleaned_up_total",
		Help:      "Articles removed by the retention job.",
	})
)
