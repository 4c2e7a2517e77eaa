package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AdsScraped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ads_scraped_total",
			Help: "Ads fetched live and extracted successfully",
		},
	)
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ad_cache_hits_total",
			Help: "Ads resolved from the raw page cache without a fetch",
		},
	)
	ExtractionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ad_extraction_failures_total",
			Help: "Ad pages that failed extraction",
		},
	)
	PredictionsPublished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cheap_predictions_published_total",
			Help: "Underpriced listings published to the alert stream",
		},
	)
)

func Start(port string) {
	prometheus.MustRegister(AdsScraped, CacheHits, ExtractionFailures, PredictionsPublished)
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":"+port, nil)
}
