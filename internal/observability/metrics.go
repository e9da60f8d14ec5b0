package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ExtractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Total extraction runs by outcome",
		},
		[]string{"status"},
	)
	FetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetches_total",
			Help: "Total page fetches requested by the model, by result",
		},
		[]string{"result"},
	)
	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens consumed, by type",
		},
		[]string{"type"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Both the scraper and
// the server count through them, so each main calls it via Start; the once
// guard keeps repeated calls safe.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(ExtractionsTotal, FetchesTotal, TokensTotal)
	})
}

func Start(port string) {
	Register()
	http.Handle("/metrics", promhttp.Handler())
	go http.ListenAndServe(":"+port, nil)
}
