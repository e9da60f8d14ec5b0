package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterExportsCounters(t *testing.T) {
	Register()
	Register() // a second call must not panic on duplicate registration

	ExtractionsTotal.WithLabelValues("completed").Inc()
	FetchesTotal.WithLabelValues("ok").Inc()
	TokensTotal.WithLabelValues("input").Add(3)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}

	found := make(map[string]bool)
	for _, f := range families {
		found[f.GetName()] = true
	}
	for _, name := range []string{"extractions_total", "fetches_total", "llm_tokens_total"} {
		if !found[name] {
			t.Errorf("metric %s not exported after Register", name)
		}
	}
}
