package metrics

import (
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unclebandit/muxo-dispatch/internal/model"
)

// Sink turns campaign progress into Prometheus metrics.
type Sink struct {
	registry    *prom.Registry
	messages    *prom.CounterVec
	transitions *prom.CounterVec
}

// New registers the dispatch collectors. active reports how many campaigns
// are running or waiting for their window; it is read at scrape time.
func New(active func() int) *Sink {
	s := &Sink{
		registry: prom.NewRegistry(),
		messages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "muxo",
			Name:      "messages_processed_total",
			Help:      "Paced sends by outcome",
		}, []string{"outcome"}),
		transitions: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "muxo",
			Name:      "campaign_transitions_total",
			Help:      "Campaign state changes by resulting state",
		}, []string{"state"}),
	}

	activeGauge := prom.NewGaugeFunc(prom.GaugeOpts{
		Namespace: "muxo",
		Name:      "campaigns_active",
		Help:      "Campaigns running or waiting for their window",
	}, func() float64 {
		if active == nil {
			return 0
		}
		return float64(active())
	})

	s.registry.MustRegister(s.messages, s.transitions, activeGauge)
	s.registry.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return s
}

func (s *Sink) Publish(p model.Progress) {
	switch p.Event {
	case model.EventSent, model.EventFailed:
		s.messages.WithLabelValues(p.Event).Inc()
	case model.EventState:
		s.transitions.WithLabelValues(string(p.State)).Inc()
	}
}

func (s *Sink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
