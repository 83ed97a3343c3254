// Package metrics exports access point activity to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tomiamao/apmlme/ap"
	"github.com/tomiamao/apmlme/internal/smebridge"
)

const namespace = "apmlme"

// A Recorder implements ap.Recorder and smebridge.Observer.
type Recorder struct {
	dropped     *prometheus.CounterVec
	transmitted *prometheus.CounterVec
	clients     *prometheus.GaugeVec
	buffered    prometheus.Gauge
	sme         *prometheus.CounterVec
}

var (
	_ ap.Recorder        = (*Recorder)(nil)
	_ smebridge.Observer = (*Recorder)(nil)
)

// New creates a Recorder and registers its collectors with reg.
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		dropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_dropped_total",
				Help:      "Total number of frames dropped by the MLME, by reason.",
			},
			[]string{"reason"},
		),
		transmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_transmitted_total",
				Help:      "Total number of frames transmitted by the MLME, by kind.",
			},
			[]string{"kind"},
		),
		clients: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "clients",
				Help:      "Number of client records, by state.",
			},
			[]string{"state"},
		),
		buffered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ps_buffered_frames",
				Help:      "Number of frames buffered for dozing clients.",
			},
		),
		sme: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sme_messages_total",
				Help:      "Total number of messages relayed to and from the SME.",
			},
			[]string{"direction", "method"},
		),
	}

	reg.MustRegister(r.dropped, r.transmitted, r.clients, r.buffered, r.sme)
	return r
}

// FrameDropped implements ap.Recorder.
func (r *Recorder) FrameDropped(reason string) { r.dropped.WithLabelValues(reason).Inc() }

// FrameTransmitted implements ap.Recorder.
func (r *Recorder) FrameTransmitted(kind string) { r.transmitted.WithLabelValues(kind).Inc() }

// SetClients implements ap.Recorder.
func (r *Recorder) SetClients(state string, n int) {
	r.clients.WithLabelValues(state).Set(float64(n))
}

// SetBuffered implements ap.Recorder.
func (r *Recorder) SetBuffered(n int) { r.buffered.Set(float64(n)) }

// MessageRelayed implements smebridge.Observer.
func (r *Recorder) MessageRelayed(direction, method string) {
	r.sme.WithLabelValues(direction, method).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
