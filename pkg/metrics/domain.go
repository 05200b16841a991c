package metrics

import "github.com/prometheus/client_golang/prometheus"

// DomainMetrics counts side effects that never fail the request (push, fan-out).
type DomainMetrics struct {
	pushDispatch    *prometheus.CounterVec
	trackingPublish *prometheus.CounterVec
}

func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	push := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_dispatch_total",
		Help:      "Web push dispatch outcomes.",
	}, []string{"result"})
	tracking := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tracking_publish_total",
		Help:      "Delivery location fan-out publish outcomes.",
	}, []string{"result"})
	reg.MustRegister(push, tracking)
	return &DomainMetrics{pushDispatch: push, trackingPublish: tracking}
}

// IncPushDispatch counts a push.Result outcome (sent, skipped, failed).
func (d *DomainMetrics) IncPushDispatch(result string) {
	if d == nil || d.pushDispatch == nil {
		return
	}
	d.pushDispatch.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncTrackingPublish counts a broker publish outcome (delivered, no_subscribers, failed).
func (d *DomainMetrics) IncTrackingPublish(result string) {
	if d == nil || d.trackingPublish == nil {
		return
	}
	d.trackingPublish.WithLabelValues(normalizeLabel(result)).Inc()
}
