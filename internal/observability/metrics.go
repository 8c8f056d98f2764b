package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	APIRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "formsync_api_requests_total", Help: "HTTP requests by route and status"},
		[]string{"endpoint", "status"},
	)
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "formsync_webhook_events_total", Help: "Webflow form submissions by outcome"},
		[]string{"outcome"},
	)
	SendPulseRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sendpulse_requests_total", Help: "SendPulse API call outcomes"},
		[]string{"operation", "result", "http_status"},
	)
	SendPulseLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "sendpulse_request_latency_seconds", Help: "SendPulse API call latency"},
		[]string{"operation"},
	)
	TokenFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sendpulse_token_fetch_total", Help: "SendPulse access token fetches"},
		[]string{"result"},
	)
	AddressBookFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sendpulse_addressbook_fallback_total", Help: "Calls retried against the default address book"},
		[]string{"operation"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(APIRequests, WebhookEvents, SendPulseRequests, SendPulseLatency, TokenFetches, AddressBookFallbacks)
}
