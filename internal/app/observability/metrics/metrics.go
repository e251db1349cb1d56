package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal       metric.Int64Counter
	HTTPRequestDuration     metric.Float64Histogram
	AuthRequestsTotal       metric.Int64Counter
	SessionTransitionsTotal metric.Int64Counter
	BackendRequestDuration  metric.Float64Histogram
	BackendErrorsTotal      metric.Int64Counter
	PollTicksTotal          metric.Int64Counter
	PollFailuresTotal       metric.Int64Counter
	PollSkippedTotal        metric.Int64Counter
	UnreadNotifications     metric.Int64Gauge
	TemplateRenderDuration  metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metrics instruments ONLY ONCE.
// It gets the Meter from the global MeterProvider, which delegates to the
// real provider once tracer.InitOtelProviders installs it.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("kaayjang-web")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_request_duration_seconds: %v", err)
		}

		m.AuthRequestsTotal, err = meter.Int64Counter(
			"auth_requests_total",
			metric.WithDescription("Total number of login/register attempts"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create auth_requests_total: %v", err)
		}

		m.SessionTransitionsTotal, err = meter.Int64Counter(
			"session_transitions_total",
			metric.WithDescription("Session status transitions by target status"),
			metric.WithUnit("{transition}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create session_transitions_total: %v", err)
		}

		m.BackendRequestDuration, err = meter.Float64Histogram(
			"backend_request_duration_seconds",
			metric.WithDescription("Duration of REST backend calls in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create backend_request_duration_seconds: %v", err)
		}

		m.BackendErrorsTotal, err = meter.Int64Counter(
			"backend_errors_total",
			metric.WithDescription("Total number of failed REST backend calls"),
			metric.WithUnit("{error}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create backend_errors_total: %v", err)
		}

		m.PollTicksTotal, err = meter.Int64Counter(
			"poll_ticks_total",
			metric.WithDescription("Total number of polling fetches started"),
			metric.WithUnit("{tick}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poll_ticks_total: %v", err)
		}

		m.PollFailuresTotal, err = meter.Int64Counter(
			"poll_failures_total",
			metric.WithDescription("Total number of polling fetches that failed"),
			metric.WithUnit("{tick}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poll_failures_total: %v", err)
		}

		m.PollSkippedTotal, err = meter.Int64Counter(
			"poll_skipped_total",
			metric.WithDescription("Ticks skipped because the previous fetch was still in flight"),
			metric.WithUnit("{tick}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create poll_skipped_total: %v", err)
		}

		m.UnreadNotifications, err = meter.Int64Gauge(
			"unread_notifications_current",
			metric.WithDescription("Last polled unread notification count"),
			metric.WithUnit("{notification}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create unread_notifications_current: %v", err)
		}

		m.TemplateRenderDuration, err = meter.Float64Histogram(
			"template_render_duration_seconds",
			metric.WithDescription("Duration of template rendering in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create template_render_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global AppMetrics, initializing it on first use so tests
// do not need any observability setup.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
