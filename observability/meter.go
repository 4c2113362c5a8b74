package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/auth-service/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// AuthMetrics holds the metric instruments for authentication operations.
// A nil *AuthMetrics is valid and records nothing.
type AuthMetrics struct {
	registrationTotal metric.Int64Counter
	loginTotal        metric.Int64Counter
	verifyTotal       metric.Int64Counter
	decisionCache     metric.Int64Counter
	resetRequestTotal metric.Int64Counter
	resetRedeemTotal  metric.Int64Counter
}

// NewAuthMetrics creates metric instruments on the given meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	registrationTotal, err := meter.Int64Counter("auth.registration.total",
		metric.WithDescription("Total registration attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.registration.total counter: %w", err)
	}

	loginTotal, err := meter.Int64Counter("auth.login.total",
		metric.WithDescription("Total login attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.login.total counter: %w", err)
	}

	verifyTotal, err := meter.Int64Counter("auth.verify.total",
		metric.WithDescription("Total token verifications by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.verify.total counter: %w", err)
	}

	decisionCache, err := meter.Int64Counter("auth.decision_cache.total",
		metric.WithDescription("Authorization decision cache lookups by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.decision_cache.total counter: %w", err)
	}

	resetRequestTotal, err := meter.Int64Counter("auth.reset_request.total",
		metric.WithDescription("Total password reset requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.reset_request.total counter: %w", err)
	}

	resetRedeemTotal, err := meter.Int64Counter("auth.reset_redeem.total",
		metric.WithDescription("Total password reset redemptions by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.reset_redeem.total counter: %w", err)
	}

	return &AuthMetrics{
		registrationTotal: registrationTotal,
		loginTotal:        loginTotal,
		verifyTotal:       verifyTotal,
		decisionCache:     decisionCache,
		resetRequestTotal: resetRequestTotal,
		resetRedeemTotal:  resetRedeemTotal,
	}, nil
}

// RecordRegistration records a registration attempt.
func (m *AuthMetrics) RecordRegistration(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.registrationTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordLogin records a login attempt.
func (m *AuthMetrics) RecordLogin(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.loginTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordVerify records a token verification.
func (m *AuthMetrics) RecordVerify(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.verifyTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordCacheLookup records an authorization decision cache hit or miss.
func (m *AuthMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.decisionCache.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordResetRequest records a password reset request.
func (m *AuthMetrics) RecordResetRequest(ctx context.Context) {
	if m == nil {
		return
	}
	m.resetRequestTotal.Add(ctx, 1)
}

// RecordResetRedeem records a password reset redemption.
func (m *AuthMetrics) RecordResetRedeem(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.resetRedeemTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
