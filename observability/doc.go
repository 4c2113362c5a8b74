// Package observability provides OpenTelemetry tracing and metrics
// integration for the auth service.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("auth-service"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "auth.login")
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("auth-service"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewAuthMetrics(observability.Meter("auth-service"))
//	metrics.RecordLogin(ctx, "success")
//
// All metric recording is nil-safe: a nil *AuthMetrics silently records
// nothing, so tests and local runs need no meter provider.
package observability
