// The auth-service binary hosts the authentication HTTP endpoints:
// registration, login, bearer-token verification, and password reset.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/skillsenselab/auth-service/api"
	"github.com/skillsenselab/auth-service/auth"
	"github.com/skillsenselab/auth-service/config"
	"github.com/skillsenselab/auth-service/logger"
	"github.com/skillsenselab/auth-service/notify"
	"github.com/skillsenselab/auth-service/observability"
	"github.com/skillsenselab/auth-service/password"
	"github.com/skillsenselab/auth-service/secrets"
	"github.com/skillsenselab/auth-service/server"
	"github.com/skillsenselab/auth-service/store"
	"github.com/skillsenselab/auth-service/token"
)

const serviceName = "auth-service"

func main() {
	ctx := context.Background()

	cfg, err := config.Load(serviceName)
	if err != nil {
		logger.Fatal("config load failed", logger.ErrorFields("load", err))
	}

	logger.Init(cfg.Logging)
	log := logger.GetGlobalLogger()
	log.Info("starting", logger.Fields(
		"environment", cfg.Environment,
		"version", cfg.Version,
	))

	// Telemetry is optional; without it the nil-safe metrics recorder and
	// the no-op global tracer take over.
	var metrics *observability.AuthMetrics
	if cfg.Telemetry.Enabled {
		tracerCfg := observability.DefaultTracerConfig(serviceName)
		tracerCfg.ServiceVersion = cfg.Version
		tracerCfg.Environment = cfg.Environment
		tracerCfg.Endpoint = cfg.Telemetry.Endpoint
		tracerCfg.Insecure = cfg.Telemetry.Insecure
		tracerCfg.SampleRate = cfg.Telemetry.SampleRate
		tp, err := observability.InitTracer(ctx, tracerCfg)
		if err != nil {
			logger.Fatal("tracer init failed", logger.ErrorFields("tracer", err))
		}
		defer func() { _ = tp.Shutdown(ctx) }()

		meterCfg := observability.DefaultMeterConfig(serviceName)
		meterCfg.ServiceVersion = cfg.Version
		meterCfg.Environment = cfg.Environment
		meterCfg.Endpoint = cfg.Telemetry.Endpoint
		meterCfg.Insecure = cfg.Telemetry.Insecure
		mp, err := observability.InitMeter(ctx, &meterCfg)
		if err != nil {
			logger.Fatal("meter init failed", logger.ErrorFields("meter", err))
		}
		defer func() { _ = mp.Shutdown(ctx) }()

		metrics, err = observability.NewAuthMetrics(observability.Meter(serviceName))
		if err != nil {
			logger.Fatal("metrics init failed", logger.ErrorFields("metrics", err))
		}
	}

	// One AWS client config serves DynamoDB, Secrets Manager, and SES.
	needsAWS := cfg.Store.Backend == "dynamodb" ||
		cfg.Secrets.Backend == "secretsmanager" ||
		cfg.Email.Backend == "ses"
	var awsCfg aws.Config
	if needsAWS {
		loaded, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			logger.Fatal("aws config load failed", logger.ErrorFields("aws", err))
		}
		awsCfg = loaded
	}

	var provider secrets.Provider
	switch cfg.Secrets.Backend {
	case "secretsmanager":
		provider = secrets.NewManager(secretsmanager.NewFromConfig(awsCfg), cfg.Secrets.SecretName, log)
	case "static":
		provider = secrets.NewStatic(cfg.Secrets.StaticValue)
	}
	secretCache := secrets.NewCache(provider, cfg.Secrets.RefreshTTL)

	var users store.UserStore
	switch cfg.Store.Backend {
	case "dynamodb":
		users = store.NewDynamo(dynamodb.NewFromConfig(awsCfg), cfg.Store)
	case "memory":
		users = store.NewMemory()
	}

	checkers := []observability.HealthChecker{secretCache}
	if hc, ok := users.(observability.HealthChecker); ok {
		checkers = append(checkers, hc)
	}

	var notifier notify.Notifier
	switch cfg.Email.Backend {
	case "ses":
		notifier = notify.NewSES(sesv2.NewFromConfig(awsCfg), cfg.Email, log)
	case "log":
		notifier = notify.NewLog(cfg.Email, log)
	}

	tokens, err := token.NewService(cfg.Token, secretCache)
	if err != nil {
		logger.Fatal("token service init failed", logger.ErrorFields("token", err))
	}

	svc, err := auth.NewService(users, password.NewBcryptHasher(), tokens, notifier, metrics, log)
	if err != nil {
		logger.Fatal("auth service init failed", logger.ErrorFields("auth", err))
	}

	gate := auth.NewGate(tokens, cfg.Gate, metrics)
	defer gate.Close()

	srv := server.New(cfg.Server, log)
	srv.ApplyMiddleware()
	api.RegisterRoutes(srv.GinEngine(), api.NewHandler(svc), gate, serviceName, cfg.Version, checkers...)

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("server start failed", logger.ErrorFields("start", err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutdown signal received", logger.Fields("signal", sig.String()))

	if err := srv.Stop(ctx); err != nil {
		log.WithError(err).Error("shutdown incomplete")
		os.Exit(1)
	}
}
