// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsclients "complaint-workers/internal/common/aws"
	"complaint-workers/internal/common/camunda"
	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/database"
	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/messaging"
	"complaint-workers/internal/common/observability"
	"complaint-workers/internal/common/reference"
	"complaint-workers/internal/common/translation"

	tsr "complaint-workers/internal/workers/notification/ts-return-notify"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.String("details", apperrors.AsStandardError(err).Details),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name, cfg.App.Version)
	if err != nil {
		zapLog.Fatal("observability setup failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	defer zeebe.Close()
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.ConnectPostgres(ctx, cfg.Database.Postgres)
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err), zap.String("details", apperrors.AsStandardError(err).Details))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.ConnectRedis(ctx, cfg.Database.Redis)
		return err
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err), zap.String("details", apperrors.AsStandardError(err).Details))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	refs := reference.NewRepository(pg, rdb, time.Duration(cfg.Notifications.ReferenceCacheTTL)*time.Second, log)

	// --- Translation catalog ---
	catalog, err := newCatalog(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("translation catalog unavailable", zap.Error(err), zap.String("details", apperrors.AsStandardError(err).Details))
	}
	renderer := translation.NewRenderer(translation.RendererOptions{
		Catalog:       catalog,
		Locales:       refs,
		DefaultLocale: cfg.Notifications.DefaultLocale,
		CacheTTL:      time.Duration(cfg.Notifications.Catalog.CacheTTL) * time.Second,
		Logger:        log,
	})

	// --- Channels ---
	var emailSender tsr.EmailSender = messaging.DisabledEmail{}
	if cfg.Integrations.AWS.SES.Enabled {
		sesClient, err := awsclients.NewSESClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client failed", zap.Error(err))
		}
		sendRate := cfg.Integrations.AWS.SES.MaxSendRate
		if quota, err := sesClient.MaxSendRate(ctx); err == nil && quota > 0 && quota < sendRate {
			sendRate = quota
		} else if err != nil {
			zapLog.Warn("ses send quota unavailable, using configured rate", zap.Error(err))
		}
		emailSender = messaging.NewEmailSender(sesClient, messaging.EmailOptions{
			ConfigurationSet: cfg.Integrations.AWS.SES.ConfigurationSet,
			MaxSendRate:      sendRate,
			Logger:           log,
		})
	} else {
		zapLog.Warn("email channel disabled")
	}

	var smsSender tsr.SmsSender = messaging.DisabledSms{}
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		smsSender = messaging.NewSmsSender(snsClient, refs, renderer, messaging.SmsOptions{
			SenderID: cfg.Integrations.AWS.SNS.DefaultSMSSenderID,
			SMSType:  cfg.Integrations.AWS.SNS.SMSType,
			Logger:   log,
		})
	} else {
		zapLog.Warn("sms channel disabled")
	}

	// --- Workers ---
	handler, err := tsr.NewHandler(tsr.HandlerOptions{
		AppConfig: cfg,
		Camunda:   zeebe,
		Logger:    log,
		Dependencies: tsr.ServiceDependencies{
			References:    refs,
			Statuses:      refs,
			Renderer:      renderer,
			Mail:          refs,
			Email:         emailSender,
			Sms:           smsSender,
			Observability: obs,
		},
	})
	if err != nil {
		zapLog.Fatal("failed to create ts-return-notify handler", zap.Error(err))
	}
	if err := handler.Register(); err != nil {
		zapLog.Fatal("failed to register ts-return-notify worker", zap.Error(err))
	}
	defer handler.Close()

	// --- Health & metrics ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]func(context.Context) error{
			"postgres": pg.Ping,
			"redis":    rdb.Ping,
			"camunda":  handler.HealthCheck,
		}
		failed := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", failed)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	handler.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Health/Metrics server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}

func newCatalog(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (translation.Catalog, error) {
	catalogCfg := cfg.Notifications.Catalog
	if catalogCfg.Source != config.CatalogSourceElasticsearch {
		zapLog.Info("Using file translation catalog", zap.String("path", catalogCfg.Path))
		return translation.LoadFileCatalog(catalogCfg.Path)
	}

	var esClient *database.ElasticsearchClient
	err := retryWithBackoff(func() error {
		var err error
		esClient, err = database.ConnectElasticsearch(ctx, cfg.Database.Elasticsearch)
		return err
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		return nil, err
	}
	zapLog.Info("Using Elasticsearch translation catalog", zap.String("index", catalogCfg.Index))
	return translation.NewElasticCatalog(esClient, catalogCfg.Index), nil
}

func writeStatus(w http.ResponseWriter, code int, status string, failed map[string]string) {
	body := map[string]interface{}{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if len(failed) > 0 {
		body["failed"] = failed
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
