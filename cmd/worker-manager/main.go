// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awsclient "onboarding-workers/internal/common/aws"
	"onboarding-workers/internal/common/camunda"
	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/common/database"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/observability"
	"onboarding-workers/internal/common/zoho"
	"onboarding-workers/internal/completion"
	"onboarding-workers/pkg/registry"

	cfc "onboarding-workers/internal/workers/onboarding/calculate-form-completion"
	ccl "onboarding-workers/internal/workers/onboarding/create-crm-lead"
	cor "onboarding-workers/internal/workers/onboarding/create-onboarding-record"
	icp "onboarding-workers/internal/workers/onboarding/index-client-profile"
	lop "onboarding-workers/internal/workers/onboarding/load-onboarding-progress"
	sod "onboarding-workers/internal/workers/onboarding/save-onboarding-draft"
	son "onboarding-workers/internal/workers/onboarding/send-onboarding-notification"
	vos "onboarding-workers/internal/workers/onboarding/validate-onboarding-submission"
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

func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.Build(logger.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{cfg.Logging.Output},
		Service:     cfg.App.Name,
		Environment: cfg.App.Environment,
	})
	if err != nil {
		zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...", zap.String("version", cfg.App.Version))

	obs, err := observability.New(cfg.Observability)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx := context.Background()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(camunda.ConfigFrom(cfg.Camunda))
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if cfg.Database.Postgres.AutoMigrate {
		if err := pg.Migrate(ctx); err != nil {
			zapLog.Fatal("postgres migration failed", zap.Error(err))
		}
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		// Progress reads fall back to Postgres, so a missing cache is not fatal.
		zapLog.Warn("redis unavailable, progress cache disabled", zap.Error(err))
		rdb = &database.RedisClient{}
	} else {
		defer rdb.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Elasticsearch ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		if err := esClient.Ping(ctx); err != nil {
			return err
		}
		return esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.ProfileIndex, database.ClientProfileMapping)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- External services ---
	var (
		emailSender son.EmailSender
		smsSender   son.SMSSender
	)
	if cfg.Integrations.AWS.SES.Enabled || cfg.Integrations.AWS.SNS.Enabled {
		awsCfg, err := awsclient.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("aws config failed", zap.Error(err))
		}
		if cfg.Integrations.AWS.SES.Enabled {
			emailSender = awsclient.NewSESClient(awsCfg, cfg.Integrations.AWS.SES.FromEmail)
		}
		if cfg.Integrations.AWS.SNS.Enabled {
			smsSender = awsclient.NewSNSClient(awsCfg, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
		}
	}

	crm := zoho.NewCRMClient(
		cfg.Integrations.Zoho.BaseURL,
		cfg.Integrations.Zoho.APIKey,
		cfg.Integrations.Zoho.AuthToken,
		config.GetDuration(cfg.Integrations.Zoho.Timeout),
	)

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err), zap.String("path", cfg.RegistryPath))
	}

	memo, err := completion.NewMemo(cfg.Completion.MemoSize)
	if err != nil {
		zapLog.Fatal("completion memo init failed", zap.Error(err))
	}

	zapLog.Info("All external service clients initialized")

	// --- Workers ---
	handlers := map[string]worker.JobHandler{
		cfc.TaskType: cfc.NewHandler(&cfc.Config{
			StepNames: cfg.Completion.StepNames,
			Timeout:   workerTimeout(cfg, cfc.TaskType),
		}, memo, log).WithObservability(obs).Handle,

		vos.TaskType: vos.NewHandler(&vos.Config{
			StepNames:       cfg.Completion.StepNames,
			AllowIncomplete: cfg.Completion.AllowIncomplete,
			Timeout:         workerTimeout(cfg, vos.TaskType),
		}, reg, memo, log).Handle,

		sod.TaskType: sod.NewHandler(&sod.Config{
			StepNames: cfg.Completion.StepNames,
			CacheTTL:  cfg.Completion.CacheTTLDuration(),
			Timeout:   workerTimeout(cfg, sod.TaskType),
		}, pg.DB, rdb.Client, memo, log).Handle,

		lop.TaskType: lop.NewHandler(&lop.Config{
			StepNames: cfg.Completion.StepNames,
			CacheTTL:  cfg.Completion.CacheTTLDuration(),
			Timeout:   workerTimeout(cfg, lop.TaskType),
		}, pg.DB, rdb.Client, memo, log).Handle,

		cor.TaskType: cor.NewHandler(&cor.Config{
			StepNames: cfg.Completion.StepNames,
			Timeout:   workerTimeout(cfg, cor.TaskType),
		}, pg.DB, rdb.Client, log).Handle,

		son.TaskType: son.NewHandler(&son.Config{
			EmailEnabled:    emailSender != nil,
			SMSEnabled:      smsSender != nil,
			AgencyInbox:     cfg.Notifications.AgencyInbox,
			AgencyPhone:     cfg.Notifications.AgencyPhone,
			PriorityClients: cfg.Notifications.PriorityClients,
			AdminURL:        cfg.Notifications.AdminURL,
			StepNames:       cfg.Completion.StepNames,
			Timeout:         workerTimeout(cfg, son.TaskType),
		}, emailSender, smsSender, log).Handle,

		icp.TaskType: icp.NewHandler(&icp.Config{
			IndexName: cfg.Database.Elasticsearch.ProfileIndex,
			StepNames: cfg.Completion.StepNames,
			Timeout:   workerTimeout(cfg, icp.TaskType),
		}, esClient.Client, log).Handle,

		ccl.TaskType: ccl.NewHandler(&ccl.Config{
			StepNames: cfg.Completion.StepNames,
			Timeout:   workerTimeout(cfg, ccl.TaskType),
		}, crm, log).Handle,
	}

	var workers []*camunda.Worker
	for taskType, handle := range handlers {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			continue
		}
		if _, ok := reg.Find(taskType); !ok {
			zapLog.Warn("worker has no activity registry entry", zap.String("taskType", taskType))
		}
		workers = append(workers, camunda.StartWorker(
			zeebe.GetClient(), taskType, config.GetWorkerConfig(cfg, taskType), handle, obs, zapLog,
		))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", "")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err.Error())
			return
		}
		if err := pg.Ping(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err.Error())
			return
		}
		writeStatus(w, http.StatusOK, "ready", "")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.App.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func writeStatus(w http.ResponseWriter, code int, status, detail string) {
	body := map[string]string{"status": status}
	if detail != "" {
		body["error"] = detail
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
