package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockpilot/ledger-service/pkg/cloudevents"
	"github.com/stockpilot/ledger-service/pkg/kafka"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
	"github.com/stockpilot/ledger-service/pkg/middleware"
)

const serviceName = "ledger-notifier"

// Relay service for stock alert notifications. Consumes alert events from
// Kafka and delivers vendor-facing notifications. Delivery is currently a
// structured log line per notification; the webhook channel hangs off the
// same handlers.

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting ledger-notifier")

	m := metrics.New(metrics.DefaultConfig(serviceName))

	kafkaConfig := kafka.DefaultConfig()
	kafkaConfig.Brokers = []string{getEnv("LEDGER_KAFKA_BROKERS", "localhost:9092")}
	kafkaConfig.ConsumerGroup = getEnv("LEDGER_NOTIFIER_GROUP", serviceName)
	kafkaConfig.ClientID = serviceName

	consumer := kafka.NewProductionConsumer(kafkaConfig, m, logger)
	defer consumer.Close()

	relay := &alertRelay{logger: logger}
	consumer.Subscribe(kafka.Topics.InventoryAlerts, cloudevents.AlertRaised, relay.handleAlertRaised)
	consumer.Subscribe(kafka.Topics.InventoryAlerts, cloudevents.AlertCleared, relay.handleAlertCleared)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Consumer stopped unexpectedly")
		}
	}()
	logger.Info("Consumer started", "topic", kafka.Topics.InventoryAlerts, "group", kafkaConfig.ConsumerGroup)

	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	srv := &http.Server{
		Addr:    ":" + getEnv("PORT", "8081"),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down notifier...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Notifier stopped")
}

type alertRelay struct {
	logger *logging.Logger
}

func (r *alertRelay) handleAlertRaised(ctx context.Context, event *cloudevents.LedgerCloudEvent) error {
	var data cloudevents.AlertRaisedData
	if err := decodeData(event, &data); err != nil {
		return err
	}

	r.logger.WithContext(ctx).Info("Stock alert notification",
		"productId", data.ProductID,
		"vendorId", data.VendorID,
		"productName", data.ProductName,
		"alertType", data.AlertType,
		"severity", data.Severity,
		"currentStock", data.CurrentStock,
		"threshold", data.Threshold,
		"reorderPoint", data.ReorderPoint,
		"vendorContact", data.VendorContact,
	)
	return nil
}

func (r *alertRelay) handleAlertCleared(ctx context.Context, event *cloudevents.LedgerCloudEvent) error {
	var data cloudevents.AlertClearedData
	if err := decodeData(event, &data); err != nil {
		return err
	}

	r.logger.WithContext(ctx).Info("Stock alert cleared",
		"productId", data.ProductID,
		"vendorId", data.VendorID,
		"alertType", data.AlertType,
		"currentStock", data.CurrentStock,
		"threshold", data.Threshold,
	)
	return nil
}

// decodeData round-trips the generic event payload into its typed form
func decodeData(event *cloudevents.LedgerCloudEvent, out interface{}) error {
	raw, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
