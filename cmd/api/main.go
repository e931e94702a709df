package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stockpilot/ledger-service/internal/application"
	mongoRepo "github.com/stockpilot/ledger-service/internal/infrastructure/mongodb"
	"github.com/stockpilot/ledger-service/internal/infrastructure/notify"
	"github.com/stockpilot/ledger-service/pkg/api"
	"github.com/stockpilot/ledger-service/pkg/cloudevents"
	"github.com/stockpilot/ledger-service/pkg/errors"
	"github.com/stockpilot/ledger-service/pkg/kafka"
	"github.com/stockpilot/ledger-service/pkg/logging"
	"github.com/stockpilot/ledger-service/pkg/metrics"
	"github.com/stockpilot/ledger-service/pkg/middleware"
	"github.com/stockpilot/ledger-service/pkg/mongodb"
	"github.com/stockpilot/ledger-service/pkg/tracing"
)

const serviceName = "ledger-service"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting ledger-service API")

	config := loadConfig()
	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	tracingConfig.Environment = getEnv("ENVIRONMENT", "development")
	tracingConfig.Enabled = getEnv("TRACING_ENABLED", "true") == "true"

	tracerProvider, err := tracing.Initialize(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(serviceName))

	// Initialize MongoDB with instrumentation
	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	instrumentedMongo := mongodb.NewInstrumentedClient(mongoClient)
	defer instrumentedMongo.Close(ctx)
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	// Initialize breaker-guarded Kafka producer
	producer := kafka.NewProductionProducer(config.Kafka, m, logger)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := cloudevents.NewEventFactory(cloudevents.SourceLedger)
	publisher := notify.NewKafkaPublisher(producer, eventFactory, logger)

	// Repositories
	db := instrumentedMongo.Database()
	stockRepo := mongoRepo.NewStockRepository(db)
	movementRepo := mongoRepo.NewMovementRepository(db)
	alertRepo := mongoRepo.NewAlertRepository(db)
	ledger := mongoRepo.NewTransactionalLedger(db)
	orderLines := mongoRepo.NewOrderLineReader(db)

	// Application services
	dispatcher := application.NewAlertDispatcher(alertRepo, publisher, m, logger, config.AlertCooldown)
	ledgerService := application.NewLedgerService(
		stockRepo,
		movementRepo,
		ledger,
		dispatcher,
		publisher,
		m,
		logger,
		config.LockTimeout,
		config.DefaultThreshold,
	)
	reportService := application.NewReportService(stockRepo, orderLines, m, logger)

	// Router and middleware
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger.Logger))
	router.Use(middleware.MetricsMiddleware(m))

	router.NoRoute(middleware.NoRoute())
	router.NoMethod(middleware.NoMethod())

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return instrumentedMongo.HealthCheck(ctx)
	}))
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/products", createProductHandler(ledgerService, logger))
		v1.GET("/products", listInventoryHandler(ledgerService, logger))
		v1.POST("/products/mutations/batch", batchMutationHandler(ledgerService, logger))
		v1.GET("/products/:productId", getInventoryHandler(ledgerService, logger))
		v1.POST("/products/:productId/mutations", applyMutationHandler(ledgerService, logger))
		v1.PUT("/products/:productId/threshold", setThresholdHandler(ledgerService, logger))
		v1.GET("/products/:productId/movements", movementHistoryHandler(ledgerService, logger))
		v1.GET("/alerts", listAlertsHandler(ledgerService, logger))
		v1.GET("/reports/inventory", inventoryReportHandler(reportService, logger))
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}

// Config holds application configuration
type Config struct {
	ServerAddr       string
	MongoDB          *mongodb.Config
	Kafka            *kafka.Config
	DefaultThreshold int
	AlertCooldown    time.Duration
	LockTimeout      time.Duration
}

func loadConfig() *Config {
	return &Config{
		ServerAddr: ":" + getEnv("PORT", "8080"),
		MongoDB: &mongodb.Config{
			URI:            getEnv("LEDGER_MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("LEDGER_MONGO_DATABASE", "stockpilot"),
			ConnectTimeout: 10 * time.Second,
			MaxPoolSize:    100,
			MinPoolSize:    10,
		},
		Kafka: &kafka.Config{
			Brokers:       []string{getEnv("LEDGER_KAFKA_BROKERS", "localhost:9092")},
			ConsumerGroup: serviceName,
			ClientID:      serviceName,
			BatchSize:     100,
			BatchTimeout:  10 * time.Millisecond,
			RequiredAcks:  -1,
		},
		DefaultThreshold: getEnvInt("LEDGER_DEFAULT_LOW_STOCK_THRESHOLD", 10),
		AlertCooldown:    getEnvDuration("LEDGER_ALERT_COOLDOWN", time.Hour),
		LockTimeout:      getEnvDuration("LEDGER_LOCK_TIMEOUT", 5*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

type variantRequest struct {
	VariantID string `json:"variantId" binding:"required"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity" binding:"gte=0"`
}

type createProductRequest struct {
	ProductID    string           `json:"productId" binding:"required,product_id"`
	VendorID     string           `json:"vendorId" binding:"required,vendor_id"`
	ProductName  string           `json:"productName" binding:"required,safe_string"`
	Category     string           `json:"category" binding:"omitempty,safe_string"`
	UnitPrice    int64            `json:"unitPrice" binding:"gte=0"`
	InitialStock int              `json:"initialStock" binding:"gte=0"`
	Variants     []variantRequest `json:"variants" binding:"omitempty,dive"`
	Threshold    *int             `json:"lowStockThreshold" binding:"omitempty,gte=0"`
	VendorName   string           `json:"vendorName"`
	VendorEmail  string           `json:"vendorEmail" binding:"omitempty,email"`
	VendorPhone  string           `json:"vendorPhone"`
	PerformedBy  string           `json:"performedBy" binding:"required"`
}

func createProductHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req createProductRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		variants := make([]application.VariantInput, 0, len(req.Variants))
		for _, v := range req.Variants {
			variants = append(variants, application.VariantInput{VariantID: v.VariantID, Name: v.Name, Quantity: v.Quantity})
		}

		record, err := service.CreateProduct(c.Request.Context(), application.CreateProductCommand{
			ProductID:    req.ProductID,
			VendorID:     req.VendorID,
			ProductName:  req.ProductName,
			Category:     req.Category,
			UnitPrice:    req.UnitPrice,
			InitialStock: req.InitialStock,
			Variants:     variants,
			Threshold:    req.Threshold,
			VendorName:   req.VendorName,
			VendorEmail:  req.VendorEmail,
			VendorPhone:  req.VendorPhone,
			PerformedBy:  req.PerformedBy,
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusCreated, record)
	}
}

type mutationRequest struct {
	MovementType  string            `json:"movementType" binding:"required,movement_type"`
	Quantity      int               `json:"quantity" binding:"gte=0"`
	VariantID     string            `json:"variantId"`
	Reason        string            `json:"reason" binding:"required,safe_string"`
	ReferenceID   string            `json:"referenceId"`
	ReferenceType string            `json:"referenceType" binding:"omitempty,reference_type"`
	PerformedBy   string            `json:"performedBy" binding:"required"`
	Extra         map[string]string `json:"extra"`
}

func (req mutationRequest) toCommand(productID string) application.ApplyMutationCommand {
	return application.ApplyMutationCommand{
		ProductID:     productID,
		MovementType:  req.MovementType,
		Quantity:      req.Quantity,
		VariantID:     req.VariantID,
		Reason:        req.Reason,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
		PerformedBy:   req.PerformedBy,
		Extra:         req.Extra,
	}
}

func applyMutationHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req mutationRequest
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		result, err := service.ApplyMutation(c.Request.Context(), req.toCommand(c.Param("productId")))
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

type batchItemRequest struct {
	ProductID string `json:"productId" binding:"required,product_id"`
	mutationRequest
}

func batchMutationHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Items []batchItemRequest `json:"items" binding:"required,min=1,max=100,dive"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		items := make([]application.ApplyMutationCommand, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, item.toCommand(item.ProductID))
		}

		result := service.ApplyMutationBatch(c.Request.Context(), application.BatchMutationCommand{Items: items})

		// the batch call itself succeeds even when individual items fail
		status := http.StatusOK
		if result.Failed > 0 {
			status = http.StatusMultiStatus
		}
		c.JSON(status, result)
	}
}

func setThresholdHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		var req struct {
			Threshold   *int   `json:"lowStockThreshold" binding:"required,gte=0"`
			PerformedBy string `json:"performedBy" binding:"required"`
		}
		if appErr := middleware.BindAndValidate(c, &req); appErr != nil {
			responder.RespondWithAppError(appErr)
			return
		}

		record, err := service.SetThreshold(c.Request.Context(), application.SetThresholdCommand{
			ProductID:   c.Param("productId"),
			Threshold:   *req.Threshold,
			PerformedBy: req.PerformedBy,
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func getInventoryHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		record, err := service.GetInventory(c.Request.Context(), application.GetInventoryQuery{
			ProductID: c.Param("productId"),
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, record)
	}
}

func listInventoryHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParsePagination(c)
		records, total, err := service.ListInventory(c.Request.Context(), application.ListInventoryQuery{
			VendorID: c.Query("vendorId"),
			Limit:    int(page.GetLimit()),
			Offset:   int(page.GetOffset()),
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(records, page.Page, page.PageSize, total))
	}
}

func movementHistoryHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParsePagination(c)
		movements, total, err := service.GetMovementHistory(c.Request.Context(), application.MovementHistoryQuery{
			ProductID:     c.Param("productId"),
			MovementType:  c.Query("movementType"),
			ReferenceType: c.Query("referenceType"),
			From:          c.Query("from"),
			To:            c.Query("to"),
			Limit:         int(page.GetLimit()),
			Offset:        int(page.GetOffset()),
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(movements, page.Page, page.PageSize, total))
	}
}

func listAlertsHandler(service *application.LedgerService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		page := api.ParsePagination(c)
		alerts, total, err := service.ListAlerts(c.Request.Context(), application.ListAlertsQuery{
			VendorID: c.Query("vendorId"),
			Limit:    int(page.GetLimit()),
			Offset:   int(page.GetOffset()),
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, api.NewPageResponse(alerts, page.Page, page.PageSize, total))
	}
}

func inventoryReportHandler(service *application.ReportService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		responder := middleware.NewErrorResponder(c, logger.Logger)

		report, err := service.GenerateReport(c.Request.Context(), application.InventoryReportQuery{
			VendorID: c.Query("vendorId"),
		})
		if err != nil {
			respond(responder, err)
			return
		}

		c.JSON(http.StatusOK, report)
	}
}

func respond(responder *middleware.ErrorResponder, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		responder.RespondWithAppError(appErr)
		return
	}
	responder.RespondInternalError(err)
}
