package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/agristore/storefront-api/internal/config"
	"github.com/agristore/storefront-api/internal/database"
	"github.com/agristore/storefront-api/internal/handlers"
	"github.com/agristore/storefront-api/internal/models"
	"github.com/agristore/storefront-api/internal/notification"
	"github.com/agristore/storefront-api/internal/outbox"
	"github.com/agristore/storefront-api/internal/repository"
	"github.com/agristore/storefront-api/internal/service"
	"github.com/agristore/storefront-api/pkg/circuitbreaker"
	"github.com/agristore/storefront-api/pkg/kafka"
	"github.com/agristore/storefront-api/pkg/logger"
	"github.com/agristore/storefront-api/pkg/middleware"
	"github.com/agristore/storefront-api/pkg/ratelimit"
)

// ApiResponse is the envelope for all API responses
type ApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

// Server represents the HTTP server and its dependencies
type Server struct {
	config     *config.Config
	logger     logger.Logger
	router     *mux.Router
	httpServer *http.Server
	db         *database.Database

	orderRepo        *repository.OrderRepository
	cartRepo         *repository.CartRepository
	productRepo      *repository.ProductRepository
	paymentRepo      *repository.PaymentRepository
	orderProductRepo *repository.OrderProductRepository
	outboxRepo       *repository.OutboxRepository
	dlqRepo          *repository.DeadLetterRepository

	checkoutService *service.CheckoutService
	cancelService   *service.CancellationService
	dispatcher      *notification.Dispatcher
	mailer          *notification.BreakerMailer

	outboxProcessor *outbox.Processor
	dlqProcessor    *outbox.DeadLetterProcessor
	kafkaProducer   *kafka.Producer
	kafkaConsumer   *kafka.Consumer
	rateLimiter     *ratelimit.IPRateLimiter
}

// NewServer creates a new server with all dependencies wired.
func NewServer(cfg *config.Config, db *database.Database, log logger.Logger) (*Server, error) {
	s := &Server{
		config: cfg,
		logger: log,
		db:     db,
	}

	// Repositories
	s.orderRepo = repository.NewOrderRepository(db, log)
	s.cartRepo = repository.NewCartRepository(db, log)
	s.productRepo = repository.NewProductRepository(db, log)
	s.paymentRepo = repository.NewPaymentRepository(db, log)
	s.orderProductRepo = repository.NewOrderProductRepository(db, log)
	s.outboxRepo = repository.NewOutboxRepository(db, log)
	s.dlqRepo = repository.NewDeadLetterRepository(db, log)

	// Services
	s.checkoutService = service.NewCheckoutService(
		db,
		s.orderRepo,
		s.cartRepo,
		s.productRepo,
		s.paymentRepo,
		s.orderProductRepo,
		s.outboxRepo,
		log,
	)

	s.cancelService = service.NewCancellationService(
		db,
		s.orderRepo,
		s.outboxRepo,
		func(o *models.Order) bool { return o.CanBeCancelled() },
		log,
	)

	// Notifications. Email goes through a circuit breaker so a dead SMTP
	// server degrades to whatsapp-only confirmations instead of slow errors.
	smtpMailer := notification.NewSMTPMailer(cfg.SMTP, log)

	mailBreaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 2,
	})

	s.mailer = notification.NewBreakerMailer(smtpMailer, mailBreaker, log)

	s.dispatcher = notification.NewDispatcher(s.mailer, notification.Config{
		StoreName:     cfg.Store.Name,
		AdminWhatsApp: cfg.Store.AdminWhatsApp,
		AdminEmail:    cfg.Store.AdminEmail,
	}, log)

	// Event publishing. When no broker is reachable the outbox drains into
	// the log instead, so local development needs no Kafka.
	var eventHandler outbox.MessageHandler

	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, log)

	if err != nil {
		log.Warn("Kafka unavailable, order events will be logged only", "error", err)
		eventHandler = outbox.NewLoggingHandler(log)
	} else {
		s.kafkaProducer = producer
		eventHandler = outbox.NewKafkaMessageHandler(producer, cfg.Kafka.OrdersTopic, log)

		consumer, err := kafka.NewConsumer(&kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topics:        []string{cfg.Kafka.OrdersTopic},
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
		}, log)

		if err != nil {
			log.Warn("Failed to create Kafka consumer", "error", err)
		} else {
			consumer.RegisterHandler(cfg.Kafka.OrdersTopic, handlers.NewOrderEventsHandler(log))
			s.kafkaConsumer = consumer
		}
	}

	// Outbox processors
	s.outboxProcessor = outbox.NewProcessor(s.outboxRepo, s.dlqRepo, outbox.ProcessorConfig{
		PollingInterval: 5 * time.Second,
		BatchSize:       10,
		MaxRetries:      3,
	}, log)
	s.outboxProcessor.RegisterHandler(models.EventTypeOrderPlaced, eventHandler)
	s.outboxProcessor.RegisterHandler(models.EventTypeOrderCancelled, eventHandler)

	s.dlqProcessor = outbox.NewDeadLetterProcessor(s.dlqRepo, log, &outbox.DeadLetterProcessorConfig{
		PollingInterval: time.Minute,
		BatchSize:       5,
		MaxRetries:      3,
	})
	s.dlqProcessor.RegisterHandler(models.EventTypeOrderPlaced, eventHandler)
	s.dlqProcessor.RegisterHandler(models.EventTypeOrderCancelled, eventHandler)

	// 10 requests burst, 5 per second refill, per client IP
	s.rateLimiter = ratelimit.NewIPRateLimiter(10, 5)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupRoutes configures the router
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	s.router.Use(s.loggingMiddleware)

	rateLimitMw := middleware.NewRateLimiterMiddleware(s.rateLimiter, s.logger)
	s.router.Use(rateLimitMw.Handler)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondWithError(w, http.StatusNotFound, "Resource not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// API v1 routes
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.healthCheckHandler).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", s.getProductHandler).Methods(http.MethodGet)
	api.HandleFunc("/orders/complete", s.orderCompleteHandler).Methods(http.MethodGet)

	// Routes that act on the caller's own cart and orders
	authed := api.NewRoute().Subrouter()
	authed.Use(s.identityMiddleware)
	authed.HandleFunc("/checkout", s.checkoutHandler).Methods(http.MethodPost)
	authed.HandleFunc("/checkout/finalize", s.finalizeOrderHandler).Methods(http.MethodPost)
	authed.HandleFunc("/orders", s.listOrdersHandler).Methods(http.MethodGet)
	authed.HandleFunc("/orders/{id:[0-9]+}/cancel", s.cancelOrderHandler).Methods(http.MethodPost)

	// Admin API for monitoring and management
	admin := s.router.PathPrefix("/api/v1/admin").Subrouter()
	admin.HandleFunc("/dead-letters", s.getDeadLettersHandler).Methods(http.MethodGet)
	admin.HandleFunc("/dead-letters/{id}/retry", s.retryDeadLetterHandler).Methods(http.MethodPost)
	admin.HandleFunc("/dead-letters/{id}/discard", s.discardDeadLetterHandler).Methods(http.MethodPost)
	admin.HandleFunc("/mailer/status", s.mailerStatusHandler).Methods(http.MethodGet)
}

// Start starts the background processors and the HTTP server. Blocks until
// the server stops.
func (s *Server) Start() error {
	s.outboxProcessor.Start()
	s.dlqProcessor.Start()

	if s.kafkaConsumer != nil {
		if err := s.kafkaConsumer.Start(); err != nil {
			s.logger.Error("Failed to start Kafka consumer", "error", err)
		}
	}

	s.logger.Info("Starting server", "port", s.config.Port, "env", s.config.Env)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	s.outboxProcessor.Stop()
	s.dlqProcessor.Stop()
	s.rateLimiter.Stop()

	if s.kafkaConsumer != nil {
		if err := s.kafkaConsumer.Stop(); err != nil {
			s.logger.Error("Failed to stop Kafka consumer", "error", err)
		}
	}

	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.Close(); err != nil {
			s.logger.Error("Failed to close Kafka producer", "error", err)
		}
	}

	return s.httpServer.Shutdown(ctx)
}

// loggingMiddleware logs every request with its duration
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"remoteAddr", r.RemoteAddr,
			"duration", time.Since(start))
	})
}

// respondWithJSON writes a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)

	if err != nil {
		s.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError writes a JSON error response
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, ApiResponse{Success: false, Error: message})
}
