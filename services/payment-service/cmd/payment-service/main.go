package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/saguaro-events/venuebook/libs/config"
	"github.com/saguaro-events/venuebook/libs/db"
	"github.com/saguaro-events/venuebook/libs/httpx"
	"github.com/saguaro-events/venuebook/libs/kafkax"
	otelx "github.com/saguaro-events/venuebook/libs/otel"
	"github.com/saguaro-events/venuebook/libs/runtime"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/consumer"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/handlers"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/inbox"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/outbox"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/schedule"
	"github.com/saguaro-events/venuebook/services/payment-service/internal/storage"
)

func main() {
	service := config.String("SERVICE_NAME", "payment-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	repo := storage.NewRepository(pool)
	scheduleRepo := schedule.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	backoffHours, err := strconv.Atoi(config.String("CHARGE_RETRY_BACKOFF_HOURS", "6"))
	if err != nil || backoffHours <= 0 {
		backoffHours = 6
	}
	backoff := time.Duration(backoffHours) * time.Hour

	chargeWorker := schedule.NewChargeWorker(pool, scheduleRepo, repo, outboxRepo, logger, schedule.ChargeWorkerConfig{
		StripeSecretKey: config.String("STRIPE_SECRET_KEY", ""),
		Interval:        30 * time.Second,
		BatchSize:       20,
		Backoff:         backoff,
	})
	go chargeWorker.Run(ctx)

	plannedConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "payment-service"),
		Topic:   config.String("KAFKA_PLAN_TOPIC", "booking.plan.booked.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var evt schedule.PlanEvent
		if err := json.Unmarshal(msg.Value, &evt); err != nil {
			logger.Error("invalid plan event payload", "err", err, "topic", msg.Topic)
			return nil
		}
		installments, err := schedule.BuildInstallments(evt)
		if err != nil {
			// Bad payloads are logged and dropped; retrying cannot fix them.
			logger.Error("plan event rejected", "err", err, "booking_id", evt.BookingID)
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		weddingDate, err := time.Parse("2006-01-02", evt.WeddingDate)
		if err != nil {
			logger.Error("plan event rejected", "err", err, "booking_id", evt.BookingID)
			return nil
		}
		if err := repo.InsertBooking(ctx, tx, storage.PaymentBooking{
			BookingID:         evt.BookingID,
			CoupleEmail:       evt.CoupleEmail,
			VenueID:           evt.VenueID,
			WeddingDate:       weddingDate,
			TotalCents:        evt.TotalCents,
			DepositCents:      evt.DepositCents,
			PayInFullRequired: evt.PayInFullRequired,
		}); err != nil {
			return err
		}
		for _, inst := range installments {
			if err := scheduleRepo.Insert(ctx, tx, inst); err != nil {
				return err
			}
		}
		return tx.Commit(ctx)
	})
	go plannedConsumer.Run(ctx)

	cancelledConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: config.String("KAFKA_BROKERS", ""),
		GroupID: config.String("KAFKA_GROUP_ID", "payment-service"),
		Topic:   config.String("KAFKA_CANCEL_TOPIC", "booking.cancelled.v1"),
	}, func(ctx context.Context, msg kafka.Message) error {
		var evt struct {
			BookingID string `json:"booking_id"`
		}
		if err := json.Unmarshal(msg.Value, &evt); err != nil || evt.BookingID == "" {
			logger.Error("invalid cancel event payload", "err", err, "topic", msg.Topic)
			return nil
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(ctx) }()

		if err := scheduleRepo.CancelPending(ctx, tx, evt.BookingID); err != nil {
			return err
		}
		if err := repo.SetBookingStatus(ctx, tx, evt.BookingID, storage.BookingCancelled); err != nil {
			return err
		}
		return tx.Commit(ctx)
	})
	go cancelledConsumer.Run(ctx)

	tolSeconds, err := strconv.Atoi(config.String("STRIPE_WEBHOOK_TOLERANCE_SECONDS", "300"))
	if err != nil || tolSeconds <= 0 {
		tolSeconds = 300
	}
	paymentHandler := handlers.New(repo, scheduleRepo, outboxRepo, logger, handlers.Config{
		StripeWebhookSecret:           config.String("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookToleranceSeconds: tolSeconds,
		StripeSecretKey:               config.String("STRIPE_SECRET_KEY", ""),
		CheckoutSuccessURL:            config.String("CHECKOUT_SUCCESS_URL", ""),
		CheckoutCancelURL:             config.String("CHECKOUT_CANCEL_URL", ""),
		RetryBackoff:                  backoff,
	})

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/payments/checkout", paymentHandler.Checkout)
	mux.HandleFunc("/api/v1/payments/webhooks/stripe", paymentHandler.StripeWebhook)
	mux.HandleFunc("/api/v1/payments/schedule", paymentHandler.Schedule)
	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "payment")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
