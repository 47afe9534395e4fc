package main

import (
	"context"
	"fmt"
	"log/slog"

	adminhandler "landreg/internal/admin/handler"
	adminservice "landreg/internal/admin/service"
	disputehandler "landreg/internal/dispute/handler"
	disputemetrics "landreg/internal/dispute/metrics"
	disputeservice "landreg/internal/dispute/service"
	disputestore "landreg/internal/dispute/store"
	"landreg/internal/document/blob"
	documenthandler "landreg/internal/document/handler"
	documentmetrics "landreg/internal/document/metrics"
	documentservice "landreg/internal/document/service"
	documentstore "landreg/internal/document/store"
	notificationhandler "landreg/internal/notification/handler"
	notificationservice "landreg/internal/notification/service"
	notificationstore "landreg/internal/notification/store"
	"landreg/internal/payment/gateway"
	paymenthandler "landreg/internal/payment/handler"
	paymentmetrics "landreg/internal/payment/metrics"
	paymentservice "landreg/internal/payment/service"
	paymentstore "landreg/internal/payment/store"
	"landreg/internal/platform/config"
	"landreg/internal/platform/postgres"
	"landreg/internal/platform/redis"
	"landreg/internal/platform/token"
	propertyhandler "landreg/internal/property/handler"
	propertymetrics "landreg/internal/property/metrics"
	propertyservice "landreg/internal/property/service"
	propertystore "landreg/internal/property/store"
	userhandler "landreg/internal/user/handler"
	userservice "landreg/internal/user/service"
	userstore "landreg/internal/user/store"
	audit "landreg/pkg/platform/audit"
	auditkafka "landreg/pkg/platform/audit/kafka"
	"landreg/pkg/platform/audit/publisher"
	auditmemory "landreg/pkg/platform/audit/store/memory"
	auditpostgres "landreg/pkg/platform/audit/store/postgres"
)

// application holds the wired handlers plus every resource that needs closing
// on shutdown.
type application struct {
	tokens *token.Manager

	users         *userhandler.Handler
	properties    *propertyhandler.Handler
	documents     *documenthandler.Handler
	payments      *paymenthandler.Handler
	disputes      *disputehandler.Handler
	notifications *notificationhandler.Handler
	admin         *adminhandler.Handler

	closers []func()
}

// close releases resources in reverse construction order, so the audit
// publisher drains its buffer before its sink and store go away.
func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp wires stores, services, and handlers. Store backends are picked by
// config: Postgres when a DSN is set, otherwise in-memory; Redis for
// notifications when a URL is set; a Kafka audit sink when brokers are set.
func buildApp(ctx context.Context, cfg config.Server, log *slog.Logger) (*application, error) {
	app := &application{tokens: token.NewManager(cfg.JWTSigningKey)}

	var (
		propertyStore propertyservice.Store
		documentStore documentservice.Store
		paymentStore  paymentservice.Store
		disputeStore  disputeservice.Store
		userStore     userservice.Store
		auditStore    audit.Store
	)
	if cfg.Postgres.DSN != "" {
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		app.closers = append(app.closers, func() { _ = db.Close() })
		if err := postgres.Migrate(ctx, db); err != nil {
			app.close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		propertyStore = propertystore.NewPostgres(db)
		documentStore = documentstore.NewPostgres(db)
		paymentStore = paymentstore.NewPostgres(db)
		disputeStore = disputestore.NewPostgres(db)
		userStore = userstore.NewPostgres(db)
		auditStore = auditpostgres.New(db)
	} else {
		propertyStore = propertystore.NewInMemoryStore()
		documentStore = documentstore.NewInMemoryStore()
		paymentStore = paymentstore.NewInMemoryStore()
		disputeStore = disputestore.NewInMemoryStore()
		userStore = userstore.NewInMemoryStore()
		auditStore = auditmemory.NewInMemoryStore()
	}

	var notificationStore notificationservice.Store
	if cfg.Redis.URL != "" {
		rc, err := redis.New(cfg.Redis)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.closers = append(app.closers, func() { _ = rc.Close() })
		notificationStore = notificationstore.NewRedis(rc.Client)
	} else {
		notificationStore = notificationstore.NewInMemoryStore()
	}

	pubOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(256),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := auditkafka.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("kafka audit sink: %w", err)
		}
		app.closers = append(app.closers, sink.Close)
		pubOpts = append(pubOpts, publisher.WithSink(sink))
	}
	auditor := publisher.NewPublisher(auditStore, pubOpts...)
	app.closers = append(app.closers, auditor.Close)

	blobs, err := blob.NewDiskStore(cfg.Uploads.Dir)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("open upload dir: %w", err)
	}

	notifications := notificationservice.New(notificationStore,
		notificationservice.WithLogger(log),
	)
	properties := propertyservice.New(propertyStore,
		propertyservice.WithLogger(log),
		propertyservice.WithAuditPublisher(auditor),
		propertyservice.WithNotifier(notifications),
		propertyservice.WithMetrics(propertymetrics.New()),
	)
	documents := documentservice.New(documentStore, blobs, properties,
		documentservice.WithLogger(log),
		documentservice.WithAuditPublisher(auditor),
		documentservice.WithNotifier(notifications),
		documentservice.WithMetrics(documentmetrics.New()),
	)
	payments := paymentservice.New(paymentStore, gateway.NewRegistry(), properties,
		paymentservice.WithLogger(log),
		paymentservice.WithAuditPublisher(auditor),
		paymentservice.WithNotifier(notifications),
		paymentservice.WithMetrics(paymentmetrics.New()),
	)
	disputes := disputeservice.New(disputeStore, properties,
		disputeservice.WithLogger(log),
		disputeservice.WithAuditPublisher(auditor),
		disputeservice.WithNotifier(notifications),
		disputeservice.WithMetrics(disputemetrics.New()),
	)
	// Property references documents and disputes, and both reference property.
	properties.SetDocumentSet(documents)
	properties.SetDisputeChecker(disputes)

	users := userservice.New(userStore, app.tokens,
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(auditor),
	)
	admin := adminservice.New(properties, payments, disputes, users, auditStore, log)

	app.users = userhandler.New(users, log)
	app.properties = propertyhandler.New(properties, log)
	app.documents = documenthandler.New(documents, log)
	app.payments = paymenthandler.New(payments, log)
	app.disputes = disputehandler.New(disputes, log)
	app.notifications = notificationhandler.New(notifications, log)
	app.admin = adminhandler.New(admin, log)

	return app, nil
}
