package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/dropspots/internal/adapters/fcm"
	natsadapter "github.com/samirrijal/dropspots/internal/adapters/nats"
	"github.com/samirrijal/dropspots/internal/adapters/postgres"
	"github.com/samirrijal/dropspots/internal/core/ports"
	"github.com/samirrijal/dropspots/internal/core/usecases"
	"github.com/samirrijal/dropspots/internal/pkg/config"
	"github.com/samirrijal/dropspots/internal/pkg/logging"
	"github.com/samirrijal/dropspots/internal/pkg/telemetry"
	"github.com/samirrijal/dropspots/internal/workflows"
)

func main() {
	cfg, err := config.Load("dropspots-moderator")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), 10)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer pub.Close()

	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	activities := &workflows.ReviewActivities{
		Spots: usecases.NewSpotService(postgres.NewSpotRepo(db), nil, pub),
	}
	if cfg.FCM.Enabled {
		messaging, err := fcm.NewMessagingClient(ctx, cfg.FCM.CredentialsFile, cfg.FCM.ProjectID)
		if err != nil {
			log.Fatalf("fcm: %v", err)
		}
		activities.Notifier = fcm.NewNotifier(messaging, postgres.NewDeviceRepo(db))
	} else {
		slog.Info("push notifications disabled")
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.SpotReviewWorkflow)
	w.RegisterActivity(activities)

	var subscriber ports.EventSubscriber = sub
	starter := workflows.NewStarter(c, cfg.Temporal.TaskQueue)
	if err := subscriber.SubscribeSpotSubmitted(ctx, starter.HandleSubmitted); err != nil {
		log.Fatalf("subscribe %s: %v", natsadapter.SubjectSpotSubmitted, err)
	}

	slog.Info("moderator started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
