package daemon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"

	api "github.com/safenetai/escalation/internal/api/http"
	"github.com/safenetai/escalation/internal/broadcast"
	"github.com/safenetai/escalation/internal/confirm"
	"github.com/safenetai/escalation/internal/config"
	"github.com/safenetai/escalation/internal/logger"
	"github.com/safenetai/escalation/internal/push"
	"github.com/safenetai/escalation/internal/repository/alertrecord"
	"github.com/safenetai/escalation/internal/repository/directory"
	"github.com/safenetai/escalation/internal/repository/dispatchlog"
	"github.com/safenetai/escalation/internal/repository/inbox"
	"github.com/safenetai/escalation/internal/router"
	"github.com/safenetai/escalation/internal/sensor"
	escsvc "github.com/safenetai/escalation/internal/service/escalation"
)

// Options controls the escalation daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override.
	ListenAddress string
}

// mqttClientID identifies the daemon on the broadcast broker.
const mqttClientID = "escalationd"

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Run assembles the pipeline and serves the ingest API until the context
// is cancelled.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "escalationd")

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(settings.LogLevel); ok {
		logger.SetLevel(level)
	}

	listenAddress := settings.ListenAddress
	if opts.ListenAddress != "" {
		listenAddress = opts.ListenAddress
	}

	db, err := openPostgres(ctx, settings.PostgresDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	// The dispatch log is optional: without Redis the router still works,
	// it just loses cross-restart dedup.
	var dispatchLog router.DispatchLog

	if settings.RedisAddress != "" {
		client := redis.NewClient(&redis.Options{Addr: settings.RedisAddress})
		if err = client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis at %s: %w", settings.RedisAddress, err)
		}

		defer client.Close()

		dispatchLog = dispatchlog.NewRedisLog(client, 0)
	} else {
		logger.Warn(ctx, "No Redis configured, dispatch dedup limited to process lifetime")
	}

	// The countdown broadcast is optional too.
	var observer confirm.Observer

	if settings.MQTTBroker != "" {
		publisher, err := broadcast.Connect(settings.MQTTBroker, mqttClientID)
		if err != nil {
			return fmt.Errorf("connect broadcast broker: %w", err)
		}

		defer publisher.Close()

		observer = publisher
	}

	people := directory.NewPostgresDirectory(db)
	sender := push.NewSender(settings.PushEndpoint, settings.PushAPIKey)
	rt := router.New(sender, people, inbox.NewPostgresStore(db), dispatchLog)

	service := escsvc.New(ctx, settings, alertrecord.NewPostgresStore(db), inbox.NewPostgresStore(db), rt, observer)
	watcher := sensor.NewWatcher(people, service)

	server := &http.Server{
		Addr:              listenAddress,
		Handler:           api.New(service, watcher),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	logger.InfoKV(ctx, "Escalation daemon listening", "listen_address", listenAddress)

	// Done channel is closed after Shutdown finishes so we block until the
	// server fully drains before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "HTTP server shutdown was not clean", "error", err)
		}

		close(done)
	}()

	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve http: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}

// openPostgres opens and verifies the database connection.
func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}
