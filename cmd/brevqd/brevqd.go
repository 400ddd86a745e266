package main

import (
	"context"
	"fmt"
	"github.com/modfin/brevq"
	"github.com/modfin/brevq/internal/api"
	"github.com/modfin/brevq/internal/clix"
	"github.com/modfin/brevq/internal/config"
	"github.com/modfin/brevq/internal/dao"
	"github.com/modfin/brevq/internal/metrics"
	"github.com/modfin/brevq/internal/posthook"
	"github.com/modfin/brevq/internal/queue"
	"github.com/modfin/brevq/internal/scheduler"
	"github.com/modfin/brevq/internal/transport"
	"github.com/modfin/brevq/tools"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

func main() {

	serveFlags := []cli.Flag{
		&cli.StringFlag{Name: "db-driver", Usage: "sqlite3 (mattn, cgo) or sqlite (modernc, pure go), overrides BREVQ_DB_DRIVER"},
		&cli.StringFlag{Name: "db-uri", Usage: "path to the sqlite database, overrides BREVQ_DB_URI"},
		&cli.IntFlag{Name: "workers", Usage: "number of concurrent sends, overrides BREVQ_WORKERS"},
		&cli.StringFlag{Name: "timezone", Usage: "zone used for blacklist rules and the cron schedule, overrides BREVQ_TIMEZONE"},
		&cli.StringFlag{Name: "transport", Usage: "noop, smtp or resend, overrides BREVQ_TRANSPORT"},
		&cli.IntFlag{Name: "api-port", Usage: "port of the http api, overrides BREVQ_API_PORT"},
		&cli.StringFlag{Name: "log-level", Usage: "overrides BREVQ_LOG_LEVEL"},

		&cli.StringFlag{Name: "metrics-service-name", EnvVars: []string{"BREVQ_METRICS_SERVICE_NAME"}, Value: "brevq"},
		&cli.StringFlag{Name: "metrics-push-url", EnvVars: []string{"BREVQ_METRICS_PUSH_URL"}, Usage: "prometheus push gateway, eg http://pushgateway:9091"},
		&cli.DurationFlag{Name: "metrics-push-interval", EnvVars: []string{"BREVQ_METRICS_PUSH_INTERVAL"}, Value: 30 * time.Second},
		&cli.BoolFlag{Name: "metrics-poll", EnvVars: []string{"BREVQ_METRICS_POLL"}, Usage: "expose /metrics on the api"},
		&cli.StringFlag{Name: "metrics-poll-basic-auth-user", EnvVars: []string{"BREVQ_METRICS_POLL_BASIC_AUTH_USER"}},
		&cli.StringFlag{Name: "metrics-poll-basic-auth-pass", EnvVars: []string{"BREVQ_METRICS_POLL_BASIC_AUTH_PASS"}},
	}

	app := &cli.App{
		Name:   "brevqd",
		Usage:  "a service for scheduling and rate limiting outgoing emails",
		Flags:  serveFlags,
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "start the api and the scheduler",
				Flags:  serveFlags,
				Action: serve,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}

}

func serve(c *cli.Context) error {
	cfg := clix.Overlay(c, *config.Get())

	logger := tools.NewLogger(cfg.LogLevel)
	lc := tools.LoggerCloner(logger)
	l := lc.New("brevqd")

	var stopServer func()
	c.Context, stopServer = context.WithCancel(c.Context)
	defer stopServer()

	l.Infof("Starting server")

	loc := cfg.Location()

	store, err := dao.NewSQLite(cfg.DbDriver, cfg.DbURI, brevq.Settings{
		DailyLimit:   cfg.DailyLimit,
		CronSchedule: cfg.CronSchedule,
		Enabled:      cfg.Enabled,
	}, lc.New("dao"))
	if err != nil {
		return fmt.Errorf("could not open database %s: %w", cfg.DbURI, err)
	}
	defer store.Close()

	sender, err := transport.FromConfig(&cfg, lc.New("transport"))
	if err != nil {
		return fmt.Errorf("could not create transport: %w", err)
	}
	defer sender.Close()

	m := metrics.New(clix.Parse[metrics.Config](c), lc)
	m.Start()

	sched := scheduler.New(scheduler.Config{
		Workers:  cfg.Workers,
		Location: loc,
		Hooks:    posthook.New(cfg.PosthookURL, cfg.PosthookTimeout, lc),
	}, store, sender, m.Collectors(), lc)
	sched.Start()

	q := queue.New(queue.Config{
		DefaultFrom: cfg.DefaultFrom,
		Location:    loc,
	}, store, lc)

	srv := api.New(api.Config{
		Hostname:     cfg.Hostname,
		Interface:    cfg.APIInterface,
		Port:         cfg.APIPort,
		AutoTLS:      cfg.APIAutoTLS,
		AutoTLSEmail: cfg.APIAutoTLSEmail,
		AutoTLSCache: cfg.APIAutoTLSCache,
	}, q, m, lc)
	srv.Start()

	services := []Stoppable{srv, sched, m}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	sig := <-sigc
	l.Infof("Got signal: %s, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	wg := &sync.WaitGroup{}
	for _, service := range services {
		wg.Add(1)
		go func(service Stoppable) {
			defer wg.Done()
			err := service.Stop(shutdownCtx)
			if err != nil {
				l.WithError(err).Error("Failed to stop service")
			}
		}(service)
	}

	go func() {
		<-shutdownCtx.Done()
		if shutdownCtx.Err() == context.DeadlineExceeded {
			l.WithError(shutdownCtx.Err()).Warn("Shutdown was forced, terminating now")
			os.Exit(1)
		}
	}()

	wg.Wait()
	l.Infof("Shutdown complete, terminating now")
	return nil
}

type Stoppable interface {
	Stop(ctx context.Context) error
}
