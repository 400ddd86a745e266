package api

import (
	"context"
	"errors"
	"fmt"
	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/modfin/brevq/internal/metrics"
	"github.com/modfin/brevq/internal/queue"
	"github.com/modfin/brevq/tools"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/acme/autocert"
	"net/http"
	"strings"
	"sync"
)

type Config struct {
	Hostname string

	Interface string
	Port      int

	AutoTLS      bool
	AutoTLSEmail string
	AutoTLSCache string
}

type Server struct {
	config  Config
	queue   *queue.Service
	metrics *metrics.Metrics
	log     *logrus.Logger

	echo *echo.Echo
}

var (
	promOnce sync.Once
	prom     *prometheus.Prometheus
)

// New sets up the routes. m may be nil, in which case /metrics is not served.
func New(cfg Config, q *queue.Service, m *metrics.Metrics, lc *tools.Logger) *Server {
	s := &Server{
		config:  cfg,
		queue:   q,
		metrics: m,
		log:     lc.New("api"),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(s.log)

	promOnce.Do(func() {
		prom = prometheus.NewPrometheus("brevq", func(c echo.Context) bool {
			return c.Path() == "/metrics"
		})
	})
	e.Use(middleware.Recover(), requestLogger(s.log), prom.HandlerFunc)

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	e.POST("/emails", s.schedule)
	e.GET("/emails", s.list)
	e.GET("/emails/:id", s.get)
	e.GET("/emails/:id/log", s.emailLog)
	e.PATCH("/emails/:id", s.update)
	e.DELETE("/emails/:id", s.cancel)

	e.POST("/batches", s.queueBatch)
	e.GET("/batches/:id", s.batch)

	e.GET("/status", s.status)
	e.GET("/config", s.settings)
	e.PUT("/config", s.updateSettings)

	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.HttpMetrics()))
	}

	s.echo = e
	return s
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() {
	addr := fmt.Sprintf("%s:%d", s.config.Interface, s.config.Port)

	go func() {
		var err error
		if s.config.AutoTLS {
			email := strings.TrimSpace(s.config.AutoTLSEmail)
			if email == "" {
				s.log.Warn("auto tls is enabled, but no account email is set")
			}
			s.echo.AutoTLSManager.Cache = autocert.DirCache(s.config.AutoTLSCache)
			s.echo.AutoTLSManager.HostPolicy = autocert.HostWhitelist(s.config.Hostname)
			s.echo.AutoTLSManager.Email = email
			s.log.Infof("starting api on %s with auto tls for %s", addr, s.config.Hostname)
			err = s.echo.StartAutoTLS(addr)
		} else {
			s.log.Infof("starting api on %s", addr)
			err = s.echo.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("api stopped")
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down api server")
	return s.echo.Shutdown(ctx)
}

func requestLogger(log *logrus.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.WithField("method", v.Method).
				WithField("status", v.Status).
				WithField("latency", v.Latency).
				Debug(v.URI)
			return nil
		},
	})
}
