package boot

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"stagecheck/internal/platform/admin"
	"stagecheck/internal/platform/config"
	"stagecheck/internal/platform/health"
	"stagecheck/internal/platform/logging"
	"stagecheck/internal/platform/otel"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Main represents the primary server of a service.
type Main struct {
	Serve    func() error
	Shutdown func(context.Context) error

	// Close releases long-lived resources (e.g. database pools) after the
	// server has drained. Optional.
	Close func()

	// AdminRoutes are mounted on the admin listener. Optional.
	AdminRoutes map[string]http.Handler
}

// Deps are the shared platform dependencies provided to each service.
type Deps struct {
	Log       *zap.Logger
	Metrics   http.Handler
	ReadyRoot *health.Node
	Serving   *atomic.Bool
}

// Options configures the platform boot.
type Options struct {
	ServiceName string

	// AdminAddrEnv is the env var for the admin listener (defaults to <SERVICE>_ADMIN_ADDR).
	// The listener falls back to :8081 when the variable is empty.
	AdminAddrEnv string

	// OTELExtraAttrs are added to both tracing + metrics resources.
	OTELExtraAttrs []attribute.KeyValue

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// Run boots common platform pieces (logger, OTEL, metrics, readiness root),
// builds the service, starts the admin server, then runs the service's main
// server and blocks until it exits or a shutdown signal arrives.
func Run(ctx context.Context, opts Options, build func(ctx context.Context, deps Deps) (Main, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.ServiceName == "" {
		return errors.New("boot: ServiceName is required")
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	log, err := logging.New(opts.ServiceName)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Root context is canceled on SIGINT/SIGTERM or when main server errors.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigc := make(chan os.Signal, 2)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	shutdownTrace, err := otel.Init(runCtx, opts.ServiceName, opts.OTELExtraAttrs...)
	if err != nil {
		return err
	}
	metricsH, shutdownMetrics, err := otel.InitMetricsPrometheus(runCtx, opts.ServiceName, opts.OTELExtraAttrs...)
	if err != nil {
		_ = shutdownTrace(context.Background())
		return err
	}
	shutdownTelemetry := func(ctx context.Context) []error {
		var errs []error
		if err := shutdownMetrics(ctx); err != nil {
			errs = append(errs, err)
		}
		if err := shutdownTrace(ctx); err != nil {
			errs = append(errs, err)
		}
		return errs
	}

	// Readiness graph (admin exposes /readyz using this root).
	ready := health.NewReadyGraph()
	ready.Add("otel", health.CheckAlwaysReady())

	var serving atomic.Bool

	deps := Deps{
		Log:       log,
		Metrics:   metricsH,
		ReadyRoot: ready,
		Serving:   &serving,
	}

	main, err := build(runCtx, deps)
	if err != nil {
		return errors.Join(append([]error{err}, shutdownTelemetry(context.Background())...)...)
	}
	if main.Serve == nil || main.Shutdown == nil {
		return errors.New("boot: Main.Serve and Main.Shutdown are required")
	}
	if main.Close != nil {
		defer main.Close()
	}

	adminEnv := opts.AdminAddrEnv
	if adminEnv == "" {
		adminEnv = upperServiceEnvPrefix(opts.ServiceName) + "_ADMIN_ADDR"
	}
	adminSrv, err := admin.Start(log, admin.Options{
		Addr:        config.Getenv(adminEnv, ":8081"),
		ServiceName: opts.ServiceName,
		Metrics:     metricsH,
		ReadyRoot:   ready,
		ServingFn:   serving.Load,
		Routes:      main.AdminRoutes,
	})
	if err != nil {
		return errors.Join(append([]error{err}, shutdownTelemetry(context.Background())...)...)
	}

	serving.Store(true)

	errCh := make(chan error, 1)
	go func() { errCh <- main.Serve() }()

	var serveErr error
	select {
	case <-runCtx.Done():
		// parent canceled
	case sig := <-sigc:
		log.Info("shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error("main server exited", zap.Error(serveErr))
		}
		cancel()
	}

	// Stop advertising readiness before shutdown.
	serving.Store(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), opts.ShutdownTimeout)
	defer shutdownCancel()

	errs := []error{serveErr}
	if err := main.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := adminSrv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, shutdownTelemetry(shutdownCtx)...)
	return errors.Join(errs...)
}

func upperServiceEnvPrefix(service string) string {
	// "stagecheckd" -> "STAGECHECK" (strip trailing d), '-' and ' ' become '_'.
	s := service
	if len(s) > 1 && s[len(s)-1] == 'd' {
		s = s[:len(s)-1]
	}
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
			b = append(b, c-('a'-'A'))
		case c == '-' || c == ' ':
			b = append(b, '_')
		default:
			b = append(b, c)
		}
	}
	return string(b)
}
