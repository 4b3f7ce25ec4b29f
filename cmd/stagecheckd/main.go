// Command stagecheckd serves staging/production row-count checks over HTTP so
// a scheduler or event source can trigger them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"stagecheck/internal/db"
	"stagecheck/internal/platform/boot"
	"stagecheck/internal/platform/config"
	"stagecheck/internal/platform/health"
	"stagecheck/internal/platform/httpmw"
	"stagecheck/internal/platform/metrics"
	"stagecheck/internal/stagecheck"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const service = "stagecheckd"

func main() {
	err := boot.Run(context.Background(), boot.Options{
		ServiceName:     service,
		ShutdownTimeout: config.Duration("STAGECHECK_SHUTDOWN_TIMEOUT", 30*time.Second),
	}, build)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func build(ctx context.Context, deps boot.Deps) (boot.Main, error) {
	log := deps.Log

	cfgs, err := stagecheck.LoadConfigs()
	if err != nil {
		return boot.Main{}, err
	}
	for _, side := range stagecheck.Sides() {
		log.Info("database configured", zap.Object("db", cfgs[side]))
	}

	opts := db.CloudSQLOptions()
	opts.HealthCheckPeriod = time.Minute
	opts.InitialPingTimeout = config.Duration("STAGECHECK_PING_TIMEOUT", opts.InitialPingTimeout)

	pools := make(map[stagecheck.Side]*pgxpool.Pool, len(stagecheck.Sides()))
	closePools := func() {
		for _, p := range pools {
			p.Close()
		}
	}
	for _, side := range stagecheck.Sides() {
		pool, err := db.NewPool(ctx, cfgs[side].DSN(), opts)
		if err != nil {
			closePools()
			return boot.Main{}, errors.Join(stagecheck.ErrConnect, err)
		}
		pools[side] = pool
		deps.ReadyRoot.Add(string(side), health.SQLPing(pool))
	}

	checkMetrics, err := metrics.NewCheckMetrics(service)
	if err != nil {
		closePools()
		return boot.Main{}, err
	}
	httpMetrics, err := metrics.NewHTTPServerMetrics(service, "/v1/check", "/v1/check/report")
	if err != nil {
		closePools()
		return boot.Main{}, err
	}

	cmp := stagecheck.New(&stagecheck.SharedOpener{
		Pools:          pools,
		AcquireTimeout: opts.AcquireTimeout,
	}, log, checkMetrics)

	handler := httpmw.BuildTriggerHandler(log, httpmw.TriggerPolicy{
		ServiceName: service,
		Timeout:     config.Duration("STAGECHECK_TIMEOUT", 2*time.Minute),
		MaxInFlight: config.Int("STAGECHECK_MAX_INFLIGHT", 1),
		Rate:        rate.Limit(config.Float("STAGECHECK_RATE", 1)),
		Burst:       config.Int("STAGECHECK_BURST", 2),
		Outer:       httpmw.Chain{httpMetrics.Middleware},
	}, stagecheck.Routes(log, cmp))

	addr := config.Getenv("STAGECHECK_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return boot.Main{
		Serve: func() error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			log.Info("stagecheck trigger listening", zap.String("addr", ln.Addr().String()))
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		Shutdown: srv.Shutdown,
		Close:    closePools,
		AdminRoutes: map[string]http.Handler{
			"/debug/config": configHandler(cfgs),
		},
	}, nil
}

// configHandler shows the loaded connection settings; passwords are never serialized.
func configHandler(cfgs map[stagecheck.Side]stagecheck.ConnectionConfig) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		out := make(map[string]any, len(cfgs))
		for side, cfg := range cfgs {
			out[string(side)] = struct {
				stagecheck.ConnectionConfig
				SocketPath string `json:"socket_path"`
			}{cfg, cfg.SocketPath()}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	})
}
