package commands

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/bizcopilot/copilot/internal/api"
	"github.com/bizcopilot/copilot/internal/config"
	"github.com/bizcopilot/copilot/internal/logger"
	"github.com/bizcopilot/copilot/internal/metrics"
)

// globalOptions holds the persistent root flags
type globalOptions struct {
	apiURL   string
	timeout  time.Duration
	logLevel string
}

// runtime is the per-invocation wiring shared by the subcommands
type runtime struct {
	cfg      config.Config
	log      *zap.Logger
	metrics  *metrics.Metrics
	client   api.ClientInterface
	closeLog func() error
}

// newRuntime loads config, applies flag overrides and builds the logger,
// the metrics registry and the gateway client.
func newRuntime(deps *Dependencies, opts *globalOptions) (*runtime, error) {
	cfg, err := deps.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
	}
	if opts.apiURL != "" {
		if err := cfg.Set("api_url", opts.apiURL); err != nil {
			return nil, err
		}
	}
	if opts.timeout > 0 {
		cfg.TimeoutSeconds = timeoutSeconds(opts.timeout)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}

	rt := &runtime{
		cfg:      cfg,
		log:      zap.NewNop(),
		metrics:  metrics.New(),
		closeLog: func() error { return nil },
	}

	if !deps.NoLogFile {
		if path, err := config.GetLogPath(cfg); err == nil {
			lopts := logger.DefaultOptions(path)
			lopts.Level = cfg.LogLevel
			if log, closer, err := logger.New(lopts); err == nil {
				rt.log, rt.closeLog = log, closer
			}
		}
	}

	if deps.Client != nil {
		rt.client = deps.Client
		return rt, nil
	}

	client, err := api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.Timeout()),
		api.WithLogger(rt.log),
		api.WithMetrics(rt.metrics),
		api.WithHeader("User-Agent", userAgent()),
	)
	if err != nil {
		_ = rt.closeLog()
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	rt.client = client
	return rt, nil
}

// timeoutSeconds rounds d up to whole seconds, so --timeout 500ms means 1s
func timeoutSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

func userAgent() string {
	return "bizcopilot-cli/" + Version
}

// Close flushes the metrics textfile, when configured, and the log
func (r *runtime) Close() {
	if r.cfg.MetricsFile != "" {
		if err := r.metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
			r.log.Warn("failed to write metrics", zap.String("path", r.cfg.MetricsFile), zap.Error(err))
		}
	}
	_ = r.closeLog()
}
