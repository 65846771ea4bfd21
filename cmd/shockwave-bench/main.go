// Command shockwave-bench drives the reactor engine against a target URL
// with a configurable number of concurrent requesters, and prints pool
// statistics once done — a CLI harness in the cobra-driven style this
// corpus favors for its own tooling entry points (hemzaz-freightliner's
// cmd/ binaries, Synnergy's root command).
package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/watt-toolkit/shockwave-engine/config"
	"github.com/watt-toolkit/shockwave-engine/inspector"
	"github.com/watt-toolkit/shockwave-engine/metrics"
	"github.com/watt-toolkit/shockwave-engine/reactor"
	"github.com/watt-toolkit/shockwave-engine/wire"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	flagURL         string
	flagRequests    int
	flagConcurrency int
	flagKeepAlive   time.Duration
	flagConnTimeout time.Duration
	flagEnvFile     string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shockwave-bench",
		Short: "Hammer a URL through the reactor engine and report pool stats",
		RunE:  run,
	}

	cmd.Flags().StringVar(&flagURL, "url", "http://localhost:8080/", "target URL")
	cmd.Flags().IntVar(&flagRequests, "requests", 1000, "total requests to issue")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 50, "concurrent requesters")
	cmd.Flags().DurationVar(&flagKeepAlive, "keep-alive-timeout", 30*time.Second, "idle connection keep-alive timeout")
	cmd.Flags().DurationVar(&flagConnTimeout, "connect-timeout", 5*time.Second, "dial timeout")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "optional dotenv file loaded into the process environment (flags do not read it)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(flagEnvFile); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	u, err := url.Parse(flagURL)
	if err != nil {
		return fmt.Errorf("parsing --url: %w", err)
	}

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg, "shockwave_bench")
	chain := inspector.NewForwarding(inspector.NewLoggingInspector(log), collector)

	cfg := config.New(
		config.WithConnectTimeout(flagConnTimeout),
		config.WithKeepAliveTimeout(flagKeepAlive),
	)

	engine := reactor.New(cfg, reactor.WithInspector(chain))
	engine.Start()

	var wg sync.WaitGroup
	jobs := make(chan struct{}, flagRequests)
	for i := 0; i < flagRequests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	start := time.Now()
	var failed int64
	var mu sync.Mutex

	for i := 0; i < flagConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				req := wire.NewRequest("GET", u, nil)
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				resp, err := engine.Do(ctx, req)
				cancel()
				if err != nil {
					mu.Lock()
					failed++
					mu.Unlock()
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	elapsed := time.Since(start)
	stats := engine.Stats()
	collector.SetPoolSizes(stats.Idle, stats.Busy)

	fmt.Printf("requests=%d failed=%d elapsed=%s rps=%.1f\n",
		flagRequests, failed, elapsed, float64(flagRequests)/elapsed.Seconds())
	fmt.Printf("pool: idle=%d busy=%d idle_expired=%d busy_expired=%d\n",
		stats.Idle, stats.Busy, stats.IdleExpired, stats.BusyExpired)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownRWTimeout+time.Second)
	defer cancel()
	return engine.Stop(shutdownCtx)
}
