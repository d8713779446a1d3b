package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/twitter/ice/common/errors"
	"github.com/twitter/ice/common/stats"
	"github.com/twitter/ice/demo"
	"github.com/twitter/ice/ice"
)

const (
	defaultAddr     = "localhost:9099"
	shutdownTimeout = 5 * time.Second
)

type serveCmd struct {
	addr     string
	maxConns int
	// Called with the bound address once the listener is up.
	started func(net.Addr)
}

func (c *serveCmd) registerFlags() *cobra.Command {
	r := &cobra.Command{
		Use:   "serve [chain-config]",
		Short: "Serve the demo app over HTTP, one handler scope per request",
		Args:  cobra.MaximumNArgs(1),
	}
	r.Flags().StringVar(&c.addr, "addr", "", "host:port to listen on (default $"+AddrEnv+" or "+defaultAddr+")")
	r.Flags().IntVar(&c.maxConns, "max_conns", 0, "max concurrent connections, 0 for no limit")
	return r
}

func (c *serveCmd) run(cl *simpleCLIClient, cmd *cobra.Command, args []string) error {
	chain, err := cl.chain(args)
	if err != nil {
		return err
	}
	addr := c.addr
	if addr == "" {
		addr = os.Getenv(AddrEnv)
	}
	if addr == "" {
		addr = defaultAddr
	}
	l, err := c.listen(addr)
	if err != nil {
		return errors.WithExitCode(err, errors.ServeFailureExitCode)
	}
	defer l.Close()

	stat := stats.NewStatsReceiver(stats.NewRegistry())
	ctx, stop := signal.NotifyContext(cl.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = ice.WithScopedResolver(chain, func(root *ice.Resolver) error {
		return root.WithNextScope(func(app *ice.Resolver) error {
			log.Infof("Serving chain %s on %s", chain.ID(), l.Addr())
			if c.started != nil {
				c.started(l.Addr())
			}
			return serve(ctx, l, demo.NewRouter(app, stat), stat)
		}, demo.AppScope)
	}, ice.WithStats(stat))
	return exitCode(err, errors.ServeFailureExitCode)
}

func (c *serveCmd) listen(addr string) (net.Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if c.maxConns > 0 {
		log.Infof("Creating LimitListener with max: %d", c.maxConns)
		return netutil.LimitListener(l, c.maxConns), nil
	}
	return l, nil
}

// serve runs until ctx is done or the server fails, then shuts down gracefully.
func serve(ctx context.Context, l net.Listener, h http.Handler, stat stats.StatsReceiver) error {
	srv := &http.Server{Handler: h}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats.StartUptimeReporting(ctx, stat, stats.IcectlUptime_ms, stats.IcectlServerStartedGauge, stats.DefaultStartupGaugeSpikeLen)
		return nil
	})
	g.Go(func() error {
		if err := srv.Serve(l); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
