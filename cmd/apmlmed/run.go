package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdlayher/wifi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/tomiamao/apmlme/ap"
	"github.com/tomiamao/apmlme/internal/config"
	"github.com/tomiamao/apmlme/internal/device"
	"github.com/tomiamao/apmlme/internal/metrics"
	"github.com/tomiamao/apmlme/internal/packetconn"
	"github.com/tomiamao/apmlme/internal/smebridge"
	"github.com/tomiamao/apmlme/mlme"
	"github.com/tomiamao/apmlme/nl80211"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	runnerQueueLen  = 256
	shutdownTimeout = 5 * time.Second
)

var autostart bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the access point until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log, err := config.NewLogger(v)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, c, log)
	},
}

func init() {
	runCmd.Flags().BoolVar(&autostart, "autostart", false, "start the BSS from the bss.* settings without waiting for the SME")
	rootCmd.AddCommand(runCmd)
}

func run(ctx context.Context, c *config.Config, log *zap.Logger) (err error) {
	startReq, err := c.StartRequest()
	if err != nil {
		return err
	}

	ifi, err := findInterface(c.Interface.WLAN)
	if err != nil {
		return err
	}
	bssid, ok := mlme.AddrFrom(ifi.HardwareAddr)
	if !ok {
		return fmt.Errorf("interface %s has no usable hardware address", ifi.Name)
	}

	opts := []nl80211.Option{nl80211.WithLogger(log.Named("nl80211"))}
	if c.Interface.Monitor != "" {
		mon, err := listen(c.Interface.Monitor)
		if err != nil {
			return err
		}
		opts = append(opts, nl80211.WithMonitor(mon))
	}
	radio, err := nl80211.Open(ifi, opts...)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, radio.Close()) }()

	if err := radio.SetAPMode(); err != nil {
		log.Warn("failed to switch interface to AP mode", zap.String("interface", ifi.Name), zap.Error(err))
	}

	eth, err := listen(c.Interface.Ethernet)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, eth.Close()) }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.New(reg)

	var runner *ap.Runner
	sme := smebridge.NewServer([]byte(c.SME.JWTSecret),
		func(ctx context.Context, m mlme.Message) error { return runner.DeliverMessage(ctx, m) },
		smebridge.WithLogger(log.Named("sme")),
		smebridge.WithObserver(rec),
	)

	bss := ap.NewBss(
		device.New(radio, eth, sme, log.Named("device")),
		radio,
		bssid,
		ap.WithLogger(log.Named("bss")),
		ap.WithRecorder(rec),
		ap.WithAuthRateLimit(rate.Limit(c.BSS.AuthRate), c.BSS.AuthBurst),
		ap.WithMaxBufferedFrames(c.BSS.MaxBufferedFrames),
	)
	runner = ap.NewRunner(bss, runnerQueueLen, log.Named("runner"))

	smeMux := http.NewServeMux()
	sme.RegisterRoutes(smeMux)
	smeSrv := &http.Server{Addr: c.SME.Listen, Handler: smeMux, ReadHeaderTimeout: 10 * time.Second}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metrics.Handler(reg))
	metricsSrv := &http.Server{Addr: c.Metrics.Listen, Handler: metricsMux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(runner.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(radio.Receive(gctx, runner.DeliverFrame)) })
	g.Go(func() error { return ignoreCanceled(device.ForwardEthernet(gctx, eth, runner.DeliverFrame)) })
	g.Go(func() error { return serve(smeSrv) })
	g.Go(func() error { return serve(metricsSrv) })
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return multierr.Combine(smeSrv.Shutdown(sctx), metricsSrv.Shutdown(sctx))
	})

	if autostart {
		if err := runner.DeliverMessage(gctx, startReq); err != nil {
			log.Error("failed to autostart BSS", zap.Error(err))
		}
	}

	log.Info("apmlmed running",
		zap.String("interface", ifi.Name),
		zap.Stringer("bssid", bssid),
		zap.String("sme", c.SME.Listen),
		zap.String("metrics", c.Metrics.Listen))

	return g.Wait()
}

// findInterface returns the WiFi interface with the given name.
func findInterface(name string) (*wifi.Interface, error) {
	c, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to open nl80211: %w", err)
	}
	defer c.Close()

	ifis, err := c.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list WiFi interfaces: %w", err)
	}
	for _, ifi := range ifis {
		if ifi.Name == name {
			return ifi, nil
		}
	}
	return nil, fmt.Errorf("WiFi interface %q not found", name)
}

func listen(name string) (*packetconn.Conn, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, err
	}
	return packetconn.Listen(ifi, packetconn.ProtocolAll)
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", srv.Addr, err)
	}
	return nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
