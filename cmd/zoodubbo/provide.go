package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/534591395/zoodubbo/observability"
	"github.com/534591395/zoodubbo/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const echoServicePath = "org.zoodubbo.demo.EchoService"

var (
	provideNoRegistry bool
	provideVersion    string
)

// EchoService is the demo provider.
type EchoService struct{}

func (e *EchoService) Echo(args []any) (any, error) {
	if len(args) == 0 {
		return nil, errors.New("echo needs one argument")
	}
	return args[0], nil
}

func (e *EchoService) SayHello(args []any) (any, error) {
	if len(args) == 0 {
		return "hello", nil
	}
	return fmt.Sprintf("hello %v", args[0]), nil
}

func (e *EchoService) Ping(args []any) (any, error) { return nil, nil }

var provideCmd = &cobra.Command{
	Use:   "provide",
	Short: "Run the demo echo provider",
	Long: fmt.Sprintf(`Serve %s (methods echo, sayHello, ping) on provider.listen
and publish it to the registry until interrupted.`, echoServicePath),
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		opts := []server.Option{server.WithLogger(logger.Named("provider"))}
		if !provideNoRegistry {
			reg, err := newRegistry()
			if err != nil {
				return err
			}
			defer reg.Close()
			opts = append(opts, server.WithRegistry(reg, cfg.Provider.Advertise, cfg.Provider.TTL))
		}

		svr := server.NewServer(opts...)
		if err := svr.Register(echoServicePath, provideVersion, &EchoService{}); err != nil {
			return err
		}

		if cfg.Provider.MetricsAddr != "" {
			metricsSrv := &http.Server{Addr: cfg.Provider.MetricsAddr, Handler: observability.Handler()}
			go func() {
				if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Warn("metrics server stopped", zap.Error(err))
				}
			}()
			defer metricsSrv.Close()
		}

		l, err := net.Listen("tcp", cfg.Provider.Listen)
		if err != nil {
			return err
		}
		served := make(chan error, 1)
		go func() { served <- svr.ServeListener(l) }()

		select {
		case err := <-served:
			return err
		case <-ctx.Done():
		}
		logger.Info("shutting down provider")
		if err := svr.Shutdown(10 * time.Second); err != nil {
			return err
		}
		return <-served
	},
}

func init() {
	provideCmd.Flags().BoolVar(&provideNoRegistry, "no-registry", false, "serve without publishing to the registry")
	provideCmd.Flags().StringVar(&provideVersion, "version", "1.0.0", "published service version")
}
