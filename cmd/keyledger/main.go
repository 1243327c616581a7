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

	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"keyledger/engine/actors"
	"keyledger/engine/library"
	"keyledger/ledger"
	"keyledger/ops"
	"keyledger/server"
	"keyledger/state/accounts"
)

func main() {
	// Settings live in a viper config under rootDir, defaults are written back
	// on first run so they can be edited.
	conf := viper.New()
	actors.InitConfig(conf)
	actors.SetConfig(conf)
	fmt.Println("CURRENT CONFIG")
	for k, v := range actors.MakeOrGetConfig().AllSettings() {
		fmt.Printf("\nKey: %s; Value: %v\n", k, v)
	}
	settings := actors.CurrentSettings()

	service, err := actors.ServiceSigningKey()
	if err != nil {
		library.LogCLI(fmt.Sprintf("could not load the service wallet: %s", err.Error()), 0)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	terminateChan := make(chan struct{})
	actors.SetTerminateChan(terminateChan)

	prover := ledger.NewMemoryProver(settings.BatchInterval)
	store := accounts.NewStore()
	cfg := ops.Config{
		ServiceID:        settings.ServiceID,
		LedgerTimeout:    settings.LedgerTimeout,
		QueryConcurrency: settings.QueryConcurrency,
	}
	engine := ops.NewEngine(store, prover, service, cfg)
	query := ops.NewQuery(store, prover, cfg)
	srv := &http.Server{
		Addr:              settings.HTTPAddr,
		Handler:           server.New(engine, query, settings.MaxBodyBytes).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if settings.CLIListener {
		go cliListener(query, prover)
	}

	ln, err := net.Listen("tcp", settings.HTTPAddr)
	if err != nil {
		library.LogCLI(err.Error(), 0)
		os.Exit(1)
	}
	go func() {
		select {
		case <-terminateChan:
			stop()
		case <-ctx.Done():
		}
	}()
	if err := serve(ctx, engine, prover, srv, ln, settings.LedgerTimeout+time.Second); err != nil {
		library.LogCLI(err.Error(), 1)
	}
	fmt.Println("Goodbye")
}

// serve runs the prover, registers the service and only then serves HTTP on
// ln, since the prover rejects creates until the registration is committed.
// Connections arriving earlier wait in the listen backlog.
func serve(ctx context.Context, engine *ops.Engine, prover *ledger.MemoryProver, srv *http.Server, ln net.Listener, shutdownGrace time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return prover.Run(gctx)
	})
	if err := engine.RegisterService(gctx); err != nil {
		cancel()
		ln.Close()
		_ = g.Wait()
		return err
	}
	g.Go(func() error {
		library.LogCLI("Listening on "+ln.Addr().String(), 4)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
