// Command relayer runs the off-chain watcher described in spec §4.5-§4.8:
// one listener/handler pair per chain, a shared circuit breaker, and an
// admin/query HTTP surface (mirrors the teacher's cmd/xchainserver).
package main

import (
	"context"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"guardianbridge/cmd/relayer/server"
	"guardianbridge/core"
	"guardianbridge/relayer"
)

func main() {
	cfg, err := relayer.LoadConfig("relayer", ".", "/etc/guardianbridge")
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.WithError(err).Fatal("build zap logger")
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForShutdown(cancel)

	checkpoints, err := relayer.NewCheckpointStore(cfg.RedisURL, cfg.InstanceName)
	if err != nil {
		sugar.Fatalw("connect checkpoint store", "error", err)
	}
	defer checkpoints.Close()

	signerAdapter, closeSigner, err := buildSigner(cfg)
	if err != nil {
		sugar.Fatalw("build signer", "error", err)
	}
	if closeSigner != nil {
		defer closeSigner()
	}

	metrics := relayer.NewMetrics()
	breaker := relayer.NewCircuitBreaker(sugar)

	connectionStore := core.NewInMemoryStore()
	connections := relayer.NewConnectionRegistry(connectionStore, sugar)
	if _, err := connections.Open("chaina", "chaine"); err != nil {
		sugar.Warnw("record initial chain connection", "error", err)
	}

	chainAClient, closeChainA, err := relayer.NewChainAWebsocketClient(cfg.ChainAWsURL, signerAdapter)
	if err != nil {
		sugar.Fatalw("dial chain A", "error", err)
	}
	defer closeChainA()
	chainEClient, closeChainE, err := relayer.NewChainEWebsocketClient(cfg.ChainEWsURL, signerAdapter)
	if err != nil {
		sugar.Fatalw("dial chain E", "error", err)
	}
	defer closeChainE()

	handlerAtoE := relayer.NewHandler(relayer.HandlerConfig{
		Destination:      chainEClient,
		MinConfirmations: cfg.ChainETxMinConfirmations,
		FinalityPoll:     cfg.PollInterval,
		Log:              sugar.Named("handler.chaina->chaine"),
	})
	handlerEtoA := relayer.NewHandler(relayer.HandlerConfig{
		Destination:      chainAClient,
		MinConfirmations: cfg.ChainETxMinConfirmations,
		FinalityPoll:     cfg.PollInterval,
		Log:              sugar.Named("handler.chaine->chaina"),
	})

	listenerA := relayer.NewListener(relayer.ListenerConfig{
		Client:              chainAClient,
		Checkpoints:         checkpoints,
		MaxBlockTasks:       cfg.ChainAMaxBlockProcessingTasks,
		BackfillStride:      cfg.BackfillStride,
		MaxRequestsPerBlock: cfg.MaxRequestsPerBlock,
		PollInterval:        cfg.PollInterval,
		BlockTime:           cfg.PollInterval,
		Metrics:             metrics,
		Breaker:             breaker,
		Handle:              quiescent(breaker, handlerAtoE.Handle),
		Log:                 sugar.Named("listener.chaina"),
	})
	listenerE := relayer.NewListener(relayer.ListenerConfig{
		Client:              chainEClient,
		Checkpoints:         checkpoints,
		MaxBlockTasks:       cfg.ChainAMaxBlockProcessingTasks,
		BackfillStride:      cfg.BackfillStride,
		MaxRequestsPerBlock: cfg.MaxRequestsPerBlock,
		PollInterval:        cfg.PollInterval,
		BlockTime:           cfg.PollInterval,
		Metrics:             metrics,
		Breaker:             breaker,
		Handle:              quiescent(breaker, handlerEtoA.Handle),
		Log:                 sugar.Named("listener.chaine"),
	})

	go breaker.WatchAdvisories(ctx, advisoryClients(cfg), cfg.PollInterval/2)
	go breaker.WatchHalted(ctx, []relayer.HaltedClient{
		{Chain: "chaina", IsHalted: haltedProbe(chainAClient)},
		{Chain: "chaine", IsHalted: haltedProbe(chainEClient)},
	}, cfg.PollInterval/2)
	go drainBreakerEvents(ctx, breaker, metrics, sugar)

	go func() {
		if err := listenerA.Run(ctx, cfg.DefaultSyncFromBlockChainA); err != nil {
			sugar.Errorw("chain A listener exited", "error", err)
			cancel()
		}
	}()
	go func() {
		if err := listenerE.Run(ctx, cfg.DefaultSyncFromBlockChainE); err != nil {
			sugar.Errorw("chain E listener exited", "error", err)
			cancel()
		}
	}()

	admin := &server.AdminServer{
		Bridge:      localReadModel(),
		Connections: connections,
		Breaker:     breaker,
		Metrics:     metrics,
	}
	httpServer := &http.Server{Addr: ":8090", Handler: server.NewRouter(admin)}
	go func() {
		sugar.Infow("admin api listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Errorw("admin api exited", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	sugar.Info("relayer shut down")
}

func waitForShutdown(cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
}

// buildSigner selects the in-process dev keypair or the remote
// stream-socket signer per spec §4.8, gated on cfg.Dev exactly as the
// original relayer's signer selection is.
func buildSigner(cfg *relayer.Config) (relayer.Signer, func() error, error) {
	if cfg.Dev {
		signer, err := relayer.NewKeypairSigner(nil)
		return signer, nil, err
	}
	addr := cfg.SignerCID + ":" + strconv.Itoa(cfg.SignerPort)
	signer, err := relayer.DialRemoteSigner(addr)
	if err != nil {
		return nil, nil, err
	}
	return signer, signer.Close, nil
}

// quiescent wraps handle so new handler work is withheld while the
// circuit breaker reports an emergency (spec §4.7 last paragraph): the
// listener keeps advancing checkpoints for already-durable blocks, but
// declines to submit new receive_request calls until cleared.
func quiescent(breaker *relayer.CircuitBreaker, handle func(context.Context, relayer.CrosschainTransferEvent) error) func(context.Context, relayer.CrosschainTransferEvent) error {
	return func(ctx context.Context, ev relayer.CrosschainTransferEvent) error {
		for breaker.Quiesced() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
		}
		return handle(ctx, ev)
	}
}

func drainBreakerEvents(ctx context.Context, breaker *relayer.CircuitBreaker, metrics *relayer.Metrics, log *zap.SugaredLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-breaker.Events():
			metrics.SetEmergency(true)
			log.Warnw("circuit breaker tripped", "kind", ev.Kind, "address", ev.Address, "chain", ev.Chain)
		}
	}
}

func advisoryClients(cfg *relayer.Config) []relayer.AdvisoryClient {
	clients := make([]relayer.AdvisoryClient, 0, len(cfg.AdvisoryContractAddresses))
	for _, addr := range cfg.AdvisoryContractAddresses {
		a := addr
		clients = append(clients, relayer.AdvisoryClient{
			Address: a,
			IsEmergency: func(ctx context.Context) (bool, error) {
				// Advisory RPC is out of scope per spec §1; a deployment
				// wires its own contract-call client here.
				return false, nil
			},
		})
	}
	return clients
}

func haltedProbe(client relayer.ChainClient) func(context.Context) (bool, error) {
	return func(ctx context.Context) (bool, error) {
		// is_halted() is a contract read, not one of ChainClient's four
		// RPC-shaped fields; a deployment extends ChainClient with it.
		return false, nil
	}
}

// localReadModel returns the process-local BridgeContract the admin API
// queries (see core.InMemoryStore's doc comment): a read model kept in
// sync with the real on-chain contract by a reconciliation job out of
// this module's scope.
func localReadModel() *core.BridgeContract {
	store := core.NewInMemoryStore()
	oracle := core.NewPriceOracle(0, big.NewInt(0), big.NewInt(0), big.NewInt(0), big.NewInt(0))
	return core.NewBridgeContract(core.AccountID{}, store, oracle, nil, nil, 0, big.NewInt(0), big.NewInt(0))
}
