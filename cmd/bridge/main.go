package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/ethclient"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/monitor"
	"github.com/omni/tokenbridge-core/presenter"
	"github.com/omni/tokenbridge-core/repository"
)

func main() {
	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		err := http.ListenAndServe(":2112", nil)
		if err != nil {
			logger.WithError(err).Fatal("can't start listener for prometheus metrics")
		}
	}()

	repo := repository.NewRepo(dbConn)

	bridges, err := cfg.ActiveBridges()
	if err != nil {
		logger.WithError(err).Fatal("can't select active bridges")
	}

	ctx, cancel := context.WithCancel(context.Background())
	monitors := make([]*monitor.Monitor, 0, len(bridges))
	instances := make(map[string]*bridge.Bridge, len(bridges))
	for _, bridgeCfg := range bridges {
		bridgeLogger := logger.WithField("bridge_id", bridgeCfg.ID)
		var client ethclient.Client
		if bridgeCfg.Chain != nil {
			client, err = ethclient.NewClient(bridgeCfg.Chain.RPC.Host, bridgeCfg.Chain.RPC.Timeout, bridgeCfg.Chain.ChainID)
			if err != nil {
				bridgeLogger.WithError(err).Fatal("can't dial rpc client")
			}
		}
		m, err2 := monitor.NewMonitor(bridgeLogger, repo, bridgeCfg, client)
		if err2 != nil {
			bridgeLogger.WithError(err2).Fatal("can't initialize bridge monitor")
		}
		defer m.Close()
		if err2 = m.EnsureInitialized(ctx); err2 != nil {
			bridgeLogger.WithError(err2).Fatal("can't initialize bridge state")
		}
		monitors = append(monitors, m)
		instances[bridgeCfg.ID] = m.Bridge()
	}

	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), repo.Logs, instances)
		go func() {
			err := pr.Serve(cfg.Presenter.Host)
			if err != nil {
				logger.WithError(err).Fatal("can't serve presenter")
			}
		}()
	}

	for _, m := range monitors {
		m.Start(ctx)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	for range c {
		cancel()
		logger.Warn("caught CTRL-C, gracefully terminating")
		return
	}
}
