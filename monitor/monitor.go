package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/ethclient"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/monitor/alerts"
	"github.com/omni/tokenbridge-core/outbox"
	"github.com/omni/tokenbridge-core/repository"
	"github.com/omni/tokenbridge-core/state"
	"github.com/omni/tokenbridge-core/utils"
)

const defaultRefreshInterval = 15 * time.Second

// Monitor runs one bridge instance: its persistent state, the delivery of
// messages sent by the paired bridge and the periodic health jobs.
type Monitor struct {
	cfg          *config.BridgeConfig
	logger       logging.Logger
	repo         *repository.Repo
	client       ethclient.Client
	store        *state.Store
	bridge       *bridge.Bridge
	deliverer    *outbox.Deliverer
	alertManager *alerts.AlertManager
}

// NewMonitor opens the bridge state. The client may be nil for bridges without
// a configured chain, token balances are unavailable then.
func NewMonitor(logger logging.Logger, repo *repository.Repo, cfg *config.BridgeConfig, client ethclient.Client) (*Monitor, error) {
	logger.Info("initializing bridge monitor")
	store, err := state.Open(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open bridge state: %w", err)
	}
	m, err := newMonitor(logger, repo, cfg, client, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return m, nil
}

func newMonitor(logger logging.Logger, repo *repository.Repo, cfg *config.BridgeConfig, client ethclient.Client, store *state.Store) (*Monitor, error) {
	deps := bridge.Collaborators{
		Token:      outbox.NewToken(cfg.ID, cfg.TokenAddress, repo.TokenOperations),
		Transport:  outbox.NewTransport(cfg.ID, repo.OutgoingMessages),
		Rewards:    outbox.NewRewards(cfg.ID, cfg.TokenAddress, repo.TokenOperations),
		ERC20:      outbox.NewERC20(cfg.ID, client, repo.TokenOperations),
		Journal:    repo.Logs,
		Transactor: repo.Transactor,
	}
	b := bridge.New(cfg, store, deps, logger)

	m := &Monitor{
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		client: client,
		store:  store,
		bridge: b,
	}
	if cfg.OtherSideBridge != "" {
		m.deliverer = outbox.NewDeliverer(cfg.OtherSideBridge, cfg.TransportAddress, b, repo.OutgoingMessages, logger.WithField("service", "deliverer"))
	}
	alertManager, err := alerts.NewAlertManager(logger.WithField("service", "alerts"), repo, cfg, b)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize alert manager: %w", err)
	}
	m.alertManager = alertManager
	return m, nil
}

func (m *Monitor) Bridge() *bridge.Bridge {
	return m.bridge
}

// EnsureInitialized applies the configured parameters to a fresh state. An
// already initialized state is left as is, later changes go through the
// owner operations.
func (m *Monitor) EnsureInitialized(ctx context.Context) error {
	if m.bridge.Initialized() {
		return nil
	}
	m.logger.Info("initializing bridge state from config")
	call := &bridge.Call{
		From:      m.cfg.Owner,
		TxHash:    common.BytesToHash([]byte("initialize:" + m.cfg.ID)),
		Timestamp: uint64(time.Now().Unix()),
	}
	if _, err := m.bridge.Initialize(ctx, call, bridge.ParamsFromConfig(m.cfg)); err != nil {
		return fmt.Errorf("failed to initialize bridge state: %w", err)
	}
	return nil
}

func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("starting bridge monitor")
	if m.deliverer != nil {
		go m.deliverer.Start(ctx)
	}
	go m.refreshMetrics(ctx)
	go m.alertManager.Start(ctx)
}

func (m *Monitor) refreshMetrics(ctx context.Context) {
	for {
		if err := m.bridge.UpdateMetrics(); err != nil {
			m.logger.WithError(err).Error("failed to refresh bridge state metrics")
		} else {
			LastStateRefresh.WithLabelValues(m.cfg.ID).SetToCurrentTime()
		}
		if m.client != nil {
			if head, err := m.client.BlockNumber(ctx); err != nil {
				m.logger.WithError(err).Warn("failed to fetch chain head")
			} else {
				LatestHeadBlock.WithLabelValues(m.cfg.ID, m.cfg.Chain.ChainID).Set(float64(head))
			}
		}
		if utils.ContextSleep(ctx, defaultRefreshInterval) == nil {
			return
		}
	}
}

func (m *Monitor) Close() error {
	return m.store.Close()
}
