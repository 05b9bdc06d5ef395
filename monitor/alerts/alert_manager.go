package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/repository"
)

var ErrUnknownAlert = errors.New("unknown alert type")

type AlertManager struct {
	logger logging.Logger
	jobs   map[string]*Job
}

func NewAlertManager(logger logging.Logger, repo *repository.Repo, cfg *config.BridgeConfig, bridge BridgeState) (*AlertManager, error) {
	provider := NewStateAlertsProvider(bridge, repo.OutgoingMessages, repo.Logs)
	jobs := make(map[string]*Job, len(cfg.Alerts))

	for name, alertCfg := range cfg.Alerts {
		switch name {
		case "undelivered_message":
			if cfg.OtherSideBridge == "" {
				return nil, fmt.Errorf("%s alert requires other_side_bridge", name)
			}
			jobs[name] = &Job{
				Interval: time.Minute,
				Timeout:  time.Second * 10,
				Func:     provider.FindUndeliveredMessages,
				Metric:   NewAlertUndeliveredMessage(cfg.ID),
			}
		case "failed_message_execution":
			jobs[name] = &Job{
				Interval: time.Minute * 5,
				Timeout:  time.Second * 20,
				Func:     provider.FindFailedExecutions,
				Metric:   NewAlertFailedMessageExecution(cfg.ID),
			}
		case "amount_limit_exceeded":
			jobs[name] = &Job{
				Interval: time.Minute * 5,
				Timeout:  time.Second * 20,
				Func:     provider.FindAmountLimitExceeded,
				Metric:   NewAlertAmountLimitExceeded(cfg.ID),
			}
		default:
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownAlert)
		}
		jobs[name].SetLogger(logger.WithField("alert_job", name))
		jobs[name].Params = &AlertJobParams{
			Bridge:       cfg.ID,
			SourceBridge: cfg.OtherSideBridge,
			Threshold:    5 * time.Minute,
		}
		if alertCfg != nil {
			if alertCfg.Interval > 0 {
				jobs[name].Interval = alertCfg.Interval
			}
			if alertCfg.Threshold > 0 {
				jobs[name].Params.Threshold = alertCfg.Threshold
			}
		}
	}

	return &AlertManager{
		logger: logger,
		jobs:   jobs,
	}, nil
}

func (m *AlertManager) Start(ctx context.Context) {
	m.logger.WithField("jobs", len(m.jobs)).Info("starting alert manager jobs")
	for _, job := range m.jobs {
		go job.Start(ctx)
	}
}
