package presenter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/presenter/http/middleware"
	"github.com/omni/tokenbridge-core/presenter/http/render"
)

const defaultEventsLimit = 100

var ErrInvalidLimit = errors.New("invalid limit parameter")

type Presenter struct {
	logger  logging.Logger
	journal entity.LogsRepo
	bridges map[string]*bridge.Bridge
	root    chi.Router
}

func NewPresenter(logger logging.Logger, journal entity.LogsRepo, bridges map[string]*bridge.Bridge) *Presenter {
	p := &Presenter{
		logger:  logger,
		journal: journal,
		bridges: bridges,
		root:    chi.NewMux(),
	}
	p.routes()
	return p
}

func (p *Presenter) routes() {
	p.root.Use(chimiddleware.Throttle(5))
	p.root.Use(chimiddleware.RequestID)
	p.root.Use(middleware.NewLoggerMiddleware(p.logger))
	p.root.Use(middleware.Recoverer)
	p.root.Route("/bridge/{bridgeID:[0-9a-zA-Z_\\-]+}", func(r chi.Router) {
		r.Use(middleware.GetBridgeMiddleware(p.bridges))
		r.Get("/", p.wrapJSONHandler(p.GetStatus))
		r.Get("/validators", p.wrapJSONHandler(p.GetValidators))
		r.Get("/limits", p.wrapJSONHandler(p.GetLimits))
		r.With(middleware.GetTxHashMiddleware).Get("/events", p.wrapJSONHandler(p.GetEvents))
		r.With(middleware.GetTxHashMiddleware).Get("/excess/{txHash:0x[0-9a-fA-F]{64}}", p.wrapJSONHandler(p.GetExcess))
		r.With(middleware.GetTxHashMiddleware).Get("/executed/{txHash:0x[0-9a-fA-F]{64}}", p.wrapJSONHandler(p.GetExecuted))
		r.Get("/affirmations/{msgHash:0x[0-9a-fA-F]{64}}", p.wrapJSONHandler(p.GetAffirmation))
		r.Get("/signatures/{msgHash:0x[0-9a-fA-F]{64}}", p.wrapJSONHandler(p.GetSignatures))
	})
}

func (p *Presenter) Handler() http.Handler {
	return p.root
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.root)
}

func (p *Presenter) wrapJSONHandler(handler func(r *http.Request) (interface{}, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			render.Error(w, r, err)
			return
		}
		render.JSON(w, r, http.StatusOK, res)
	}
}

func (p *Presenter) GetStatus(r *http.Request) (interface{}, error) {
	b := middleware.Bridge(r.Context())
	status, err := b.Status()
	if err != nil {
		return nil, fmt.Errorf("can't get bridge status: %w", err)
	}
	return newStatusResult(status), nil
}

func (p *Presenter) GetValidators(r *http.Request) (interface{}, error) {
	b := middleware.Bridge(r.Context())
	validators, err := b.Validators()
	if err != nil {
		return nil, fmt.Errorf("can't get validators: %w", err)
	}
	required, err := b.RequiredSignatures()
	if err != nil {
		return nil, fmt.Errorf("can't get required signatures: %w", err)
	}
	res := &ValidatorsResult{
		BridgeID:           b.ID(),
		RequiredSignatures: required,
		Validators:         make([]*ValidatorInfo, len(validators)),
	}
	for i, v := range validators {
		res.Validators[i] = &ValidatorInfo{Address: v.Address, RewardAddress: v.RewardAddress}
	}
	return res, nil
}

// GetLimits reports the daily totals of the given day, today by default.
func (p *Presenter) GetLimits(r *http.Request) (interface{}, error) {
	b := middleware.Bridge(r.Context())
	day, err := middleware.Day(r)
	if err != nil {
		return nil, err
	}
	spent, err := b.TotalSpentPerDay(day)
	if err != nil {
		return nil, fmt.Errorf("can't get spent amount: %w", err)
	}
	executed, err := b.TotalExecutedPerDay(day)
	if err != nil {
		return nil, fmt.Errorf("can't get executed amount: %w", err)
	}
	return &DailyTotalsResult{
		Day:           day,
		TotalSpent:    spent.String(),
		TotalExecuted: executed.String(),
	}, nil
}

func (p *Presenter) GetExcess(r *http.Request) (interface{}, error) {
	b := middleware.Bridge(r.Context())
	txHash, _ := middleware.TxHash(r.Context())
	excess, err := b.Excess(txHash)
	if err != nil {
		return nil, fmt.Errorf("can't get excess: %w", err)
	}
	return &ExcessResult{
		TxHash:    txHash,
		Recipient: excess.Recipient,
		Value:     excess.Value.String(),
	}, nil
}

func (p *Presenter) GetExecuted(r *http.Request) (interface{}, error) {
	b := middleware.Bridge(r.Context())
	txHash, _ := middleware.TxHash(r.Context())
	executed, err := b.IsExecuted(txHash)
	if err != nil {
		return nil, fmt.Errorf("can't get execution status: %w", err)
	}
	failed, err := b.IsFailed(txHash)
	if err != nil {
		return nil, fmt.Errorf("can't get failure status: %w", err)
	}
	return &ExecutionResult{Key: txHash, Executed: executed, Failed: failed}, nil
}

func (p *Presenter) GetAffirmation(r *http.Request) (interface{}, error) {
	b := middleware.Bridge(r.Context())
	msgHash := common.HexToHash(chi.URLParam(r, "msgHash"))
	a, err := b.Affirmation(msgHash)
	if err != nil {
		return nil, fmt.Errorf("can't get affirmation: %w", err)
	}
	return &VoteResult{MsgHash: msgHash, VoteCount: a.VoteCount, Finalized: a.Finalized}, nil
}

func (p *Presenter) GetSignatures(r *http.Request) (interface{}, error) {
	b := middleware.Bridge(r.Context())
	msgHash := common.HexToHash(chi.URLParam(r, "msgHash"))
	a, err := b.Collection(msgHash)
	if err != nil {
		return nil, fmt.Errorf("can't get signature collection: %w", err)
	}
	res := &SignaturesResult{
		VoteResult: VoteResult{MsgHash: msgHash, VoteCount: a.VoteCount, Finalized: a.Finalized},
	}
	if res.Message, err = b.Message(msgHash); err != nil {
		return nil, fmt.Errorf("can't get message: %w", err)
	}
	sigs, err := b.Signatures(msgHash)
	if err != nil {
		return nil, fmt.Errorf("can't get signatures: %w", err)
	}
	for _, sig := range sigs {
		res.Signatures = append(res.Signatures, sig)
	}
	return res, nil
}

// GetEvents returns the journal of a single call with ?txHash=, or the latest
// events of one kind with ?event=<name>.
func (p *Presenter) GetEvents(r *http.Request) (interface{}, error) {
	ctx := r.Context()
	b := middleware.Bridge(ctx)
	logs, err := p.findLogs(ctx, r, b.ID())
	if err != nil {
		return nil, err
	}
	res := make([]*EventResult, 0, len(logs))
	for _, log := range logs {
		event, err := newEventResult(log)
		if err != nil {
			logging.LoggerFromContext(ctx).WithError(err).WithField("log_id", log.ID).Warn("can't decode journaled event")
			continue
		}
		res = append(res, event)
	}
	return res, nil
}

func (p *Presenter) findLogs(ctx context.Context, r *http.Request, bridgeID string) ([]*entity.Log, error) {
	if txHash, ok := middleware.TxHash(ctx); ok {
		return p.journal.FindByTxHash(ctx, bridgeID, txHash)
	}
	name := r.URL.Query().Get("event")
	event, ok := abi.BridgeABI.Events[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, render.ErrBadRequest)
	}
	limit := uint64(defaultEventsLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil || n == 0 || n > defaultEventsLimit {
			return nil, fmt.Errorf("%q: %w: %s", s, render.ErrBadRequest, ErrInvalidLimit)
		}
		limit = n
	}
	return p.journal.FindByTopic(ctx, bridgeID, event.ID, limit)
}
