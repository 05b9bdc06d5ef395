package presenter_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/presenter"
	"github.com/omni/tokenbridge-core/state"
	"github.com/omni/tokenbridge-core/validator"
)

var (
	ownerAddress = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	initTxHash   = common.HexToHash("0x0000000000000000000000000000000000000000000000000000000000000abc")
)

type memJournal struct {
	mu   sync.Mutex
	logs []*entity.Log
}

func (m *memJournal) Ensure(_ context.Context, logs ...*entity.Log) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, log := range logs {
		log.ID = uint(len(m.logs) + 1)
		m.logs = append(m.logs, log)
	}
	return nil
}

func (m *memJournal) GetByID(_ context.Context, id uint) (*entity.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == 0 || int(id) > len(m.logs) {
		return nil, db.ErrNotFound
	}
	return m.logs[id-1], nil
}

func (m *memJournal) FindByTxHash(_ context.Context, bridgeID string, txHash common.Hash) ([]*entity.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*entity.Log
	for _, log := range m.logs {
		if log.BridgeID == bridgeID && log.TransactionHash == txHash {
			res = append(res, log)
		}
	}
	return res, nil
}

func (m *memJournal) FindByTopic(_ context.Context, bridgeID string, topic common.Hash, limit uint64) ([]*entity.Log, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []*entity.Log
	for i := len(m.logs) - 1; i >= 0 && uint64(len(res)) < limit; i-- {
		log := m.logs[i]
		if log.BridgeID == bridgeID && log.Topic0 != nil && *log.Topic0 == topic {
			res = append(res, log)
		}
	}
	return res, nil
}

func newTestPresenter(t *testing.T) http.Handler {
	t.Helper()

	journal := new(memJournal)
	bridges := make(map[string]*bridge.Bridge)
	for _, id := range []string{"xdai", "fresh"} {
		store, err := state.OpenMemory()
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		cfg := &config.BridgeConfig{
			ID:               id,
			BridgeMode:       config.BridgeModeErcToErc,
			Side:             config.BridgeSideHome,
			Address:          common.HexToAddress("0x00000000000000000000000000000000000000b1"),
			OtherSideAddress: common.HexToAddress("0x00000000000000000000000000000000000000b2"),
			TokenAddress:     common.HexToAddress("0x00000000000000000000000000000000000000c1"),
			TransportAddress: common.HexToAddress("0x00000000000000000000000000000000000000d1"),
		}
		bridges[id] = bridge.New(cfg, store, bridge.Collaborators{Journal: journal}, logging.Discard())
	}

	_, err := bridges["xdai"].Initialize(context.Background(), &bridge.Call{
		From:      ownerAddress,
		TxHash:    initTxHash,
		Timestamp: 1_700_000_000,
	}, &bridge.Params{
		Owner: ownerAddress,
		Validators: []validator.Validator{{
			Address:       common.HexToAddress("0x00000000000000000000000000000000000000f1"),
			RewardAddress: common.HexToAddress("0x00000000000000000000000000000000000000f2"),
		}},
		RequiredSignatures: 1,
		Limits: &limits.Config{
			DailyLimit:          big.NewInt(1000),
			MaxPerTx:            big.NewInt(100),
			MinPerTx:            big.NewInt(1),
			ExecutionDailyLimit: big.NewInt(1000),
			ExecutionMaxPerTx:   big.NewInt(100),
		},
		HomeFee:    big.NewInt(0),
		ForeignFee: big.NewInt(0),
	})
	require.NoError(t, err)

	return presenter.NewPresenter(logging.Discard(), journal, bridges).Handler()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestPresenter_Status(t *testing.T) {
	t.Parallel()

	h := newTestPresenter(t)

	w := get(t, h, "/bridge/xdai")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status presenter.StatusResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Equal(t, "xdai", status.BridgeID)
	require.Equal(t, ownerAddress, status.Owner)
	require.Equal(t, "1000", status.Limits.DailyLimit)
	require.Equal(t, "100", status.Limits.MaxPerTx)
	require.Equal(t, "0", status.OutOfLimitAmount)
	require.Equal(t, uint64(1), status.RequiredSignatures)

	w = get(t, h, "/bridge/xdai/validators")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var validators presenter.ValidatorsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &validators))
	require.Len(t, validators.Validators, 1)
	require.Equal(t, common.HexToAddress("0x00000000000000000000000000000000000000f1"), validators.Validators[0].Address)
}

func TestPresenter_Errors(t *testing.T) {
	t.Parallel()

	h := newTestPresenter(t)

	for _, test := range []struct {
		Name   string
		Path   string
		Status int
	}{
		{"Unknown bridge", "/bridge/unknown", http.StatusNotFound},
		{"Uninitialized bridge", "/bridge/fresh", http.StatusNotFound},
		{"Invalid tx hash", "/bridge/xdai/events?txHash=0x1234", http.StatusBadRequest},
		{"Unknown event", "/bridge/xdai/events?event=Nope", http.StatusBadRequest},
		{"Invalid limit", "/bridge/xdai/events?event=ValidatorAdded&limit=1000", http.StatusBadRequest},
		{"Invalid day", "/bridge/xdai/limits?day=yesterday", http.StatusBadRequest},
	} {
		w := get(t, h, test.Path)
		require.Equal(t, test.Status, w.Code, test.Name)
	}
}

func TestPresenter_Events(t *testing.T) {
	t.Parallel()

	h := newTestPresenter(t)

	w := get(t, h, "/bridge/xdai/events?txHash="+initTxHash.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var events []*presenter.EventResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Event
		require.Equal(t, initTxHash, e.TxHash)
		require.Equal(t, uint(i), e.LogIndex)
	}
	require.Equal(t, []string{
		abi.OwnershipTransferred,
		abi.ValidatorAdded,
		abi.RequiredSignaturesChanged,
		abi.DailyLimitChanged,
		abi.ExecutionDailyLimitChanged,
	}, names)
	require.Equal(t, "1000", events[3].Args["newLimit"])

	w = get(t, h, "/bridge/xdai/events?event=ValidatorAdded&limit=5")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
}

func TestPresenter_Queries(t *testing.T) {
	t.Parallel()

	h := newTestPresenter(t)
	hash := "0x00000000000000000000000000000000000000000000000000000000000000ff"

	w := get(t, h, "/bridge/xdai/excess/"+hash)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var excess presenter.ExcessResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &excess))
	require.Equal(t, "0", excess.Value)

	w = get(t, h, "/bridge/xdai/executed/"+hash)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var execution presenter.ExecutionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &execution))
	require.False(t, execution.Executed)
	require.False(t, execution.Failed)

	w = get(t, h, "/bridge/xdai/affirmations/"+hash)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var vote presenter.VoteResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vote))
	require.Zero(t, vote.VoteCount)

	w = get(t, h, "/bridge/xdai/signatures/"+hash)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = get(t, h, "/bridge/xdai/limits?day=19675")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var totals presenter.DailyTotalsResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &totals))
	require.Equal(t, uint64(19675), totals.Day)
	require.Equal(t, "0", totals.TotalSpent)
}
