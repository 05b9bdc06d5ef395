package bridge_test

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/state"
	"github.com/omni/tokenbridge-core/validator"
)

const testTimestamp = 1_700_000_000

var (
	bridgeAddress    = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	otherSideAddress = common.HexToAddress("0x00000000000000000000000000000000000000b2")
	tokenAddress     = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	transportAddress = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	ownerAddress     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	userAddress      = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	receiverAddress  = common.HexToAddress("0x00000000000000000000000000000000000000e2")
)

var txCounter uint64

func ether(t *testing.T, amount string) *big.Int {
	t.Helper()
	r, ok := new(big.Rat).SetString(amount)
	require.True(t, ok, amount)
	r.Mul(r, new(big.Rat).SetInt(big.NewInt(1e18)))
	require.True(t, r.IsInt(), amount)
	return new(big.Int).Set(r.Num())
}

func newCall(from common.Address) *bridge.Call {
	n := atomic.AddUint64(&txCounter, 1)
	return &bridge.Call{
		From:      from,
		TxHash:    crypto.Keccak256Hash(from.Bytes(), state.Uint64Bytes(n)),
		Timestamp: testTimestamp,
	}
}

func day() uint64 {
	return limits.Day(testTimestamp)
}

type fakeToken struct {
	mu       sync.Mutex
	minted   map[common.Address]*big.Int
	burned   *big.Int
	calls    []string
	owner    common.Address
	mintErr  error
	lastData []byte
}

func newFakeToken() *fakeToken {
	return &fakeToken{minted: make(map[common.Address]*big.Int), burned: new(big.Int)}
}

func (f *fakeToken) Mint(_ context.Context, to common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mintErr != nil {
		return f.mintErr
	}
	f.calls = append(f.calls, "mint")
	if f.minted[to] == nil {
		f.minted[to] = new(big.Int)
	}
	f.minted[to].Add(f.minted[to], amount)
	return nil
}

func (f *fakeToken) Burn(_ context.Context, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "burn")
	f.burned.Add(f.burned, amount)
	return nil
}

func (f *fakeToken) TransferAndCall(_ context.Context, to common.Address, amount *big.Int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "transfer_and_call")
	f.lastData = data
	return nil
}

func (f *fakeToken) TransferOwnership(_ context.Context, newOwner common.Address) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.owner = newOwner
	return nil
}

func (f *fakeToken) mintedTo(addr common.Address) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.minted[addr]; ok {
		return v.String()
	}
	return "0"
}

type fakeTransport struct {
	mu   sync.Mutex
	sent [][]byte
	ids  []common.Hash
	err  error
}

func (f *fakeTransport) Send(_ context.Context, payload []byte) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return common.Hash{}, f.err
	}
	id := crypto.Keccak256Hash([]byte("message"), state.Uint64Bytes(uint64(len(f.sent))))
	f.sent = append(f.sent, payload)
	f.ids = append(f.ids, id)
	return id, nil
}

type fakeRewards struct {
	mu       sync.Mutex
	notified []common.Address
	amounts  []*big.Int
}

func (f *fakeRewards) Notify(_ context.Context, account common.Address, amount *big.Int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, account)
	f.amounts = append(f.amounts, amount)
	return nil
}

type fakeERC20 struct {
	balances  map[common.Address]*big.Int
	transfers []common.Address
}

func (f *fakeERC20) BalanceOf(_ context.Context, token, _ common.Address) (*big.Int, error) {
	if b, ok := f.balances[token]; ok {
		return b, nil
	}
	return new(big.Int), nil
}

func (f *fakeERC20) Transfer(_ context.Context, token, to common.Address, _ *big.Int) error {
	f.transfers = append(f.transfers, token, to)
	return nil
}

type fakeJournal struct {
	mu   sync.Mutex
	logs []*entity.Log
}

func (f *fakeJournal) Ensure(_ context.Context, logs ...*entity.Log) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, logs...)
	return nil
}

func (f *fakeJournal) GetByID(context.Context, uint) (*entity.Log, error) {
	return nil, nil
}

func (f *fakeJournal) FindByTxHash(context.Context, string, common.Hash) ([]*entity.Log, error) {
	return nil, nil
}

func (f *fakeJournal) FindByTopic(context.Context, string, common.Hash, uint64) ([]*entity.Log, error) {
	return nil, nil
}

// fakeTransactor undoes what the fake collaborators recorded during a failed
// transaction.
type fakeTransactor struct {
	tb        *testBridge
	rollbacks int
}

func (f *fakeTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tb := f.tb
	minted := make(map[common.Address]*big.Int, len(tb.token.minted))
	for addr, v := range tb.token.minted {
		minted[addr] = new(big.Int).Set(v)
	}
	burned, calls := new(big.Int).Set(tb.token.burned), len(tb.token.calls)
	sent, notified := len(tb.transport.sent), len(tb.rewards.notified)
	transfers, logs := len(tb.erc20.transfers), len(tb.journal.logs)

	err := fn(ctx)
	if err == nil {
		return nil
	}
	f.rollbacks++
	tb.token.minted, tb.token.burned, tb.token.calls = minted, burned, tb.token.calls[:calls]
	tb.transport.sent, tb.transport.ids = tb.transport.sent[:sent], tb.transport.ids[:sent]
	tb.rewards.notified, tb.rewards.amounts = tb.rewards.notified[:notified], tb.rewards.amounts[:notified]
	tb.erc20.transfers = tb.erc20.transfers[:transfers]
	tb.journal.logs = tb.journal.logs[:logs]
	return err
}

type testValidator struct {
	key     *ecdsa.PrivateKey
	address common.Address
	reward  common.Address
}

type testBridge struct {
	*bridge.Bridge
	cfg        *config.BridgeConfig
	token      *fakeToken
	transport  *fakeTransport
	rewards    *fakeRewards
	erc20      *fakeERC20
	journal    *fakeJournal
	transactor *fakeTransactor
	validators []testValidator
}

type bridgeOptions struct {
	mode   config.BridgeMode
	side   config.BridgeSide
	params func(t *testing.T, p *bridge.Params)
	// skipInit leaves the bridge unconfigured.
	skipInit bool
	// noRewards makes the bridge mint fee shares.
	noRewards bool
}

func defaultParams(t *testing.T, vals []testValidator) *bridge.Params {
	set := make([]validator.Validator, len(vals))
	for i, v := range vals {
		set[i] = validator.Validator{Address: v.address, RewardAddress: v.reward}
	}
	return &bridge.Params{
		Owner:              ownerAddress,
		Validators:         set,
		RequiredSignatures: 2,
		Limits: &limits.Config{
			DailyLimit:          ether(t, "2"),
			MaxPerTx:            ether(t, "1"),
			MinPerTx:            ether(t, "0.01"),
			ExecutionDailyLimit: ether(t, "10"),
			ExecutionMaxPerTx:   ether(t, "1"),
		},
		HomeFee:    new(big.Int),
		ForeignFee: new(big.Int),
	}
}

func newTestBridge(t *testing.T, opts bridgeOptions) *testBridge {
	t.Helper()
	if opts.mode == "" {
		opts.mode = config.BridgeModeErcToErc
	}
	if opts.side == "" {
		opts.side = config.BridgeSideHome
	}
	store, err := state.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	vals := make([]testValidator, 3)
	for i := range vals {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		vals[i] = testValidator{
			key:     key,
			address: crypto.PubkeyToAddress(key.PublicKey),
			reward:  common.BytesToAddress([]byte{0xee, byte(i + 1)}),
		}
	}

	cfg := &config.BridgeConfig{
		ID:               "test",
		BridgeMode:       opts.mode,
		Side:             opts.side,
		Address:          bridgeAddress,
		OtherSideAddress: otherSideAddress,
		TokenAddress:     tokenAddress,
		TransportAddress: transportAddress,
	}
	tb := &testBridge{
		cfg:        cfg,
		token:      newFakeToken(),
		transport:  new(fakeTransport),
		rewards:    new(fakeRewards),
		erc20:      &fakeERC20{balances: make(map[common.Address]*big.Int)},
		journal:    new(fakeJournal),
		validators: vals,
	}
	tb.transactor = &fakeTransactor{tb: tb}
	deps := bridge.Collaborators{
		Token:      tb.token,
		Transport:  tb.transport,
		ERC20:      tb.erc20,
		Journal:    tb.journal,
		Transactor: tb.transactor,
	}
	if !opts.noRewards {
		deps.Rewards = tb.rewards
	}
	tb.Bridge = bridge.New(cfg, store, deps, logging.Discard())

	if opts.skipInit {
		return tb
	}
	params := defaultParams(t, vals)
	if opts.params != nil {
		opts.params(t, params)
	}
	_, err = tb.Initialize(context.Background(), newCall(ownerAddress), params)
	require.NoError(t, err)
	return tb
}

func (tb *testBridge) encode(t *testing.T, recipient common.Address, value *big.Int, txHash common.Hash, executor common.Address) []byte {
	t.Helper()
	msg, err := message.New(recipient, value, txHash, executor)
	require.NoError(t, err)
	data, err := msg.Encode()
	require.NoError(t, err)
	return data
}

func sign(t *testing.T, v testValidator, encoded []byte) []byte {
	t.Helper()
	sig, err := crypto.Sign(message.SigningHash(encoded).Bytes(), v.key)
	require.NoError(t, err)
	sig[64] += 27
	return sig
}

func pack(t *testing.T, raw ...[]byte) []byte {
	t.Helper()
	sigs := make([]message.Signature, len(raw))
	for i, r := range raw {
		sig, err := message.SignatureFromBytes(r)
		require.NoError(t, err)
		sigs[i] = sig
	}
	blob, err := message.PackSignatures(sigs)
	require.NoError(t, err)
	return blob
}
