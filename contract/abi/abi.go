package abi

//nolint:golint
import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/entity"
)

//go:embed bridge.json
var bridgeJSONABI string

//go:embed erc20.json
var erc20JSONABI string

var (
	ErrInvalidEvent  = errors.New("can't process event without topics")
	ErrUnknownEvent  = errors.New("unknown event")
	ErrUnknownMethod = errors.New("unknown method")
)

const (
	UserRequestForSignature    = "event UserRequestForSignature(address recipient, uint256 value)"
	UserRequestForAffirmation  = "event UserRequestForAffirmation(address recipient, uint256 value)"
	SignedForUserRequest       = "event SignedForUserRequest(address indexed signer, bytes32 messageHash)"
	SignedForAffirmation       = "event SignedForAffirmation(address indexed signer, bytes32 messageHash)"
	CollectedSignatures        = "event CollectedSignatures(address authorityResponsibleForRelay, bytes32 messageHash, uint256 NumberOfCollectedSignatures)"
	RelayedMessage             = "event RelayedMessage(address recipient, uint256 value, bytes32 transactionHash)"
	AffirmationCompleted       = "event AffirmationCompleted(address recipient, uint256 value, bytes32 transactionHash)"
	AmountLimitExceeded        = "event AmountLimitExceeded(address recipient, uint256 value, bytes32 transactionHash)"
	AssetAboveLimitsFixed      = "event AssetAboveLimitsFixed(bytes32 indexed transactionHash, uint256 value, uint256 remaining)"
	TokensBridgingInitiated    = "event TokensBridgingInitiated(address indexed token, address indexed sender, uint256 value, bytes32 indexed messageId)"
	TokensBridged              = "event TokensBridged(address indexed token, address indexed recipient, uint256 value, bytes32 indexed messageId)"
	TokensBridgingFailed       = "event TokensBridgingFailed(bytes32 indexed messageId, address recipient, uint256 value)"
	FailedMessageFixed         = "event FailedMessageFixed(bytes32 indexed messageId, address token, address recipient, uint256 value)"
	FeeDistributed             = "event FeeDistributed(uint256 feeAmount, bytes32 indexed transactionHash)"
	ClaimedTokens              = "event ClaimedTokens(address indexed token, address indexed to, uint256 value)"
	ValidatorAdded             = "event ValidatorAdded(address indexed validator)"
	ValidatorRemoved           = "event ValidatorRemoved(address indexed validator)"
	RequiredSignaturesChanged  = "event RequiredSignaturesChanged(uint256 requiredSignatures)"
	DailyLimitChanged          = "event DailyLimitChanged(uint256 newLimit)"
	ExecutionDailyLimitChanged = "event ExecutionDailyLimitChanged(uint256 newLimit)"
	FeeUpdated                 = "event FeeUpdated(bytes32 feeType, uint256 fee)"
	OwnershipTransferred       = "event OwnershipTransferred(address previousOwner, address newOwner)"
)

var (
	BridgeABI = MustReadABI(bridgeJSONABI)
	ERC20ABI  = MustReadABI(erc20JSONABI)
)

type ABI struct {
	abi.ABI
}

func MustReadABI(rawJSON string) ABI {
	res, err := abi.JSON(strings.NewReader(rawJSON))
	if err != nil {
		panic(err)
	}
	return ABI{res}
}

func (a ABI) AllEvents() map[string]bool {
	events := make(map[string]bool, len(a.Events))
	for _, event := range a.Events {
		events[event.String()] = true
	}
	return events
}

func indexed(args abi.Arguments) abi.Arguments {
	var res abi.Arguments
	for _, arg := range args {
		if arg.Indexed {
			res = append(res, arg)
		}
	}
	return res
}

func (a ABI) FindMatchingEventABI(topics []common.Hash) *abi.Event {
	for _, e := range a.Events {
		if e.ID == topics[0] && len(indexed(e.Inputs)) == len(topics)-1 {
			event := e
			return &event
		}
	}
	return nil
}

func decodeEventLog(event *abi.Event, topics []common.Hash, data []byte) (map[string]interface{}, error) {
	values := make(map[string]interface{})
	ind := indexed(event.Inputs)
	if len(ind) < len(event.Inputs) {
		if err := event.Inputs.UnpackIntoMap(values, data); err != nil {
			return nil, fmt.Errorf("can't unpack data: %w", err)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, ind, topics[1:]); err != nil {
		return nil, fmt.Errorf("can't unpack topics: %w", err)
	}
	return values, nil
}

// ParseLog returns the event signature and decoded arguments, or an empty
// signature for events missing from the ABI.
func (a ABI) ParseLog(log *entity.Log) (string, map[string]interface{}, error) {
	topics := log.Topics()
	if len(topics) == 0 {
		return "", nil, ErrInvalidEvent
	}
	event := a.FindMatchingEventABI(topics)
	if event == nil {
		return "", nil, nil
	}
	res, err := decodeEventLog(event, topics, log.Data)
	if err != nil {
		return "", nil, fmt.Errorf("can't decode event log: %w", err)
	}
	return event.String(), res, nil
}

// EncodeEvent builds topics and data of the named event. Arguments follow the
// event inputs order, indexed ones included.
func (a ABI) EncodeEvent(name string, args ...interface{}) ([]common.Hash, []byte, error) {
	event, ok := a.Events[name]
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", name, ErrUnknownEvent)
	}
	if len(args) != len(event.Inputs) {
		return nil, nil, fmt.Errorf("event %s expects %d arguments, got %d", name, len(event.Inputs), len(args))
	}
	topics := []common.Hash{event.ID}
	var nonIndexed []interface{}
	for i, input := range event.Inputs {
		if !input.Indexed {
			nonIndexed = append(nonIndexed, args[i])
			continue
		}
		topic, err := abi.MakeTopics([]interface{}{args[i]})
		if err != nil {
			return nil, nil, fmt.Errorf("can't encode topic %s of %s: %w", input.Name, name, err)
		}
		topics = append(topics, topic[0][0])
	}
	data, err := event.Inputs.NonIndexed().Pack(nonIndexed...)
	if err != nil {
		return nil, nil, fmt.Errorf("can't encode data of %s: %w", name, err)
	}
	return topics, data, nil
}

// EncodeLog is EncodeEvent packed into a journal entry.
func (a ABI) EncodeLog(address common.Address, name string, args ...interface{}) (*entity.Log, error) {
	topics, data, err := a.EncodeEvent(name, args...)
	if err != nil {
		return nil, err
	}
	log := &entity.Log{Address: address, Data: data}
	log.SetTopics(topics)
	return log, nil
}

// DecodeCall resolves the method by its selector and unpacks the arguments.
func (a ABI) DecodeCall(payload []byte) (string, []interface{}, error) {
	if len(payload) < 4 {
		return "", nil, fmt.Errorf("payload of %d bytes: %w", len(payload), ErrUnknownMethod)
	}
	method, err := a.MethodById(payload[:4])
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", err, ErrUnknownMethod)
	}
	args, err := method.Inputs.Unpack(payload[4:])
	if err != nil {
		return "", nil, fmt.Errorf("can't unpack %s arguments: %w", method.Name, err)
	}
	return method.Name, args, nil
}
