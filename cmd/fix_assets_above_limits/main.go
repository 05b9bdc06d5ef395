package main

import (
	"context"
	"flag"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/monitor"
	"github.com/omni/tokenbridge-core/repository"
)

var (
	bridgeID = flag.String("bridgeId", "", "bridgeId holding the deferred execution")
	txHash   = flag.String("txHash", "", "key of the deferred execution, the transaction hash or the message id")
	value    = flag.String("value", "", "amount to take out of the excess, in the bridge token units")
	release  = flag.Bool("release", false, "relay the amount back to the recipient on the other side")
)

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile("config.yml")
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	if *bridgeID == "" {
		logger.Fatal("bridgeId is not specified")
	}
	bridgeCfg, ok := cfg.Bridges[*bridgeID]
	if !ok || bridgeCfg == nil {
		logger.WithField("bridge_id", *bridgeID).Fatal("bridge config for given bridgeId is not found")
	}
	if len(common.FromHex(*txHash)) != common.HashLength {
		logger.WithField("tx_hash", *txHash).Fatal("txHash is not a valid hash")
	}
	amount, err := config.NewAmount(*value)
	if err != nil {
		logger.WithError(err).Fatal("value is not a valid amount")
	}

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	repo := repository.NewRepo(dbConn)
	m, err := monitor.NewMonitor(logger.WithField("bridge_id", bridgeCfg.ID), repo, bridgeCfg, nil)
	if err != nil {
		logger.WithError(err).Fatal("can't open bridge")
	}
	defer m.Close()

	now := uint64(time.Now().Unix())
	call := &bridge.Call{
		From:      bridgeCfg.Owner,
		TxHash:    crypto.Keccak256Hash([]byte("fix_assets_above_limits"), common.FromHex(*txHash), big.NewInt(int64(now)).Bytes()),
		Timestamp: now,
	}
	res, err := m.Bridge().FixAssetsAboveLimits(context.Background(), call, common.HexToHash(*txHash), *release, amount.Value())
	if err != nil {
		logger.WithError(err).Fatal("can't fix assets above limits")
	}
	fields := logrus.Fields{
		"tx_hash": *txHash,
		"value":   amount.Value().String(),
		"events":  res.EventNames(),
	}
	if res.MessageID != nil {
		fields["message_id"] = res.MessageID.String()
	}
	logger.WithFields(fields).Info("fixed assets above limits")
}
