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
	"github.com/omni/tokenbridge-core/ethclient"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/monitor"
	"github.com/omni/tokenbridge-core/repository"
)

var (
	bridgeID = flag.String("bridgeId", "", "bridgeId holding the tokens")
	token    = flag.String("token", "", "address of the token sent to the bridge by mistake")
	to       = flag.String("to", "", "address receiving the claimed balance")
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
	if bridgeCfg.Chain == nil {
		logger.WithField("bridge_id", *bridgeID).Fatal("bridge has no chain configured, token balances are unavailable")
	}
	if !common.IsHexAddress(*token) || !common.IsHexAddress(*to) {
		logger.Fatal("token and to should be valid addresses")
	}

	client, err := ethclient.NewClient(bridgeCfg.Chain.RPC.Host, bridgeCfg.Chain.RPC.Timeout, bridgeCfg.Chain.ChainID)
	if err != nil {
		logger.WithError(err).Fatal("can't dial rpc client")
	}

	dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
	if err != nil {
		logger.WithError(err).Fatal("can't connect to database and apply migrations")
	}
	defer dbConn.Close()

	repo := repository.NewRepo(dbConn)
	m, err := monitor.NewMonitor(logger.WithField("bridge_id", bridgeCfg.ID), repo, bridgeCfg, client)
	if err != nil {
		logger.WithError(err).Fatal("can't open bridge")
	}
	defer m.Close()

	now := uint64(time.Now().Unix())
	call := &bridge.Call{
		From:      bridgeCfg.Owner,
		TxHash:    crypto.Keccak256Hash([]byte("claim_tokens"), common.HexToAddress(*token).Bytes(), big.NewInt(int64(now)).Bytes()),
		Timestamp: now,
	}
	res, err := m.Bridge().ClaimTokens(context.Background(), call, common.HexToAddress(*token), common.HexToAddress(*to))
	if err != nil {
		logger.WithError(err).Fatal("can't claim tokens")
	}
	logger.WithFields(logrus.Fields{
		"token":  *token,
		"to":     *to,
		"events": res.EventNames(),
	}).Info("claimed tokens")
}
