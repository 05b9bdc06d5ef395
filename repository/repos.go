package repository

import (
	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/repository/postgres"
)

type Repo struct {
	Logs             entity.LogsRepo
	OutgoingMessages entity.OutgoingMessagesRepo
	TokenOperations  entity.TokenOperationsRepo
	Transactor       entity.Transactor
}

func NewRepo(db *db.DB) *Repo {
	return &Repo{
		Logs:             postgres.NewLogsRepo("logs", db),
		OutgoingMessages: postgres.NewOutgoingMessagesRepo("outgoing_messages", db),
		TokenOperations:  postgres.NewTokenOperationsRepo("token_operations", db),
		Transactor:       db,
	}
}
