package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophagenda/internal/dbx"
	"github.com/dmitrijs2005/gophagenda/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/gophagenda/internal/server/repositories/events"
	"github.com/dmitrijs2005/gophagenda/internal/server/repositories/invitations"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// use the same constructors inside and outside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Events(db dbx.DBTX) events.Repository
	Invitations(db dbx.DBTX) invitations.Repository
}
