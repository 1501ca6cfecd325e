// Package repomanager vends repository implementations bound to a DBTX, so
// services can run the same repositories against a pool or a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dominiquedave/Time-Financial/internal/dbx"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/leads"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/profiles"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/refreshtokens"
	"github.com/dominiquedave/Time-Financial/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	Leads(db dbx.DBTX) leads.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
