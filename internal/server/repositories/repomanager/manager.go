package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/portfolio/internal/dbx"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/contacts"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/follows"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/posts"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/portfolio/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same services
// run against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Follows(db dbx.DBTX) follows.Repository
	Posts(db dbx.DBTX) posts.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Contacts(db dbx.DBTX) contacts.Repository
}
