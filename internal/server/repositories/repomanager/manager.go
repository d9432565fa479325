package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/assets"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/conflicts"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/grants"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/items"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/owners"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/trustees"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// path works on the pool and inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Owners(db dbx.DBTX) owners.Repository
	Trustees(db dbx.DBTX) trustees.Repository
	Items(db dbx.DBTX) items.Repository
	Grants(db dbx.DBTX) grants.Repository
	Assets(db dbx.DBTX) assets.Repository
	Conflicts(db dbx.DBTX) conflicts.Repository
}
