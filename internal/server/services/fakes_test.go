package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/legacylink/internal/common"
	"github.com/dmitrijs2005/legacylink/internal/dbx"
	"github.com/dmitrijs2005/legacylink/internal/logging"
	"github.com/dmitrijs2005/legacylink/internal/server/legacy"
	"github.com/dmitrijs2005/legacylink/internal/server/models"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/assets"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/conflicts"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/grants"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/items"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/owners"
	"github.com/dmitrijs2005/legacylink/internal/server/repositories/trustees"
)

// store is an in-memory stand-in for the database shared by all fake repos.
type store struct {
	mu        sync.Mutex
	owners    map[string]models.Owner
	trustees  map[string]models.Trustee
	items     map[string]models.ProtectedItem
	grants    map[models.GrantKey]models.AccessGrant
	assets    map[string]models.Asset
	conflicts map[string]models.ConflictRecord

	// fail returns an error to inject for op ("trustees.Save") on id.
	fail func(op, id string) error
}

func newStore() *store {
	return &store{
		owners:    map[string]models.Owner{},
		trustees:  map[string]models.Trustee{},
		items:     map[string]models.ProtectedItem{},
		grants:    map[models.GrantKey]models.AccessGrant{},
		assets:    map[string]models.Asset{},
		conflicts: map[string]models.ConflictRecord{},
	}
}

func (s *store) check(op, id string) error {
	if s.fail == nil {
		return nil
	}
	return s.fail(op, id)
}

type fakeRepoManager struct{ s *store }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Owners(dbx.DBTX) owners.Repository            { return &fakeOwners{m.s} }
func (m *fakeRepoManager) Trustees(dbx.DBTX) trustees.Repository        { return &fakeTrustees{m.s} }
func (m *fakeRepoManager) Items(dbx.DBTX) items.Repository              { return &fakeItems{m.s} }
func (m *fakeRepoManager) Grants(dbx.DBTX) grants.Repository            { return &fakeGrants{m.s} }
func (m *fakeRepoManager) Assets(dbx.DBTX) assets.Repository            { return &fakeAssets{m.s} }
func (m *fakeRepoManager) Conflicts(dbx.DBTX) conflicts.Repository      { return &fakeConflicts{m.s} }

// fakeTx runs fn directly; the fakes do not roll back.
type fakeTx struct{ calls int }

func (t *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	t.calls++
	return fn(ctx, nil)
}

type sentMessage struct {
	TrusteeID string
	Kind      legacy.MessageKind
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  func(t *models.Trustee) error
}

func (n *fakeNotifier) Send(ctx context.Context, t *models.Trustee, kind legacy.MessageKind) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		if err := n.err(t); err != nil {
			return err
		}
	}
	n.sent = append(n.sent, sentMessage{TrusteeID: t.ID, Kind: kind})
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeSigner struct {
	url string
	err error
	key string
}

func (f *fakeSigner) PresignedGetURL(ctx context.Context, key string) (string, error) {
	f.key = key
	return f.url, f.err
}

func testLogger() logging.Logger { return logging.Discard() }

// --- owners ---

type fakeOwners struct{ s *store }

func (r *fakeOwners) Create(ctx context.Context, o *models.Owner) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.owners[o.ID]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.owners[o.ID] = *o
	return nil
}

func (r *fakeOwners) GetByID(ctx context.Context, id string) (*models.Owner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("owners.GetByID", id); err != nil {
		return nil, err
	}
	o, ok := r.s.owners[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &o, nil
}

func (r *fakeOwners) ListIDs(ctx context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("owners.ListIDs", ""); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(r.s.owners))
	for id := range r.s.owners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeOwners) CheckIn(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.owners[id]
	if !ok {
		return common.ErrorNotFound
	}
	if at.After(o.LastCheckIn) {
		o.LastCheckIn = at
	}
	r.s.owners[id] = o
	return nil
}

func (r *fakeOwners) SetCheckInFrequency(ctx context.Context, id string, days int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if days <= 0 {
		return common.ErrorValidation
	}
	o, ok := r.s.owners[id]
	if !ok {
		return common.ErrorNotFound
	}
	o.CheckInFrequencyDays = days
	r.s.owners[id] = o
	return nil
}

// --- trustees ---

type fakeTrustees struct{ s *store }

func (r *fakeTrustees) Create(ctx context.Context, t *models.Trustee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.trustees[t.ID] = *t
	return nil
}

func (r *fakeTrustees) GetByID(ctx context.Context, id string) (*models.Trustee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trustees[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *fakeTrustees) GetForUpdate(ctx context.Context, id string) (*models.Trustee, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTrustees) ListByOwner(ctx context.Context, ownerID string) ([]*models.Trustee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("trustees.ListByOwner", ownerID); err != nil {
		return nil, err
	}
	var out []*models.Trustee
	for _, t := range r.s.trustees {
		if t.OwnerID == ownerID {
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTrustees) Save(ctx context.Context, t *models.Trustee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("trustees.Save", t.ID); err != nil {
		return err
	}
	if _, ok := r.s.trustees[t.ID]; !ok {
		return common.ErrorNotFound
	}
	r.s.trustees[t.ID] = *t
	return nil
}

func (r *fakeTrustees) UpdateSettings(ctx context.Context, t *models.Trustee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("trustees.UpdateSettings", t.ID); err != nil {
		return err
	}
	cur, ok := r.s.trustees[t.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cur.Name, cur.Email, cur.Relationship, cur.Phone = t.Name, t.Email, t.Relationship, t.Phone
	cur.AccessLevel, cur.NotificationTrigger, cur.TriggerDate = t.AccessLevel, t.NotificationTrigger, t.TriggerDate
	r.s.trustees[t.ID] = cur
	return nil
}

func (r *fakeTrustees) Delete(ctx context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.trustees[id]
	if !ok || t.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(r.s.trustees, id)
	for k := range r.s.grants {
		if k.TrusteeID == id {
			delete(r.s.grants, k)
		}
	}
	return nil
}

// --- items ---

type fakeItems struct{ s *store }

func (r *fakeItems) Create(ctx context.Context, it *models.ProtectedItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[it.ID] = *it
	return nil
}

func (r *fakeItems) GetByID(ctx context.Context, id string) (*models.ProtectedItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &it, nil
}

func (r *fakeItems) ListByOwner(ctx context.Context, ownerID string) ([]*models.ProtectedItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.ProtectedItem
	for _, it := range r.s.items {
		if it.OwnerID == ownerID {
			out = append(out, &it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeItems) SetPublic(ctx context.Context, id string, public bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	it.IsPublic = public
	r.s.items[id] = it
	return nil
}

// --- grants ---

type fakeGrants struct{ s *store }

func (r *fakeGrants) Create(ctx context.Context, g *models.AccessGrant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.grants[g.Key()]; ok {
		return common.ErrorAlreadyExists
	}
	r.s.grants[g.Key()] = *g
	return nil
}

func (r *fakeGrants) Get(ctx context.Context, key models.GrantKey) (*models.AccessGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.grants[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &g, nil
}

func (r *fakeGrants) GetForUpdate(ctx context.Context, key models.GrantKey) (*models.AccessGrant, error) {
	return r.Get(ctx, key)
}

func (r *fakeGrants) ListByOwner(ctx context.Context, ownerID string) ([]*models.AccessGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("grants.ListByOwner", ownerID); err != nil {
		return nil, err
	}
	var out []*models.AccessGrant
	for _, g := range r.s.grants {
		if it, ok := r.s.items[g.ItemID]; ok && it.OwnerID == ownerID {
			out = append(out, &g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].TrusteeID < out[j].TrusteeID
	})
	return out, nil
}

func (r *fakeGrants) ListByTrustee(ctx context.Context, trusteeID string) ([]*models.AccessGrant, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.AccessGrant
	for _, g := range r.s.grants {
		if g.TrusteeID == trusteeID {
			out = append(out, &g)
		}
	}
	return out, nil
}

func (r *fakeGrants) Save(ctx context.Context, g *models.AccessGrant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.check("grants.Save", g.ItemID); err != nil {
		return err
	}
	if _, ok := r.s.grants[g.Key()]; !ok {
		return common.ErrorNotFound
	}
	r.s.grants[g.Key()] = *g
	return nil
}

// --- assets ---

type fakeAssets struct{ s *store }

func (r *fakeAssets) Create(ctx context.Context, a *models.Asset) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assets[a.ID] = *a
	return nil
}

func (r *fakeAssets) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assets[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *fakeAssets) ListByOwner(ctx context.Context, ownerID string) ([]*models.Asset, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.Asset
	for _, a := range r.s.assets {
		if a.OwnerID == ownerID {
			out = append(out, &a)
		}
	}
	return out, nil
}

func (r *fakeAssets) UpdateDesignation(ctx context.Context, id string, d models.BeneficiaryDesignation, reviewedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assets[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Designation = d
	a.LastReviewedAt = &reviewedAt
	a.ConflictStatus = models.ConflictStatusUnchecked
	r.s.assets[id] = a
	return nil
}

func (r *fakeAssets) SetConflictStatus(ctx context.Context, id string, status models.ConflictStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assets[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.ConflictStatus = status
	r.s.assets[id] = a
	return nil
}

// --- conflicts ---

type fakeConflicts struct{ s *store }

func (r *fakeConflicts) Create(ctx context.Context, c *models.ConflictRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.conflicts[c.ID] = *c
	return nil
}

func (r *fakeConflicts) GetByID(ctx context.Context, id string) (*models.ConflictRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.conflicts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &c, nil
}

func (r *fakeConflicts) ListByOwner(ctx context.Context, ownerID string, unresolvedOnly bool) ([]*models.ConflictRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.ConflictRecord
	for _, c := range r.s.conflicts {
		if c.OwnerID != ownerID || (unresolvedOnly && c.Status == models.StatusResolved) {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() > out[j].Severity.Rank()
		}
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out, nil
}

func (r *fakeConflicts) Save(ctx context.Context, c *models.ConflictRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.conflicts[c.ID]; !ok {
		return common.ErrorNotFound
	}
	r.s.conflicts[c.ID] = *c
	return nil
}

func (r *fakeConflicts) CountOpenByAsset(ctx context.Context, assetID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, c := range r.s.conflicts {
		if c.AssetID != nil && *c.AssetID == assetID && c.Status != models.StatusResolved {
			n++
		}
	}
	return n, nil
}
