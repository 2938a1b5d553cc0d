// Package apptest provides stateful in-memory repositories and transaction
// scopes for application service tests. The scopes snapshot the store before
// each unit of work and restore it on error, mirroring the rollback
// behaviour of the real database-backed scopes.
package apptest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appdispatch "github.com/fieldstock/backend/internal/application/dispatch"
	appinventory "github.com/fieldstock/backend/internal/application/inventory"
	"github.com/fieldstock/backend/internal/domain/bundle"
	"github.com/fieldstock/backend/internal/domain/dispatch"
	"github.com/fieldstock/backend/internal/domain/inventory"
	"github.com/fieldstock/backend/internal/domain/shared"
	"github.com/fieldstock/backend/internal/domain/site"
)

// MemoryStore holds every aggregate the services touch
type MemoryStore struct {
	Items       map[uuid.UUID]inventory.Item
	Movements   []inventory.StockMovement
	Deployments map[uuid.UUID]site.SiteDeployment
	Challans    map[uuid.UUID]dispatch.Challan
	Returns     []dispatch.ReturnRecord
	Templates   map[uuid.UUID]bundle.BundleTemplate
	ChallanSeq  int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		Items:       make(map[uuid.UUID]inventory.Item),
		Deployments: make(map[uuid.UUID]site.SiteDeployment),
		Challans:    make(map[uuid.UUID]dispatch.Challan),
		Templates:   make(map[uuid.UUID]bundle.BundleTemplate),
	}
}

func copyChallan(c dispatch.Challan) dispatch.Challan {
	items := make([]dispatch.ChallanItem, len(c.Items))
	copy(items, c.Items)
	c.Items = items
	return c
}

func copyTemplate(t bundle.BundleTemplate) bundle.BundleTemplate {
	components := make([]bundle.BundleComponent, len(t.Components))
	copy(components, t.Components)
	t.Components = components
	return t
}

func (s *MemoryStore) snapshot() *MemoryStore {
	snap := NewMemoryStore()
	for id, item := range s.Items {
		snap.Items[id] = item
	}
	snap.Movements = make([]inventory.StockMovement, len(s.Movements))
	copy(snap.Movements, s.Movements)
	for id, d := range s.Deployments {
		snap.Deployments[id] = d
	}
	for id, c := range s.Challans {
		snap.Challans[id] = copyChallan(c)
	}
	snap.Returns = make([]dispatch.ReturnRecord, len(s.Returns))
	copy(snap.Returns, s.Returns)
	for id, t := range s.Templates {
		snap.Templates[id] = copyTemplate(t)
	}
	snap.ChallanSeq = s.ChallanSeq
	return snap
}

func (s *MemoryStore) restore(snap *MemoryStore) {
	s.Items = snap.Items
	s.Movements = snap.Movements
	s.Deployments = snap.Deployments
	s.Challans = snap.Challans
	s.Returns = snap.Returns
	s.Templates = snap.Templates
	s.ChallanSeq = snap.ChallanSeq
}

// SeedItem stores an item with the given available stock and returns it
func (s *MemoryStore) SeedItem(sku string, available int64) *inventory.Item {
	item, err := inventory.NewItem(sku, "Test "+sku)
	if err != nil {
		panic(err)
	}
	item.AvailableQuantity = decimal.NewFromInt(available)
	item.ClearDomainEvents()
	s.Items[item.ID] = *item
	return item
}

// Repos implements both the ledger and the dispatch transactional
// repository interfaces over one store
type Repos struct {
	store *MemoryStore
}

// NewRepos creates repositories over the given store
func NewRepos(store *MemoryStore) *Repos {
	return &Repos{store: store}
}

// ItemRepo returns the in-memory item repository
func (r *Repos) ItemRepo() inventory.ItemRepository { return &itemRepo{r.store} }

// MovementRepo returns the in-memory movement repository
func (r *Repos) MovementRepo() inventory.StockMovementRepository { return &movementRepo{r.store} }

// DeploymentRepo returns the in-memory deployment repository
func (r *Repos) DeploymentRepo() site.DeploymentRepository { return &deploymentRepo{r.store} }

// ChallanRepo returns the in-memory challan repository
func (r *Repos) ChallanRepo() dispatch.ChallanRepository { return &challanRepo{r.store} }

// ReturnRecordRepo returns the in-memory return record repository
func (r *Repos) ReturnRecordRepo() dispatch.ReturnRecordRepository { return &returnRecordRepo{r.store} }

// TemplateRepo returns the in-memory bundle template repository
func (r *Repos) TemplateRepo() bundle.TemplateRepository { return &templateRepo{r.store} }

// Scope is an in-memory ledger transaction scope with rollback-on-error
type Scope struct {
	Store *MemoryStore
}

// NewScope creates a ledger scope over the store
func NewScope(store *MemoryStore) *Scope {
	return &Scope{Store: store}
}

// Execute runs fn against the store, restoring the pre-call state on error
func (s *Scope) Execute(_ context.Context, fn func(repos appinventory.TransactionalRepositories) error) error {
	snap := s.Store.snapshot()
	if err := fn(NewRepos(s.Store)); err != nil {
		s.Store.restore(snap)
		return err
	}
	return nil
}

// DispatchScope is an in-memory dispatch transaction scope
type DispatchScope struct {
	Store *MemoryStore
}

// NewDispatchScope creates a dispatch scope over the store
func NewDispatchScope(store *MemoryStore) *DispatchScope {
	return &DispatchScope{Store: store}
}

// Execute runs fn against the store, restoring the pre-call state on error
func (s *DispatchScope) Execute(_ context.Context, fn func(repos appdispatch.TransactionalRepositories) error) error {
	snap := s.Store.snapshot()
	if err := fn(NewRepos(s.Store)); err != nil {
		s.Store.restore(snap)
		return err
	}
	return nil
}

// item repository

type itemRepo struct{ store *MemoryStore }

func (r *itemRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.Item, error) {
	item, ok := r.store.Items[id]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Item %s not found", id))
	}
	item.MarkPersisted()
	return &item, nil
}

func (r *itemRepo) FindBySKU(_ context.Context, sku string) (*inventory.Item, error) {
	for _, item := range r.store.Items {
		if item.SKU == sku {
			found := item
			found.MarkPersisted()
			return &found, nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Item with SKU %s not found", sku))
}

func (r *itemRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]inventory.Item, error) {
	items := make([]inventory.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := r.store.Items[id]; ok {
			item.MarkPersisted()
			items = append(items, item)
		}
	}
	return items, nil
}

func (r *itemRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.Item, error) {
	items := make([]inventory.Item, 0, len(r.store.Items))
	for _, item := range r.store.Items {
		items = append(items, item)
	}
	return items, nil
}

func (r *itemRepo) Save(_ context.Context, item *inventory.Item) error {
	r.store.Items[item.ID] = *item
	return nil
}

func (r *itemRepo) SaveWithLock(_ context.Context, item *inventory.Item) error {
	stored, ok := r.store.Items[item.ID]
	if !ok {
		return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Item %s not found", item.ID))
	}
	if stored.Version != item.PersistedVersion() {
		return shared.NewDomainError(shared.CodeOptimisticLockFailed,
			"Item was modified by another process")
	}
	item.MarkPersisted()
	r.store.Items[item.ID] = *item
	return nil
}

func (r *itemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.Items, id)
	return nil
}

func (r *itemRepo) Count(_ context.Context, _ shared.Filter) (int64, error) {
	return int64(len(r.store.Items)), nil
}

// movement repository

type movementRepo struct{ store *MemoryStore }

func (r *movementRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockMovement, error) {
	for i := range r.store.Movements {
		if r.store.Movements[i].ID == id {
			found := r.store.Movements[i]
			return &found, nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, "Movement not found")
}

func (r *movementRepo) FindByItem(_ context.Context, itemID uuid.UUID, _ shared.Filter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.store.Movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *movementRepo) FindByChallan(_ context.Context, challanID uuid.UUID) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.store.Movements {
		if m.ChallanID != nil && *m.ChallanID == challanID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *movementRepo) FindByDateRange(_ context.Context, start, end time.Time, _ shared.Filter) ([]inventory.StockMovement, error) {
	var out []inventory.StockMovement
	for _, m := range r.store.Movements {
		if !m.MovementDate.Before(start) && !m.MovementDate.After(end) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *movementRepo) FindAll(_ context.Context, _ shared.Filter) ([]inventory.StockMovement, error) {
	out := make([]inventory.StockMovement, len(r.store.Movements))
	copy(out, r.store.Movements)
	return out, nil
}

func (r *movementRepo) Create(_ context.Context, movement *inventory.StockMovement) error {
	r.store.Movements = append(r.store.Movements, *movement)
	return nil
}

func (r *movementRepo) CreateBatch(ctx context.Context, movements []*inventory.StockMovement) error {
	for _, m := range movements {
		if err := r.Create(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (r *movementRepo) CountByItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	for _, m := range r.store.Movements {
		if m.ItemID == itemID {
			count++
		}
	}
	return count, nil
}

func (r *movementRepo) SumOwnedDeltaByItem(_ context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for i := range r.store.Movements {
		if r.store.Movements[i].ItemID == itemID {
			sum = sum.Add(r.store.Movements[i].OwnedDelta())
		}
	}
	return sum, nil
}

// deployment repository

type deploymentRepo struct{ store *MemoryStore }

func (r *deploymentRepo) FindByID(_ context.Context, id uuid.UUID) (*site.SiteDeployment, error) {
	d, ok := r.store.Deployments[id]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Deployment not found")
	}
	d.MarkPersisted()
	return &d, nil
}

func (r *deploymentRepo) FindOpen(_ context.Context, siteID, itemID uuid.UUID) (*site.SiteDeployment, error) {
	for _, d := range r.store.Deployments {
		if d.SiteID == siteID && d.ItemID == itemID && d.IsOpen() {
			found := d
			found.MarkPersisted()
			return &found, nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound,
		fmt.Sprintf("No open deployment of item %s at site %s", itemID, siteID))
}

func (r *deploymentRepo) FindOpenBySite(_ context.Context, siteID uuid.UUID) ([]*site.SiteDeployment, error) {
	var out []*site.SiteDeployment
	for _, d := range r.store.Deployments {
		if d.SiteID == siteID && d.IsOpen() {
			found := d
			found.MarkPersisted()
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *deploymentRepo) FindOpenByItem(_ context.Context, itemID uuid.UUID) ([]*site.SiteDeployment, error) {
	var out []*site.SiteDeployment
	for _, d := range r.store.Deployments {
		if d.ItemID == itemID && d.IsOpen() {
			found := d
			found.MarkPersisted()
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *deploymentRepo) FindByChallan(_ context.Context, challanID uuid.UUID) ([]*site.SiteDeployment, error) {
	var out []*site.SiteDeployment
	for _, d := range r.store.Deployments {
		if d.ChallanID != nil && *d.ChallanID == challanID {
			found := d
			found.MarkPersisted()
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *deploymentRepo) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[*site.SiteDeployment], error) {
	var out []*site.SiteDeployment
	for _, d := range r.store.Deployments {
		found := d
		out = append(out, &found)
	}
	page := shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *deploymentRepo) Save(_ context.Context, deployment *site.SiteDeployment) error {
	r.store.Deployments[deployment.ID] = *deployment
	return nil
}

func (r *deploymentRepo) SaveWithLock(_ context.Context, deployment *site.SiteDeployment) error {
	stored, ok := r.store.Deployments[deployment.ID]
	if !ok {
		return shared.NewDomainError(shared.CodeNotFound, "Deployment not found")
	}
	if stored.Version != deployment.PersistedVersion() {
		return shared.NewDomainError(shared.CodeOptimisticLockFailed,
			"Deployment was modified by another process")
	}
	deployment.MarkPersisted()
	r.store.Deployments[deployment.ID] = *deployment
	return nil
}

func (r *deploymentRepo) SumDeployedByItem(_ context.Context, itemID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, d := range r.store.Deployments {
		if d.ItemID == itemID && d.IsOpen() {
			sum = sum.Add(d.QuantityDeployed)
		}
	}
	return sum, nil
}

// challan repository

type challanRepo struct{ store *MemoryStore }

func (r *challanRepo) FindByID(_ context.Context, id uuid.UUID) (*dispatch.Challan, error) {
	c, ok := r.store.Challans[id]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Challan %s not found", id))
	}
	found := copyChallan(c)
	found.MarkPersisted()
	return &found, nil
}

func (r *challanRepo) FindByNumber(_ context.Context, number string) (*dispatch.Challan, error) {
	for _, c := range r.store.Challans {
		if c.ChallanNumber == number {
			found := copyChallan(c)
			found.MarkPersisted()
			return &found, nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Challan %s not found", number))
}

func (r *challanRepo) FindByStatus(_ context.Context, status dispatch.ChallanStatus, filter shared.Filter) (*shared.Paginated[*dispatch.Challan], error) {
	var out []*dispatch.Challan
	for _, c := range r.store.Challans {
		if c.Status == status {
			found := copyChallan(c)
			found.MarkPersisted()
			out = append(out, &found)
		}
	}
	page := shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *challanRepo) FindBySite(_ context.Context, siteID uuid.UUID, filter shared.Filter) (*shared.Paginated[*dispatch.Challan], error) {
	var out []*dispatch.Challan
	for _, c := range r.store.Challans {
		if c.SiteID == siteID {
			found := copyChallan(c)
			found.MarkPersisted()
			out = append(out, &found)
		}
	}
	page := shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *challanRepo) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[*dispatch.Challan], error) {
	var out []*dispatch.Challan
	for _, c := range r.store.Challans {
		found := copyChallan(c)
		found.MarkPersisted()
		out = append(out, &found)
	}
	page := shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *challanRepo) Save(_ context.Context, challan *dispatch.Challan) error {
	r.store.Challans[challan.ID] = copyChallan(*challan)
	return nil
}

func (r *challanRepo) SaveWithLock(_ context.Context, challan *dispatch.Challan) error {
	stored, ok := r.store.Challans[challan.ID]
	if !ok {
		return shared.NewDomainError(shared.CodeNotFound, "Challan not found")
	}
	if stored.Version != challan.PersistedVersion() {
		return shared.NewDomainError(shared.CodeOptimisticLockFailed,
			"Challan was modified by another process")
	}
	challan.MarkPersisted()
	r.store.Challans[challan.ID] = copyChallan(*challan)
	return nil
}

func (r *challanRepo) NextChallanNumber(_ context.Context) (string, error) {
	r.store.ChallanSeq++
	return fmt.Sprintf("CH-%d-%05d", time.Now().Year(), r.store.ChallanSeq), nil
}

func (r *challanRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.store.Challans)), nil
}

// return record repository

type returnRecordRepo struct{ store *MemoryStore }

func (r *returnRecordRepo) FindByChallan(_ context.Context, challanID uuid.UUID) ([]*dispatch.ReturnRecord, error) {
	var out []*dispatch.ReturnRecord
	for i := range r.store.Returns {
		if r.store.Returns[i].ChallanID == challanID {
			found := r.store.Returns[i]
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *returnRecordRepo) FindByItem(_ context.Context, itemID uuid.UUID, filter shared.Filter) (*shared.Paginated[*dispatch.ReturnRecord], error) {
	var out []*dispatch.ReturnRecord
	for i := range r.store.Returns {
		if r.store.Returns[i].ItemID == itemID {
			found := r.store.Returns[i]
			out = append(out, &found)
		}
	}
	page := shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *returnRecordRepo) Create(_ context.Context, record *dispatch.ReturnRecord) error {
	r.store.Returns = append(r.store.Returns, *record)
	return nil
}

func (r *returnRecordRepo) CreateBatch(ctx context.Context, records []*dispatch.ReturnRecord) error {
	for _, record := range records {
		if err := r.Create(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// template repository

type templateRepo struct{ store *MemoryStore }

func (r *templateRepo) FindByID(_ context.Context, id uuid.UUID) (*bundle.BundleTemplate, error) {
	t, ok := r.store.Templates[id]
	if !ok {
		return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Template %s not found", id))
	}
	found := copyTemplate(t)
	return &found, nil
}

func (r *templateRepo) FindByBaseItem(_ context.Context, baseItemID uuid.UUID) ([]*bundle.BundleTemplate, error) {
	var out []*bundle.BundleTemplate
	for _, t := range r.store.Templates {
		if t.BaseItemID == baseItemID {
			found := copyTemplate(t)
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r *templateRepo) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[*bundle.BundleTemplate], error) {
	var out []*bundle.BundleTemplate
	for _, t := range r.store.Templates {
		found := copyTemplate(t)
		out = append(out, &found)
	}
	page := shared.NewPaginated(out, int64(len(out)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *templateRepo) Save(_ context.Context, template *bundle.BundleTemplate) error {
	r.store.Templates[template.ID] = copyTemplate(*template)
	return nil
}

func (r *templateRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.store.Templates, id)
	return nil
}

// Interface conformance checks
var (
	_ appinventory.TransactionScope          = (*Scope)(nil)
	_ appinventory.TransactionalRepositories = (*Repos)(nil)
	_ appdispatch.TransactionScope           = (*DispatchScope)(nil)
	_ appdispatch.TransactionalRepositories  = (*Repos)(nil)
	_ inventory.ItemRepository               = (*itemRepo)(nil)
	_ inventory.StockMovementRepository      = (*movementRepo)(nil)
	_ site.DeploymentRepository              = (*deploymentRepo)(nil)
	_ dispatch.ChallanRepository             = (*challanRepo)(nil)
	_ dispatch.ReturnRecordRepository        = (*returnRecordRepo)(nil)
	_ bundle.TemplateRepository              = (*templateRepo)(nil)
)
