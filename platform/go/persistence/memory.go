package persistence

import (
	"bytes"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory Store for tests, demos and local development.
// It enforces the same uniqueness and reference rules as the SQL schema.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	tenants    map[uuid.UUID]TenantRecord
	users      map[uuid.UUID]UserRecord
	products   map[uuid.UUID]ProductRecord
	categories map[uuid.UUID]CategoryRecord
	orders     map[uuid.UUID]OrderRecord
}

// NewMemoryStore constructs an empty MemoryStore. A nil clock uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:        now,
		tenants:    make(map[uuid.UUID]TenantRecord),
		users:      make(map[uuid.UUID]UserRecord),
		products:   make(map[uuid.UUID]ProductRecord),
		categories: make(map[uuid.UUID]CategoryRecord),
		orders:     make(map[uuid.UUID]OrderRecord),
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) CreateTenantWithOwner(ctx context.Context, rec TenantRecord) (TenantRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner, ok := s.users[rec.OwnerID]
	if !ok {
		return TenantRecord{}, ErrInvalidReference
	}
	for _, t := range s.tenants {
		if t.Subdomain == rec.Subdomain {
			return TenantRecord{}, ErrSubdomainTaken
		}
		if t.OwnerID == rec.OwnerID {
			return TenantRecord{}, ErrOwnerHasTenant
		}
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := s.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	s.tenants[rec.ID] = rec

	tenantID := rec.ID
	owner.TenantID = &tenantID
	owner.UpdatedAt = now
	s.users[owner.ID] = owner

	return rec, nil
}

func (s *MemoryStore) GetTenantByID(ctx context.Context, id uuid.UUID) (TenantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return TenantRecord{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) GetTenantBySubdomain(ctx context.Context, subdomain string) (TenantRecord, error) {
	return s.findTenant(func(t TenantRecord) bool { return t.Subdomain == subdomain })
}

func (s *MemoryStore) GetTenantByOwner(ctx context.Context, ownerID uuid.UUID) (TenantRecord, error) {
	return s.findTenant(func(t TenantRecord) bool { return t.OwnerID == ownerID })
}

func (s *MemoryStore) findTenant(match func(TenantRecord) bool) (TenantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if match(t) {
			return t, nil
		}
	}
	return TenantRecord{}, ErrNotFound
}

func (s *MemoryStore) UpdateTenant(ctx context.Context, id uuid.UUID, update TenantUpdate) (TenantRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[id]
	if !ok {
		return TenantRecord{}, ErrNotFound
	}
	if update.Name != nil {
		t.Name = *update.Name
	}
	if update.Description != nil {
		t.Description = update.Description
	}
	if update.CustomDomain != nil {
		t.CustomDomain = nilIfEmpty(update.CustomDomain)
	}
	t.UpdatedAt = s.now().UTC()
	s.tenants[id] = t
	return t, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, rec UserRecord) (UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, rec.Email) {
			return UserRecord{}, ErrEmailTaken
		}
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := s.now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now
	s.users[rec.ID] = rec
	return rec, nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id uuid.UUID) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return UserRecord{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return UserRecord{}, ErrNotFound
}

func (s *MemoryStore) ownerOf(tenantID uuid.UUID) uuid.UUID {
	return s.tenants[tenantID].OwnerID
}

// newestFirst orders by creation time then id, both descending, matching the SQL ordering.
func newestFirst(aCreated time.Time, aID uuid.UUID, bCreated time.Time, bID uuid.UUID) int {
	if c := bCreated.Compare(aCreated); c != 0 {
		return c
	}
	return bytes.Compare(bID[:], aID[:])
}

func (s *MemoryStore) FindProducts(ctx context.Context, query ProductQuery) ([]ProductRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cursor *ProductRecord
	if query.Cursor != nil {
		c, ok := s.products[*query.Cursor]
		if !ok {
			return []ProductRecord{}, nil
		}
		cursor = &c
	}

	out := make([]ProductRecord, 0)
	for _, p := range s.products {
		if !query.Filter.matches(p, s.ownerOf) {
			continue
		}
		if cursor != nil && newestFirst(p.CreatedAt, p.ID, cursor.CreatedAt, cursor.ID) < 0 {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	slices.SortFunc(out, func(a, b ProductRecord) int {
		return newestFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (s *MemoryStore) CountProducts(ctx context.Context, filter ProductFilter) (int64, error) {
	agg, err := s.AggregateProducts(ctx, filter)
	return agg.Count, err
}

func (s *MemoryStore) AggregateProducts(ctx context.Context, filter ProductFilter) (ProductAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var agg ProductAggregate
	sum := decimal.Zero
	for _, p := range s.products {
		if !filter.matches(p, s.ownerOf) {
			continue
		}
		if agg.Count == 0 || p.Price.LessThan(agg.MinPrice) {
			agg.MinPrice = p.Price
		}
		if agg.Count == 0 || p.Price.GreaterThan(agg.MaxPrice) {
			agg.MaxPrice = p.Price
		}
		agg.Count++
		agg.TotalInventory += int64(p.Inventory)
		sum = sum.Add(p.Price)
	}
	if agg.Count > 0 {
		agg.AveragePrice = sum.Div(decimal.NewFromInt(agg.Count)).Round(2)
	}
	return agg, nil
}

func (s *MemoryStore) InsertProducts(ctx context.Context, recs []ProductRecord) ([]ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := make(map[uuid.UUID]ProductRecord, len(recs))
	out := make([]ProductRecord, 0, len(recs))
	now := s.now().UTC()
	for _, rec := range recs {
		if _, ok := s.tenants[rec.TenantID]; !ok {
			return nil, ErrInvalidReference
		}
		if rec.CategoryID != nil {
			if _, ok := s.categories[*rec.CategoryID]; !ok {
				return nil, ErrInvalidReference
			}
		}
		if s.productSlugTaken(rec.TenantID, rec.Slug, pending) {
			return nil, ErrSlugTaken
		}
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		rec.CreatedAt, rec.UpdatedAt = now, now
		rec.Images = slices.Clone(rec.Images)
		pending[rec.ID] = rec
		out = append(out, cloneProduct(rec))
	}
	for id, rec := range pending {
		s.products[id] = rec
	}
	return out, nil
}

func (s *MemoryStore) productSlugTaken(tenantID uuid.UUID, slug string, pending map[uuid.UUID]ProductRecord) bool {
	for _, set := range []map[uuid.UUID]ProductRecord{s.products, pending} {
		for _, p := range set {
			if p.TenantID == tenantID && p.Slug == slug {
				return true
			}
		}
	}
	return false
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, filter ProductFilter, update ProductUpdate) (ProductRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.matchOneProduct(filter)
	if !ok {
		return ProductRecord{}, ErrNotFound
	}
	if update.CategoryID != nil {
		if _, ok := s.categories[*update.CategoryID]; !ok {
			return ProductRecord{}, ErrInvalidReference
		}
		id := *update.CategoryID
		p.CategoryID = &id
	}
	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = update.Description
	}
	if update.Price != nil {
		p.Price = *update.Price
	}
	if update.Images != nil {
		p.Images = slices.Clone(*update.Images)
	}
	if update.Inventory != nil {
		p.Inventory = *update.Inventory
	}
	if update.IsActive != nil {
		p.IsActive = *update.IsActive
	}
	p.UpdatedAt = s.now().UTC()
	s.products[p.ID] = p
	return cloneProduct(p), nil
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, filter ProductFilter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.matchOneProduct(filter)
	if !ok {
		return ErrNotFound
	}
	delete(s.products, p.ID)
	return nil
}

// matchOneProduct requires an id filter so a broad filter never mutates an arbitrary row.
func (s *MemoryStore) matchOneProduct(filter ProductFilter) (ProductRecord, bool) {
	if filter.ID == nil {
		return ProductRecord{}, false
	}
	p, ok := s.products[*filter.ID]
	if !ok || !filter.matches(p, s.ownerOf) {
		return ProductRecord{}, false
	}
	return p, true
}

func (s *MemoryStore) FindCategories(ctx context.Context, filter CategoryFilter, limit int) ([]CategoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CategoryRecord, 0)
	for _, c := range s.categories {
		if filter.matches(c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b CategoryRecord) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountCategories(ctx context.Context, filter CategoryFilter) (int64, error) {
	recs, err := s.FindCategories(ctx, filter, 0)
	return int64(len(recs)), err
}

func (s *MemoryStore) InsertCategories(ctx context.Context, recs []CategoryRecord) ([]CategoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CategoryRecord, 0, len(recs))
	now := s.now().UTC()
	for _, rec := range recs {
		if _, ok := s.tenants[rec.TenantID]; !ok {
			return nil, ErrInvalidReference
		}
		for _, c := range append(slices.Collect(maps.Values(s.categories)), out...) {
			if c.TenantID == rec.TenantID && c.Slug == rec.Slug {
				return nil, ErrSlugTaken
			}
		}
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		rec.CreatedAt, rec.UpdatedAt = now, now
		out = append(out, rec)
	}
	for _, rec := range out {
		s.categories[rec.ID] = rec
	}
	return out, nil
}

func (s *MemoryStore) FindOrders(ctx context.Context, filter OrderFilter, limit int) ([]OrderRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]OrderRecord, 0)
	for _, o := range s.orders {
		if filter.matches(o) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b OrderRecord) int {
		return newestFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) CountOrders(ctx context.Context, filter OrderFilter) (int64, error) {
	agg, err := s.AggregateOrders(ctx, filter)
	return agg.Count, err
}

func (s *MemoryStore) AggregateOrders(ctx context.Context, filter OrderFilter) (OrderAggregate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg := OrderAggregate{Total: decimal.Zero}
	for _, o := range s.orders {
		if filter.matches(o) {
			agg.Count++
			agg.Total = agg.Total.Add(o.Total)
		}
	}
	return agg, nil
}

func (s *MemoryStore) InsertOrders(ctx context.Context, recs []OrderRecord) ([]OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]OrderRecord, 0, len(recs))
	now := s.now().UTC()
	for _, rec := range recs {
		if _, ok := s.tenants[rec.TenantID]; !ok {
			return nil, ErrInvalidReference
		}
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
		if rec.Status == "" {
			rec.Status = "pending"
		}
		rec.CreatedAt = now
		out = append(out, rec)
	}
	for _, rec := range out {
		s.orders[rec.ID] = rec
	}
	return out, nil
}

func cloneProduct(p ProductRecord) ProductRecord {
	p.Images = slices.Clone(p.Images)
	return p
}

func nilIfEmpty(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}
