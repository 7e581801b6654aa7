package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/orghub/internal/app/services/assetservice"
	organizationstore "github.com/dalemusser/orghub/internal/app/store/organizations"
	"github.com/dalemusser/orghub/internal/app/system/events"
	"github.com/dalemusser/orghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemOrgStore is an in-memory organization store with the same matching
// rules as the Mongo store.
type MemOrgStore struct {
	mu    sync.Mutex
	orgs  map[primitive.ObjectID]models.Organization
	order []primitive.ObjectID

	// CreateErr and UpdateErr, when set, are returned by the matching calls.
	CreateErr error
	UpdateErr error

	Creates int
	Updates int
}

func NewMemOrgStore() *MemOrgStore {
	return &MemOrgStore{orgs: map[primitive.ObjectID]models.Organization{}}
}

// Put stores org as-is, assigning an id when zero. Used to seed tests.
func (m *MemOrgStore) Put(org models.Organization) models.Organization {
	m.mu.Lock()
	defer m.mu.Unlock()
	if org.ID.IsZero() {
		org.ID = primitive.NewObjectID()
	}
	if _, ok := m.orgs[org.ID]; !ok {
		m.order = append(m.order, org.ID)
	}
	m.orgs[org.ID] = org
	return org
}

// Get returns the stored record regardless of state.
func (m *MemOrgStore) Get(id primitive.ObjectID) (models.Organization, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	org, ok := m.orgs[id]
	return org, ok
}

// Len returns the number of stored organizations.
func (m *MemOrgStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orgs)
}

func (m *MemOrgStore) Create(_ context.Context, org models.Organization) (models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Creates++
	if m.CreateErr != nil {
		return models.Organization{}, m.CreateErr
	}
	now := time.Now().UTC()
	org.ID = primitive.NewObjectID()
	org.NameCI = text.Fold(org.Name)
	org.CreatedAt = now
	org.UpdatedAt = now
	m.orgs[org.ID] = org
	m.order = append(m.order, org.ID)
	return org, nil
}

func (m *MemOrgStore) find(match func(models.Organization) bool) (models.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.order {
		if org := m.orgs[id]; match(org) {
			return org, nil
		}
	}
	return models.Organization{}, mongo.ErrNoDocuments
}

func (m *MemOrgStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Organization, error) {
	return m.find(func(o models.Organization) bool { return o.ID == id })
}

func (m *MemOrgStore) FindByIDAndState(_ context.Context, id primitive.ObjectID, state models.OrgState) (models.Organization, error) {
	return m.find(func(o models.Organization) bool { return o.ID == id && o.State == state })
}

func (m *MemOrgStore) FindFirstByState(_ context.Context, state models.OrgState) (models.Organization, error) {
	return m.find(func(o models.Organization) bool { return o.State == state })
}

func (m *MemOrgStore) FindBySourceAndCompanyAndState(_ context.Context, source, companyID string, state models.OrgState) (models.Organization, error) {
	return m.find(func(o models.Organization) bool {
		return o.Source == source && o.ThirdPartyCompanyID == companyID && o.State == state
	})
}

func (m *MemOrgStore) FindByDomainAndState(_ context.Context, domain string, state models.OrgState) (models.Organization, error) {
	return m.find(func(o models.Organization) bool {
		return o.OrganizationDomain != nil && o.OrganizationDomain.Domain == domain && o.State == state
	})
}

func (m *MemOrgStore) IterByIDsAndState(_ context.Context, ids []primitive.ObjectID, state models.OrgState) iter.Seq2[models.Organization, error] {
	return func(yield func(models.Organization, error) bool) {
		for _, id := range ids {
			m.mu.Lock()
			org, ok := m.orgs[id]
			m.mu.Unlock()
			if !ok || org.State != state {
				continue
			}
			if !yield(org, nil) {
				return
			}
		}
	}
}

func (m *MemOrgStore) update(id primitive.ObjectID, onlyActive bool, p organizationstore.Patch) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Updates++
	if m.UpdateErr != nil {
		return false, m.UpdateErr
	}
	if p.IsEmpty() {
		return false, nil
	}
	org, ok := m.orgs[id]
	if !ok || (onlyActive && org.State != models.OrgStateActive) {
		return false, nil
	}
	m.orgs[id] = p.Apply(org, time.Now().UTC())
	return true, nil
}

func (m *MemOrgStore) UpdateByID(_ context.Context, id primitive.ObjectID, p organizationstore.Patch) (bool, error) {
	return m.update(id, false, p)
}

func (m *MemOrgStore) UpdateActiveByID(_ context.Context, id primitive.ObjectID, p organizationstore.Patch) (bool, error) {
	return m.update(id, true, p)
}

// MemGroups records system group creation.
type MemGroups struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID][]models.GroupType

	// FailOn makes creation of that group type fail with Err.
	FailOn models.GroupType
	Err    error

	Calls []string
}

func NewMemGroups() *MemGroups {
	return &MemGroups{groups: map[primitive.ObjectID][]models.GroupType{}}
}

func (g *MemGroups) create(orgID primitive.ObjectID, typ models.GroupType) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, string(typ))
	if g.FailOn == typ && g.Err != nil {
		return g.Err
	}
	g.groups[orgID] = append(g.groups[orgID], typ)
	return nil
}

func (g *MemGroups) CreateAllUsersGroup(_ context.Context, orgID primitive.ObjectID) error {
	return g.create(orgID, models.GroupTypeAllUsers)
}

func (g *MemGroups) CreateDevGroup(_ context.Context, orgID primitive.ObjectID) error {
	return g.create(orgID, models.GroupTypeDev)
}

func (g *MemGroups) ExistsByType(_ context.Context, orgID primitive.ObjectID, typ models.GroupType) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range g.groups[orgID] {
		if t == typ {
			return true, nil
		}
	}
	return false, nil
}

// Of returns the group types created for orgID, sorted.
func (g *MemGroups) Of(orgID primitive.ObjectID) []models.GroupType {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := append([]models.GroupType(nil), g.groups[orgID]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MemMembers records memberships keyed by (org, user).
type MemMembers struct {
	mu      sync.Mutex
	members map[[2]primitive.ObjectID]models.MemberRole

	Err   error
	Calls int
}

func NewMemMembers() *MemMembers {
	return &MemMembers{members: map[[2]primitive.ObjectID]models.MemberRole{}}
}

func (m *MemMembers) AddMember(_ context.Context, orgID, userID primitive.ObjectID, role models.MemberRole) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if m.Err != nil {
		return false, m.Err
	}
	k := [2]primitive.ObjectID{orgID, userID}
	if _, ok := m.members[k]; ok {
		return false, nil
	}
	m.members[k] = role
	return true, nil
}

// Role returns the user's role in the org, if any.
func (m *MemMembers) Role(orgID, userID primitive.ObjectID) (models.MemberRole, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.members[[2]primitive.ObjectID{orgID, userID}]
	return r, ok
}

// Get returns the membership of userID in orgID, or mongo.ErrNoDocuments.
func (m *MemMembers) Get(_ context.Context, orgID, userID primitive.ObjectID) (models.OrgMembership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.members[[2]primitive.ObjectID{orgID, userID}]
	if !ok {
		return models.OrgMembership{}, mongo.ErrNoDocuments
	}
	return models.OrgMembership{OrgID: orgID, UserID: userID, Role: r}, nil
}

// CountByOrg counts memberships in orgID; an empty role counts every role.
func (m *MemMembers) CountByOrg(_ context.Context, orgID primitive.ObjectID, role models.MemberRole) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, r := range m.members {
		if k[0] == orgID && (role == "" || r == role) {
			n++
		}
	}
	return n, nil
}

// CountOrg returns the number of memberships in orgID.
func (m *MemMembers) CountOrg(orgID primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.members {
		if k[0] == orgID {
			n++
		}
	}
	return n
}

// MemAssets is an in-memory asset service.
type MemAssets struct {
	mu      sync.Mutex
	assets  map[string]models.Asset
	content map[string][]byte

	UploadErr error
	DeleteErr error

	// Log records every call in order, e.g. "upload", "delete:<id>".
	Log []string

	// LastMaxSizeKB and LastPublic capture the arguments of the last upload.
	LastMaxSizeKB int
	LastPublic    bool
}

func NewMemAssets() *MemAssets {
	return &MemAssets{assets: map[string]models.Asset{}, content: map[string][]byte{}}
}

// Seed stores an asset and returns its id.
func (a *MemAssets) Seed() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	asset := models.Asset{ID: primitive.NewObjectID(), ContentType: "image/png"}
	a.assets[asset.ID.Hex()] = asset
	a.content[asset.ID.Hex()] = nil
	return asset.ID.Hex()
}

// Has reports whether an asset with id exists.
func (a *MemAssets) Has(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.assets[id]
	return ok
}

// Calls returns a copy of the call log.
func (a *MemAssets) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.Log...)
}

func (a *MemAssets) Upload(_ context.Context, file assetservice.FilePart, maxSizeKB int, public bool) (models.Asset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Log = append(a.Log, "upload")
	a.LastMaxSizeKB = maxSizeKB
	a.LastPublic = public
	if a.UploadErr != nil {
		return models.Asset{}, a.UploadErr
	}
	var data []byte
	if file.Content != nil {
		var err error
		if data, err = io.ReadAll(file.Content); err != nil {
			return models.Asset{}, err
		}
	}
	asset := models.Asset{
		ID:          primitive.NewObjectID(),
		FileName:    file.FileName,
		ContentType: file.ContentType,
		Size:        int64(len(data)),
		Public:      public,
	}
	a.assets[asset.ID.Hex()] = asset
	a.content[asset.ID.Hex()] = data
	return asset, nil
}

func (a *MemAssets) FindByID(_ context.Context, id string) (models.Asset, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Log = append(a.Log, "find:"+id)
	asset, ok := a.assets[id]
	return asset, ok, nil
}

func (a *MemAssets) Delete(_ context.Context, asset models.Asset) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := asset.ID.Hex()
	a.Log = append(a.Log, "delete:"+id)
	if a.DeleteErr != nil {
		return a.DeleteErr
	}
	delete(a.assets, id)
	delete(a.content, id)
	return nil
}

func (a *MemAssets) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	asset, ok := a.assets[id]
	a.mu.Unlock()
	if !ok {
		return nil
	}
	return a.Delete(ctx, asset)
}

func (a *MemAssets) Open(_ context.Context, asset models.Asset) (io.ReadCloser, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.content[asset.ID.Hex()]
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", asset.ID.Hex(), mongo.ErrNoDocuments)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// RecordingPublisher captures published events.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(e events.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return true
}

// Events returns a copy of everything published.
func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}
