package inventory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

type memoryProduct struct {
	Product
	categoryID int64
}

type memoryUser struct {
	User
	hash string
}

type memoryState struct {
	categories map[string]int64
	products   map[int64]memoryProduct
	users      map[int64]memoryUser
	audits     []shared.AuditLog
	nextID     int64
}

func (s *memoryState) clone() *memoryState {
	out := &memoryState{
		categories: make(map[string]int64, len(s.categories)),
		products:   make(map[int64]memoryProduct, len(s.products)),
		users:      make(map[int64]memoryUser, len(s.users)),
		audits:     append([]shared.AuditLog(nil), s.audits...),
		nextID:     s.nextID,
	}
	for k, v := range s.categories {
		out.categories[k] = v
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	return out
}

func (s *memoryState) id() int64 {
	s.nextID++
	return s.nextID
}

// memoryRepo serialises transactions and applies them to a copy of the state that
// replaces the committed state only when the callback succeeds.
type memoryRepo struct {
	mu      sync.Mutex
	state   *memoryState
	txCalls int

	failOn         string
	deleteUserNoop bool
	lowThreshold   int
	// staleUsernames hides committed usernames from the in-transaction
	// pre-check, leaving InsertUser's unique-key mapping to reject them.
	staleUsernames bool
}

type memoryTx struct {
	repo  *memoryRepo
	state *memoryState
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connection refused")

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: &memoryState{
		categories: map[string]int64{},
		products:   map[int64]memoryProduct{},
		users:      map[int64]memoryUser{},
		nextID:     100,
	}}
}

func (r *memoryRepo) fail(op string) error {
	if r.failOn == op {
		return shared.Storage("memory: "+op, errConnRefused)
	}
	return nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txCalls++
	working := r.state.clone()
	if err := fn(ctx, &memoryTx{repo: r, state: working}); err != nil {
		return err
	}
	r.state = working
	return nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state.products[id]
	if !ok {
		return Product{}, shared.ErrNotFound
	}
	return p.Product, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []Product
	q := strings.ToLower(filter.Query)
	for _, p := range r.state.products {
		if q == "" || strings.Contains(strings.ToLower(p.Name+" "+p.Category+" "+p.Description), q) {
			all = append(all, p.Product)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	start := shared.Offset(filter.Page, filter.PageSize)
	if start > len(all) {
		return nil, len(all), nil
	}
	end := min(start+filter.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (r *memoryRepo) LowStock(ctx context.Context, threshold int) ([]Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lowThreshold = threshold
	var out []Product
	for _, p := range r.state.products {
		if p.Stock < threshold {
			out = append(out, p.Product)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListUsers(ctx context.Context) ([]User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []User
	for _, u := range r.state.users {
		out = append(out, u.User)
	}
	return out, nil
}

func (r *memoryRepo) AppendAudit(ctx context.Context, log shared.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("AppendAudit"); err != nil {
		return err
	}
	log.ID = r.state.id()
	r.state.audits = append(r.state.audits, log)
	return nil
}

func (r *memoryRepo) audits() []shared.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.AuditLog(nil), r.state.audits...)
}

func (r *memoryRepo) usersNamed(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, u := range r.state.users {
		if u.Username == name {
			n++
		}
	}
	return n
}

func (tx *memoryTx) EnsureCategory(ctx context.Context, name string) (int64, error) {
	if err := tx.repo.fail("EnsureCategory"); err != nil {
		return 0, err
	}
	if id, ok := tx.state.categories[name]; ok {
		return id, nil
	}
	id := tx.state.id()
	tx.state.categories[name] = id
	return id, nil
}

func (tx *memoryTx) InsertProduct(ctx context.Context, categoryID int64, draft ProductDraft, at time.Time) (int64, error) {
	if err := tx.repo.fail("InsertProduct"); err != nil {
		return 0, err
	}
	id := tx.state.id()
	tx.state.products[id] = memoryProduct{Product: draft.product(id, at), categoryID: categoryID}
	return id, nil
}

func (tx *memoryTx) UpdateProduct(ctx context.Context, id, categoryID int64, draft ProductDraft, at time.Time) (bool, error) {
	existing, ok := tx.state.products[id]
	if !ok {
		return false, nil
	}
	p := draft.product(id, existing.CreatedAt)
	p.UpdatedAt = at
	tx.state.products[id] = memoryProduct{Product: p, categoryID: categoryID}
	return true, nil
}

func (tx *memoryTx) ProductName(ctx context.Context, id int64) (string, error) {
	p, ok := tx.state.products[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return p.Name, nil
}

func (tx *memoryTx) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	if _, ok := tx.state.products[id]; !ok {
		return false, nil
	}
	delete(tx.state.products, id)
	return true, nil
}

func (tx *memoryTx) UsernameExists(ctx context.Context, username string) (bool, error) {
	if tx.repo.staleUsernames {
		return false, nil
	}
	for _, u := range tx.state.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (tx *memoryTx) InsertUser(ctx context.Context, user User, passwordHash string) (int64, error) {
	if err := tx.repo.fail("InsertUser"); err != nil {
		return 0, err
	}
	for _, u := range tx.state.users {
		if u.Username == user.Username {
			return 0, shared.ErrDuplicateUsername
		}
	}
	user.ID = tx.state.id()
	tx.state.users[user.ID] = memoryUser{User: user, hash: passwordHash}
	return user.ID, nil
}

func (tx *memoryTx) Username(ctx context.Context, id int64) (string, error) {
	u, ok := tx.state.users[id]
	if !ok {
		return "", shared.ErrNotFound
	}
	return u.Username, nil
}

// DeleteUser nulls the user's audit references the way ON DELETE SET NULL does.
func (tx *memoryTx) DeleteUser(ctx context.Context, id int64) (bool, error) {
	if _, ok := tx.state.users[id]; !ok || tx.repo.deleteUserNoop {
		return false, nil
	}
	delete(tx.state.users, id)
	for i, log := range tx.state.audits {
		if log.UserID != nil && *log.UserID == id {
			tx.state.audits[i].UserID = nil
		}
	}
	return true, nil
}

func (tx *memoryTx) AppendAudit(ctx context.Context, log shared.AuditLog) error {
	if err := tx.repo.fail("AppendAudit"); err != nil {
		return err
	}
	log.ID = tx.state.id()
	tx.state.audits = append(tx.state.audits, log)
	return nil
}

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var testNow = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), ServiceConfig{
		BcryptCost: bcrypt.MinCost,
		Clock:      fixedClock{at: testNow},
	})
}

func owner() rbac.Principal {
	return rbac.NewPrincipal(1, "root", "Owner", "")
}

func TestStaffScenario(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	staff := rbac.NewPrincipal(5, "sam", "Staff", "add:1,edit:0,delete:0,view:1")

	_, err := svc.UpdateProduct(ctx, staff, 1, ProductDraft{Name: "Widget", Category: "Tools", Stock: 1})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
	require.Zero(t, repo.txCalls)

	product, err := svc.AddProduct(ctx, staff, ProductDraft{Name: "Widget", Category: "Tools", Stock: 5, Price: 2.50})
	require.NoError(t, err)
	require.NotZero(t, product.ID)
	require.Equal(t, "Tools", product.Category)
	require.Contains(t, repo.state.categories, "Tools")

	logs := repo.audits()
	require.Len(t, logs, 1)
	require.Equal(t, shared.ActionProductAdded, logs[0].Action)
	require.Contains(t, logs[0].Details, "Widget")
	require.Equal(t, int64(5), *logs[0].UserID)
	require.Equal(t, testNow, logs[0].At)
}

func TestAddProductReusesCategory(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	a, err := svc.AddProduct(ctx, owner(), ProductDraft{Name: "Hammer", Category: " Tools ", Stock: 3, Price: 9})
	require.NoError(t, err)
	b, err := svc.AddProduct(ctx, owner(), ProductDraft{Name: "Saw", Category: "Tools", Stock: 2, Price: 14})
	require.NoError(t, err)
	require.Len(t, repo.state.categories, 1)
	require.Equal(t, repo.state.products[a.ID].categoryID, repo.state.products[b.ID].categoryID)
}

func TestAddProductValidationPrecedesStorage(t *testing.T) {
	cases := map[string]ProductDraft{
		"negative stock": {Name: "Widget", Category: "Tools", Stock: -1, Price: 1},
		"negative price": {Name: "Widget", Category: "Tools", Stock: 1, Price: -1},
		"empty name":     {Name: "  ", Category: "Tools"},
		"empty category": {Name: "Widget"},
		"stock overflow": {Name: "Widget", Category: "Tools", Stock: 3_000_000_000, Price: 1},
		"price overflow": {Name: "Widget", Category: "Tools", Stock: 1, Price: 1e12},
		"sub-cent price": {Name: "Widget", Category: "Tools", Stock: 1, Price: 2.505},
	}
	for name, draft := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMemoryRepo()
			svc := newTestService(repo)
			_, err := svc.AddProduct(context.Background(), owner(), draft)
			require.ErrorIs(t, err, shared.ErrValidation)
			require.Zero(t, repo.txCalls)
			require.Empty(t, repo.audits())
		})
	}
}

func TestUpdateProductRejectsSubCentPrice(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, owner(), ProductDraft{Name: "Widget", Category: "Tools", Stock: 1, Price: 19.99})
	require.NoError(t, err)
	calls := repo.txCalls

	ok, err := svc.UpdateProduct(ctx, owner(), p.ID, ProductDraft{Name: "Widget", Category: "Tools", Stock: 1, Price: 0.001})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.False(t, ok)
	require.Equal(t, calls, repo.txCalls)

	got, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 19.99, got.Price)
}

func TestPermissionCheckedBeforeValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	viewer := rbac.NewPrincipal(3, "vic", "Staff", "view:1")

	_, err := svc.AddProduct(context.Background(), viewer, ProductDraft{Stock: -1})
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}

func TestUpdateProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()
	admin := rbac.NewPrincipal(2, "ada", "Admin", rbac.DefaultCapabilities(rbac.RoleAdmin).Encode())

	p, err := svc.AddProduct(ctx, admin, ProductDraft{Name: "Widget", Category: "Tools", Stock: 5, Price: 2.5})
	require.NoError(t, err)

	ok, err := svc.UpdateProduct(ctx, admin, p.ID, ProductDraft{Name: "Widget XL", Category: "Hardware", Stock: 9, Price: 4})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := svc.GetProduct(ctx, admin, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Widget XL", got.Name)
	require.Equal(t, "Hardware", got.Category)
	require.Equal(t, 9, got.Stock)

	logs := repo.audits()
	require.Equal(t, shared.ActionProductUpdated, logs[len(logs)-1].Action)
	require.Contains(t, logs[len(logs)-1].Details, "Widget XL")
}

func TestUpdateMissingProductIsNotAnError(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	ok, err := svc.UpdateProduct(context.Background(), owner(), 404, ProductDraft{Name: "Ghost", Category: "Spirits"})
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, repo.audits())
	require.Empty(t, repo.state.categories)
}

func TestDeleteProductTwice(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, owner(), ProductDraft{Name: "Widget", Category: "Tools", Stock: 1, Price: 1})
	require.NoError(t, err)

	ok, err := svc.DeleteProduct(ctx, owner(), p.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.DeleteProduct(ctx, owner(), p.ID)
	require.NoError(t, err)
	require.False(t, ok)

	var deletes int
	for _, log := range repo.audits() {
		if log.Action == shared.ActionProductDeleted {
			deletes++
			require.Contains(t, log.Details, "Widget")
		}
	}
	require.Equal(t, 1, deletes)

	_, err = svc.GetProduct(ctx, owner(), p.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAddUserAssignsRoleDefaults(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	user, err := svc.AddUser(context.Background(), owner(), NewUser{Username: " bob ", Password: "s3cret", Role: "staff"})
	require.NoError(t, err)
	require.Equal(t, "bob", user.Username)
	require.Equal(t, rbac.RoleStaff, user.Role)
	require.Equal(t, rbac.DefaultCapabilities(rbac.RoleStaff), user.Capabilities)

	stored := repo.state.users[user.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.hash), []byte("s3cret")))

	logs := repo.audits()
	require.Len(t, logs, 1)
	require.Equal(t, shared.ActionUserAdded, logs[0].Action)
	require.Equal(t, int64(1), *logs[0].UserID)
	require.Contains(t, logs[0].Details, fmt.Sprintf("id %d", user.ID))
}

func TestAddUserValidation(t *testing.T) {
	cases := map[string]NewUser{
		"empty username": {Username: "  ", Password: "pw", Role: "Staff"},
		"empty password": {Username: "bob", Role: "Staff"},
		"unknown role":   {Username: "bob", Password: "pw", Role: "Janitor"},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			repo := newMemoryRepo()
			_, err := newTestService(repo).AddUser(context.Background(), owner(), input)
			require.ErrorIs(t, err, shared.ErrValidation)
			require.Zero(t, repo.txCalls)
		})
	}
}

func TestAddUserDuplicate(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.AddUser(ctx, owner(), NewUser{Username: "bob", Password: "pw", Role: "Staff"})
	require.NoError(t, err)
	_, err = svc.AddUser(ctx, owner(), NewUser{Username: "bob", Password: "other", Role: "Admin"})
	require.ErrorIs(t, err, shared.ErrDuplicateUsername)
	require.Equal(t, 1, repo.usersNamed("bob"))
	require.Len(t, repo.audits(), 1)
}

func TestAddUserUniqueKeyViolationIsDuplicate(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.AddUser(ctx, owner(), NewUser{Username: "alice", Password: "pw", Role: "Staff"})
	require.NoError(t, err)
	before := len(repo.audits())

	repo.staleUsernames = true
	_, err = svc.AddUser(ctx, owner(), NewUser{Username: "alice", Password: "other", Role: "Admin"})
	require.ErrorIs(t, err, shared.ErrDuplicateUsername)
	require.Equal(t, 1, repo.usersNamed("alice"))
	require.Len(t, repo.audits(), before)
	added := 0
	for _, log := range repo.audits() {
		if log.Action == shared.ActionUserAdded {
			added++
		}
	}
	require.Equal(t, 1, added)
}

func TestConcurrentAddUserHasOneWinner(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		winners []User
		dupes   int
	)
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			user, err := svc.AddUser(ctx, owner(), NewUser{Username: "alice", Password: "pw", Role: "Staff"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, user)
			case errors.Is(err, shared.ErrDuplicateUsername):
				dupes++
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Len(t, winners, 1)
	require.Equal(t, "alice", winners[0].Username)
	require.Equal(t, 7, dupes)
	require.Equal(t, 1, repo.usersNamed("alice"))
}

func TestDeleteUserAuditAttribution(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	bob, err := svc.AddUser(ctx, owner(), NewUser{Username: "bob", Password: "pw", Role: "Staff"})
	require.NoError(t, err)
	bobPrincipal := rbac.NewPrincipal(bob.ID, bob.Username, string(bob.Role), bob.Capabilities.Encode())
	_, err = svc.AddProduct(ctx, bobPrincipal, ProductDraft{Name: "Widget", Category: "Tools", Stock: 1, Price: 1})
	require.NoError(t, err)
	svc.LogLogin(ctx, bobPrincipal)

	before := repo.audits()
	var bobEntries []shared.AuditLog
	for _, log := range before {
		if log.UserID != nil && *log.UserID == bob.ID {
			bobEntries = append(bobEntries, log)
		}
	}
	require.Len(t, bobEntries, 2)

	ok, err := svc.DeleteUser(ctx, owner(), bob.ID)
	require.NoError(t, err)
	require.True(t, ok)

	after := repo.audits()
	require.Len(t, after, len(before)+1)
	deleted := after[len(after)-1]
	require.Equal(t, shared.ActionUserDeleted, deleted.Action)
	require.Equal(t, int64(1), *deleted.UserID)
	require.Contains(t, deleted.Details, "bob")

	byID := map[int64]shared.AuditLog{}
	for _, log := range after {
		byID[log.ID] = log
	}
	for _, prior := range bobEntries {
		got, ok := byID[prior.ID]
		require.True(t, ok, "entry %d removed", prior.ID)
		require.Nil(t, got.UserID)
		require.Equal(t, prior.Action, got.Action)
		require.Equal(t, prior.Details, got.Details)
	}

	ok, err = svc.DeleteUser(ctx, owner(), bob.ID)
	require.NoError(t, err)
	require.False(t, ok)
	require.Len(t, repo.audits(), len(after))
}

func TestDeleteUserRollsBackAuditWhenNothingDeleted(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	bob, err := svc.AddUser(ctx, owner(), NewUser{Username: "bob", Password: "pw", Role: "Staff"})
	require.NoError(t, err)
	repo.deleteUserNoop = true

	ok, err := svc.DeleteUser(ctx, owner(), bob.ID)
	require.NoError(t, err)
	require.False(t, ok)
	for _, log := range repo.audits() {
		require.NotEqual(t, shared.ActionUserDeleted, log.Action)
	}
}

func TestDeleteUserPermissions(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	bob, err := svc.AddUser(ctx, owner(), NewUser{Username: "bob", Password: "pw", Role: "Staff"})
	require.NoError(t, err)

	admin := rbac.NewPrincipal(2, "ada", "Admin", rbac.DefaultCapabilities(rbac.RoleAdmin).Encode())
	_, err = svc.DeleteUser(ctx, admin, bob.ID)
	require.ErrorIs(t, err, shared.ErrPermissionDenied)

	// Manager bypasses an empty stored set.
	manager := rbac.NewPrincipal(3, "max", "Manager", "")
	ok, err := svc.DeleteUser(ctx, manager, bob.ID)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.DeleteUser(ctx, manager, manager.ID)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestStorageFailureRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	repo.failOn = "InsertProduct"
	svc := newTestService(repo)

	_, err := svc.AddProduct(context.Background(), owner(), ProductDraft{Name: "Widget", Category: "Tools", Stock: 1, Price: 1})
	require.ErrorIs(t, err, shared.ErrStorageUnavailable)
	require.ErrorIs(t, err, errConnRefused)
	var se *shared.StorageError
	require.ErrorAs(t, err, &se)

	require.Empty(t, repo.state.categories)
	require.Empty(t, repo.state.products)
	require.Empty(t, repo.audits())
}

func TestAuditFailureRollsBackMutation(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	repo.failOn = "AppendAudit"
	_, err := svc.AddUser(ctx, owner(), NewUser{Username: "bob", Password: "pw", Role: "Staff"})
	require.ErrorIs(t, err, shared.ErrStorageUnavailable)
	require.Zero(t, repo.usersNamed("bob"))
}

func TestSessionEventsAreBestEffort(t *testing.T) {
	repo := newMemoryRepo()
	var buf bytes.Buffer
	svc := NewService(repo, slog.New(slog.NewTextHandler(&buf, nil)), ServiceConfig{Clock: fixedClock{at: testNow}})
	ctx := context.Background()
	bob := rbac.NewPrincipal(7, "bob", "Staff", "")

	svc.LogLogin(ctx, bob)
	svc.LogLogout(ctx, bob, 90*time.Second+400*time.Millisecond)
	logs := repo.audits()
	require.Len(t, logs, 2)
	require.Equal(t, shared.ActionUserLogin, logs[0].Action)
	require.Equal(t, shared.ActionUserLogout, logs[1].Action)
	require.Contains(t, logs[1].Details, "1m30s")

	repo.failOn = "AppendAudit"
	require.NotPanics(t, func() { svc.LogLogin(ctx, bob) })
	require.Contains(t, buf.String(), "audit append failed")
	require.Contains(t, buf.String(), "level=WARN")
}

func TestReadOperations(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for i, stock := range []int{3, 50, 19} {
		_, err := svc.AddProduct(ctx, owner(), ProductDraft{Name: fmt.Sprintf("Item %d", i), Category: "Bins", Stock: stock, Price: 1})
		require.NoError(t, err)
	}

	staff := rbac.NewPrincipal(4, "sam", "Staff", rbac.DefaultCapabilities(rbac.RoleStaff).Encode())
	low, err := svc.LowStock(ctx, staff, 0)
	require.NoError(t, err)
	require.Len(t, low, 2)
	require.Equal(t, DefaultLowStockThreshold, repo.lowThreshold)

	page, err := svc.ListProducts(ctx, staff, ProductFilter{Query: "item 1", PageSize: 500})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	require.Equal(t, shared.MaxPageSize, page.Pagination.PerPage)

	page, err = svc.ListProducts(ctx, staff, ProductFilter{Page: math.MaxInt})
	require.NoError(t, err)
	require.Empty(t, page.Products)
	require.Equal(t, shared.MaxPage, page.Pagination.Page)

	_, err = svc.ListUsers(ctx, rbac.NewPrincipal(9, "nobody", "Staff", ""))
	require.ErrorIs(t, err, shared.ErrPermissionDenied)
}
