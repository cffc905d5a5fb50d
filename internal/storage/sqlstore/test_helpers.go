package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/storage/factory"
	"github.com/shiftcrew/shiftcrew/internal/types"
)

// newTestStore opens a migrated SQLite store on a temp file.
//
// File-based databases are more reliable than ":memory:" here: the pool
// can hand out several connections, and a shared in-memory database would
// leak state between parallel tests in the same process.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := New(ctx, t.TempDir()+"/test.db", factory.Options{})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if cerr := store.Close(); cerr != nil {
			t.Fatalf("Failed to close test database: %v", cerr)
		}
	})

	return store
}

// testNow returns a second-truncated UTC time so round-trips compare
// cleanly across drivers.
func testNow() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// fixture is a seeded org hierarchy: one store, one shift, one position,
// a staff role and one worker.
type fixture struct {
	org   *types.Organization
	store *types.Store
	shift *types.Shift
	pos   *types.Position
	role  *types.Role
	user  *types.User
}

func seedFixture(t *testing.T, s *Store) *fixture {
	t.Helper()
	ctx := context.Background()
	now := testNow()

	f := &fixture{
		org: &types.Organization{
			ID: uuid.New(), Name: "Acme Diner", IsActive: true, CreatedAt: now, UpdatedAt: now,
		},
	}
	if err := s.CreateOrganization(ctx, f.org); err != nil {
		t.Fatalf("CreateOrganization failed: %v", err)
	}

	f.store = &types.Store{
		ID: uuid.New(), OrganizationID: f.org.ID, Name: "Downtown", Address: "1 Main St",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateStore(ctx, f.store); err != nil {
		t.Fatalf("CreateStore failed: %v", err)
	}

	f.shift = &types.Shift{ID: uuid.New(), StoreID: f.store.ID, Name: "Open", CreatedAt: now}
	if err := s.CreateShift(ctx, f.shift); err != nil {
		t.Fatalf("CreateShift failed: %v", err)
	}

	f.pos = &types.Position{ID: uuid.New(), StoreID: f.store.ID, Name: "Kitchen", CreatedAt: now}
	if err := s.CreatePosition(ctx, f.pos); err != nil {
		t.Fatalf("CreatePosition failed: %v", err)
	}

	f.role = &types.Role{
		ID: uuid.New(), OrganizationID: f.org.ID, Name: "Staff",
		Level: types.LevelStaff, CreatedAt: now,
	}
	if err := s.CreateRole(ctx, f.role); err != nil {
		t.Fatalf("CreateRole failed: %v", err)
	}

	f.user = &types.User{
		ID: uuid.New(), OrganizationID: f.org.ID, RoleID: f.role.ID,
		Username: "worker1", FullName: "Worker One", PasswordHash: "x",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateUser(ctx, f.user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	return f
}

// addUser seeds an extra worker in the fixture's org.
func (f *fixture) addUser(t *testing.T, s *Store, username string) *types.User {
	t.Helper()
	now := testNow()
	u := &types.User{
		ID: uuid.New(), OrganizationID: f.org.ID, RoleID: f.role.ID,
		Username: username, FullName: "User " + username, PasswordHash: "x",
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", username, err)
	}
	return u
}
