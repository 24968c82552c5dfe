// Package fixtures provides test stores and seeded data for model and
// controller tests.
package fixtures

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/userdeskapp/userdesk/model"
)

var userCounter atomic.Uint64

// NewTestStore opens a throwaway SQLite database in the test's temp
// directory.
func NewTestStore(t *testing.T) *model.Store {
	t.Helper()
	store, err := model.OpenTestStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("cannot open test store: %v", err)
	}
	return store
}

// UserOption mutates a fixture user before creation.
type UserOption func(*model.User)

func WithUserName(name string) UserOption {
	return func(u *model.User) { u.Name = name }
}

func WithUserEmail(email string) UserOption {
	return func(u *model.User) { u.Email = email }
}

// User builds a user with unique defaults.
func User(opts ...UserOption) *model.User {
	n := userCounter.Add(1)
	u := &model.User{
		Name:  fmt.Sprintf("Test User %d", n),
		Email: fmt.Sprintf("user%d@example.com", n),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// TestData bundles the records created by SeedTestData.
type TestData struct {
	Users []*model.User
}

// SeedTestData creates a small, diacritic-bearing user directory.
func SeedTestData(t *testing.T, store *model.Store) *TestData {
	t.Helper()

	users := []*model.User{
		User(WithUserName("Ana Torres"), WithUserEmail("ana.torres@example.com")),
		User(WithUserName("José Álvarez"), WithUserEmail("jose.alvarez@example.com")),
		User(WithUserName("Björn Müller"), WithUserEmail("bjoern.mueller@example.com")),
	}
	for _, u := range users {
		if err := store.CreateUser(u); err != nil {
			t.Fatalf("cannot seed user %q: %v", u.Email, err)
		}
	}
	return &TestData{Users: users}
}
