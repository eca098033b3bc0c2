package database

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/medportal/medportalbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// MemoryAccountStore is a process-local account store with the same lookup
// rules as MongoAccountStore. It backs ACCOUNT_STORE=memory and tests.
type MemoryAccountStore struct {
	mu     sync.RWMutex
	users  []models.Account
	admins []models.Account
}

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{}
}

func (s *MemoryAccountStore) CreateAccount(_ context.Context, account *models.Account) error {
	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if account.Role == models.RoleAdmin {
		s.admins = append(s.admins, clone(*account))
	} else {
		s.users = append(s.users, clone(*account))
	}
	return nil
}

func (s *MemoryAccountStore) FindByUsername(_ context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findFirst(func(a *models.Account) bool { return a.Username == username }, s.users, s.admins)
}

func (s *MemoryAccountStore) FindByNationalID(_ context.Context, nationalID string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findFirst(func(a *models.Account) bool { return a.NationalID == nationalID }, s.users)
}

func (s *MemoryAccountStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findFirst(func(a *models.Account) bool { return a.ID == oid }, s.users, s.admins)
}

func (s *MemoryAccountStore) ReplaceDocuments(_ context.Context, accountID string, documents []string) error {
	oid, err := bson.ObjectIDFromHex(accountID)
	if err != nil {
		return fmt.Errorf("%w: invalid account id %q", models.ErrValidation, accountID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == oid {
			s.users[i].Documents = slices.Clone(documents)
			return nil
		}
	}
	return models.ErrNotFound
}

func (s *MemoryAccountStore) EnsureAdmin(_ context.Context, account *models.Account) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.admins {
		if a.Username == account.Username {
			return false, nil
		}
	}

	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}
	account.Role = models.RoleAdmin
	s.admins = append(s.admins, clone(*account))
	return true, nil
}

func findFirst(match func(*models.Account) bool, groups ...[]models.Account) (*models.Account, error) {
	for _, group := range groups {
		for i := range group {
			if match(&group[i]) {
				found := clone(group[i])
				return &found, nil
			}
		}
	}
	return nil, models.ErrNotFound
}

func clone(a models.Account) models.Account {
	a.Documents = slices.Clone(a.Documents)
	return a
}
