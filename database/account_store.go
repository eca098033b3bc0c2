package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/medportal/medportalbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoAccountStore keeps user accounts in "users" and admin accounts in
// "admins".
type MongoAccountStore struct {
	users  *mongo.Collection
	admins *mongo.Collection
}

func NewMongoAccountStore(m *Mongo) *MongoAccountStore {
	return &MongoAccountStore{
		users:  m.OpenCollection(UsersCollection),
		admins: m.OpenCollection(AdminsCollection),
	}
}

func (s *MongoAccountStore) collectionFor(role models.Role) *mongo.Collection {
	if role == models.RoleAdmin {
		return s.admins
	}
	return s.users
}

func (s *MongoAccountStore) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	if _, err := s.collectionFor(account.Role).InsertOne(ctx, account); err != nil {
		return fmt.Errorf("%w: insert account: %w", models.ErrStorage, err)
	}
	return nil
}

// FindByUsername looks in users first and admins second, so a username
// present in both resolves to the user account.
func (s *MongoAccountStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.findFirst(ctx, bson.M{"username": username}, s.users, s.admins)
}

func (s *MongoAccountStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Account, error) {
	return s.findFirst(ctx, bson.M{"aadhaarNumber": nationalID}, s.users)
}

func (s *MongoAccountStore) FindByID(ctx context.Context, id string) (*models.Account, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	return s.findFirst(ctx, bson.M{"_id": oid}, s.users, s.admins)
}

// ReplaceDocuments overwrites the documents array of a user account.
func (s *MongoAccountStore) ReplaceDocuments(ctx context.Context, accountID string, documents []string) error {
	oid, err := bson.ObjectIDFromHex(accountID)
	if err != nil {
		return fmt.Errorf("%w: invalid account id %q", models.ErrValidation, accountID)
	}

	res, err := s.users.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"documents": documents}})
	if err != nil {
		return fmt.Errorf("%w: replace documents: %w", models.ErrStorage, err)
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// EnsureAdmin inserts account into admins unless its username is taken.
func (s *MongoAccountStore) EnsureAdmin(ctx context.Context, account *models.Account) (bool, error) {
	filter := bson.M{"username": account.Username}
	update := bson.M{
		"$setOnInsert": bson.M{
			"username":     account.Username,
			"password":     account.PasswordHash,
			"role":         models.RoleAdmin,
			"organisation": account.Organisation,
			"createdAt":    account.CreatedAt,
		},
	}

	res, err := s.admins.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("%w: seed admin upsert: %w", models.ErrStorage, err)
	}
	return res.UpsertedCount == 1, nil
}

func (s *MongoAccountStore) findFirst(ctx context.Context, filter bson.M, cols ...*mongo.Collection) (*models.Account, error) {
	for _, col := range cols {
		var account models.Account
		err := col.FindOne(ctx, filter).Decode(&account)
		if err == nil {
			return &account, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: find in %s: %w", models.ErrStorage, col.Name(), err)
		}
	}
	return nil, models.ErrNotFound
}
