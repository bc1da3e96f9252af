package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zoubaax/on-time/internal/core/domain"
	"github.com/zoubaax/on-time/internal/core/ports"
)

const collectionCredentials = "credentials"

// CredentialRepository stores password hashes for the local identity provider.
type CredentialRepository struct {
	coll *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{coll: db.Collection(collectionCredentials)}
}

type mongoCredential struct {
	Email        string `bson:"_id"`
	UserID       string `bson:"user_id"`
	FullName     string `bson:"full_name"`
	PasswordHash string `bson:"password_hash"`
	CreatedAt    int64  `bson:"created_at"`
}

func (r *CredentialRepository) Create(ctx context.Context, cred *ports.Credential) error {
	doc := mongoCredential{
		Email:        normalizeEmail(cred.Email),
		UserID:       cred.UserID,
		FullName:     cred.FullName,
		PasswordHash: cred.PasswordHash,
		CreatedAt:    time.Now().UTC().Unix(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*ports.Credential, error) {
	var mc mongoCredential
	if err := r.coll.FindOne(ctx, bson.M{"_id": normalizeEmail(email)}).Decode(&mc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}

	return &ports.Credential{
		UserID:       mc.UserID,
		Email:        mc.Email,
		FullName:     mc.FullName,
		PasswordHash: mc.PasswordHash,
	}, nil
}

// EnsureIndexes creates the user_id lookup index.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
