package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/inventario/catalog-api/internal/core/domain"
)

// withoutPassword is applied to every read except FindByEmail.
var withoutPassword = bson.M{"password": 0}

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password,omitempty"`
	Role         string             `bson:"role"`
	Active       *bool              `bson:"active,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

func (d *userDoc) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         d.Role,
		Active:       isActive(d.Active),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// Create stores user and returns it without the password digest.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	active := user.Active
	doc := userDoc{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         user.Role,
		Active:       &active,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	oid, err := insert(ctx, r.col, doc, domain.ErrUserExists)
	if err != nil {
		return nil, err
	}
	doc.ID = oid
	doc.PasswordHash = ""
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := parseID(id)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	var doc userDoc
	opts := options.FindOne().SetProjection(withoutPassword)
	if err := findOne(ctx, r.col, bson.M{"_id": oid}, &doc, domain.ErrUserNotFound, opts); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// FindByEmail is the credential lookup and the only read that returns the
// password digest.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var doc userDoc
	if err := findOne(ctx, r.col, bson.M{"email": email}, &doc, domain.ErrUserNotFound, nil); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("users count: %w", err)
	}
	return n > 0, nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	var docs []userDoc
	opts := newestFirst().SetProjection(withoutPassword)
	if err := findMany(ctx, r.col, bson.M{}, &docs, opts); err != nil {
		return nil, err
	}
	out := make([]*domain.User, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}
