package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ayush/user-service/internal/config"
	"github.com/ayush/user-service/internal/logger"
	"github.com/ayush/user-service/internal/models"
)

// MongoStore handles user CRUD in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	col    *mongo.Collection
}

// userDocument is the stored shape of a user.
type userDocument struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Disabled       *bool              `bson:"disabled"`
	HashedPassword string             `bson:"hashed_password"`
}

func toDocument(u models.User) userDocument {
	return userDocument{
		Username:       u.Username,
		Name:           u.Name,
		Email:          u.Email,
		Disabled:       u.Disabled,
		HashedPassword: u.HashedPassword,
	}
}

// updateFields is the $set body of an update. The disabled flag is left as stored.
func updateFields(u models.User) bson.M {
	return bson.M{
		"username":        u.Username,
		"name":            u.Name,
		"email":           u.Email,
		"hashed_password": u.HashedPassword,
	}
}

func (d userDocument) toUser() models.User {
	return models.User{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		Name:           d.Name,
		Email:          d.Email,
		Disabled:       d.Disabled,
		HashedPassword: d.HashedPassword,
	}
}

// NewMongoStore connects to cfg.URI, pings the primary and makes sure the
// unique username index exists.
func NewMongoStore(ctx context.Context, cfg config.Mongo, log *logger.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info().Str("database", cfg.Database).Str("collection", cfg.Collection).Msg("connected to mongo")

	s := &MongoStore{client: client, col: client.Database(cfg.Database).Collection(cfg.Collection)}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the unique index on username.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

func (s *MongoStore) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

func (s *MongoStore) Insert(ctx context.Context, user models.User) (models.User, error) {
	doc := toDocument(user)
	res, err := s.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("mongo insert: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.User{}, fmt.Errorf("mongo insert: unexpected id type %T", res.InsertedID)
	}
	doc.ID = oid
	return doc.toUser(), nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

func (s *MongoStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (models.User, error) {
	var doc userDocument
	if err := s.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("mongo find: %w", err)
	}
	return doc.toUser(), nil
}

// FindAll returns every user in natural order. The result is never nil.
func (s *MongoStore) FindAll(ctx context.Context) ([]models.User, error) {
	cur, err := s.col.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo cursor: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toUser())
	}
	return users, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, user models.User) (models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrNotFound
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated userDocument
	err = s.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": updateFields(user)}, opts).Decode(&updated)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return models.User{}, ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("mongo update: %w", err)
	}
	return updated.toUser(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("mongo delete: %w", err)
	}
	return res.DeletedCount == 1, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
