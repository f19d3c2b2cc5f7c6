package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moizayub1255/Tezaabi-Tottay/internal/apperror"
	"github.com/moizayub1255/Tezaabi-Tottay/internal/models"
)

// MongoUserRepository stores each user as one document with the watchlist embedded.
//
// Mutations are single findOneAndUpdate calls with an update pipeline, so the
// watchlist uniqueness check, the write and the updatedAt bump happen atomically
// on the server. Values are wrapped in $literal so user input is never read as
// a field path or operator.
type MongoUserRepository struct {
	users *mongo.Collection
	now   func() time.Time
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		users: db.Collection("users"),
		now:   models.Now,
	}
}

// EnsureIndexes creates the unique username and email indexes.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("username_unique")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Watchlist = nonNilWatchlist(user.Watchlist)

	_, err := r.users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		n, countErr := r.users.CountDocuments(ctx, bson.D{{Key: "username", Value: user.Username}})
		if countErr == nil && n > 0 {
			return apperror.ErrUsernameTaken
		}
		return apperror.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	user.Watchlist = nonNilWatchlist(user.Watchlist)
	return &user, nil
}

func (r *MongoUserRepository) Update(ctx context.Context, id string, update models.UserUpdate) (*models.User, error) {
	set := bson.D{{Key: "updatedAt", Value: r.nextUpdatedAt()}}
	for _, a := range update.Assignments() {
		set = append(set, bson.E{Key: a.Field, Value: literal(a.Value)})
	}

	user, err := r.findOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, set)
	if mongo.IsDuplicateKeyError(err) {
		return nil, apperror.ErrEmailTaken
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return user, nil
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistEntry, error) {
	var doc struct {
		Watchlist []models.WatchlistEntry `bson:"watchlist"`
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "watchlist", Value: 1}})
	err := r.users.FindOne(ctx, bson.D{{Key: "_id", Value: userID}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist of user %s: %w", userID, err)
	}
	return nonNilWatchlist(doc.Watchlist), nil
}

// AddToWatchlist matches the user only while no entry has the content id, and
// appends in the same operation.
func (r *MongoUserRepository) AddToWatchlist(ctx context.Context, userID string, entry models.WatchlistEntry) ([]models.WatchlistEntry, error) {
	filter := bson.D{
		{Key: "_id", Value: userID},
		{Key: "watchlist.contentId", Value: bson.D{{Key: "$ne", Value: entry.ContentID}}},
	}
	set := bson.D{
		{Key: "watchlist", Value: bson.D{{Key: "$concatArrays", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$watchlist", bson.A{}}}},
			bson.A{literal(entry)},
		}}}},
		{Key: "updatedAt", Value: r.nextUpdatedAt()},
	}

	user, err := r.findOneAndUpdate(ctx, filter, set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, countErr := r.users.CountDocuments(ctx, bson.D{{Key: "_id", Value: userID}})
		if countErr != nil {
			return nil, fmt.Errorf("failed to check user %s: %w", userID, countErr)
		}
		if n == 0 {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.ErrAlreadyInWatchlist
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add to watchlist of user %s: %w", userID, err)
	}
	return user.Watchlist, nil
}

func (r *MongoUserRepository) RemoveFromWatchlist(ctx context.Context, userID string, contentID models.ContentID) ([]models.WatchlistEntry, error) {
	set := bson.D{
		{Key: "watchlist", Value: bson.D{{Key: "$filter", Value: bson.D{
			{Key: "input", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$watchlist", bson.A{}}}}},
			{Key: "as", Value: "item"},
			{Key: "cond", Value: bson.D{{Key: "$ne", Value: bson.A{"$$item.contentId", literal(contentID)}}}},
		}}}},
		{Key: "updatedAt", Value: r.nextUpdatedAt()},
	}

	user, err := r.findOneAndUpdate(ctx, bson.D{{Key: "_id", Value: userID}}, set)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to remove from watchlist of user %s: %w", userID, err)
	}
	return user.Watchlist, nil
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, filter, set bson.D) (*models.User, error) {
	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	if err := r.users.FindOneAndUpdate(ctx, filter, pipeline, opts).Decode(&user); err != nil {
		return nil, err
	}
	user.Watchlist = nonNilWatchlist(user.Watchlist)
	return &user, nil
}

// nextUpdatedAt is the pipeline form of models.NextUpdatedAt:
// max(now, updatedAt + 1ms).
func (r *MongoUserRepository) nextUpdatedAt() bson.D {
	now := r.now()
	return bson.D{{Key: "$max", Value: bson.A{
		now,
		bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$updatedAt", now}}}, 1}}},
	}}}
}

func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}
