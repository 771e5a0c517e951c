package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/leeaandrob/trendsignals/internal/models"
)

// MongoStore keeps active trends in MongoDB.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	active  *mongo.Collection
	history *mongo.Collection
}

// NewMongoStore creates a new storage connection.
func NewMongoStore(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	if err := pingOrDisconnect(ctx, client); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	log.Info().Str("db", dbName).Msg("Connected to MongoDB")

	store := &MongoStore{
		client:  client,
		db:      db,
		active:  db.Collection("active_trends"),
		history: db.Collection("trend_history"),
	}

	if err := store.createIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to create some indexes")
	}

	return store, nil
}

type mongoConn interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

// pingOrDisconnect releases the client's pool when the server is unreachable.
func pingOrDisconnect(ctx context.Context, conn mongoConn) error {
	if err := conn.Ping(ctx, nil); err != nil {
		if derr := conn.Disconnect(ctx); derr != nil {
			log.Warn().Err(derr).Msg("Failed to disconnect mongo client")
		}
		return fmt.Errorf("ping mongo: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) createIndexes(ctx context.Context) error {
	activeIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "rank", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	if _, err := s.active.Indexes().CreateMany(ctx, activeIndexes); err != nil {
		return fmt.Errorf("active trend indexes: %w", err)
	}

	historyIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "rank", Value: 1}}},
		{Keys: bson.D{{Key: "keyword", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := s.history.Indexes().CreateMany(ctx, historyIndexes); err != nil {
		return fmt.Errorf("trend history indexes: %w", err)
	}
	return nil
}

// ReplaceActiveTrends deletes the active table and inserts the new rows.
// Rows are also appended to the history collection.
func (s *MongoStore) ReplaceActiveTrends(ctx context.Context, trends []models.ActiveTrend) error {
	if _, err := s.active.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("clear active trends: %w", err)
	}
	if len(trends) == 0 {
		return nil
	}

	docs := make([]interface{}, len(trends))
	for i := range trends {
		docs[i] = trends[i]
	}

	if _, err := s.active.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert active trends: %w", err)
	}
	if _, err := s.history.InsertMany(ctx, docs); err != nil {
		log.Warn().Err(err).Msg("Failed to append trend history")
	}

	log.Info().Int("count", len(trends)).Msg("Active trends replaced")
	return nil
}

// ActiveTrends returns the active table ordered by rank.
func (s *MongoStore) ActiveTrends(ctx context.Context) ([]models.ActiveTrend, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rank", Value: 1}})
	cursor, err := s.active.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find active trends: %w", err)
	}
	defer cursor.Close(ctx)

	trends := []models.ActiveTrend{}
	if err := cursor.All(ctx, &trends); err != nil {
		return nil, fmt.Errorf("decode active trends: %w", err)
	}
	return trends, nil
}

// TrendByRank returns one active row.
func (s *MongoStore) TrendByRank(ctx context.Context, rank int) (*models.ActiveTrend, error) {
	var trend models.ActiveTrend
	err := s.active.FindOne(ctx, bson.M{"rank": rank}).Decode(&trend)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find trend rank %d: %w", rank, err)
	}
	return &trend, nil
}

// KeywordHistory returns the most recent persisted rows for a keyword.
func (s *MongoStore) KeywordHistory(ctx context.Context, keyword string, limit int) ([]models.ActiveTrend, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.history.Find(ctx, bson.M{"keyword": keyword}, opts)
	if err != nil {
		return nil, fmt.Errorf("find keyword history: %w", err)
	}
	defer cursor.Close(ctx)

	rows := []models.ActiveTrend{}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode keyword history: %w", err)
	}
	return rows, nil
}
