package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// CreatedAtLayout is how self-hosted rows stamp created_at. Fixed width keeps the
// strings in chronological order when Mongo sorts them.
const CreatedAtLayout = "2006-01-02T15:04:05.000000Z07:00"

// MongoRows serves backend.Rows from a MongoDB database, one collection per table.
type MongoRows struct {
	db  *mongo.Database
	now func() time.Time
}

// NewMongoRows creates a MongoRows over db.
func NewMongoRows(db *mongo.Database) *MongoRows {
	return &MongoRows{db: db, now: time.Now}
}

var _ backend.Rows = (*MongoRows)(nil)

// List decodes every document of table into dest.
func (r *MongoRows) List(ctx context.Context, table string, opts backend.ListOptions, dest any) error {
	findOpts := options.Find()
	if opts.OrderBy != "" {
		dir := -1
		if opts.Ascending {
			dir = 1
		}
		sort := bson.D{{Key: opts.OrderBy, Value: dir}}
		if opts.OrderBy != "_id" {
			sort = append(sort, bson.E{Key: "_id", Value: dir})
		}
		findOpts.SetSort(sort)
	}

	cursor, err := r.db.Collection(table).Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return fmt.Errorf("error listing %s: %w", table, err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, dest); err != nil {
		return fmt.Errorf("error decoding %s: %w", table, err)
	}
	return nil
}

// Insert stores row. A missing _id is generated (retrying on collision) and a missing
// created_at is stamped with the current time.
func (r *MongoRows) Insert(ctx context.Context, table string, row any) error {
	doc, err := toDocument(row)
	if err != nil {
		return err
	}
	if _, ok := doc["created_at"]; !ok {
		doc["created_at"] = r.now().UTC().Format(CreatedAtLayout)
	}

	collection := r.db.Collection(table)
	if _, ok := doc["_id"]; ok {
		if _, err := collection.InsertOne(ctx, doc); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
		return nil
	}

	operation := func() error {
		doc["_id"] = utils.NewRowID()
		_, insertErr := collection.InsertOne(ctx, doc)
		return insertErr
	}
	if err := Try(operation); err != nil {
		return fmt.Errorf("failed to insert into %s (last attempted id: %v) after multiple retries: %w", table, doc["_id"], err)
	}
	return nil
}

func toDocument(row any) (bson.M, error) {
	raw, err := bson.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to encode row: %w", err)
	}
	return doc, nil
}
