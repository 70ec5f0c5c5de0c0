package cache

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCollection = "archives"

type archive struct {
	Name string `bson:"name"`
	Data []byte `bson:"data"`
}

// Mongo keeps archives in one collection, one document per file.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func OpenMongo(ctx context.Context, mongoUrl string) (*Mongo, error) {
	uri, err := url.Parse(mongoUrl)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoUrl))
	if err != nil {
		return nil, err
	}

	dbName := strings.Trim(uri.Path, "/")
	if dbName == "" {
		dbName = "mnistcsv"
	}

	if c, err := NewMongo(ctx, client.Database(dbName)); err != nil {
		client.Disconnect(ctx)
		return nil, err
	} else {
		return c, nil
	}
}

// NewMongo uses the archives collection of db, creating its name index when
// missing.
func NewMongo(ctx context.Context, db *mongo.Database) (*Mongo, error) {
	if err := EnsureIndex(db, ctx, mongoCollection, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetName("name_1").SetUnique(true),
	}); err != nil {
		return nil, err
	}

	return &Mongo{client: db.Client(), collection: db.Collection(mongoCollection)}, nil
}

func EnsureIndex(db *mongo.Database, ctx context.Context, collectionName string, model mongo.IndexModel) error {
	idxs := db.Collection(collectionName).Indexes()

	if model.Options == nil || model.Options.Name == nil {
		return fmt.Errorf("must provide a name for index")
	}
	expectedName := *model.Options.Name

	cur, err := idxs.List(ctx)
	if err != nil {
		return fmt.Errorf("unable to list indexes: %s", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var d bson.M
		if err := cur.Decode(&d); err != nil {
			return fmt.Errorf("unable to decode bson index document: %s", err)
		}
		if name, ok := d["name"].(string); ok && name == expectedName {
			return nil
		}
	}

	_, err = idxs.CreateOne(ctx, model)
	return err
}

func (c *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	var doc archive
	if err := c.collection.FindOne(ctx, bson.M{"name": key}).Decode(&doc); errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return doc.Data, nil
}

func (c *Mongo) Put(ctx context.Context, key string, value []byte) error {
	_, err := c.collection.UpdateOne(ctx,
		bson.M{"name": key},
		bson.M{"$set": archive{Name: key, Data: value}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (c *Mongo) Close() error {
	return c.client.Disconnect(context.Background())
}
