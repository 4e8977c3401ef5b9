package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/osilexy/minerid-planaria-go/config"
	"github.com/osilexy/minerid-planaria-go/identity"
)

const databaseName = "minerid"

// Collection names
const (
	DocsCollection  = "minerIdDocs"
	StateCollection = "identityState"
)

// Connection is a mongo client
type Connection struct {
	*mongo.Client
}

// Connect establishes a connection to the mongo db
func Connect(ctx context.Context) (*Connection, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.MongoURL))
	if err != nil {
		return nil, err
	}
	return &Connection{client}, nil
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// UpsertRecord stores a verified coinbase document, keyed by its
// coinbase transaction
func (c *Connection) UpsertRecord(rec *identity.Record) error {
	collection := c.Database(databaseName).Collection(DocsCollection)
	ctx, cancel := opCtx()
	defer cancel()

	filter := bson.M{"txid": rec.TxID}
	update := bson.M{"$set": rec}
	opts := options.Update().SetUpsert(true)

	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// GetRecordByHeight returns the verified document recorded for a block
func (c *Connection) GetRecordByHeight(height int32) (*identity.Record, error) {
	collection := c.Database(databaseName).Collection(DocsCollection)
	ctx, cancel := opCtx()
	defer cancel()

	rec := identity.Record{}
	err := collection.FindOne(ctx, bson.M{"blockHeight": height}).Decode(&rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecords pages over stored documents ordered by block height
func (c *Connection) GetRecords(limit int64, skip int64) ([]identity.Record, error) {
	collection := c.Database(databaseName).Collection(DocsCollection)
	ctx, cancel := opCtx()
	defer cancel()

	cur, err := collection.Find(ctx, bson.M{}, &options.FindOptions{
		Skip:  &skip,
		Limit: &limit,
		Sort:  bson.M{"blockHeight": 1},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.Background())

	var records []identity.Record
	for cur.Next(context.Background()) {
		rec := identity.Record{}
		if err = cur.Decode(&rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err = cur.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// BestHeight returns the highest block height a document was recorded at,
// or zero when nothing is stored yet
func (c *Connection) BestHeight() (int32, error) {
	collection := c.Database(databaseName).Collection(DocsCollection)
	ctx, cancel := opCtx()
	defer cancel()

	opts := options.FindOne().SetSort(bson.M{"blockHeight": -1})
	rec := identity.Record{}
	err := collection.FindOne(ctx, bson.M{}, opts).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return rec.BlockHeight, nil
}

// GetIdentityState returns the succession chain holding the given key
func (c *Connection) GetIdentityState(minerID string) (*identity.State, error) {
	collection := c.Database(databaseName).Collection(StateCollection)
	ctx, cancel := opCtx()
	defer cancel()

	filter := bson.M{"keyHistory.minerId": bson.M{"$eq": minerID}}
	state := identity.State{}
	if err := collection.FindOne(ctx, filter).Decode(&state); err != nil {
		return nil, err
	}
	return &state, nil
}

// UpsertIdentityState stores a succession chain keyed by its root key
func (c *Connection) UpsertIdentityState(state *identity.State) error {
	collection := c.Database(databaseName).Collection(StateCollection)
	ctx, cancel := opCtx()
	defer cancel()

	filter := bson.M{"rootMinerId": state.RootMinerID}
	update := bson.M{"$set": bson.M{
		"rootMinerId":    state.RootMinerID,
		"currentMinerId": state.CurrentMinerID,
		"keyHistory":     state.KeyHistory,
	}}
	opts := options.Update().SetUpsert(true)

	_, err := collection.UpdateOne(ctx, filter, update, opts)
	return err
}

// ClearState drops the derived succession-chain collection
func (c *Connection) ClearState() error {
	collection := c.Database(databaseName).Collection(StateCollection)
	ctx, cancel := opCtx()
	defer cancel()
	return collection.Drop(ctx)
}

// GetStateDocs gets a number of documents for a given collection
func (c *Connection) GetStateDocs(collectionName string, limit int64, skip int64, filter bson.M) ([]bson.M, error) {
	collection := c.Database(databaseName).Collection(collectionName)
	ctx, cancel := opCtx()
	defer cancel()

	cur, err := collection.Find(ctx, filter, &options.FindOptions{
		Skip:  &skip,
		Limit: &limit,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(context.Background())

	var docs []bson.M
	for cur.Next(context.Background()) {
		var record bson.M
		if err = cur.Decode(&record); err != nil {
			return nil, err
		}
		docs = append(docs, record)
	}
	if err = cur.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// CountCollectionDocs returns the number of records in a given collection
func (c *Connection) CountCollectionDocs(collectionName string, filter bson.M) (int64, error) {
	collection := c.Database(databaseName).Collection(collectionName)
	ctx, cancel := opCtx()
	defer cancel()

	return collection.CountDocuments(ctx, filter)
}
