package archive

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/campaignkit/pkg/campaign"
	"github.com/matzehuels/campaignkit/pkg/errors"
)

// MongoConfig configures a MongoArchive.
type MongoConfig struct {
	URI        string
	Database   string // default "campaignkit"
	Collection string // default "campaigns"
	Timeout    time.Duration
}

// MongoArchive stores records as documents keyed by record id.
type MongoArchive struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoArchive connects to cfg.URI and ensures the timestamp index exists.
func NewMongoArchive(ctx context.Context, cfg MongoConfig) (*MongoArchive, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongodb uri is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "campaignkit"
	}
	if cfg.Collection == "" {
		cfg.Collection = "campaigns"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}},
	})
	if err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "create campaigns index")
	}
	return &MongoArchive{client: client, coll: coll}, nil
}

func (a *MongoArchive) Append(ctx context.Context, rec campaign.Record) error {
	if err := validateRecord(rec); err != nil {
		return err
	}
	rec.Timestamp = rec.Timestamp.UTC()
	if _, err := a.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return conflict(rec.ID)
		}
		return errors.Wrap(errors.ErrCodeStorage, err, "insert campaign %s", rec.ID)
	}
	return nil
}

func (a *MongoArchive) List(ctx context.Context) ([]campaign.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := a.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list campaigns")
	}
	var out []campaign.Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode campaigns")
	}
	for i := range out {
		out[i].Timestamp = out[i].Timestamp.UTC()
	}
	return out, nil
}

func (a *MongoArchive) Get(ctx context.Context, id string) (campaign.Record, error) {
	var rec campaign.Record
	err := a.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if stderrors.Is(err, mongo.ErrNoDocuments) {
			return campaign.Record{}, notFound(id)
		}
		return campaign.Record{}, errors.Wrap(errors.ErrCodeStorage, err, "get campaign %s", id)
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}

func (a *MongoArchive) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.client.Disconnect(ctx)
}

var _ Archive = (*MongoArchive)(nil)
