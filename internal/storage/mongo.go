package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"coursebook/internal/codec"
	"coursebook/internal/domain"
)

const (
	mongoCollection = "documents"
	mongoTimeout    = 10 * time.Second
)

// mongoDocument is the stored shape. The body is kept as document JSON so
// the same fail-soft decoding applies as for SQL stores.
type mongoDocument struct {
	ID        string    `bson:"_id"`
	Title     string    `bson:"title"`
	Body      string    `bson:"body"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoDocumentStore implements domain.DocumentStore on MongoDB.
type MongoDocumentStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	codec  *codec.Codec
}

// OpenMongo connects to uri and uses the documents collection of database.
func OpenMongo(uri, database string, c *codec.Codec) (*MongoDocumentStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoDocumentStore{
		client: client,
		coll:   client.Database(database).Collection(mongoCollection),
		codec:  c,
	}, nil
}

func (s *MongoDocumentStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoDocumentStore) CreateDocument(d *domain.Document) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	doc, err := s.toMongo(d)
	if err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

func (s *MongoDocumentStore) GetDocument(id string) (*domain.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	var doc mongoDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", id, err)
	}
	return s.fromMongo(doc), nil
}

func (s *MongoDocumentStore) ListDocuments() ([]domain.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer cur.Close(ctx)

	var docs []domain.Document
	for cur.Next(ctx) {
		var doc mongoDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("list documents: %w", err)
		}
		docs = append(docs, *s.fromMongo(doc))
	}
	return docs, cur.Err()
}

func (s *MongoDocumentStore) UpdateDocument(d *domain.Document) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	d.UpdatedAt = time.Now().UTC()
	body, err := s.codec.Serialize(d.Body)
	if err != nil {
		return err
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: d.ID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "title", Value: d.Title},
			{Key: "body", Value: string(body)},
			{Key: "updatedAt", Value: d.UpdatedAt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("update document %s: %w", d.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update document %s: %w", d.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *MongoDocumentStore) DeleteDocument(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("delete document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *MongoDocumentStore) toMongo(d *domain.Document) (mongoDocument, error) {
	body, err := s.codec.Serialize(d.Body)
	if err != nil {
		return mongoDocument{}, err
	}
	return mongoDocument{
		ID:        d.ID,
		Title:     d.Title,
		Body:      string(body),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func (s *MongoDocumentStore) fromMongo(doc mongoDocument) *domain.Document {
	body, err := s.codec.Deserialize([]byte(doc.Body))
	if err != nil {
		body = domain.NewBody()
	}
	return &domain.Document{
		ID:        doc.ID,
		Title:     doc.Title,
		Body:      body,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}
