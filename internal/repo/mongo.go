package repo

import (
	"context"
	"errors"
	"fmt"

	dom "todoevents/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const mongoCollection = "todos"

type mongoTodo struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	CreatedAt   string             `bson:"createdAt"`
	UpdatedAt   string             `bson:"updatedAt"`
}

func (d mongoTodo) toDomain() dom.Todo {
	return dom.Todo{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoTodoRepo implements TodoRepo on a MongoDB collection keyed by ObjectID.
type MongoTodoRepo struct {
	coll *mongo.Collection
}

// NewMongoClient connects and pings the deployment at uri.
func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func NewMongoTodoRepo(db *mongo.Database) *MongoTodoRepo {
	return &MongoTodoRepo{coll: db.Collection(mongoCollection)}
}

func (r *MongoTodoRepo) FindAll(ctx context.Context) ([]dom.Todo, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []mongoTodo
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	list := make([]dom.Todo, len(docs))
	for i, d := range docs {
		list[i] = d.toDomain()
	}
	return list, nil
}

func (r *MongoTodoRepo) FindByID(ctx context.Context, id string) (*dom.Todo, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, nil
	}
	var d mongoTodo
	err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d)
	return decoded(d, err)
}

func (r *MongoTodoRepo) Insert(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	d := mongoTodo{
		ID:          primitive.NewObjectID(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return dom.Todo{}, err
	}
	return d.toDomain(), nil
}

func (r *MongoTodoRepo) UpdateByID(ctx context.Context, id string, patch dom.Patch) (*dom.Todo, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, nil
	}
	set := patchSet(patch)
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d mongoTodo
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&d)
	return decoded(d, err)
}

func (r *MongoTodoRepo) DeleteByID(ctx context.Context, id string) (*dom.Todo, error) {
	oid, ok := parseObjectID(id)
	if !ok {
		return nil, nil
	}
	var d mongoTodo
	err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d)
	return decoded(d, err)
}

// parseObjectID reports false for ids that cannot name a document.
func parseObjectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func patchSet(p dom.Patch) bson.M {
	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.Completed != nil {
		set["completed"] = *p.Completed
	}
	if p.UpdatedAt != "" {
		set["updatedAt"] = p.UpdatedAt
	}
	return set
}

func decoded(d mongoTodo, err error) (*dom.Todo, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := d.toDomain()
	return &t, nil
}
