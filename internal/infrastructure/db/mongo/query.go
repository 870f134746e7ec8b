package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nameCollation matches names case-insensitively. It must stay identical to
// the collation of the uniq_name indexes so lookups and the index agree.
var nameCollation = &options.Collation{Locale: "en", Strength: 2}

// parseID reports false for anything that is not a hex ObjectID. Callers
// treat that as "no such document".
func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// parseIDs drops malformed ids.
func parseIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := parseID(id); ok {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}

// activeFilter matches documents whose active flag is not explicitly false,
// so documents written before the flag existed count as active.
func activeFilter(includeInactive bool) bson.M {
	if includeInactive {
		return bson.M{}
	}
	return bson.M{"active": bson.M{"$ne": false}}
}

// isActive maps a stored flag to the domain value. A missing flag is active.
func isActive(flag *bool) bool {
	return flag == nil || *flag
}

func newestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

// findByID decodes the document with the given id into out.
func findByID(ctx context.Context, col *mongo.Collection, id string, out interface{}, notFound error) error {
	oid, ok := parseID(id)
	if !ok {
		return notFound
	}
	return findOne(ctx, col, bson.M{"_id": oid}, out, notFound, nil)
}

func findOne(ctx context.Context, col *mongo.Collection, filter bson.M, out interface{}, notFound error, opts *options.FindOneOptions) error {
	if opts == nil {
		opts = options.FindOne()
	}
	if err := col.FindOne(ctx, filter, opts).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return notFound
		}
		return fmt.Errorf("%s find: %w", col.Name(), err)
	}
	return nil
}

func findMany(ctx context.Context, col *mongo.Collection, filter bson.M, out interface{}, opts ...*options.FindOptions) error {
	cursor, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return fmt.Errorf("%s find: %w", col.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("%s decode: %w", col.Name(), err)
	}
	return nil
}

// existsByName counts documents with a case-insensitively equal name,
// ignoring excludeID.
func existsByName(ctx context.Context, col *mongo.Collection, name, excludeID string) (bool, error) {
	filter := bson.M{"name": name}
	if oid, ok := parseID(excludeID); ok {
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := col.CountDocuments(ctx, filter, options.Count().SetCollation(nameCollation).SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("%s count: %w", col.Name(), err)
	}
	return n > 0, nil
}

// updateFields applies $set with the supplied fields plus updatedAt and
// decodes the updated document into out.
func updateFields(ctx context.Context, col *mongo.Collection, id string, set bson.M, out interface{}, notFound, duplicate error) error {
	oid, ok := parseID(id)
	if !ok {
		return notFound
	}
	set["updatedAt"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(out)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return notFound
	case mongo.IsDuplicateKeyError(err):
		return duplicate
	default:
		return fmt.Errorf("%s update: %w", col.Name(), err)
	}
}

func setActive(ctx context.Context, col *mongo.Collection, id string, active bool, notFound error) error {
	oid, ok := parseID(id)
	if !ok {
		return notFound
	}
	res, err := col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"active":    active,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("%s set active: %w", col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

// setActiveMany returns the number of matched documents, so repeating a
// soft delete reports the same count.
func setActiveMany(ctx context.Context, col *mongo.Collection, filter bson.M, active bool) (int64, error) {
	res, err := col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{
		"active":    active,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return 0, fmt.Errorf("%s set active: %w", col.Name(), err)
	}
	return res.MatchedCount, nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id string, notFound error) error {
	oid, ok := parseID(id)
	if !ok {
		return notFound
	}
	res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("%s delete: %w", col.Name(), err)
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}

func deleteMany(ctx context.Context, col *mongo.Collection, filter bson.M) (int64, error) {
	res, err := col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("%s delete: %w", col.Name(), err)
	}
	return res.DeletedCount, nil
}

// insert stores doc and returns the generated id. A nil duplicate leaves
// duplicate-key errors wrapped like any other failure.
func insert(ctx context.Context, col *mongo.Collection, doc interface{}, duplicate error) (primitive.ObjectID, error) {
	res, err := col.InsertOne(ctx, doc)
	if err != nil {
		if duplicate != nil && mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, duplicate
		}
		return primitive.NilObjectID, fmt.Errorf("%s insert: %w", col.Name(), err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("%s insert: unexpected id type %T", col.Name(), res.InsertedID)
	}
	return oid, nil
}
