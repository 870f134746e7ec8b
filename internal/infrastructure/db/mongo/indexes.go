package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const migrateTimeout = 30 * time.Second

// Server error codes tolerated while dropping indexes.
const (
	codeNamespaceNotFound = 26
	codeIndexNotFound     = 27
)

// indexSpec is the canonical definition of one index.
type indexSpec struct {
	collection  string
	name        string
	keys        bson.D
	unique      bool
	caseFolding bool // collation {locale: en, strength: 2}
}

func (s indexSpec) model() mongo.IndexModel {
	opts := options.Index().SetName(s.name)
	if s.unique {
		opts.SetUnique(true)
	}
	if s.caseFolding {
		opts.SetCollation(nameCollation)
	}
	return mongo.IndexModel{Keys: s.keys, Options: opts}
}

// canonicalIndexes lists every index the service relies on. Names are
// unique per collection only.
var canonicalIndexes = []indexSpec{
	{collection: collectionCategories, name: "uniq_name", keys: bson.D{{Key: "name", Value: 1}}, unique: true, caseFolding: true},
	{collection: collectionSubcategories, name: "uniq_name", keys: bson.D{{Key: "name", Value: 1}}, unique: true, caseFolding: true},
	{collection: collectionSubcategories, name: "category", keys: bson.D{{Key: "category", Value: 1}}},
	{collection: collectionProducts, name: "uniq_name", keys: bson.D{{Key: "name", Value: 1}}, unique: true, caseFolding: true},
	{collection: collectionProducts, name: "category", keys: bson.D{{Key: "category", Value: 1}}},
	{collection: collectionProducts, name: "subCategory", keys: bson.D{{Key: "subCategory", Value: 1}}},
	{collection: collectionUsers, name: "uniq_username", keys: bson.D{{Key: "username", Value: 1}}, unique: true},
	{collection: collectionUsers, name: "uniq_email", keys: bson.D{{Key: "email", Value: 1}}, unique: true},
	{collection: collectionCascadeAudits, name: "at", keys: bson.D{{Key: "at", Value: -1}}},
}

// existingIndex is the subset of listIndexes output the migrator compares.
type existingIndex struct {
	Name      string `bson:"name"`
	Key       bson.D `bson:"key"`
	Unique    bool   `bson:"unique"`
	Collation *struct {
		Locale   string `bson:"locale"`
		Strength int    `bson:"strength"`
	} `bson:"collation"`
}

// matches reports whether an index already satisfies spec exactly.
func (e existingIndex) matches(spec indexSpec) bool {
	if e.Name != spec.name || e.Unique != spec.unique || !sameKeys(e.Key, spec.keys) {
		return false
	}
	folded := e.Collation != nil && e.Collation.Locale == nameCollation.Locale && e.Collation.Strength == nameCollation.Strength
	return folded == spec.caseFolding
}

// MigrationReport lists what a migration changed.
type MigrationReport struct {
	Dropped []string `json:"dropped"`
	Created []string `json:"created"`
}

// IndexMigrator reconciles collection indexes with canonicalIndexes. An
// index on a canonical key set that differs in name, uniqueness or
// collation is dropped and rebuilt, which removes legacy indexes such as a
// case-sensitive name_1. Running it again is a no-op.
type IndexMigrator struct {
	db  *mongo.Database
	log zerolog.Logger
}

func NewIndexMigrator(db *mongo.Database, log zerolog.Logger) *IndexMigrator {
	return &IndexMigrator{db: db, log: log}
}

func (m *IndexMigrator) Migrate(ctx context.Context) (*MigrationReport, error) {
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	report := &MigrationReport{}
	for _, coll := range collectionsOf(canonicalIndexes) {
		specs := specsFor(coll)
		col := m.db.Collection(coll)

		existing, err := m.list(ctx, col)
		if err != nil {
			return report, err
		}

		var missing []mongo.IndexModel
		for _, idx := range stale(existing, specs) {
			if err := m.drop(ctx, col, idx); err != nil {
				return report, err
			}
			report.Dropped = append(report.Dropped, coll+"."+idx)
		}
		for _, spec := range specs {
			if !present(existing, spec) {
				missing = append(missing, spec.model())
				report.Created = append(report.Created, coll+"."+spec.name)
			}
		}
		if len(missing) == 0 {
			continue
		}
		if _, err := col.Indexes().CreateMany(ctx, missing); err != nil {
			return report, fmt.Errorf("create indexes on %s: %w", coll, err)
		}
	}

	m.log.Info().
		Strs("dropped", report.Dropped).
		Strs("created", report.Created).
		Msg("index migration finished")
	return report, nil
}

func (m *IndexMigrator) list(ctx context.Context, col *mongo.Collection) ([]existingIndex, error) {
	cursor, err := col.Indexes().List(ctx)
	if err != nil {
		if isIgnorable(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list indexes on %s: %w", col.Name(), err)
	}
	var out []existingIndex
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode indexes on %s: %w", col.Name(), err)
	}
	return out, nil
}

func (m *IndexMigrator) drop(ctx context.Context, col *mongo.Collection, name string) error {
	if _, err := col.Indexes().DropOne(ctx, name); err != nil && !isIgnorable(err) {
		return fmt.Errorf("drop index %s on %s: %w", name, col.Name(), err)
	}
	m.log.Warn().Str("collection", col.Name()).Str("index", name).Msg("dropped non-canonical index")
	return nil
}

// stale returns the names of indexes that cover a canonical key set but do
// not match its definition, plus any index squatting on a canonical name.
func stale(existing []existingIndex, specs []indexSpec) []string {
	var out []string
	for _, idx := range existing {
		if idx.Name == "_id_" {
			continue
		}
		for _, spec := range specs {
			if (sameKeys(idx.Key, spec.keys) || idx.Name == spec.name) && !idx.matches(spec) {
				out = append(out, idx.Name)
				break
			}
		}
	}
	return out
}

func present(existing []existingIndex, spec indexSpec) bool {
	for _, idx := range existing {
		if idx.matches(spec) {
			return true
		}
	}
	return false
}

// sameKeys compares key order, field names and direction. listIndexes may
// report directions as int32, int64 or double.
func sameKeys(a, b bson.D) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key {
			return false
		}
		av, aok := direction(a[i].Value)
		bv, bok := direction(b[i].Value)
		if !aok || !bok || av != bv {
			return false
		}
	}
	return true
}

func direction(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func isIgnorable(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == codeNamespaceNotFound || cmdErr.Code == codeIndexNotFound
	}
	return false
}

func collectionsOf(specs []indexSpec) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range specs {
		if !seen[s.collection] {
			seen[s.collection] = true
			out = append(out, s.collection)
		}
	}
	return out
}

func specsFor(collection string) []indexSpec {
	var out []indexSpec
	for _, s := range canonicalIndexes {
		if s.collection == collection {
			out = append(out, s)
		}
	}
	return out
}
