package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

const defaultTimeout = 3 * time.Second

type ProfileStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewProfileStore(coll *mongo.Collection, timeout time.Duration) *ProfileStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ProfileStore{coll: coll, timeout: timeout}
}

func (s *ProfileStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.coll.Database().Client().Ping(ctx, nil); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

func (s *ProfileStore) UpsertProfile(ctx context.Context, profile model.Profile) error {
	if profile.ID == "" {
		return errs.Invalid("id", "profile id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": profile.ID},
		toProfileDoc(profile),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return wrapErr("upsert profile", err)
	}
	return nil
}

func (s *ProfileStore) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc profileDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Profile{}, errs.ErrNotFound
		}
		return model.Profile{}, wrapErr("get profile", err)
	}
	return doc.toModel(), nil
}

func (s *ProfileStore) GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
	if err != nil {
		return nil, wrapErr("get profiles", err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

// FindNear relies on $nearSphere, which returns documents nearest-first.
func (s *ProfileStore) FindNear(ctx context.Context, q model.NearQuery) ([]model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{
		"location.point": nearSphere(q.Center, q.MaxMeters),
		"last_active_at": bson.M{"$gte": q.ActiveSince.UTC()},
	}
	if len(q.ExcludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": q.ExcludeIDs}
	}

	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	profiles, err := s.find(ctx, filter, opts)
	if err != nil {
		return nil, wrapErr("find near", err)
	}
	return profiles, nil
}

func (s *ProfileStore) FindByPredicate(ctx context.Context, q model.PredicateQuery) ([]model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.find(ctx, predicateFilter(q), limitOpts(q.Limit))
	if err != nil {
		return nil, wrapErr("find by predicate", err)
	}
	return profiles, nil
}

func (s *ProfileStore) AppendSwipe(ctx context.Context, profileID string, entry model.SwipeEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": profileID},
		bson.M{
			"$push": bson.M{"swipe_history": toSwipeDoc(entry)},
			"$max":  bson.M{"last_active_at": entry.Timestamp.UTC()},
		},
	)
	if err != nil {
		return wrapErr("append swipe", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *ProfileStore) HasSwiped(ctx context.Context, ownerID, targetID string, decisions []enums.Decision) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	values := make([]string, 0, len(decisions))
	for _, d := range decisions {
		values = append(values, string(d))
	}

	count, err := s.coll.CountDocuments(ctx, bson.M{
		"_id": ownerID,
		"swipe_history": bson.M{"$elemMatch": bson.M{
			"target_id": targetID,
			"decision":  bson.M{"$in": values},
		}},
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, wrapErr("has swiped", err)
	}
	return count > 0, nil
}

// AppendMatch pushes only while the document holds no active match to the
// same counterpart. The predicate and the push are applied atomically.
func (s *ProfileStore) AppendMatch(ctx context.Context, profileID string, entry model.MatchEntry) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	entry.Active = true
	res, err := s.coll.UpdateOne(ctx,
		bson.M{
			"_id": profileID,
			"matches": bson.M{"$not": bson.M{"$elemMatch": bson.M{
				"matched_profile_id": entry.MatchedProfileID,
				"active":             true,
			}}},
		},
		bson.M{"$push": bson.M{"matches": toMatchDoc(entry)}},
	)
	if err != nil {
		return false, wrapErr("append match", err)
	}
	if res.MatchedCount > 0 {
		return true, nil
	}

	exists, err := s.exists(ctx, profileID)
	if err != nil {
		return false, wrapErr("append match", err)
	}
	if !exists {
		return false, errs.ErrNotFound
	}
	return false, nil
}

func (s *ProfileStore) DeactivateMatch(ctx context.Context, profileID, targetID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": profileID},
		bson.M{"$set": bson.M{"matches.$[m].active": false}},
		options.Update().SetArrayFilters(options.ArrayFilters{Filters: []interface{}{
			bson.M{"m.matched_profile_id": targetID, "m.active": true},
		}}),
	)
	if err != nil {
		return false, wrapErr("deactivate match", err)
	}
	if res.MatchedCount == 0 {
		return false, errs.ErrNotFound
	}
	return res.ModifiedCount > 0, nil
}

func (s *ProfileStore) FindMatchedBy(ctx context.Context, profileID string) ([]model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.find(ctx, bson.M{
		"matches": bson.M{"$elemMatch": bson.M{
			"matched_profile_id": profileID,
			"active":             true,
		}},
	}, options.Find())
	if err != nil {
		return nil, wrapErr("find matched by", err)
	}
	return profiles, nil
}

func (s *ProfileStore) SaveLocation(ctx context.Context, profileID string, loc model.Location, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": profileID},
		bson.M{
			"$set": bson.M{"location": toLocationDoc(loc)},
			"$max": bson.M{"last_active_at": at.UTC()},
		},
	)
	if err != nil {
		return wrapErr("save location", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (s *ProfileStore) exists(ctx context.Context, id string) (bool, error) {
	count, err := s.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ProfileStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Profile, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := make([]model.Profile, 0)
	for cursor.Next(ctx) {
		var doc profileDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		out = append(out, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// mongoSphereMeters is the radius $nearSphere measures GeoJSON distances on.
const mongoSphereMeters = 6378100.0

// nearSphere caps the search at the same angle maxMeters spans on the
// display sphere, so a candidate shown as inside the radius is never cut.
func nearSphere(center model.Point, maxMeters float64) bson.M {
	return bson.M{"$nearSphere": bson.M{
		"$geometry":    newPoint(center.Lat, center.Lon),
		"$maxDistance": maxMeters * mongoSphereMeters / geo.EarthRadiusMeters,
	}}
}

func predicateFilter(q model.PredicateQuery) bson.M {
	filter := bson.M{}
	if q.HasGeo() {
		filter["location.point"] = nearSphere(*q.Center, q.MaxMeters)
	}
	if q.City != "" {
		filter["location.city"] = exactFold(q.City)
	}
	if q.State != "" {
		filter["location.state"] = exactFold(q.State)
	}
	if !q.ActiveSince.IsZero() {
		filter["last_active_at"] = bson.M{"$gte": q.ActiveSince.UTC()}
	}
	if len(q.ExcludeIDs) > 0 {
		filter["_id"] = bson.M{"$nin": q.ExcludeIDs}
	}
	if q.PetType != "" || q.Breed != "" {
		pet := bson.M{"active": true}
		if q.PetType != "" {
			pet["type"] = exactFold(q.PetType)
		}
		if q.Breed != "" {
			pet["breed"] = bson.M{"$regex": regexp.QuoteMeta(q.Breed), "$options": "i"}
		}
		filter["pets"] = bson.M{"$elemMatch": pet}
	}
	return filter
}

func exactFold(value string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(value) + "$", "$options": "i"}
}

func limitOpts(limit int) *options.FindOptions {
	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

// wrapErr maps driver timeouts and network failures to the retryable kind.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return errs.Unavailable(fmt.Errorf("mongo %s: %w", op, err))
	}
	return fmt.Errorf("mongo %s: %w", op, err)
}
