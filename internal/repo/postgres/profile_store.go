package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/neopath7/pethoria-matchpage-server/internal/domain/enums"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/errs"
	"github.com/neopath7/pethoria-matchpage-server/internal/domain/model"
	"github.com/neopath7/pethoria-matchpage-server/internal/services/geo"
)

const defaultTimeout = 3 * time.Second

const distanceSQL = `
	$2::float8 * ACOS(LEAST(1.0, GREATEST(-1.0,
		COS(RADIANS($3::float8)) * COS(RADIANS(p.lat)) * COS(RADIANS(p.lon) - RADIANS($4::float8))
		+ SIN(RADIANS($3::float8)) * SIN(RADIANS(p.lat))
	)))`

type ProfileStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewProfileStore(pool *pgxpool.Pool, timeout time.Duration) *ProfileStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ProfileStore{pool: pool, timeout: timeout}
}

func (s *ProfileStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
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

	batch := profileWriteBatch(profile, time.Now().UTC())
	err := WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		for _, st := range batch {
			if _, err := tx.Exec(ctx, st.sql, st.args...); err != nil {
				return fmt.Errorf("%s: %w", st.what, err)
			}
		}
		return nil
	})
	if err != nil {
		return wrapErr("upsert profile", err)
	}
	return nil
}

type statement struct {
	what string
	sql  string
	args []any
}

// profileWriteBatch replaces every row owned by the profile, matching the
// whole-document replace of the other stores. Running it twice leaves the
// same rows behind.
func profileWriteBatch(profile model.Profile, now time.Time) []statement {
	var lat, lon *float64
	var city, state, address string
	if profile.Location != nil {
		lat, lon = &profile.Location.Lat, &profile.Location.Lon
		city, state, address = profile.Location.City, profile.Location.State, profile.Location.Address
	}
	createdAt := profile.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	batch := []statement{{
		what: "upsert profile row",
		sql: `
INSERT INTO profiles (id, owner_name, verified, lat, lon, city, state, address, last_active_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE SET
	owner_name = EXCLUDED.owner_name,
	verified = EXCLUDED.verified,
	lat = EXCLUDED.lat,
	lon = EXCLUDED.lon,
	city = EXCLUDED.city,
	state = EXCLUDED.state,
	address = EXCLUDED.address,
	last_active_at = EXCLUDED.last_active_at
`,
		args: []any{profile.ID, profile.OwnerName, profile.Verified, lat, lon, city, state, address, profile.LastActiveAt.UTC(), createdAt.UTC()},
	}}

	batch = append(batch,
		statement{what: "clear pets", sql: `DELETE FROM pets WHERE profile_id = $1`, args: []any{profile.ID}},
		statement{what: "clear swipes", sql: `DELETE FROM swipes WHERE actor_id = $1`, args: []any{profile.ID}},
		statement{what: "clear matches", sql: `DELETE FROM matches WHERE profile_id = $1`, args: []any{profile.ID}},
	)

	for i, pet := range profile.Pets {
		images := pet.Images
		if images == nil {
			images = []string{}
		}
		batch = append(batch, statement{
			what: "insert pet " + pet.ID,
			sql: `
INSERT INTO pets (profile_id, id, position, name, type, breed, birth_date, age_years, description, images, active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`,
			args: []any{profile.ID, pet.ID, i, pet.Name, pet.Type, pet.Breed, pet.BirthDate, pet.AgeYears, pet.Description, images, pet.Active},
		})
	}
	for _, entry := range profile.SwipeHistory {
		batch = append(batch, statement{
			what: "insert swipe",
			sql: `
INSERT INTO swipes (actor_id, target_id, pet_id, decision, created_at)
VALUES ($1, $2, $3, $4, $5)
`,
			args: []any{profile.ID, entry.TargetID, entry.PetID, string(entry.Decision), entry.Timestamp.UTC()},
		})
	}
	for _, entry := range profile.Matches {
		batch = append(batch, statement{
			what: "insert match",
			sql: `
INSERT INTO matches (profile_id, matched_profile_id, created_at, active)
VALUES ($1, $2, $3, $4)
ON CONFLICT DO NOTHING
`,
			args: []any{profile.ID, entry.MatchedProfileID, entry.Timestamp.UTC(), entry.Active},
		})
	}
	return batch
}

func (s *ProfileStore) GetProfile(ctx context.Context, id string) (model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.loadProfiles(ctx, []string{id})
	if err != nil {
		return model.Profile{}, wrapErr("get profile", err)
	}
	if len(profiles) == 0 {
		return model.Profile{}, errs.ErrNotFound
	}
	return profiles[0], nil
}

func (s *ProfileStore) GetProfiles(ctx context.Context, ids []string) (map[string]model.Profile, error) {
	out := make(map[string]model.Profile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profiles, err := s.loadProfiles(ctx, ids)
	if err != nil {
		return nil, wrapErr("get profiles", err)
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func (s *ProfileStore) FindNear(ctx context.Context, q model.NearQuery) ([]model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	exclude := q.ExcludeIDs
	if exclude == nil {
		exclude = []string{}
	}

	rows, err := s.pool.Query(ctx, `
SELECT p.id
FROM profiles p
WHERE p.lat IS NOT NULL
	AND p.lon IS NOT NULL
	AND p.last_active_at >= $1
	AND NOT (p.id = ANY($5::text[]))
	AND `+distanceSQL+` <= $6::float8
ORDER BY `+distanceSQL+` ASC, p.id ASC
LIMIT $7
`, q.ActiveSince.UTC(), geo.EarthRadiusMeters, q.Center.Lat, q.Center.Lon, exclude, q.MaxMeters, limit)
	if err != nil {
		return nil, wrapErr("find near", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, wrapErr("find near", err)
	}

	profiles, err := s.loadProfiles(ctx, ids)
	if err != nil {
		return nil, wrapErr("find near", err)
	}
	return profiles, nil
}

func (s *ProfileStore) FindByPredicate(ctx context.Context, q model.PredicateQuery) ([]model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query, args := predicateSQL(q)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("find by predicate", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, wrapErr("find by predicate", err)
	}

	profiles, err := s.loadProfiles(ctx, ids)
	if err != nil {
		return nil, wrapErr("find by predicate", err)
	}
	return profiles, nil
}

func (s *ProfileStore) AppendSwipe(ctx context.Context, profileID string, entry model.SwipeEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
UPDATE profiles SET last_active_at = GREATEST(last_active_at, $2)
WHERE id = $1
`, profileID, entry.Timestamp.UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errs.ErrNotFound
		}

		_, err = tx.Exec(ctx, `
INSERT INTO swipes (actor_id, target_id, pet_id, decision, created_at)
VALUES ($1, $2, $3, $4, $5)
`, profileID, entry.TargetID, entry.PetID, string(entry.Decision), entry.Timestamp.UTC())
		return err
	})
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return err
		}
		return wrapErr("append swipe", err)
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

	var found bool
	err := s.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1 FROM swipes
	WHERE actor_id = $1 AND target_id = $2 AND decision = ANY($3::text[])
)
`, ownerID, targetID, values).Scan(&found)
	if err != nil {
		return false, wrapErr("has swiped", err)
	}
	return found, nil
}

// AppendMatch relies on the partial unique index over active pairs, so a
// concurrent duplicate insert becomes a no-op.
func (s *ProfileStore) AppendMatch(ctx context.Context, profileID string, entry model.MatchEntry) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
INSERT INTO matches (profile_id, matched_profile_id, created_at, active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (profile_id, matched_profile_id) WHERE active DO NOTHING
`, profileID, entry.MatchedProfileID, entry.Timestamp.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, errs.ErrNotFound
		}
		return false, wrapErr("append match", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ProfileStore) DeactivateMatch(ctx context.Context, profileID, targetID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
UPDATE matches SET active = FALSE
WHERE profile_id = $1 AND matched_profile_id = $2 AND active
`, profileID, targetID)
	if err != nil {
		return false, wrapErr("deactivate match", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *ProfileStore) FindMatchedBy(ctx context.Context, profileID string) ([]model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT profile_id FROM matches
WHERE matched_profile_id = $1 AND active
ORDER BY profile_id
`, profileID)
	if err != nil {
		return nil, wrapErr("find matched by", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return nil, wrapErr("find matched by", err)
	}

	profiles, err := s.loadProfiles(ctx, ids)
	if err != nil {
		return nil, wrapErr("find matched by", err)
	}
	return profiles, nil
}

func (s *ProfileStore) SaveLocation(ctx context.Context, profileID string, loc model.Location, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
UPDATE profiles
SET lat = $2, lon = $3, city = $4, state = $5, address = $6,
	last_active_at = GREATEST(last_active_at, $7)
WHERE id = $1
`, profileID, loc.Lat, loc.Lon, loc.City, loc.State, loc.Address, at.UTC())
	if err != nil {
		return wrapErr("save location", err)
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// loadProfiles hydrates profiles in the order of ids.
func (s *ProfileStore) loadProfiles(ctx context.Context, ids []string) ([]model.Profile, error) {
	if len(ids) == 0 {
		return []model.Profile{}, nil
	}

	byID := make(map[string]*model.Profile, len(ids))
	rows, err := s.pool.Query(ctx, `
SELECT id, owner_name, verified, lat, lon, city, state, address, last_active_at, created_at
FROM profiles
WHERE id = ANY($1::text[])
`, ids)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	for rows.Next() {
		var (
			p        model.Profile
			lat, lon *float64
			loc      model.Location
		)
		if err := rows.Scan(&p.ID, &p.OwnerName, &p.Verified, &lat, &lon, &loc.City, &loc.State, &loc.Address, &p.LastActiveAt, &p.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		if lat != nil && lon != nil {
			loc.Lat, loc.Lon = *lat, *lon
			p.Location = &loc
		}
		p.LastActiveAt = p.LastActiveAt.UTC()
		p.CreatedAt = p.CreatedAt.UTC()
		p.Pets = []model.Pet{}
		p.SwipeHistory = []model.SwipeEntry{}
		p.Matches = []model.MatchEntry{}
		byID[p.ID] = &p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	if err := s.loadPets(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := s.loadSwipes(ctx, ids, byID); err != nil {
		return nil, err
	}
	if err := s.loadMatches(ctx, ids, byID); err != nil {
		return nil, err
	}

	out := make([]model.Profile, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *ProfileStore) loadPets(ctx context.Context, ids []string, byID map[string]*model.Profile) error {
	rows, err := s.pool.Query(ctx, `
SELECT profile_id, id, name, type, breed, birth_date, age_years, description, images, active
FROM pets
WHERE profile_id = ANY($1::text[])
ORDER BY profile_id, position
`, ids)
	if err != nil {
		return fmt.Errorf("query pets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			profileID string
			pet       model.Pet
		)
		if err := rows.Scan(&profileID, &pet.ID, &pet.Name, &pet.Type, &pet.Breed, &pet.BirthDate, &pet.AgeYears, &pet.Description, &pet.Images, &pet.Active); err != nil {
			return fmt.Errorf("scan pet: %w", err)
		}
		if p, ok := byID[profileID]; ok {
			p.Pets = append(p.Pets, pet)
		}
	}
	return rows.Err()
}

func (s *ProfileStore) loadSwipes(ctx context.Context, ids []string, byID map[string]*model.Profile) error {
	rows, err := s.pool.Query(ctx, `
SELECT actor_id, target_id, pet_id, decision, created_at
FROM swipes
WHERE actor_id = ANY($1::text[])
ORDER BY actor_id, id
`, ids)
	if err != nil {
		return fmt.Errorf("query swipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			actorID  string
			entry    model.SwipeEntry
			decision string
		)
		if err := rows.Scan(&actorID, &entry.TargetID, &entry.PetID, &decision, &entry.Timestamp); err != nil {
			return fmt.Errorf("scan swipe: %w", err)
		}
		entry.Decision = enums.Decision(decision)
		entry.Timestamp = entry.Timestamp.UTC()
		if p, ok := byID[actorID]; ok {
			p.SwipeHistory = append(p.SwipeHistory, entry)
		}
	}
	return rows.Err()
}

func (s *ProfileStore) loadMatches(ctx context.Context, ids []string, byID map[string]*model.Profile) error {
	rows, err := s.pool.Query(ctx, `
SELECT profile_id, matched_profile_id, created_at, active
FROM matches
WHERE profile_id = ANY($1::text[])
ORDER BY profile_id, id
`, ids)
	if err != nil {
		return fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			profileID string
			entry     model.MatchEntry
		)
		if err := rows.Scan(&profileID, &entry.MatchedProfileID, &entry.Timestamp, &entry.Active); err != nil {
			return fmt.Errorf("scan match: %w", err)
		}
		entry.Timestamp = entry.Timestamp.UTC()
		if p, ok := byID[profileID]; ok {
			p.Matches = append(p.Matches, entry)
		}
	}
	return rows.Err()
}

// predicateSQL builds the profile id query for a PredicateQuery. Geo queries
// are ordered nearest-first, others by recency.
func predicateSQL(q model.PredicateQuery) (string, []any) {
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where := []string{"TRUE"}
	order := "p.last_active_at DESC, p.id ASC"

	if q.HasGeo() {
		r := arg(geo.EarthRadiusMeters)
		lat := arg(q.Center.Lat)
		lon := arg(q.Center.Lon)
		distance := fmt.Sprintf(`%s::float8 * ACOS(LEAST(1.0, GREATEST(-1.0,
		COS(RADIANS(%s::float8)) * COS(RADIANS(p.lat)) * COS(RADIANS(p.lon) - RADIANS(%s::float8))
		+ SIN(RADIANS(%s::float8)) * SIN(RADIANS(p.lat)))))`, r, lat, lon, lat)
		where = append(where, "p.lat IS NOT NULL AND p.lon IS NOT NULL")
		where = append(where, fmt.Sprintf("%s <= %s::float8", distance, arg(q.MaxMeters)))
		order = distance + " ASC, p.id ASC"
	}
	if q.City != "" {
		where = append(where, fmt.Sprintf("LOWER(p.city) = LOWER(%s)", arg(q.City)))
	}
	if q.State != "" {
		where = append(where, fmt.Sprintf("LOWER(p.state) = LOWER(%s)", arg(q.State)))
	}
	if !q.ActiveSince.IsZero() {
		where = append(where, fmt.Sprintf("p.last_active_at >= %s", arg(q.ActiveSince.UTC())))
	}
	if len(q.ExcludeIDs) > 0 {
		where = append(where, fmt.Sprintf("NOT (p.id = ANY(%s::text[]))", arg(q.ExcludeIDs)))
	}
	if q.PetType != "" || q.Breed != "" {
		pet := []string{"pt.profile_id = p.id", "pt.active"}
		if q.PetType != "" {
			pet = append(pet, fmt.Sprintf("LOWER(pt.type) = LOWER(%s)", arg(q.PetType)))
		}
		if q.Breed != "" {
			pet = append(pet, fmt.Sprintf("pt.breed ILIKE '%%' || %s || '%%'", arg(escapeLike(q.Breed))))
		}
		where = append(where, "EXISTS (SELECT 1 FROM pets pt WHERE "+strings.Join(pet, " AND ")+")")
	}

	query := "SELECT p.id FROM profiles p WHERE " + strings.Join(where, " AND ") + " ORDER BY " + order
	if q.Limit > 0 {
		query += " LIMIT " + arg(q.Limit)
	}
	return query, args
}

func escapeLike(v string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(v)
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return errs.Unavailable(fmt.Errorf("postgres %s: %w", op, err))
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return errs.Unavailable(fmt.Errorf("postgres %s: %w", op, err))
	}
	return fmt.Errorf("postgres %s: %w", op, err)
}
