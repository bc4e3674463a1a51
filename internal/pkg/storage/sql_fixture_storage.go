package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/footstats/internal/pkg/models"
)

// dialect covers what differs between Postgres and SQLite.
type dialect struct {
	name string
	// numbered placeholders ($1, $2) instead of ?
	numbered bool
	schema   string
}

// sqlFixtureStorage implements FixtureStore on top of database/sql.
// Queries are written with ? and rebound for the dialect.
type sqlFixtureStorage struct {
	db      *sql.DB
	dialect dialect
}

func (s *sqlFixtureStorage) rebind(query string) string {
	if !s.dialect.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlFixtureStorage) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.dialect.schema)
	return err
}

const fixtureColumns = `
	f.id, f.competition_id, f.season, COALESCE(f.round, ''), f.date_utc,
	f.status_short, COALESCE(f.status_long, ''),
	f.home_team_id, f.away_team_id, COALESCE(th.name, ''), COALESCE(ta.name, ''),
	f.goals_home, f.goals_away, f.goals_home_ht, f.goals_away_ht,
	f.corners_home, f.corners_away, f.cards_home, f.cards_away
FROM fixtures f
LEFT JOIN teams th ON th.id = f.home_team_id
LEFT JOIN teams ta ON ta.id = f.away_team_id`

func finishedStatusList() string {
	quoted := make([]string, len(models.FinishedStatuses))
	for i, st := range models.FinishedStatuses {
		quoted[i] = "'" + st + "'"
	}
	return strings.Join(quoted, ", ")
}

func (s *sqlFixtureStorage) FinishedFixtures(ctx context.Context, teamID int64, limit int) ([]models.FixtureRow, error) {
	query := `SELECT ` + fixtureColumns + `
	WHERE (f.home_team_id = ? OR f.away_team_id = ?)
	  AND f.status_short IN (` + finishedStatusList() + `)
	  AND f.goals_home IS NOT NULL AND f.goals_away IS NOT NULL
	ORDER BY f.date_utc DESC, f.id DESC`
	args := []any{teamID, teamID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryFixtures(ctx, query, args...)
}

func (s *sqlFixtureStorage) TeamFixtures(ctx context.Context, teamID int64) ([]models.FixtureRow, error) {
	query := `SELECT ` + fixtureColumns + `
	WHERE f.home_team_id = ? OR f.away_team_id = ?
	ORDER BY f.date_utc DESC, f.id DESC`
	return s.queryFixtures(ctx, query, teamID, teamID)
}

func (s *sqlFixtureStorage) UpcomingFixtures(ctx context.Context, from, to time.Time) ([]models.FixtureRow, error) {
	query := `SELECT ` + fixtureColumns + `
	WHERE f.date_utc >= ? AND f.date_utc < ?
	  AND f.status_short NOT IN (` + finishedStatusList() + `)
	ORDER BY f.date_utc ASC, f.id ASC`
	return s.queryFixtures(ctx, query, from.UTC(), to.UTC())
}

func (s *sqlFixtureStorage) FixturesSince(ctx context.Context, since time.Time) ([]models.FixtureRow, error) {
	query := `SELECT ` + fixtureColumns + `
	WHERE f.date_utc >= ?
	ORDER BY f.date_utc ASC, f.id ASC`
	return s.queryFixtures(ctx, query, since.UTC())
}

func (s *sqlFixtureStorage) queryFixtures(ctx context.Context, query string, args ...any) ([]models.FixtureRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query fixtures: %w", err)
	}
	defer rows.Close()

	var out []models.FixtureRow
	for rows.Next() {
		var (
			f                                        models.FixtureRow
			competitionID, homeID, awayID            sql.NullInt64
			goalsHome, goalsAway, htHome, htAway     sql.NullInt64
			cornersHome, cornersAway, cardsH, cardsA sql.NullInt64
		)
		if err := rows.Scan(
			&f.ID, &competitionID, &f.Season, &f.Round, &f.DateUTC,
			&f.StatusShort, &f.StatusLong,
			&homeID, &awayID, &f.HomeTeamName, &f.AwayTeamName,
			&goalsHome, &goalsAway, &htHome, &htAway,
			&cornersHome, &cornersAway, &cardsH, &cardsA,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fixture: %w", err)
		}
		f.DateUTC = f.DateUTC.UTC()
		f.CompetitionID = nullInt64(competitionID)
		f.HomeTeamID = nullInt64(homeID)
		f.AwayTeamID = nullInt64(awayID)
		f.GoalsHome, f.GoalsAway = nullInt(goalsHome), nullInt(goalsAway)
		f.GoalsHomeHT, f.GoalsAwayHT = nullInt(htHome), nullInt(htAway)
		f.CornersHome, f.CornersAway = nullInt(cornersHome), nullInt(cornersAway)
		f.CardsHome, f.CardsAway = nullInt(cardsH), nullInt(cardsA)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fixtures: %w", err)
	}
	return out, nil
}

func (s *sqlFixtureStorage) Teams(ctx context.Context, ids []int64) (map[int64]models.Team, error) {
	out := make(map[int64]models.Team, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `SELECT id, name, COALESCE(logo, ''), COALESCE(country, '') FROM teams WHERE id IN (` + placeholders + `)`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Logo, &t.Country); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		out[t.ID] = t
	}
	return out, rows.Err()
}

func (s *sqlFixtureStorage) Competitions(ctx context.Context) (map[int64]models.Competition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, COALESCE(country, ''), COALESCE(logo, '') FROM competitions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query competitions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]models.Competition)
	for rows.Next() {
		var c models.Competition
		if err := rows.Scan(&c.ID, &c.Name, &c.Country, &c.Logo); err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		out[c.ID] = c
	}
	return out, rows.Err()
}

func (s *sqlFixtureStorage) UpsertCompetitions(ctx context.Context, comps []models.Competition) error {
	query := s.rebind(`
	INSERT INTO competitions (id, name, country, logo) VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET name = excluded.name, country = excluded.country, logo = excluded.logo`)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, c := range comps {
			if _, err := tx.ExecContext(ctx, query, c.ID, c.Name, c.Country, c.Logo); err != nil {
				return fmt.Errorf("failed to upsert competition %d: %w", c.ID, err)
			}
		}
		return nil
	})
}

func (s *sqlFixtureStorage) UpsertTeams(ctx context.Context, teams []models.Team) error {
	query := s.rebind(`
	INSERT INTO teams (id, name, logo, country) VALUES (?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET name = excluded.name, logo = excluded.logo, country = excluded.country`)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range teams {
			if _, err := tx.ExecContext(ctx, query, t.ID, t.Name, t.Logo, t.Country); err != nil {
				return fmt.Errorf("failed to upsert team %d: %w", t.ID, err)
			}
		}
		return nil
	})
}

func (s *sqlFixtureStorage) UpsertFixtures(ctx context.Context, fixtures []models.FixtureRow) error {
	query := s.rebind(`
	INSERT INTO fixtures (
		id, competition_id, season, round, date_utc, status_short, status_long,
		home_team_id, away_team_id, goals_home, goals_away, goals_home_ht, goals_away_ht,
		corners_home, corners_away, cards_home, cards_away
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		competition_id = excluded.competition_id,
		season = excluded.season,
		round = excluded.round,
		date_utc = excluded.date_utc,
		status_short = excluded.status_short,
		status_long = excluded.status_long,
		home_team_id = excluded.home_team_id,
		away_team_id = excluded.away_team_id,
		goals_home = excluded.goals_home,
		goals_away = excluded.goals_away,
		goals_home_ht = excluded.goals_home_ht,
		goals_away_ht = excluded.goals_away_ht,
		corners_home = excluded.corners_home,
		corners_away = excluded.corners_away,
		cards_home = excluded.cards_home,
		cards_away = excluded.cards_away`)
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, f := range fixtures {
			if _, err := tx.ExecContext(ctx, query,
				f.ID, f.CompetitionID, f.Season, f.Round, f.DateUTC.UTC(), f.StatusShort, f.StatusLong,
				f.HomeTeamID, f.AwayTeamID, f.GoalsHome, f.GoalsAway, f.GoalsHomeHT, f.GoalsAwayHT,
				f.CornersHome, f.CornersAway, f.CardsHome, f.CardsAway,
			); err != nil {
				return fmt.Errorf("failed to upsert fixture %d: %w", f.ID, err)
			}
		}
		return nil
	})
}

func (s *sqlFixtureStorage) UpdateFixtureResult(ctx context.Context, res models.FixtureResult) error {
	query := s.rebind(`
	UPDATE fixtures SET
		status_short = ?, status_long = ?,
		goals_home = ?, goals_away = ?, goals_home_ht = ?, goals_away_ht = ?
	WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, query,
		res.StatusShort, res.StatusLong,
		res.GoalsHome, res.GoalsAway, res.GoalsHomeHT, res.GoalsAwayHT,
		res.FixtureID,
	)
	if err != nil {
		return fmt.Errorf("failed to update fixture %d: %w", res.FixtureID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("fixture %d: %w", res.FixtureID, ErrNotFound)
	}
	return nil
}

func (s *sqlFixtureStorage) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *sqlFixtureStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *sqlFixtureStorage) Close() error {
	return s.db.Close()
}

func nullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
