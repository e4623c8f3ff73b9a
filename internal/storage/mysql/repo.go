package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func ptrStr(n sql.NullString) *string {
	if !n.Valid {
		return nil
	}
	s := n.String
	return &s
}
func ptrInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}
func ptrF64(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

type scanner interface{ Scan(dest ...any) error }

// Open connects with the options the repo relies on: parsed DATETIME
// columns in UTC.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	conn, err := driver.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(conn)
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// -----------------------------------------------------------------------------
// HOTELS / REVIEWS / MANAGERS (read only)
// -----------------------------------------------------------------------------

func scanHotel(s scanner) (domain.Hotel, error) {
	var (
		h                         domain.Hotel
		name, addr, city, country sql.NullString
		stars, rooms, floors      sql.NullInt64
		distance                  sql.NullFloat64
	)
	if err := s.Scan(&h.ID, &name, &addr, &city, &country, &stars, &rooms, &floors, &distance); err != nil {
		return domain.Hotel{}, err
	}
	h.Name, h.Address, h.City, h.Country = ptrStr(name), ptrStr(addr), ptrStr(city), ptrStr(country)
	h.Stars, h.RoomsNumber, h.FloorsNumber = ptrInt(stars), ptrInt(rooms), ptrInt(floors)
	h.DistanceToAirport = ptrF64(distance)
	return h, nil
}

func (r *Repo) GetHotel(ctx context.Context, id int64) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, err
}

func (r *Repo) ListHotels(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) ListReviews(ctx context.Context, hotelID int64) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, hotelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var (
			rv     domain.Review
			title  sql.NullString
			rating sql.NullFloat64
		)
		if err := rows.Scan(&rv.ID, &rv.HotelID, &rv.UserID, &title, &rv.Content, &rating, &rv.CreatedAt); err != nil {
			return nil, err
		}
		rv.Title = ptrStr(title)
		rv.Rating = ptrF64(rating)
		out = append(out, rv)
	}
	return out, rows.Err()
}

func (r *Repo) ManagesHotel(ctx context.Context, userID, hotelID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, managesHotelSQL, userID, hotelID).Scan(&ok)
	return ok, err
}

// -----------------------------------------------------------------------------
// SCORING
// -----------------------------------------------------------------------------

func scanScoringInto(sc *domain.HotelScoring, extra ...any) []any {
	return append([]any{
		&sc.HotelID, &sc.HotelName, &sc.Location,
		&sc.SparklingScore, &sc.ReviewComponent, &sc.MetadataComponent,
		&sc.AmenitiesRate, &sc.CleanlinessRate, &sc.FoodBeverage, &sc.SleepQuality, &sc.InternetQuality,
		&sc.TotalReviews,
	}, extra...)
}

type scoringNulls struct {
	stars, rooms, floors sql.NullInt64
	distance             sql.NullFloat64
}

func (n *scoringNulls) dest(sc *domain.HotelScoring) []any {
	return []any{&n.stars, &n.distance, &n.rooms, &n.floors, &sc.Ranking, &sc.LastUpdated}
}

func (n *scoringNulls) apply(sc *domain.HotelScoring) {
	sc.HotelStars = ptrInt(n.stars)
	sc.DistanceToAirport = ptrF64(n.distance)
	sc.RoomsNumber = ptrInt(n.rooms)
	sc.FloorsNumber = ptrInt(n.floors)
}

func scanScoring(s scanner) (domain.HotelScoring, error) {
	var (
		sc domain.HotelScoring
		n  scoringNulls
	)
	if err := s.Scan(scanScoringInto(&sc, n.dest(&sc)...)...); err != nil {
		return domain.HotelScoring{}, err
	}
	n.apply(&sc)
	return sc, nil
}

func (r *Repo) GetScoring(ctx context.Context, hotelID int64) (domain.HotelScoring, error) {
	sc, err := scanScoring(r.db.QueryRowContext(ctx, getScoringSQL, hotelID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.HotelScoring{}, domain.ErrNotFound
	}
	return sc, err
}

func (r *Repo) TopScorings(ctx context.Context, n int) ([]domain.HotelScoring, error) {
	rows, err := r.db.QueryContext(ctx, topScoringsSQL, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.HotelScoring
	for rows.Next() {
		sc, err := scanScoring(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

var sortColumns = map[string]string{
	domain.SortBySparklingScore:    "s.sparkling_score",
	domain.SortByReviewComponent:   "s.review_component",
	domain.SortByMetadataComponent: "s.metadata_component",
	domain.SortByRanking:           "s.ranking",
}

func (r *Repo) Leaderboard(ctx context.Context, q domain.LeaderboardQuery) (domain.LeaderboardPage, error) {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		return domain.LeaderboardPage{}, domain.NewValidationError("sortBy", "unsupported sort column")
	}
	dir := domain.SortDesc
	if q.SortOrder == domain.SortAsc {
		dir = domain.SortAsc
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countScoringSQL).Scan(&total); err != nil {
		return domain.LeaderboardPage{}, err
	}

	query := leaderboardSQL + fmt.Sprintf("ORDER BY %s %s, s.hotel_id ASC\nLIMIT ? OFFSET ?", col, dir)
	rows, err := r.db.QueryContext(ctx, query, q.Limit, q.Offset())
	if err != nil {
		return domain.LeaderboardPage{}, err
	}
	defer rows.Close()

	records := make([]domain.LeaderboardRecord, 0, q.Limit)
	for rows.Next() {
		var (
			rec        domain.LeaderboardRecord
			n          scoringNulls
			name, addr sql.NullString
			stars      sql.NullInt64
		)
		dest := scanScoringInto(&rec.HotelScoring, n.dest(&rec.HotelScoring)...)
		if err := rows.Scan(append(dest, &name, &addr, &stars)...); err != nil {
			return domain.LeaderboardPage{}, err
		}
		n.apply(&rec.HotelScoring)
		rec.Hotel = domain.HotelDisplay{Name: ptrStr(name), Address: ptrStr(addr), Stars: ptrInt(stars)}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return domain.LeaderboardPage{}, err
	}
	return domain.LeaderboardPage{Records: records, Pagination: domain.NewPagination(total, q)}, nil
}

// WithRankTx runs fn in one InnoDB transaction; LockRankEntries takes the
// row locks that serialize concurrent passes.
func (r *Repo) WithRankTx(ctx context.Context, fn func(tx domain.RankTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rank tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&rankTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type rankTx struct{ tx *sql.Tx }

// InnoDB error numbers after which the transaction can no longer be used.
const (
	errLockDeadlock    = 1213
	errLockWaitTimeout = 1205
)

// txErr marks errors that ended the transaction server side.
func txErr(err error) error {
	var me *driver.MySQLError
	if errors.As(err, &me) && (me.Number == errLockDeadlock || me.Number == errLockWaitTimeout) {
		return fmt.Errorf("%w: %v", domain.ErrTxAborted, err)
	}
	return err
}

func (t *rankTx) UpsertScoring(ctx context.Context, s domain.HotelScoring) error {
	_, err := t.tx.ExecContext(ctx, upsertScoringSQL,
		s.HotelID, s.HotelName, s.Location,
		s.SparklingScore, s.ReviewComponent, s.MetadataComponent,
		s.AmenitiesRate, s.CleanlinessRate, s.FoodBeverage, s.SleepQuality, s.InternetQuality,
		s.TotalReviews,
		valInt(s.HotelStars), valF64(s.DistanceToAirport), valInt(s.RoomsNumber), valInt(s.FloorsNumber),
		s.LastUpdated,
	)
	return txErr(err)
}

func (t *rankTx) DeleteScoring(ctx context.Context, hotelID int64) error {
	_, err := t.tx.ExecContext(ctx, deleteScoringSQL, hotelID)
	return txErr(err)
}

func (t *rankTx) LockRankEntries(ctx context.Context) ([]domain.RankEntry, error) {
	rows, err := t.tx.QueryContext(ctx, lockRankEntriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RankEntry
	for rows.Next() {
		var e domain.RankEntry
		if err := rows.Scan(&e.HotelID, &e.SparklingScore, &e.Ranking); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *rankTx) SetRanking(ctx context.Context, hotelID int64, ranking int) error {
	_, err := t.tx.ExecContext(ctx, setRankingSQL, ranking, hotelID)
	return txErr(err)
}
