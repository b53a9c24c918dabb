package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoteleiro/breakfast-pass/internal/domain"
)

// GuestRepo is the entitlement store. ConsumeBreakfast is the only write
// the redemption path performs and the only concurrency-sensitive one.
type GuestRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Guest, error)
	List(ctx context.Context) ([]domain.Guest, error)
	ListByRoom(ctx context.Context, room string) ([]domain.Guest, error)
	Upsert(ctx context.Context, guests []domain.Guest) ([]domain.Guest, error)
	ReplaceAll(ctx context.Context, guests []domain.Guest) ([]domain.Guest, error)
	Update(ctx context.Context, id string, upd *domain.GuestUpdate) (*domain.Guest, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)

	// ConsumeBreakfast marks the guest's entitlement consumed for today
	// as one conditional update. It returns (nil, nil) when the condition
	// did not hold; the caller re-reads to classify why.
	ConsumeBreakfast(ctx context.Context, id, today string) (*domain.Guest, error)

	Stats(ctx context.Context, today string) (*domain.Stats, error)
}

type GuestRepoImpl struct{ pool *pgxpool.Pool }

func NewGuestRepo(pool *pgxpool.Pool) *GuestRepoImpl { return &GuestRepoImpl{pool: pool} }

const guestCols = `id, name, room, company,
check_in, check_out, tariff, plan,
has_breakfast, consumption_date, created_at`

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var g domain.Guest
	err := row.Scan(
		&g.ID, &g.Name, &g.Room, &g.Company,
		&g.CheckIn, &g.CheckOut, &g.Tariff, &g.Plan,
		&g.HasBreakfast, &g.ConsumptionDate, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *GuestRepoImpl) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *GuestRepoImpl) List(ctx context.Context) ([]domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests ORDER BY created_at DESC, name ASC`
	return r.queryGuests(ctx, q)
}

func (r *GuestRepoImpl) ListByRoom(ctx context.Context, room string) ([]domain.Guest, error) {
	const q = `SELECT ` + guestCols + ` FROM guests WHERE room=$1 ORDER BY name ASC`
	return r.queryGuests(ctx, q, room)
}

func (r *GuestRepoImpl) queryGuests(ctx context.Context, q string, args ...any) ([]domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gs []domain.Guest
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		gs = append(gs, *g)
	}
	return gs, rows.Err()
}

const upsertGuestQuery = `INSERT INTO guests (
    id, name, room, company,
    check_in, check_out, tariff, plan,
    has_breakfast, consumption_date
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  ON CONFLICT (id) DO UPDATE SET
    name=EXCLUDED.name, room=EXCLUDED.room, company=EXCLUDED.company,
    check_in=EXCLUDED.check_in, check_out=EXCLUDED.check_out,
    tariff=EXCLUDED.tariff, plan=EXCLUDED.plan,
    has_breakfast=EXCLUDED.has_breakfast,
    consumption_date=EXCLUDED.consumption_date
  RETURNING ` + guestCols

func (r *GuestRepoImpl) Upsert(ctx context.Context, guests []domain.Guest) ([]domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	out, err := upsertGuestsTx(ctx, tx, guests)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceAll swaps the whole roster in one transaction: the old roster is
// gone only if every new row lands.
func (r *GuestRepoImpl) ReplaceAll(ctx context.Context, guests []domain.Guest) ([]domain.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM guests`); err != nil {
		return nil, err
	}

	out, err := upsertGuestsTx(ctx, tx, guests)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func upsertGuestsTx(ctx context.Context, tx pgx.Tx, guests []domain.Guest) ([]domain.Guest, error) {
	out := make([]domain.Guest, 0, len(guests))
	for _, in := range guests {
		g, err := scanGuest(tx.QueryRow(ctx, upsertGuestQuery,
			in.ID, in.Name, in.Room, in.Company,
			in.CheckIn, in.CheckOut, in.Tariff, in.Plan,
			in.HasBreakfast, in.ConsumptionDate,
		))
		if err != nil {
			return nil, fmt.Errorf("upsert guest %s: %w", in.ID, err)
		}
		out = append(out, *g)
	}
	return out, nil
}

func (r *GuestRepoImpl) Update(ctx context.Context, id string, upd *domain.GuestUpdate) (*domain.Guest, error) {
	const q = `UPDATE guests SET
    name=COALESCE($2, name),
    room=COALESCE($3, room),
    company=COALESCE($4, company),
    check_in=COALESCE($5, check_in),
    check_out=COALESCE($6, check_out),
    tariff=COALESCE($7, tariff),
    plan=COALESCE($8, plan),
    has_breakfast=COALESCE($9, has_breakfast),
    consumption_date=CASE WHEN $10 THEN $11 ELSE consumption_date END
  WHERE id=$1
  RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	setConsumption := upd.ConsumptionDate != nil || clearsConsumption(upd)
	var nextConsumption *string
	if upd.ConsumptionDate != nil && *upd.ConsumptionDate != "" {
		nextConsumption = upd.ConsumptionDate
	}

	g, err := scanGuest(r.pool.QueryRow(ctx, q, id,
		upd.Name, upd.Room, upd.Company,
		upd.CheckIn, upd.CheckOut, upd.Tariff, upd.Plan,
		upd.HasBreakfast, setConsumption, nextConsumption,
	))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

// clearsConsumption reports an explicit reset: consumptionDate present in
// the patch but empty.
func clearsConsumption(upd *domain.GuestUpdate) bool {
	return upd.ConsumptionDate != nil && *upd.ConsumptionDate == ""
}

func (r *GuestRepoImpl) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, `DELETE FROM guests WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *GuestRepoImpl) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, `DELETE FROM guests`)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// ConsumeBreakfast performs the exactly-once transition. The predicate
// lives in the WHERE clause so concurrent attempts for the same guest are
// serialized by the database: at most one statement sees the row in its
// consumable state. Never split this into a read followed by a write.
func (r *GuestRepoImpl) ConsumeBreakfast(ctx context.Context, id, today string) (*domain.Guest, error) {
	const q = `UPDATE guests SET consumption_date=$2
  WHERE id=$1
    AND has_breakfast
    AND (consumption_date IS NULL OR consumption_date <> $2)
  RETURNING ` + guestCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	g, err := scanGuest(r.pool.QueryRow(ctx, q, id, today))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *GuestRepoImpl) Stats(ctx context.Context, today string) (*domain.Stats, error) {
	const q = `SELECT
    COUNT(*),
    COUNT(DISTINCT room),
    COUNT(*) FILTER (WHERE has_breakfast),
    COUNT(*) FILTER (WHERE consumption_date = $1)
  FROM guests`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var s domain.Stats
	err := r.pool.QueryRow(ctx, q, today).Scan(
		&s.TotalGuests, &s.TotalRooms, &s.WithBreakfast, &s.UsedToday,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

var _ GuestRepo = (*GuestRepoImpl)(nil)
