package record

import (
	"context"

	"github.com/example/dmlog/internal/db"
)

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Create(ctx context.Context, rec Record) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
INSERT INTO dm_records(worker_name,account_link,business_type,follower_range,has_champagne,has_champagne_tower,sent_at,date,month)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
RETURNING id`,
		rec.WorkerName, rec.AccountLink, rec.BusinessType, rec.FollowerRange,
		rec.HasChampagne, rec.HasChampagneTower, rec.SentAt, rec.Date, rec.Month,
	).Scan(&id)
	return id, db.WrapNotFound(err)
}

// CountForDay recovers today's count for a worker. Called on every
// home-page render so the count survives logout/login and reloads.
func (r *Repo) CountForDay(ctx context.Context, worker, date string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `
SELECT count(*) FROM dm_records WHERE worker_name=$1 AND date=$2`, worker, date).Scan(&n)
	return n, db.WrapNotFound(err)
}

func (r *Repo) ListForDay(ctx context.Context, worker, date string) ([]Record, error) {
	rows, err := r.db.Query(ctx, `
SELECT id,worker_name,account_link,business_type,follower_range,has_champagne,has_champagne_tower,sent_at,date,month,created_at
FROM dm_records
WHERE worker_name=$1 AND date=$2
ORDER BY sent_at ASC`, worker, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.WorkerName, &rec.AccountLink, &rec.BusinessType, &rec.FollowerRange,
			&rec.HasChampagne, &rec.HasChampagneTower, &rec.SentAt, &rec.Date, &rec.Month, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
