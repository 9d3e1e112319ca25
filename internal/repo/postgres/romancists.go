package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JeanCalmon10/madr/internal/domain/romancist"
	"github.com/JeanCalmon10/madr/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lists stay unpaginated until a filter matches more rows than this; only
// then do offset/limit kick in.
const paginationThreshold = 20

type RomancistsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRomancistsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RomancistsRepo {
	return &RomancistsRepo{pool: pool, prom: prom}
}

func (r *RomancistsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *RomancistsRepo) Create(ctx context.Context, name string) (romancist.Romancist, error) {
	var rom romancist.Romancist

	err := r.observe("romancists.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO romancists (name) VALUES ($1) RETURNING id, name`,
			name,
		).Scan(&rom.ID, &rom.Name)
	})

	if err != nil {
		if isUniqueViolation(err) {
			return romancist.Romancist{}, romancist.ErrAlreadyListed
		}

		return romancist.Romancist{}, err
	}

	return rom, nil
}

func (r *RomancistsRepo) GetByID(ctx context.Context, id int64) (romancist.Romancist, error) {
	var rom romancist.Romancist

	err := r.observe("romancists.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, name FROM romancists WHERE id = $1`,
			id,
		).Scan(&rom.ID, &rom.Name)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return romancist.Romancist{}, romancist.ErrNotFound
		}

		return romancist.Romancist{}, err
	}

	return rom, nil
}

func (r *RomancistsRepo) Update(ctx context.Context, id int64, name *string) (romancist.Romancist, error) {
	var rom romancist.Romancist

	err := r.observe("romancists.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE romancists
			 SET name = COALESCE($2, name)
			 WHERE id = $1
			 RETURNING id, name`,
			id, name,
		).Scan(&rom.ID, &rom.Name)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return romancist.Romancist{}, romancist.ErrNotFound
		}

		if isUniqueViolation(err) {
			return romancist.Romancist{}, romancist.ErrAlreadyListed
		}

		return romancist.Romancist{}, err
	}

	return rom, nil
}

func (r *RomancistsRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := r.observe("romancists.delete", func() error {
		var execErr error
		// books cascade via FK
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM romancists WHERE id = $1`, id)
		return execErr
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return romancist.ErrNotFound
	}

	return nil
}

// List returns matching romancists with conditional pagination: when the
// filter matches paginationThreshold rows or fewer, all of them come back
// and offset/limit are ignored.
func (r *RomancistsRepo) List(ctx context.Context, filter romancist.ListRomancistsFilter) ([]romancist.Romancist, int, error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Name != nil {
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Name+"%")
		argsPosition++
	}

	where := ""

	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	total := 0

	err := r.observe("romancists.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM romancists`+where, args...).Scan(&total)
	})

	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, name FROM romancists` + where + " ORDER BY id ASC"

	if total > paginationThreshold {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows pgx.Rows

	err = r.observe("romancists.list", func() error {
		var queryErr error
		rows, queryErr = r.pool.Query(ctx, query, args...)
		return queryErr
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]romancist.Romancist, 0)

	for rows.Next() {
		var rom romancist.Romancist

		if err := rows.Scan(&rom.ID, &rom.Name); err != nil {
			return nil, 0, err
		}

		output = append(output, rom)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
