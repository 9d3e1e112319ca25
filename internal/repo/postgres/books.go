package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JeanCalmon10/madr/internal/domain/book"
	"github.com/JeanCalmon10/madr/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BooksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewBooksRepo(pool *pgxpool.Pool, prom *observability.Prom) *BooksRepo {
	return &BooksRepo{pool: pool, prom: prom}
}

func (r *BooksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *BooksRepo) Create(ctx context.Context, title string, year int, romancistID int64) (book.Book, error) {
	var b book.Book

	err := r.observe("books.create", func() error {
		return r.pool.QueryRow(
			ctx,
			`INSERT INTO books (title, year, romancist_id)
			 VALUES ($1, $2, $3)
			 RETURNING id, title, year, romancist_id`,
			title, year, romancistID,
		).Scan(&b.ID, &b.Title, &b.Year, &b.RomancistID)
	})

	if err != nil {
		return book.Book{}, mapBookConstraint(err)
	}

	return b, nil
}

func (r *BooksRepo) GetByID(ctx context.Context, id int64) (book.Book, error) {
	var b book.Book

	err := r.observe("books.get_by_id", func() error {
		return r.pool.QueryRow(
			ctx,
			`SELECT id, title, year, romancist_id FROM books WHERE id = $1`,
			id,
		).Scan(&b.ID, &b.Title, &b.Year, &b.RomancistID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return book.Book{}, book.ErrNotFound
		}

		return book.Book{}, err
	}

	return b, nil
}

func (r *BooksRepo) Update(ctx context.Context, id int64, title *string, year *int, romancistID *int64) (book.Book, error) {
	var b book.Book

	err := r.observe("books.update", func() error {
		return r.pool.QueryRow(
			ctx,
			`UPDATE books
			 SET title = COALESCE($2, title),
			     year = COALESCE($3, year),
			     romancist_id = COALESCE($4, romancist_id)
			 WHERE id = $1
			 RETURNING id, title, year, romancist_id`,
			id, title, year, romancistID,
		).Scan(&b.ID, &b.Title, &b.Year, &b.RomancistID)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return book.Book{}, book.ErrNotFound
		}

		return book.Book{}, mapBookConstraint(err)
	}

	return b, nil
}

func (r *BooksRepo) Delete(ctx context.Context, id int64) error {
	var tag pgconn.CommandTag

	err := r.observe("books.delete", func() error {
		var execErr error
		tag, execErr = r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
		return execErr
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return book.ErrNotFound
	}

	return nil
}

// List mirrors the romancist listing: substring match on title, equality on
// year, pagination only past the threshold.
func (r *BooksRepo) List(ctx context.Context, filter book.ListBooksFilter) ([]book.Book, int, error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Title != nil {
		conds = append(conds, fmt.Sprintf("title ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Title+"%")
		argsPosition++
	}

	if filter.Year != nil {
		conds = append(conds, fmt.Sprintf("year = $%d", argsPosition))
		args = append(args, *filter.Year)
		argsPosition++
	}

	where := ""

	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	total := 0

	err := r.observe("books.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total)
	})

	if err != nil {
		return nil, 0, err
	}

	query := `SELECT id, title, year, romancist_id FROM books` + where + " ORDER BY id ASC"

	if total > paginationThreshold {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
		args = append(args, filter.Limit, filter.Offset)
	}

	var rows pgx.Rows

	err = r.observe("books.list", func() error {
		var queryErr error
		rows, queryErr = r.pool.Query(ctx, query, args...)
		return queryErr
	})

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]book.Book, 0)

	for rows.Next() {
		var b book.Book

		if err := rows.Scan(&b.ID, &b.Title, &b.Year, &b.RomancistID); err != nil {
			return nil, 0, err
		}

		output = append(output, b)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func mapBookConstraint(err error) error {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return book.ErrTitleTaken
		case "23503":
			return book.ErrRomancistMissing
		}
	}

	return err
}
