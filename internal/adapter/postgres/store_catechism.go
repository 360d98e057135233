package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/unicode/norm"

	"github.com/Strob0t/ilmihal/internal/domain/catechism"
)

const contentColumns = `id::text, book_name, author_name, title, description, content,
	chapter, section, subsection, tags, created_at, updated_at`

const contentOrder = ` ORDER BY chapter NULLS FIRST, section NULLS FIRST, subsection NULLS FIRST, created_at DESC`

var searchColumns = []string{"title", "description", "content", "chapter", "section", "subsection"}

// buildContentQuery renders the SELECT for f with positional arguments.
// Section narrows only under a chapter and subsection only under a section;
// the search term applies when no chapter is given.
func buildContentQuery(f catechism.Filter) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.ChapterID != "" {
		where = append(where, "chapter = "+arg(f.ChapterID))
		if f.SectionID != "" {
			where = append(where, "section = "+arg(f.SectionID))
			if f.SubSectionID != "" {
				where = append(where, "subsection = "+arg(f.SubSectionID))
			}
		}
	} else if term := strings.TrimSpace(f.Search); term != "" {
		p := arg(containsPattern(norm.NFC.String(term)))
		ors := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			ors[i] = col + ` ILIKE ` + p
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	var b strings.Builder
	b.WriteString("SELECT " + contentColumns + " FROM ilmihal_content")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(contentOrder)
	return b.String(), args
}

// ListContentRows returns the content rows matching f.
func (s *Store) ListContentRows(ctx context.Context, f catechism.Filter) ([]catechism.ContentRow, error) {
	sql, args := buildContentQuery(f)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list content rows: %w", err)
	}
	defer rows.Close()

	var out []catechism.ContentRow
	for rows.Next() {
		r, err := scanContentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list content rows: %w", err)
	}
	return orEmpty(out), nil
}

// InsertContentRows stores rows in a single transaction.
func (s *Store) InsertContentRows(ctx context.Context, rows []catechism.ContentRow) ([]catechism.ContentRow, error) {
	out := make([]catechism.ContentRow, 0, len(rows))
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i := range rows {
			r := &rows[i]
			stored, err := scanContentRow(tx.QueryRow(ctx,
				`INSERT INTO ilmihal_content (book_name, author_name, title, description, content, chapter, section, subsection, tags)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
				 RETURNING `+contentColumns,
				r.BookName, r.AuthorName, r.Title, r.Description, r.Content,
				r.Chapter, r.Section, r.SubSection, r.Tags))
			if err != nil {
				return fmt.Errorf("insert row %d: %w", i, err)
			}
			out = append(out, stored)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert content rows: %w", err)
	}
	return out, nil
}

func scanContentRow(row scannable) (catechism.ContentRow, error) {
	var r catechism.ContentRow
	err := row.Scan(&r.ID, &r.BookName, &r.AuthorName, &r.Title, &r.Description, &r.Content,
		&r.Chapter, &r.Section, &r.SubSection, &r.Tags, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}
