package postgres_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/ilmihal/internal/adapter/postgres"
	"github.com/Strob0t/ilmihal/internal/domain"
	"github.com/Strob0t/ilmihal/internal/domain/catechism"
	"github.com/Strob0t/ilmihal/internal/domain/message"
)

// setupStore runs all migrations and returns a ready-to-use Store. The pool
// is closed via t.Cleanup.
func setupStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}

	ctx := context.Background()
	if err := postgres.RunMigrations(ctx, dsn); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return postgres.NewStore(pool)
}

func strp(s string) *string { return &s }

func TestStore_ContentRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	// A unique chapter keeps this test independent of other rows.
	chapter := "Ibadet-" + uuid.NewString()[:8]
	in := []catechism.ContentRow{
		{Chapter: strp(chapter), Section: strp("Namaz"), SubSection: strp("Sartlari"), Title: strp("Namazın Şartları"), Content: strp("...")},
		{Chapter: strp(chapter), Section: strp("Namaz"), SubSection: strp("Rukunleri"), Title: strp("Namazın Rükünleri"), Content: strp("...")},
		{Chapter: strp(chapter), Title: strp("Giriş")},
	}
	stored, err := store.InsertContentRows(ctx, in)
	if err != nil {
		t.Fatalf("InsertContentRows: %v", err)
	}
	if len(stored) != 3 || stored[0].ID == "" || stored[0].CreatedAt.IsZero() {
		t.Fatalf("expected ids and timestamps assigned, got %+v", stored)
	}

	rows, err := store.ListContentRows(ctx, catechism.Filter{ChapterID: chapter})
	if err != nil {
		t.Fatalf("ListContentRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	// nulls first: the row without a section leads.
	if rows[0].Section != nil {
		t.Errorf("expected null section first, got %q", *rows[0].Section)
	}
	if *rows[1].SubSection != "Rukunleri" || *rows[2].SubSection != "Sartlari" {
		t.Errorf("expected subsections sorted, got %q, %q", *rows[1].SubSection, *rows[2].SubSection)
	}

	rows, err = store.ListContentRows(ctx, catechism.Filter{ChapterID: chapter, SectionID: "Namaz", SubSectionID: "Rukunleri"})
	if err != nil {
		t.Fatalf("ListContentRows narrowed: %v", err)
	}
	if len(rows) != 1 || *rows[0].Title != "Namazın Rükünleri" {
		t.Errorf("expected single Rukunleri row, got %+v", rows)
	}

	rows, err = store.ListContentRows(ctx, catechism.Filter{Search: chapter})
	if err != nil {
		t.Fatalf("ListContentRows search: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("search by chapter name: expected 3 rows, got %d", len(rows))
	}
}

func TestStore_SearchTitleOnly(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	chapter := "Ibadet-" + uuid.NewString()[:8]
	token := "teheccud" + uuid.NewString()[:8]
	in := []catechism.ContentRow{
		{Chapter: strp(chapter), Section: strp("Namaz"), SubSection: strp("Gece"), Title: strp("Gece Namazı " + token), Content: strp("Gece kılınan nafile namaz.")},
		{Chapter: strp(chapter), Section: strp("Namaz"), SubSection: strp("Vitir"), Title: strp("Vitir Namazı"), Content: strp("Yatsıdan sonra kılınır.")},
		{Chapter: strp(chapter), Section: strp("Oruc"), SubSection: strp("Sahur"), Title: strp("Sahur"), Content: strp("Imsaktan önce yenir.")},
	}
	if _, err := store.InsertContentRows(ctx, in); err != nil {
		t.Fatalf("InsertContentRows: %v", err)
	}

	// Mixed case and a strict substring of the title.
	term := strings.ToUpper(token[:4]) + token[4:len(token)-2]
	rows, err := store.ListContentRows(ctx, catechism.Filter{Search: term})
	if err != nil {
		t.Fatalf("ListContentRows search: %v", err)
	}
	chapters := catechism.Assemble(rows)
	if len(chapters) != 1 || chapters[0].ID != chapter {
		t.Fatalf("expected only chapter %s, got %+v", chapter, chapters)
	}
	secs := chapters[0].Sections
	if len(secs) != 1 || secs[0].ID != "Namaz" || len(secs[0].SubSections) != 1 || secs[0].SubSections[0].ID != "Gece" {
		t.Errorf("expected only Namaz/Gece, got %+v", secs)
	}
}

func TestStore_ListContentRowsEmpty(t *testing.T) {
	store := setupStore(t)

	rows, err := store.ListContentRows(context.Background(), catechism.Filter{ChapterID: "no-such-" + uuid.NewString()})
	if err != nil {
		t.Fatalf("ListContentRows: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestStore_MessageLifecycle(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	m, err := store.CreateMessage(ctx, &message.CreateRequest{
		Name: "Ayşe", Email: "ayse@example.com", Subject: "Soru", Body: "Merhaba",
	})
	if err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteMessage(context.Background(), m.ID) })

	got, err := store.GetMessage(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if got.ReadAt != nil {
		t.Error("new message should be unread")
	}

	read, err := store.MarkMessageRead(ctx, m.ID)
	if err != nil {
		t.Fatalf("MarkMessageRead: %v", err)
	}
	if read.ReadAt == nil {
		t.Fatal("expected read_at set")
	}
	again, err := store.MarkMessageRead(ctx, m.ID)
	if err != nil {
		t.Fatalf("MarkMessageRead again: %v", err)
	}
	if !again.ReadAt.Equal(*read.ReadAt) {
		t.Errorf("read_at moved from %v to %v", read.ReadAt, again.ReadAt)
	}

	if err := store.DeleteMessage(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if _, err := store.GetMessage(ctx, m.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStore_MessageMalformedID(t *testing.T) {
	store := setupStore(t)

	if _, err := store.GetMessage(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteMessage(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
