package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/Strob0t/ilmihal/internal/adapter/pdf"
	"github.com/Strob0t/ilmihal/internal/domain"
	"github.com/Strob0t/ilmihal/internal/domain/catechism"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
)

func fakeExtract(pages []pdf.Page, err error) func(io.ReaderAt, int64) ([]pdf.Page, error) {
	return func(io.ReaderAt, int64) ([]pdf.Page, error) { return pages, err }
}

func newTestImporter(store *mockStore, queue *mockQueue, pages []pdf.Page) (*ImportService, *CatechismService) {
	content := NewCatechismService(store)
	svc := NewImportService(store, content, queue, 2000)
	svc.extract = fakeExtract(pages, nil)
	return svc, content
}

func importRequest() ImportRequest {
	return ImportRequest{BookName: " Büyük İslam İlmihali ", AuthorName: "Ömer Nasuhi Bilmen", Chapter: "Ibadet"}
}

func TestImportStoresRowsAndAnnounces(t *testing.T) {
	store := &mockStore{}
	queue := &mockQueue{}
	pages := []pdf.Page{
		{Number: 1, Text: "Namazın Şartları\nNamazın on iki şartı vardır."},
		{Number: 2, Text: "Namazın Rükünleri\nKıyam, kıraat, rükû, secde."},
	}
	svc, content := newTestImporter(store, queue, pages)
	svc.maxChunkChars = 50

	res, err := svc.Import(context.Background(), bytes.NewReader(nil), 0, importRequest())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Rows != 2 || res.Pages != 2 || res.Chapter != "Ibadet" {
		t.Errorf("result = %+v", res)
	}
	if res.Generation == InitialGeneration || content.Generation() != res.Generation {
		t.Errorf("generation not bumped: result %q, service %q", res.Generation, content.Generation())
	}

	rows := store.inserted[0]
	if *rows[0].BookName != "Büyük İslam İlmihali" {
		t.Errorf("book name = %q, want trimmed", *rows[0].BookName)
	}
	if *rows[1].Section != "Sayfa 0002" || *rows[1].SubSection != "Bolum 0002" {
		t.Errorf("row 2 placement = %q / %q", *rows[1].Section, *rows[1].SubSection)
	}

	if len(queue.published) != 1 || queue.published[0].subject != messagequeue.SubjectContentImported {
		t.Fatalf("published = %+v", queue.published)
	}
	var p messagequeue.ContentImportedPayload
	if err := json.Unmarshal(queue.published[0].data, &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.Generation != res.Generation || p.Rows != 2 {
		t.Errorf("payload = %+v", p)
	}

	// Imported rows are visible through the resolver.
	got, err := content.Resolve(context.Background(), "Ibadet", catechism.Query{SectionID: "Sayfa 0001", SubSectionID: "Bolum 0001"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if sub := got.(*catechism.SubSection); sub.Title != "Namazın Şartları" {
		t.Errorf("title = %q", sub.Title)
	}
}

func TestImportValidation(t *testing.T) {
	tests := []struct {
		name  string
		req   ImportRequest
		pages []pdf.Page
		err   error
	}{
		{"missing book", ImportRequest{Chapter: "Ibadet"}, []pdf.Page{{Number: 1, Text: "x"}}, nil},
		{"missing chapter", ImportRequest{BookName: "b"}, []pdf.Page{{Number: 1, Text: "x"}}, nil},
		{"no text", importRequest(), nil, nil},
		{"bad pdf", importRequest(), nil, errors.New("pdf reader: not a PDF")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockStore{}
			svc, _ := newTestImporter(store, &mockQueue{}, tt.pages)
			svc.extract = fakeExtract(tt.pages, tt.err)
			_, err := svc.Import(context.Background(), bytes.NewReader(nil), 0, tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if len(store.inserted) != 0 {
				t.Error("nothing should be inserted")
			}
		})
	}
}

func TestImportStoreFailureKeepsGeneration(t *testing.T) {
	store := &mockStore{insertErr: errStore}
	queue := &mockQueue{}
	svc, content := newTestImporter(store, queue, []pdf.Page{{Number: 1, Text: "metin"}})

	if _, err := svc.Import(context.Background(), bytes.NewReader(nil), 0, importRequest()); !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if content.Generation() != InitialGeneration {
		t.Error("generation must not change when the insert fails")
	}
	if len(queue.published) != 0 {
		t.Error("nothing should be published when the insert fails")
	}
}

func TestBuildRows(t *testing.T) {
	chunks := []pdf.Chunk{
		{FirstPage: 4, Text: "Oruç\nOrucun farzları."},
		{FirstPage: 5, Text: "Sahur"},
	}
	req := &ImportRequest{BookName: "Kitap", Chapter: "Ibadet", Section: "Oruc", Tags: "oruc"}
	rows := BuildRows(chunks, req)

	type placement struct{ Title, Section, Sub, Tags string }
	var got []placement
	for _, r := range rows {
		if r.AuthorName != nil {
			t.Error("empty author should stay NULL")
		}
		got = append(got, placement{*r.Title, *r.Section, *r.SubSection, *r.Tags})
	}
	want := []placement{
		{"Oruç", "Oruc", "Bolum 0001", "oruc"},
		{"Sahur", "Oruc", "Bolum 0002", "oruc"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildRowsKeepReadingOrder(t *testing.T) {
	var chunks []pdf.Chunk
	for i := 1; i <= 12; i++ {
		chunks = append(chunks, pdf.Chunk{FirstPage: i, Text: fmt.Sprintf("Parça %d", i)})
	}

	for _, section := range []string{"", "Namaz"} {
		t.Run("section="+section, func(t *testing.T) {
			rows := BuildRows(chunks, &ImportRequest{BookName: "Kitap", Chapter: "Ibadet", Section: section})
			// Same ordering as the content query: section, then subsection.
			sort.SliceStable(rows, func(i, j int) bool {
				if *rows[i].Section != *rows[j].Section {
					return *rows[i].Section < *rows[j].Section
				}
				return *rows[i].SubSection < *rows[j].SubSection
			})

			var got []string
			for _, ch := range catechism.Assemble(rows) {
				for _, sec := range ch.Sections {
					for _, sub := range sec.SubSections {
						got = append(got, sub.Title)
					}
				}
			}
			var want []string
			for i := 1; i <= 12; i++ {
				want = append(want, fmt.Sprintf("Parça %d", i))
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("reading order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
