package datasets

import (
	"context"
	"fmt"
	"testing"
)

func seedCatalog(t *testing.T, svc *Service, ds ...Dataset) {
	t.Helper()
	for _, d := range ds {
		if _, err := svc.Register(context.Background(), d); err != nil {
			t.Fatalf("register %s: %v", d.Name, err)
		}
	}
}

func TestRegisterValidatesAndFillsDefaults(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	if _, err := svc.Register(context.Background(), Dataset{Name: "sales"}); err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, err := svc.Register(context.Background(), Dataset{Source: "upload:f1"}); err == nil {
		t.Fatal("expected error for missing name")
	}

	d, err := svc.Register(context.Background(), Dataset{Name: "sales", Source: "upload:f1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if d.ID == "" {
		t.Fatal("expected generated id")
	}
	if d.CreatedAt.IsZero() {
		t.Fatal("expected created timestamp")
	}
}

func TestRegisterReplacesSameNameAndSource(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	ctx := context.Background()

	seedCatalog(t, svc,
		Dataset{Name: "sales", Source: "upload:f1", RowCount: 10},
		Dataset{Name: "sales", Source: "upload:f1", RowCount: 25},
		Dataset{Name: "sales", Source: "upload:f2", RowCount: 5},
	)

	all, err := svc.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(all))
	}
	for _, d := range all {
		if d.Source == "upload:f1" && d.RowCount != 25 {
			t.Fatalf("re-register must replace, got rows %d", d.RowCount)
		}
	}
}

func TestRetrieveRanksByLexicalOverlap(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	seedCatalog(t, svc,
		Dataset{Name: "quarterly sales", Source: "upload:f1", Tags: []string{"revenue", "region"}, Columns: []string{"region", "revenue"}},
		Dataset{Name: "support tickets", Source: "upload:f2", Tags: []string{"tickets"}},
		Dataset{Name: "revenue forecast", Source: "upload:f3", Description: "projected revenue by region"},
	)

	out, err := svc.Retrieve(context.Background(), "how did revenue change by region?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 matches, got %d (%v)", len(out), out)
	}
	for _, d := range out {
		if d.Name == "support tickets" {
			t.Fatal("unrelated dataset must not match")
		}
	}
}

func TestRetrieveCapsResults(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}

	for i := 0; i < maxRetrieved+3; i++ {
		seedCatalog(t, svc, Dataset{
			Name:   fmt.Sprintf("revenue_%d", i),
			Source: fmt.Sprintf("upload:f%d", i),
			Tags:   []string{"revenue"},
		})
	}

	out, err := svc.Retrieve(context.Background(), "show revenue trends")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(out) != maxRetrieved {
		t.Fatalf("expected %d results, got %d", maxRetrieved, len(out))
	}
}

func TestRetrieveNoMatches(t *testing.T) {
	svc := &Service{Repo: NewMemoryRepo()}
	seedCatalog(t, svc, Dataset{Name: "sales", Source: "upload:f1"})

	out, err := svc.Retrieve(context.Background(), "weather in oslo")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no matches, got %v", out)
	}
}
