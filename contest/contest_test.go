package contest

import (
	"errors"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	contests := r.List()
	if len(contests) != 2 {
		t.Fatalf("expected 2 contests, got %d", len(contests))
	}
	if contests[0].Slug != "costumes" || contests[1].Slug != "pumpkins" {
		t.Errorf("unexpected contest order: %s, %s", contests[0].Slug, contests[1].Slug)
	}

	c, err := r.Get(DefaultSlug)
	if err != nil {
		t.Fatalf("Get(%q): %v", DefaultSlug, err)
	}
	if len(c.Categories) != 5 {
		t.Errorf("expected 5 costume categories, got %d", len(c.Categories))
	}
	if got := c.CategoryLabel("best_diy"); got != "Top DIY Costume" {
		t.Errorf("CategoryLabel(best_diy) = %q", got)
	}
}

func TestGetUnknown(t *testing.T) {
	r := DefaultRegistry()
	if _, err := r.Get("bakeoff"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.CategoryIDsFor("bakeoff"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCategoryIDs(t *testing.T) {
	r := DefaultRegistry()

	costumeIDs, err := r.CategoryIDsFor("costumes")
	if err != nil {
		t.Fatal(err)
	}
	if !costumeIDs.Contains("best_costume", "funniest") {
		t.Errorf("costume categories missing expected ids: %v", costumeIDs)
	}
	if costumeIDs.Contains("pumpkin_cute") {
		t.Error("costume categories should not contain pumpkin_cute")
	}

	all := r.AllCategoryIDs()
	if all.Cardinality() != 11 {
		t.Errorf("expected 11 categories overall, got %d", all.Cardinality())
	}

	// callers get copies
	all.Add("tampered")
	if r.IsKnownCategory("tampered") {
		t.Error("mutating AllCategoryIDs result leaked into the registry")
	}

	if slug, ok := r.ContestOf("pumpkin_cute"); !ok || slug != "pumpkins" {
		t.Errorf("ContestOf(pumpkin_cute) = %q, %v", slug, ok)
	}
}

func TestValidateCategories(t *testing.T) {
	r := DefaultRegistry()

	tests := []struct {
		name string
		slug string
		ids  []string
		want error
	}{
		{"valid subset", "costumes", []string{"best_costume", "funniest"}, nil},
		{"empty", "costumes", nil, ErrNoCategories},
		{"other contest category", "costumes", []string{"pumpkin_cute"}, ErrUnknownCategory},
		{"mixed", "pumpkins", []string{"pumpkin_cute", "spookiest"}, ErrUnknownCategory},
		{"unknown contest", "bakeoff", []string{"best_costume"}, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.ValidateCategories(tt.slug, tt.ids)
			if tt.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	a := Contest{Slug: "a", Categories: []Category{{ID: "x", Label: "X"}}}
	b := Contest{Slug: "b", Categories: []Category{{ID: "x", Label: "X again"}}}

	if _, err := NewRegistry(a, a); err == nil {
		t.Error("expected duplicate slug error")
	}
	if _, err := NewRegistry(a, b); err == nil {
		t.Error("expected duplicate category error")
	}
	if _, err := NewRegistry(Contest{Slug: "empty"}); err == nil {
		t.Error("expected error for contest without categories")
	}
}
