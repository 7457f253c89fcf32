// Package contest holds the static contest definitions and the category lookups used to
// validate submissions and votes
package contest

import (
	"errors"
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// DefaultSlug is the contest served when a request does not name one.
const DefaultSlug = "costumes"

var (
	ErrNotFound        = errors.New("contest not found")
	ErrUnknownCategory = errors.New("unknown category")
	ErrNoCategories    = errors.New("no categories")
)

type Category struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type Contest struct {
	Slug         string     `json:"slug"`
	Name         string     `json:"name"`
	Tagline      string     `json:"tagline"`
	NavLabel     string     `json:"nav_label"`
	UploadTitle  string     `json:"upload_title"`
	VoteTitle    string     `json:"vote_title"`
	ResultsTitle string     `json:"results_title"`
	Categories   []Category `json:"categories"`
}

// CategoryLabel returns the display label for id, or id itself when the contest has no such category.
func (c Contest) CategoryLabel(id string) string {
	for _, category := range c.Categories {
		if category.ID == id {
			return category.Label
		}
	}
	return id
}

// Registry is read-only once built and safe for concurrent use.
type Registry struct {
	contests []Contest
	bySlug   map[string]int

	categoryIDs    map[string]mapset.Set[string]
	allCategoryIDs mapset.Set[string]
	owner          map[string]string
}

// NewRegistry indexes contests in the given order. Slugs must be unique and a category id may
// only be declared by one contest.
func NewRegistry(contests ...Contest) (*Registry, error) {
	r := &Registry{
		bySlug:         make(map[string]int, len(contests)),
		categoryIDs:    make(map[string]mapset.Set[string], len(contests)),
		allCategoryIDs: mapset.NewThreadUnsafeSet[string](),
		owner:          make(map[string]string),
	}

	for _, c := range contests {
		if c.Slug == "" {
			return nil, errors.New("contest slug is required")
		}
		if _, ok := r.bySlug[c.Slug]; ok {
			return nil, fmt.Errorf("duplicate contest slug %q", c.Slug)
		}
		if len(c.Categories) == 0 {
			return nil, fmt.Errorf("contest %q has no categories", c.Slug)
		}

		ids := mapset.NewThreadUnsafeSet[string]()
		for _, category := range c.Categories {
			if owner, ok := r.owner[category.ID]; ok {
				return nil, fmt.Errorf("category %q declared by both %q and %q", category.ID, owner, c.Slug)
			}
			r.owner[category.ID] = c.Slug
			ids.Add(category.ID)
		}

		r.bySlug[c.Slug] = len(r.contests)
		r.contests = append(r.contests, c)
		r.categoryIDs[c.Slug] = ids
		r.allCategoryIDs = r.allCategoryIDs.Union(ids)
	}

	return r, nil
}

// Get returns the contest registered under slug, or ErrNotFound.
func (r *Registry) Get(slug string) (Contest, error) {
	i, ok := r.bySlug[slug]
	if !ok {
		return Contest{}, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return r.contests[i], nil
}

// CategoryIDsFor returns the category ids declared under slug. The returned set is a copy.
func (r *Registry) CategoryIDsFor(slug string) (mapset.Set[string], error) {
	ids, ok := r.categoryIDs[slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	return ids.Clone(), nil
}

// AllCategoryIDs returns the union of category ids across every contest. The returned set is a copy.
func (r *Registry) AllCategoryIDs() mapset.Set[string] {
	return r.allCategoryIDs.Clone()
}

// IsKnownCategory reports whether any contest declares id.
func (r *Registry) IsKnownCategory(id string) bool {
	return r.allCategoryIDs.Contains(id)
}

// ContestOf returns the slug of the contest that declares category id.
func (r *Registry) ContestOf(id string) (string, bool) {
	slug, ok := r.owner[id]
	return slug, ok
}

// List returns the contests in registration order.
func (r *Registry) List() []Contest {
	out := make([]Contest, len(r.contests))
	copy(out, r.contests)
	return out
}

// ValidateCategories checks that ids is non-empty and that every id belongs to the contest.
func (r *Registry) ValidateCategories(slug string, ids []string) error {
	valid, ok := r.categoryIDs[slug]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, slug)
	}
	if len(ids) == 0 {
		return ErrNoCategories
	}
	for _, id := range ids {
		if !valid.Contains(id) {
			return fmt.Errorf("%w: %s not in %s", ErrUnknownCategory, id, slug)
		}
	}
	return nil
}
