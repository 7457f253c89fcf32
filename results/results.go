// Package results joins vote tallies onto photo records
package results

import (
	"context"
	"sort"

	"github.com/aouyang1/photocontest/contest"
	"github.com/aouyang1/photocontest/store"
)

// Source is the slice of the store the engine reads from.
type Source interface {
	Tally(ctx context.Context) (store.Tally, error)
	ListPhotos(ctx context.Context, contestSlug string) ([]store.Photo, error)
}

type PhotoVotes struct {
	store.Photo
	// Votes has an entry for every category the photo competes in.
	Votes map[string]int `json:"votes"`
}

type Entry struct {
	Photo store.Photo
	Votes int
}

// Ranking maps each category of a contest to its entries, most votes first.
type Ranking map[string][]Entry

type Engine struct {
	source   Source
	registry *contest.Registry
}

func NewEngine(source Source, registry *contest.Registry) *Engine {
	return &Engine{
		source:   source,
		registry: registry,
	}
}

// WithPhotoVotes attaches the current per-category counts to each photo.
func (e *Engine) WithPhotoVotes(ctx context.Context, photos []store.Photo) ([]PhotoVotes, error) {
	tally, err := e.source.Tally(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PhotoVotes, 0, len(photos))
	counts := tally.Counts()
	for _, p := range photos {
		votes := make(map[string]int, len(p.Categories))
		for _, category := range p.Categories {
			votes[category] = counts[category][p.ID]
		}
		out = append(out, PhotoVotes{Photo: p, Votes: votes})
	}
	return out, nil
}

// RankedResults ranks the photos of contest slug within each of its categories. Every category
// is present in the result, with an empty list when nobody has voted in it. Votes for photos
// that are gone or that belong to another contest are ignored.
func (e *Engine) RankedResults(ctx context.Context, slug string) (Ranking, error) {
	c, err := e.registry.Get(slug)
	if err != nil {
		return nil, err
	}

	photos, err := e.source.ListPhotos(ctx, slug)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]store.Photo, len(photos))
	for _, p := range photos {
		byID[p.ID] = p
	}

	tally, err := e.source.Tally(ctx)
	if err != nil {
		return nil, err
	}

	ranking := make(Ranking, len(c.Categories))
	for _, category := range c.Categories {
		entries := []Entry{}
		for _, t := range tally[category.ID] {
			p, ok := byID[t.PhotoID]
			if !ok {
				continue
			}
			entries = append(entries, Entry{Photo: p, Votes: t.VoteCount})
		}
		sortEntries(entries)
		ranking[category.ID] = entries
	}
	return ranking, nil
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Votes != entries[j].Votes {
			return entries[i].Votes > entries[j].Votes
		}
		return entries[i].Photo.ID < entries[j].Photo.ID
	})
}
