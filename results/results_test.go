package results

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/aouyang1/photocontest/contest"
	"github.com/aouyang1/photocontest/store"
)

type fixture struct {
	db     *store.Database
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &fixture{
		db:     db,
		engine: NewEngine(db, contest.DefaultRegistry()),
	}
}

func (f *fixture) photo(t *testing.T, name, slug string, categories ...string) int64 {
	t.Helper()

	id, err := f.db.CreatePhoto(context.Background(), store.NewPhoto{
		UploaderName: name,
		Categories:   categories,
		Filename:     name + ".jpg",
		Contest:      slug,
	})
	if err != nil {
		t.Fatalf("CreatePhoto: %v", err)
	}
	return id
}

func (f *fixture) vote(t *testing.T, photoID int64, category, voter string) {
	t.Helper()

	if _, err := f.db.RecordVote(context.Background(), photoID, category, voter); err != nil {
		t.Fatalf("RecordVote: %v", err)
	}
}

func TestWithPhotoVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p1 := f.photo(t, "ana", "costumes", "best_costume", "funniest")
	p2 := f.photo(t, "ben", "costumes", "funniest")
	f.vote(t, p1, "best_costume", "A")
	f.vote(t, p1, "best_costume", "B")
	f.vote(t, p2, "funniest", "A")

	photos, err := f.db.ListPhotos(ctx, "costumes")
	if err != nil {
		t.Fatal(err)
	}
	annotated, err := f.engine.WithPhotoVotes(ctx, photos)
	if err != nil {
		t.Fatal(err)
	}
	if len(annotated) != 2 {
		t.Fatalf("expected 2 photos, got %d", len(annotated))
	}

	want := map[int64]map[string]int{
		p1: {"best_costume": 2, "funniest": 0},
		p2: {"funniest": 1},
	}
	for _, pv := range annotated {
		expected := want[pv.ID]
		if len(pv.Votes) != len(expected) {
			t.Errorf("photo %d: expected %v, got %v", pv.ID, expected, pv.Votes)
			continue
		}
		for category, count := range expected {
			got, ok := pv.Votes[category]
			if !ok || got != count {
				t.Errorf("photo %d %s: expected %d, got %d (present=%v)", pv.ID, category, count, got, ok)
			}
		}
	}
}

func TestWithPhotoVotesEmpty(t *testing.T) {
	f := newFixture(t)

	annotated, err := f.engine.WithPhotoVotes(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(annotated) != 0 {
		t.Errorf("expected no photos, got %v", annotated)
	}
}

func TestRankedResults(t *testing.T) {
	f := newFixture(t)

	p1 := f.photo(t, "ana", "costumes", "best_costume")
	p2 := f.photo(t, "ben", "costumes", "best_costume", "scariest")
	p3 := f.photo(t, "cal", "costumes", "best_costume")

	f.vote(t, p3, "best_costume", "A")
	f.vote(t, p3, "best_costume", "B")
	f.vote(t, p1, "best_costume", "C")
	f.vote(t, p2, "best_costume", "D")
	f.vote(t, p2, "scariest", "A")

	ranking, err := f.engine.RankedResults(context.Background(), "costumes")
	if err != nil {
		t.Fatal(err)
	}

	costumes, err := contest.DefaultRegistry().Get("costumes")
	if err != nil {
		t.Fatal(err)
	}
	if len(ranking) != len(costumes.Categories) {
		t.Errorf("expected every category present, got %d keys", len(ranking))
	}
	for _, category := range costumes.Categories {
		entries, ok := ranking[category.ID]
		if !ok {
			t.Errorf("category %s missing", category.ID)
		}
		if entries == nil {
			t.Errorf("category %s should be an empty list, not nil", category.ID)
		}
	}

	best := ranking["best_costume"]
	wantOrder := []struct {
		id    int64
		votes int
	}{{p3, 2}, {p1, 1}, {p2, 1}}
	if len(best) != len(wantOrder) {
		t.Fatalf("expected %d entries, got %d", len(wantOrder), len(best))
	}
	for i, w := range wantOrder {
		if best[i].Photo.ID != w.id || best[i].Votes != w.votes {
			t.Errorf("position %d: expected photo %d with %d votes, got photo %d with %d",
				i, w.id, w.votes, best[i].Photo.ID, best[i].Votes)
		}
	}
	if best[0].Photo.UploaderName != "cal" {
		t.Errorf("expected photo metadata to be joined, got %+v", best[0].Photo)
	}

	if got := ranking["funniest"]; len(got) != 0 {
		t.Errorf("funniest should be empty, got %v", got)
	}
}

func TestRankedResultsIsolatesContests(t *testing.T) {
	f := newFixture(t)

	costume := f.photo(t, "ana", "costumes", "best_costume")
	pumpkin := f.photo(t, "ben", "pumpkins", "pumpkin_cute")
	f.vote(t, costume, "best_costume", "A")
	f.vote(t, pumpkin, "pumpkin_cute", "A")

	ranking, err := f.engine.RankedResults(context.Background(), "costumes")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ranking["pumpkin_cute"]; ok {
		t.Error("pumpkin category leaked into costume results")
	}
	for category, entries := range ranking {
		for _, e := range entries {
			if e.Photo.ID == pumpkin {
				t.Errorf("pumpkin photo appeared under %s", category)
			}
		}
	}

	ranking, err = f.engine.RankedResults(context.Background(), "pumpkins")
	if err != nil {
		t.Fatal(err)
	}
	if got := ranking["pumpkin_cute"]; len(got) != 1 || got[0].Photo.ID != pumpkin {
		t.Errorf("expected pumpkin photo ranked, got %v", got)
	}
}

func TestRankedResultsUnknownContest(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.RankedResults(context.Background(), "bakeoff")
	if !errors.Is(err, contest.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// staleSource reports votes for a photo that no longer lists.
type staleSource struct {
	photos []store.Photo
	tally  store.Tally
}

func (s staleSource) Tally(context.Context) (store.Tally, error) { return s.tally, nil }

func (s staleSource) ListPhotos(context.Context, string) ([]store.Photo, error) {
	return s.photos, nil
}

func TestRankedResultsDropsUnresolvedPhotos(t *testing.T) {
	source := staleSource{
		photos: []store.Photo{{ID: 1, UploaderName: "ana", Categories: []string{"spookiest"}, Contest: "costumes"}},
		tally: store.Tally{
			"spookiest": {{PhotoID: 7, VoteCount: 5}, {PhotoID: 1, VoteCount: 1}},
		},
	}
	engine := NewEngine(source, contest.DefaultRegistry())

	ranking, err := engine.RankedResults(context.Background(), "costumes")
	if err != nil {
		t.Fatal(err)
	}
	got := ranking["spookiest"]
	if len(got) != 1 || got[0].Photo.ID != 1 || got[0].Votes != 1 {
		t.Errorf("expected only photo 1, got %v", got)
	}
}

func manyPhotoSource(n int) staleSource {
	var source staleSource
	source.tally = store.Tally{}
	for i := range n {
		id := int64(i + 1)
		source.photos = append(source.photos, store.Photo{ID: id, Categories: []string{"spookiest", "funniest"}, Contest: "costumes"})
		// every third photo has no spookiest votes
		if i%3 != 0 {
			source.tally["spookiest"] = append(source.tally["spookiest"], store.TallyEntry{PhotoID: id, VoteCount: i})
		}
	}
	return source
}

func TestWithPhotoVotesManyPhotos(t *testing.T) {
	source := manyPhotoSource(3000)
	engine := NewEngine(source, contest.DefaultRegistry())

	out, err := engine.WithPhotoVotes(context.Background(), source.photos)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(source.photos) {
		t.Fatalf("expected %d photos, got %d", len(source.photos), len(out))
	}
	for i, pv := range out {
		want := i
		if i%3 == 0 {
			want = 0
		}
		if pv.Votes["spookiest"] != want || pv.Votes["funniest"] != 0 {
			t.Fatalf("photo %d: unexpected votes %v", pv.ID, pv.Votes)
		}
		if _, ok := pv.Votes["funniest"]; !ok {
			t.Fatalf("photo %d: expected a zero entry for funniest", pv.ID)
		}
	}
}

func BenchmarkWithPhotoVotes(b *testing.B) {
	source := manyPhotoSource(5000)
	engine := NewEngine(source, contest.DefaultRegistry())
	ctx := context.Background()

	b.ResetTimer()
	for range b.N {
		if _, err := engine.WithPhotoVotes(ctx, source.photos); err != nil {
			b.Fatal(err)
		}
	}
}
