package store

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRecordVoteRevoteMovesVote(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	a := createTestPhoto(t, d, "costumes", "spookiest")
	b := createTestPhoto(t, d, "costumes", "spookiest")

	if _, err := d.RecordVote(ctx, a, "spookiest", "voter-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.RecordVote(ctx, b, "spookiest", "voter-1"); err != nil {
		t.Fatal(err)
	}

	var rows int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM votes WHERE voter_token = ? AND category = ?`, "voter-1", "spookiest",
	).Scan(&rows); err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Fatalf("expected 1 vote row, got %d", rows)
	}

	tally, err := d.Tally(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counts := tally.Counts()
	if got := counts["spookiest"][a]; got != 0 {
		t.Errorf("photo A should have lost its vote, has %d", got)
	}
	if got := counts["spookiest"][b]; got != 1 {
		t.Errorf("photo B should hold the vote, has %d", got)
	}
}

func TestRecordVoteReturnsPreviousPhoto(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	a := createTestPhoto(t, d, "costumes", "spookiest", "funniest")
	b := createTestPhoto(t, d, "costumes", "spookiest")

	steps := []struct {
		photo    int64
		category string
		want     int64
	}{
		{a, "spookiest", 0},
		{b, "spookiest", a},
		{b, "spookiest", b},
		{a, "funniest", 0},
		{a, "spookiest", b},
	}
	for i, step := range steps {
		previous, err := d.RecordVote(ctx, step.photo, step.category, "voter-1")
		if err != nil {
			t.Fatal(err)
		}
		if previous != step.want {
			t.Errorf("step %d: expected previous photo %d, got %d", i, step.want, previous)
		}
	}
}

func TestRecordVoteIsIdempotent(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	p := createTestPhoto(t, d, "costumes", "best_costume")
	for range 3 {
		if _, err := d.RecordVote(ctx, p, "best_costume", "voter-1"); err != nil {
			t.Fatal(err)
		}
	}

	count, err := d.PhotoVoteCount(ctx, p, "best_costume")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 vote, got %d", count)
	}
}

func TestRecordVoteIndependentCategories(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	p := createTestPhoto(t, d, "costumes", "best_costume", "funniest")
	for _, category := range []string{"best_costume", "funniest"} {
		if _, err := d.RecordVote(ctx, p, category, "voter-1"); err != nil {
			t.Fatal(err)
		}
	}

	tally, err := d.Tally(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counts := tally.Counts()
	if counts["best_costume"][p] != 1 || counts["funniest"][p] != 1 {
		t.Errorf("expected one vote in each category, got %v", tally)
	}
}

func TestRecordVoteUnknownPhoto(t *testing.T) {
	d := newTestDatabase(t)

	if _, err := d.RecordVote(context.Background(), 999, "spookiest", "voter-1"); err == nil {
		t.Error("expected foreign key failure for missing photo")
	}
}

func TestTally(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	p1 := createTestPhoto(t, d, "costumes", "best_costume", "spookiest")
	p2 := createTestPhoto(t, d, "costumes", "best_costume")
	p3 := createTestPhoto(t, d, "costumes", "best_costume")

	votes := []struct {
		photo    int64
		category string
		voter    string
	}{
		{p2, "best_costume", "v1"},
		{p2, "best_costume", "v2"},
		{p1, "best_costume", "v3"},
		{p3, "best_costume", "v4"},
		{p1, "spookiest", "v1"},
	}
	for _, v := range votes {
		if _, err := d.RecordVote(ctx, v.photo, v.category, v.voter); err != nil {
			t.Fatal(err)
		}
	}

	tally, err := d.Tally(ctx)
	if err != nil {
		t.Fatal(err)
	}

	want := map[string][]TallyEntry{
		"best_costume": {{p2, 2}, {p1, 1}, {p3, 1}},
		"spookiest":    {{p1, 1}},
	}
	if len(tally) != len(want) {
		t.Fatalf("expected %d categories, got %v", len(want), tally)
	}
	for category, entries := range want {
		got := tally[category]
		if fmt.Sprint(got) != fmt.Sprint(entries) {
			t.Errorf("%s: expected %v, got %v", category, entries, got)
		}
	}

	if _, ok := tally["funniest"]; ok {
		t.Error("category without votes should be absent")
	}
}

func TestTallyEmpty(t *testing.T) {
	d := newTestDatabase(t)

	tally, err := d.Tally(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tally) != 0 {
		t.Errorf("expected empty tally, got %v", tally)
	}
}

func TestRecordVoteConcurrent(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	p := createTestPhoto(t, d, "costumes", "scariest")

	const workers = 10
	var (
		wg       sync.WaitGroup
		failures atomic.Int32
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every worker repeats the same vote and also casts its own
			if _, err := d.RecordVote(ctx, p, "scariest", "shared-voter"); err != nil {
				t.Logf("shared vote: %v", err)
				failures.Add(1)
			}
			if _, err := d.RecordVote(ctx, p, "scariest", fmt.Sprintf("voter-%d", i)); err != nil {
				t.Logf("own vote: %v", err)
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if n := failures.Load(); n > 0 {
		t.Fatalf("%d concurrent votes failed", n)
	}

	count, err := d.PhotoVoteCount(ctx, p, "scariest")
	if err != nil {
		t.Fatal(err)
	}
	if count != workers+1 {
		t.Errorf("expected %d votes, got %d", workers+1, count)
	}
}

func TestTallyTwoVotersOnePhoto(t *testing.T) {
	d := newTestDatabase(t)
	ctx := context.Background()

	p1 := createTestPhoto(t, d, "costumes", "best_costume", "funniest")
	for _, voter := range []string{"A", "B"} {
		if _, err := d.RecordVote(ctx, p1, "best_costume", voter); err != nil {
			t.Fatal(err)
		}
	}

	tally, err := d.Tally(ctx)
	if err != nil {
		t.Fatal(err)
	}
	got := tally["best_costume"]
	if len(got) != 1 || got[0] != (TallyEntry{PhotoID: p1, VoteCount: 2}) {
		t.Errorf("expected [{%d 2}], got %v", p1, got)
	}
	if _, ok := tally["funniest"]; ok {
		t.Error("funniest has no votes and should be absent")
	}
}

func TestTallyCounts(t *testing.T) {
	tally := Tally{
		"best_costume": {{PhotoID: 2, VoteCount: 3}, {PhotoID: 1, VoteCount: 1}},
		"spookiest":    {},
	}

	counts := tally.Counts()
	if counts["best_costume"][2] != 3 || counts["best_costume"][1] != 1 {
		t.Errorf("unexpected best_costume counts %v", counts["best_costume"])
	}
	if counts["best_costume"][9] != 0 || counts["spookiest"][1] != 0 || counts["funniest"][1] != 0 {
		t.Error("expected missing pairs to read zero")
	}
	if len(counts) != 2 {
		t.Errorf("expected one entry per tallied category, got %v", counts)
	}
}
