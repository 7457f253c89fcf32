package store

import "time"

type Photo struct {
	ID           int64     `json:"id"`
	UploaderName string    `json:"uploader_name"`
	Email        *string   `json:"email"`
	Caption      *string   `json:"caption"`
	Categories   []string  `json:"categories"`
	Filename     string    `json:"filename"`
	Contest      string    `json:"contest"`
	CreatedAt    time.Time `json:"created_at"`
}

// InCategory reports whether the photo was entered in category.
func (p Photo) InCategory(category string) bool {
	for _, c := range p.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// NewPhoto is a validated submission ready to be persisted.
type NewPhoto struct {
	UploaderName string
	Email        *string
	Caption      *string
	Categories   []string
	Filename     string
	Contest      string
}

// TallyEntry is the number of standing votes a photo holds in one category.
type TallyEntry struct {
	PhotoID   int64 `json:"photo_id"`
	VoteCount int   `json:"votes"`
}

// Tally maps a category id to its entries, highest vote count first.
type Tally map[string][]TallyEntry

// Counts indexes the tally by category and photo id. Photos without votes are absent, so a
// lookup of a missing pair reads zero.
func (t Tally) Counts() map[string]map[int64]int {
	counts := make(map[string]map[int64]int, len(t))
	for category, entries := range t {
		byPhoto := make(map[int64]int, len(entries))
		for _, entry := range entries {
			byPhoto[entry.PhotoID] = entry.VoteCount
		}
		counts[category] = byPhoto
	}
	return counts
}
