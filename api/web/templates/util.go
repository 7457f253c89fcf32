// Package templates renders the contest pages
package templates

import (
	"fmt"
	"net/url"

	"github.com/aouyang1/photocontest/results"
	"github.com/aouyang1/photocontest/thumbnail"
)

//go:generate templ generate

func ImageURL(filename string) string {
	return "/uploads/" + url.PathEscape(filename)
}

func ThumbnailURL(filename string) string {
	return fmt.Sprintf("/uploads/%s/%s", thumbnail.DirName, url.PathEscape(thumbnail.Name(filename)))
}

func pageURL(slug, page string) string {
	return fmt.Sprintf("/%s/%s", url.PathEscape(slug), page)
}

func qrURL(slug string) string {
	return fmt.Sprintf("/%s/qr.png", url.PathEscape(slug))
}

func votesLabel(n int) string {
	if n == 1 {
		return "1 vote"
	}
	return fmt.Sprintf("%d votes", n)
}

// voteKey identifies a live counter on the page, matching the category and photo of a
// vote.cast message.
func voteKey(category string, photoID int64) string {
	return fmt.Sprintf("%s:%d", category, photoID)
}

// entriesIn returns the photos entered in category, keeping their order.
func entriesIn(photos []results.PhotoVotes, category string) []results.PhotoVotes {
	var entries []results.PhotoVotes
	for _, p := range photos {
		if _, ok := p.Votes[category]; ok {
			entries = append(entries, p)
		}
	}
	return entries
}

func altText(caption *string) string {
	if caption == nil {
		return "Contest entry"
	}
	return *caption
}
