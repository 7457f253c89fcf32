// Package models tracks all api models for request and responses
package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/photocontest/contest"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ContestsResponse struct {
	Contests []contest.Contest `json:"contests"`
	Default  string            `json:"default"`
}

type PhotoResponse struct {
	ID           int64          `json:"id"`
	UploaderName string         `json:"uploader_name"`
	Email        *string        `json:"email"`
	Caption      *string        `json:"caption"`
	Categories   []string       `json:"categories"`
	Filename     string         `json:"filename"`
	Contest      string         `json:"contest"`
	CreatedAt    time.Time      `json:"created_at"`
	Votes        map[string]int `json:"votes"`
	ImageURL     string         `json:"image_url"`
	ThumbnailURL string         `json:"thumbnail_url"`
}

type PhotoListResponse struct {
	Photos     []PhotoResponse    `json:"photos"`
	Categories []contest.Category `json:"categories"`
	Contest    contest.Contest    `json:"contest"`
}

type CreatePhotoResponse struct {
	ID      int64  `json:"id"`
	Message string `json:"message"`
}

type ResultEntry struct {
	PhotoID      int64   `json:"photo_id"`
	UploaderName string  `json:"uploader_name"`
	Caption      *string `json:"caption"`
	ImageURL     string  `json:"image_url"`
	Votes        int     `json:"votes"`
}

type ResultsResponse struct {
	Results map[string][]ResultEntry `json:"results"`
	Contest contest.Contest          `json:"contest"`
}

// VoteRequest binds from JSON or a form post.
type VoteRequest struct {
	PhotoID  PhotoRef `json:"photo_id" form:"photo_id"`
	Category string   `json:"category" form:"category"`
}

// PhotoRef holds a photo id as sent by the client, which may be a JSON number, a quoted number,
// or anything else. Int64 reports whether it names a valid id. Booleans and fractional
// numbers never do.
type PhotoRef string

// maxExactFloat is the largest integer a JSON number decoded as float64 holds exactly.
const maxExactFloat = 1 << 53

func (r *PhotoRef) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		*r = ""
		return nil
	}
	*r = PhotoRef(n)

	// an unquoted number with an integral value, such as 5.0 or 5e0, names photo 5
	if len(b) > 0 && b[0] != '"' {
		if _, err := n.Int64(); err != nil {
			if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= maxExactFloat {
				*r = PhotoRef(strconv.FormatInt(int64(f), 10))
			}
		}
	}
	return nil
}

func (r PhotoRef) Int64() (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(string(r)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type VoteResponse struct {
	Message  string `json:"message"`
	Category string `json:"category"`
	PhotoID  int64  `json:"photo_id"`
	Contest  string `json:"contest"`
}
