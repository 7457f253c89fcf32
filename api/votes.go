package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aouyang1/photocontest/api/models"
)

const (
	voterCookie       = "voter_token"
	voterCookieMaxAge = 60 * 60 * 24 * 365

	msgVoteThanks          = "Thanks for voting!"
	msgVoteUnknownCategory = "Unknown superlative. Refresh and try again."
	msgVoteNoPhoto         = "Pick a photo before submitting your vote."
	msgVotePhotoMissing    = "That photo disappeared. Try another!"
	msgVoteNotCompeting    = "This photo is not competing in that superlative."
	msgVoteNotCounted      = "Vote not counted. Please try again."
)

func (ws *WebServer) handleCreateVote(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBind(&req); err != nil {
		// an unreadable body is treated as an empty one and fails validation below
		slog.Debug("unreadable vote request", "error", err)
		req = models.VoteRequest{}
	}

	if !ws.registry.IsKnownCategory(req.Category) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgVoteUnknownCategory})
		return
	}

	photoID, ok := req.PhotoID.Int64()
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgVoteNoPhoto})
		return
	}

	ctx := c.Request.Context()
	photo, err := ws.db.GetPhoto(ctx, photoID)
	if err != nil {
		storageError(c, "failed to get photo", err)
		return
	}
	if photo == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msgVotePhotoMissing})
		return
	}

	if !photo.InCategory(req.Category) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgVoteNotCompeting})
		return
	}
	if owner, _ := ws.registry.ContestOf(req.Category); owner != photo.Contest {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgVoteNotCompeting})
		return
	}

	voterToken, err := c.Cookie(voterCookie)
	tokenCreated := false
	if err != nil || voterToken == "" {
		voterToken = strings.ReplaceAll(uuid.NewString(), "-", "")
		tokenCreated = true
	}

	previous, err := ws.db.RecordVote(ctx, photoID, req.Category, voterToken)
	if err != nil {
		slog.Error("failed to record vote", "photo_id", photoID, "category", req.Category, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: msgVoteNotCounted})
		return
	}

	// a moved vote changes the count of the photo it left as well
	if previous != 0 && previous != photoID {
		ws.publishVoteCount(ctx, photo.Contest, req.Category, previous)
	}
	ws.publishVoteCount(ctx, photo.Contest, req.Category, photoID)

	if tokenCreated {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(voterCookie, voterToken, voterCookieMaxAge, "/", "", false, true)
	}

	c.JSON(http.StatusOK, models.VoteResponse{
		Message:  msgVoteThanks,
		Category: req.Category,
		PhotoID:  photoID,
		Contest:  photo.Contest,
	})
}

func (ws *WebServer) publishVoteCount(ctx context.Context, contestSlug, category string, photoID int64) {
	count, err := ws.db.PhotoVoteCount(ctx, photoID, category)
	if err != nil {
		slog.Warn("unable to read vote count for live update", "photo_id", photoID, "error", err)
		return
	}
	ws.hub.VoteCast(contestSlug, category, photoID, count)
}
