package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aouyang1/photocontest/api/models"
	"github.com/aouyang1/photocontest/api/web/templates"
	"github.com/aouyang1/photocontest/contest"
)

func (ws *WebServer) handleListContests(c *gin.Context) {
	c.JSON(http.StatusOK, models.ContestsResponse{
		Contests: ws.registry.List(),
		Default:  contest.DefaultSlug,
	})
}

func (ws *WebServer) handleListCategories(c *gin.Context) {
	ct, ok := ws.resolveContest(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ct.Categories)
}

func (ws *WebServer) handleResults(c *gin.Context) {
	ct, ok := ws.resolveContest(c)
	if !ok {
		return
	}

	ranking, err := ws.engine.RankedResults(c.Request.Context(), ct.Slug)
	if err != nil {
		storageError(c, "failed to rank results", err)
		return
	}

	resp := models.ResultsResponse{
		Results: make(map[string][]models.ResultEntry, len(ranking)),
		Contest: ct,
	}
	for category, entries := range ranking {
		out := make([]models.ResultEntry, 0, len(entries))
		for _, e := range entries {
			out = append(out, models.ResultEntry{
				PhotoID:      e.Photo.ID,
				UploaderName: e.Photo.UploaderName,
				Caption:      e.Photo.Caption,
				ImageURL:     templates.ImageURL(e.Photo.Filename),
				Votes:        e.Votes,
			})
		}
		resp.Results[category] = out
	}

	c.JSON(http.StatusOK, resp)
}
