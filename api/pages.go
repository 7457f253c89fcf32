package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/aouyang1/photocontest/api/models"
	"github.com/aouyang1/photocontest/api/web/templates"
	"github.com/aouyang1/photocontest/contest"
)

type page int

const (
	pageUpload page = iota
	pageVote
	pageResults
)

const qrSize = 256

func (ws *WebServer) handleIndex(c *gin.Context) {
	contests := ws.registry.List()
	render(c, http.StatusOK, templates.Layout("Photo Contest", contests, "", templates.Index(contests)))
}

// contestPage serves p for the contest in the :slug path parameter, or the default contest on
// the unprefixed routes.
func (ws *WebServer) contestPage(p page) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := c.Param("slug")
		if slug == "" {
			slug = contest.DefaultSlug
		}

		contests := ws.registry.List()
		ct, err := ws.registry.Get(slug)
		if err != nil {
			render(c, http.StatusNotFound,
				templates.Layout("Not found", contests, "", templates.NotFound("There is no contest called "+slug+".")))
			return
		}

		ctx := c.Request.Context()
		switch p {
		case pageUpload:
			render(c, http.StatusOK, templates.Layout(ct.UploadTitle, contests, slug, templates.Upload(ct)))

		case pageVote:
			photos, err := ws.db.ListPhotos(ctx, slug)
			if err != nil {
				storageError(c, "failed to list photos", err)
				return
			}
			annotated, err := ws.engine.WithPhotoVotes(ctx, photos)
			if err != nil {
				storageError(c, "failed to tally votes", err)
				return
			}
			render(c, http.StatusOK, templates.Layout(ct.VoteTitle, contests, slug, templates.Vote(ct, annotated)))

		case pageResults:
			ranking, err := ws.engine.RankedResults(ctx, slug)
			if err != nil {
				storageError(c, "failed to rank results", err)
				return
			}
			render(c, http.StatusOK, templates.Layout(ct.ResultsTitle, contests, slug, templates.Results(ct, ranking)))
		}
	}
}

// handleQRCode serves a PNG QR code linking to the contest's vote page.
func (ws *WebServer) handleQRCode(c *gin.Context) {
	slug := c.Param("slug")
	if _, err := ws.registry.Get(slug); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: msgUnknownContest})
		return
	}

	target := ws.baseURL(c) + "/" + slug + "/vote"
	png, err := qrcode.Encode(target, qrcode.Medium, qrSize)
	if err != nil {
		storageError(c, "failed to encode qr code", err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}

func (ws *WebServer) baseURL(c *gin.Context) string {
	if ws.opts.PublicURL != "" {
		return strings.TrimRight(ws.opts.PublicURL, "/")
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + c.Request.Host
}
