package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aouyang1/photocontest/api/models"
	"github.com/aouyang1/photocontest/api/web/templates"
	"github.com/aouyang1/photocontest/contest"
	"github.com/aouyang1/photocontest/store"
	"github.com/aouyang1/photocontest/thumbnail"
	"github.com/aouyang1/photocontest/util"
)

const (
	msgPhotoSubmitted    = "Photo submitted! Share the voting page so the hype begins."
	msgUploadBadContest  = "Unknown contest. Please refresh the page."
	msgUploadNoName      = "Please include a name so we know who to cheer for!"
	msgUploadNoCategory  = "Pick at least one superlative to enter."
	msgUploadBadCategory = "One or more selected superlatives are not valid."
	msgUploadNoFile      = "Please attach a photo to your submission."
	msgUploadBadExt      = "Only png, jpg, jpeg, and gif files are allowed."
	msgUploadBadForm     = "We could not read that upload. Please try again."
)

func (ws *WebServer) handleListPhotos(c *gin.Context) {
	ct, ok := ws.resolveContest(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	photos, err := ws.db.ListPhotos(ctx, ct.Slug)
	if err != nil {
		storageError(c, "failed to list photos", err)
		return
	}
	annotated, err := ws.engine.WithPhotoVotes(ctx, photos)
	if err != nil {
		storageError(c, "failed to tally votes", err)
		return
	}

	resp := models.PhotoListResponse{
		Photos:     make([]models.PhotoResponse, 0, len(annotated)),
		Categories: ct.Categories,
		Contest:    ct,
	}
	for _, p := range annotated {
		resp.Photos = append(resp.Photos, models.PhotoResponse{
			ID:           p.ID,
			UploaderName: p.UploaderName,
			Email:        p.Email,
			Caption:      p.Caption,
			Categories:   p.Categories,
			Filename:     p.Filename,
			Contest:      p.Contest,
			CreatedAt:    p.CreatedAt,
			Votes:        p.Votes,
			ImageURL:     templates.ImageURL(p.Filename),
			ThumbnailURL: templates.ThumbnailURL(p.Filename),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (ws *WebServer) handleCreatePhoto(c *gin.Context) {
	if ws.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, ws.opts.MaxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(ws.router.MaxMultipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
				Error: fmt.Sprintf("That photo is too large. The limit is %d MB.", maxErr.Limit>>20),
			})
			return
		}
		slog.Warn("unreadable upload", "error", err)
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUploadBadForm})
		return
	}

	slug := c.DefaultPostForm("contest", contest.DefaultSlug)
	if _, err := ws.registry.Get(slug); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUploadBadContest})
		return
	}

	uploaderName := strings.TrimSpace(c.PostForm("uploader_name"))
	if uploaderName == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUploadNoName})
		return
	}

	categories := parseCategories(c.PostFormArray("categories"))
	if len(categories) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUploadNoCategory})
		return
	}
	if err := ws.registry.ValidateCategories(slug, categories); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUploadBadCategory})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil || file.Filename == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUploadNoFile})
		return
	}
	ext, ok := util.NormalizedExt(file.Filename)
	if !ok {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msgUploadBadExt})
		return
	}

	if err := os.MkdirAll(ws.opts.UploadDir, 0o755); err != nil {
		storageError(c, "failed to create upload directory", err)
		return
	}

	filename := strings.ReplaceAll(uuid.NewString(), "-", "") + ext
	filePath := filepath.Join(ws.opts.UploadDir, filename)
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		storageError(c, "failed to save upload", err)
		return
	}

	id, err := ws.db.CreatePhoto(c.Request.Context(), store.NewPhoto{
		UploaderName: uploaderName,
		Email:        optionalField(c.PostForm("email")),
		Caption:      optionalField(c.PostForm("caption")),
		Categories:   categories,
		Filename:     filename,
		Contest:      slug,
	})
	if err != nil {
		// Clean up file if DB insert fails
		os.Remove(filePath)
		storageError(c, "failed to insert photo", err)
		return
	}

	thumbDir := filepath.Join(ws.opts.UploadDir, thumbnail.DirName)
	if _, err := thumbnail.Generate(filePath, thumbDir, ws.opts.ThumbMaxDim); err != nil {
		slog.Warn("unable to generate thumbnail", "name", filename, "error", err)
	}

	slog.Info("photo submitted", "id", id, "contest", slug, "categories", categories)
	c.JSON(http.StatusOK, models.CreatePhotoResponse{ID: id, Message: msgPhotoSubmitted})
}

// parseCategories accepts the categories field either repeated or as one JSON array, and returns
// the distinct values sorted.
func parseCategories(raw []string) []string {
	if len(raw) == 1 && strings.HasPrefix(strings.TrimSpace(raw[0]), "[") {
		var decoded []string
		if err := json.Unmarshal([]byte(raw[0]), &decoded); err != nil {
			return nil
		}
		raw = decoded
	}

	categories := slices.Clone(raw)
	slices.Sort(categories)
	return slices.Compact(categories)
}

func optionalField(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
