package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/aouyang1/photocontest/api/models"
)

// APIError is returned when the server answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// ContestClient talks to the contest JSON API. It keeps cookies, so votes cast through one client
// share a voter token.
type ContestClient struct {
	baseURL string
	client  *http.Client
}

func NewContestClient(baseURL string) *ContestClient {
	jar, _ := cookiejar.New(nil)
	return &ContestClient{
		baseURL: baseURL,
		client:  &http.Client{Jar: jar},
	}
}

type Submission struct {
	Contest      string
	UploaderName string
	Email        string
	Caption      string
	Categories   []string
	Filename     string
	Photo        io.Reader
}

func (cc *ContestClient) Health(ctx context.Context) error {
	var resp models.StatusResponse
	return cc.do(ctx, http.MethodGet, "/healthz", nil, "", &resp)
}

func (cc *ContestClient) Contests(ctx context.Context) (models.ContestsResponse, error) {
	var resp models.ContestsResponse
	err := cc.do(ctx, http.MethodGet, "/api/contests", nil, "", &resp)
	return resp, err
}

func (cc *ContestClient) Photos(ctx context.Context, contest string) (models.PhotoListResponse, error) {
	var resp models.PhotoListResponse
	err := cc.do(ctx, http.MethodGet, "/api/photos?contest="+url.QueryEscape(contest), nil, "", &resp)
	return resp, err
}

func (cc *ContestClient) Results(ctx context.Context, contest string) (models.ResultsResponse, error) {
	var resp models.ResultsResponse
	err := cc.do(ctx, http.MethodGet, "/api/results?contest="+url.QueryEscape(contest), nil, "", &resp)
	return resp, err
}

func (cc *ContestClient) Vote(ctx context.Context, photoID int64, category string) (models.VoteResponse, error) {
	jsonData, err := json.Marshal(map[string]any{"photo_id": photoID, "category": category})
	if err != nil {
		return models.VoteResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	var resp models.VoteResponse
	err = cc.do(ctx, http.MethodPost, "/api/votes", bytes.NewReader(jsonData), "application/json", &resp)
	return resp, err
}

// Submit uploads a photo entry as a multipart form.
func (cc *ContestClient) Submit(ctx context.Context, s Submission) (models.CreatePhotoResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := map[string]string{
		"contest":       s.Contest,
		"uploader_name": s.UploaderName,
		"email":         s.Email,
		"caption":       s.Caption,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return models.CreatePhotoResponse{}, err
		}
	}
	for _, category := range s.Categories {
		if err := mw.WriteField("categories", category); err != nil {
			return models.CreatePhotoResponse{}, err
		}
	}
	if s.Photo != nil {
		part, err := mw.CreateFormFile("photo", s.Filename)
		if err != nil {
			return models.CreatePhotoResponse{}, err
		}
		if _, err := io.Copy(part, s.Photo); err != nil {
			return models.CreatePhotoResponse{}, fmt.Errorf("failed to copy photo: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return models.CreatePhotoResponse{}, err
	}

	var resp models.CreatePhotoResponse
	err := cc.do(ctx, http.MethodPost, "/api/photos", &body, mw.FormDataContentType(), &resp)
	return resp, err
}

func (cc *ContestClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, cc.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := cc.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
