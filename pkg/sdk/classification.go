package sdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
)

// Classifier defaults used by the backend when the query parameters are omitted.
const (
	DefaultMaxPhrases = 12
	DefaultTopK       = 5

	maxUploadBytes = 32 << 20
)

// ImageUpload is a medical image submitted for classification.
type ImageUpload struct {
	Filename string
	// ContentType is sniffed from the data when empty; it must be image/*.
	ContentType string
	Data        io.Reader

	MaxPhrases int
	TopK       int
}

// Classify uploads an image to the classifier. The request runs under the
// extended upload timeout.
func (c *Client) Classify(ctx context.Context, upload ImageUpload) (*AnalysisResult, error) {
	if upload.Data == nil {
		return nil, fmt.Errorf("%w: image data is required", ErrInvalidInput)
	}
	data, err := io.ReadAll(io.LimitReader(upload.Data, maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image is empty", ErrInvalidInput)
	}
	if len(data) > maxUploadBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidInput, maxUploadBytes)
	}

	contentType := upload.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: file must be an image (got %s)", ErrInvalidInput, contentType)
	}

	filename := filepath.Base(upload.Filename)
	if filename == "." || filename == string(filepath.Separator) {
		filename = "upload"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	maxPhrases, topK := upload.MaxPhrases, upload.TopK
	if maxPhrases <= 0 {
		maxPhrases = DefaultMaxPhrases
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	query := url.Values{}
	query.Set("max_phrases", strconv.Itoa(maxPhrases))
	query.Set("top_k", strconv.Itoa(topK))

	var result AnalysisResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/classification/classify",
		query:       query,
		rawBody:     &body,
		contentType: mw.FormDataContentType(),
		timeout:     c.uploadTimeout,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ClassificationHistory lists past classifications.
func (c *Client) ClassificationHistory(ctx context.Context) ([]HistoryItem, error) {
	var items []HistoryItem
	if err := c.do(ctx, request{method: http.MethodGet, path: "/classification/history"}, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetClassification fetches one stored classification.
func (c *Client) GetClassification(ctx context.Context, id int64) (*HistoryItem, error) {
	var item HistoryItem
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/classification/{id}",
		path:   idPath("/classification/%d", id),
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteClassification removes a stored classification.
func (c *Client) DeleteClassification(ctx context.Context, id int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/classification/{id}",
		path:   idPath("/classification/%d", id),
	}, nil)
}
