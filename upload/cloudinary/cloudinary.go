package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-accounts/upload"
)

const defaultUploadURL = "https://api.cloudinary.com/v1_1/%s/image/upload"

// Config holds Cloudinary credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string

	UploadURL string

	HTTPClient *http.Client
}

// Client implements upload.ImageUploader against the Cloudinary REST API
// using signed uploads.
type Client struct {
	config     Config
	httpClient *http.Client
	now        func() time.Time
}

// New creates a new Cloudinary client.
func New(cfg Config) *Client {
	if cfg.UploadURL == "" {
		cfg.UploadURL = fmt.Sprintf(defaultUploadURL, cfg.CloudName)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
		now:        time.Now,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image as a signed upload and returns the secure URL.
func (c *Client) Upload(ctx context.Context, data []byte, params upload.Params) (string, error) {
	if err := upload.ValidateImage(data); err != nil {
		return "", err
	}

	fields := map[string]string{
		"timestamp": fmt.Sprintf("%d", c.now().Unix()),
	}
	if params.Folder != "" {
		fields["folder"] = params.Folder
	}
	if transformation := transformationFor(params); transformation != "" {
		fields["transformation"] = transformation
	}

	fields["signature"] = c.sign(fields)
	fields["api_key"] = c.config.APIKey
	fields["file"] = "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.UploadURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "cloudinary upload failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "cloudinary upload failed")
	}

	var uploaded uploadResponse
	if err := json.Unmarshal(raw, &uploaded); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode cloudinary response")
	}

	if resp.StatusCode != http.StatusOK || uploaded.Error != nil {
		message := "cloudinary upload rejected"
		if uploaded.Error != nil {
			message = uploaded.Error.Message
		}
		return "", goerrors.New(message, goerrors.CategoryOperation).
			WithMetadata(map[string]any{"status": resp.StatusCode})
	}

	if uploaded.SecureURL == "" {
		return "", goerrors.New("cloudinary response missing secure_url", goerrors.CategoryOperation)
	}

	return uploaded.SecureURL, nil
}

// sign computes the request signature: the sorted field pairs joined with
// ampersands, the API secret appended, SHA1 hex digested. The file and
// api_key fields are excluded per the Cloudinary contract.
func (c *Client) sign(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}

	digest := sha1.Sum([]byte(strings.Join(pairs, "&") + c.config.APISecret))
	return hex.EncodeToString(digest[:])
}

func transformationFor(params upload.Params) string {
	parts := []string{}
	if params.Width > 0 {
		parts = append(parts, fmt.Sprintf("w_%d", params.Width))
	}
	if params.Height > 0 {
		parts = append(parts, fmt.Sprintf("h_%d", params.Height))
	}
	if params.Crop != "" {
		parts = append(parts, "c_"+params.Crop)
	}
	return strings.Join(parts, ",")
}

var _ upload.ImageUploader = (*Client)(nil)
