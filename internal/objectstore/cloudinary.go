package objectstore

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const cloudinaryAPIBase = "https://api.cloudinary.com/v1_1"

// CloudinaryStore uploads with signed requests. public_id is the key, so a
// repeated upload replaces the earlier asset.
type CloudinaryStore struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	baseURL    string
	now        func() time.Time
	httpClient *http.Client
}

// NewCloudinaryStore creates a store uploading into folder.
func NewCloudinaryStore(cloudName, apiKey, apiSecret, folder string) (*CloudinaryStore, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary: cloud name, API key and secret are required")
	}
	return &CloudinaryStore{
		cloudName:  cloudName,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		folder:     folder,
		baseURL:    cloudinaryAPIBase,
		now:        time.Now,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// SetBaseURL overrides the API root (used by tests).
func (c *CloudinaryStore) SetBaseURL(u string) { c.baseURL = strings.TrimRight(u, "/") }

// Name implements Store.
func (c *CloudinaryStore) Name() string { return "cloudinary" }

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Format    string `json:"format"`
	Bytes     int    `json:"bytes"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload implements Store.
func (c *CloudinaryStore) Upload(ctx context.Context, data []byte, key string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyData
	}
	if err := validateKey(key); err != nil {
		return "", err
	}

	params := map[string]string{
		"public_id": key,
		"overwrite": "true",
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if c.folder != "" {
		params["folder"] = c.folder
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("failed to write field: %w", err)
		}
	}
	_ = w.WriteField("api_key", c.apiKey)
	_ = w.WriteField("signature", Sign(params, c.apiSecret))

	part, err := w.CreateFormFile("file", key+extension(data))
	if err != nil {
		return "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file part: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.baseURL, c.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed cloudinaryResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("cloudinary returned status %d: %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("cloudinary error (status %d): %s", resp.StatusCode, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || parsed.SecureURL == "" {
		return "", fmt.Errorf("cloudinary returned status %d without a URL", resp.StatusCode)
	}
	return parsed.SecureURL, nil
}

// Sign computes the request signature: the sorted k=v pairs joined by '&',
// followed by the secret, SHA-1 hex encoded.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
