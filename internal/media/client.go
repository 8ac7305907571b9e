package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	dErrors "carvest/pkg/domain-errors"
)

// Client uploads documents to the configured media host over HTTP. The host
// accepts a JSON body {file, path} and answers {secure_url}.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadRequest struct {
	File string `json:"file"`
	Path string `json:"path"`
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
}

func (c *Client) Upload(ctx context.Context, path, dataURI string) (string, error) {
	if err := validatePayload(dataURI); err != nil {
		return "", err
	}

	body, err := json.Marshal(uploadRequest{File: dataURI, Path: path})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode upload request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to build upload request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "media host unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("media host returned %d: %s", resp.StatusCode, detail))
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to decode upload response")
	}
	if decoded.SecureURL == "" {
		return "", dErrors.New(dErrors.CodeInternal, "media host returned no URL")
	}
	return decoded.SecureURL, nil
}
