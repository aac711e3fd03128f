// Package mirror re-hosts report attachments on S3-compatible storage.
// Chat CDN links expire; issue bodies and the games dataset need stable
// screenshot URLs. Best-effort: a failed mirror just means the original
// URL is used for the announcement and no screenshot is recorded.
package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds the storage endpoint. An empty Endpoint disables the
// mirror entirely.
type Config struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string
	UseSSL        bool
}

// Service uploads fetched attachments.
type Service struct {
	client        *minio.Client
	httpClient    *http.Client
	bucket        string
	publicBaseURL string
}

// New connects to the storage endpoint.
func New(cfg Config) (*Service, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &Service{
		client:        client,
		httpClient:    http.DefaultClient,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}, nil
}

// Mirror downloads sourceURL and uploads it under a content-addressed
// key, returning the stable public URL.
func (s *Service) Mirror(ctx context.Context, sourceURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build attachment request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch attachment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch attachment: status %d", resp.StatusCode)
	}

	key := ObjectKey(sourceURL)
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, resp.Body, resp.ContentLength, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload attachment: %w", err)
	}

	return s.publicBaseURL + "/" + key, nil
}

// ObjectKey derives a stable key from the source URL: a digest of the URL
// without its query (CDN links rotate signatures in the query string),
// keeping the original extension.
func ObjectKey(sourceURL string) string {
	base := sourceURL
	ext := ""
	if u, err := url.Parse(sourceURL); err == nil {
		u.RawQuery = ""
		base = u.String()
		ext = path.Ext(u.Path)
	}
	sum := sha256.Sum256([]byte(base))
	return "screenshots/" + hex.EncodeToString(sum[:8]) + ext
}
