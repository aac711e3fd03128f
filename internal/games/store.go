package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

// ErrVersionConflict is returned by Commit when the document changed
// between Fetch and Commit. The write is rejected whole; callers do not
// retry, they surface the conflict (see the error handling design).
var ErrVersionConflict = errors.New("document version conflict")

// StoreConfig addresses the canonical JSON document.
type StoreConfig struct {
	Owner  string
	Repo   string
	Path   string
	Branch string
}

// Store reads and conditionally writes the hosted game list. It is the
// single source of truth; issue threads and notifications are projections
// rebuilt from it, never the other way around.
type Store struct {
	client *github.Client
	cfg    StoreConfig
}

// NewStore builds a store over the hosting API using a bearer token.
func NewStore(token string, cfg StoreConfig) *Store {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)
	return &Store{client: github.NewClient(httpClient), cfg: cfg}
}

// NewStoreWithClient builds a store over an existing API client. Tests
// point the client at an httptest server.
func NewStoreWithClient(client *github.Client, cfg StoreConfig) *Store {
	return &Store{client: client, cfg: cfg}
}

// Fetch returns the parsed game list and the opaque version token (the
// content SHA) of the document as read.
func (s *Store) Fetch(ctx context.Context) ([]Game, string, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Path, &github.RepositoryContentGetOptions{
		Ref: s.cfg.Branch,
	})
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", s.cfg.Path, err)
	}
	if file == nil {
		return nil, "", fmt.Errorf("fetch %s: not a file", s.cfg.Path)
	}

	raw, err := file.GetContent()
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", s.cfg.Path, err)
	}

	var list []Game
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", s.cfg.Path, err)
	}
	return list, file.GetSHA(), nil
}

// Commit writes the game list back, conditioned on sha still matching the
// server-side document. A mismatch surfaces as ErrVersionConflict and
// leaves the remote document untouched.
func (s *Store) Commit(ctx context.Context, list []Game, sha, message string) error {
	content, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.cfg.Path, err)
	}
	content = append(content, '\n')

	_, resp, err := s.client.Repositories.UpdateFile(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Path, &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		SHA:     github.String(sha),
		Branch:  github.String(s.cfg.Branch),
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return ErrVersionConflict
		}
		return fmt.Errorf("commit %s: %w", s.cfg.Path, err)
	}
	return nil
}
