// Package issues maintains one externally hosted discussion thread per
// game: a durable, human-readable log of every report.
package issues

import (
	"context"
	"fmt"
	"log"

	"github.com/google/go-github/v66/github"

	"xenios/compat/internal/schema"
)

// Config addresses the issue tracker.
type Config struct {
	Owner string
	Repo  string
}

// Service creates and appends to per-game threads. No thread index is
// kept locally; the open thread is re-discovered on every operation so
// the service stays stateless between requests.
type Service struct {
	client *github.Client
	cfg    Config
}

// New builds a threader over an existing API client (shared with the
// document store; both talk to the same host).
func New(client *github.Client, cfg Config) *Service {
	return &Service{client: client, cfg: cfg}
}

// Sync creates the game's thread if none exists, otherwise appends the
// report as a comment and swaps the state/perf labels. Returns the thread
// URL.
//
// Discovery lists open category-labeled issues directly instead of using
// the search API: search indices lag behind writes, and a second report
// arriving right after thread creation must see the thread it would
// otherwise duplicate.
func (s *Service) Sync(ctx context.Context, report schema.Report) (string, error) {
	existing, err := s.find(ctx, report.TitleID)
	if err != nil {
		return "", err
	}

	if existing == nil {
		return s.create(ctx, report)
	}

	url, err := s.comment(ctx, existing.GetNumber(), report)
	if err != nil {
		return "", err
	}
	if err := s.relabel(ctx, existing, report); err != nil {
		// The comment landed; a stale label set heals on the next report.
		log.Printf("issues: label update for #%d failed: %v", existing.GetNumber(), err)
	}
	return url, nil
}

func (s *Service) find(ctx context.Context, titleID string) (*github.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{CategoryLabel},
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		page, resp, err := s.client.Issues.ListByRepo(ctx, s.cfg.Owner, s.cfg.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list threads: %w", err)
		}
		for _, issue := range page {
			if TitleMatchesGame(issue.GetTitle(), titleID) {
				return issue, nil
			}
		}
		if resp.NextPage == 0 {
			return nil, nil
		}
		opts.Page = resp.NextPage
	}
}

func (s *Service) create(ctx context.Context, report schema.Report) (string, error) {
	labels := Labels(report)
	issue, _, err := s.client.Issues.Create(ctx, s.cfg.Owner, s.cfg.Repo, &github.IssueRequest{
		Title:  github.String(IssueTitle(report)),
		Body:   github.String(BuildBody(report)),
		Labels: &labels,
	})
	if err != nil {
		return "", fmt.Errorf("create thread: %w", err)
	}
	return issue.GetHTMLURL(), nil
}

func (s *Service) comment(ctx context.Context, number int, report schema.Report) (string, error) {
	_, _, err := s.client.Issues.CreateComment(ctx, s.cfg.Owner, s.cfg.Repo, number, &github.IssueComment{
		Body: github.String(BuildBody(report)),
	})
	if err != nil {
		return "", fmt.Errorf("comment on thread #%d: %w", number, err)
	}
	return fmt.Sprintf("https://github.com/%s/%s/issues/%d", s.cfg.Owner, s.cfg.Repo, number), nil
}

func (s *Service) relabel(ctx context.Context, issue *github.Issue, report schema.Report) error {
	existing := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		existing = append(existing, l.GetName())
	}
	labels := MergeLabels(existing, report)
	_, _, err := s.client.Issues.Edit(ctx, s.cfg.Owner, s.cfg.Repo, issue.GetNumber(), &github.IssueRequest{
		Labels: &labels,
	})
	return err
}
