// Package app wires the report pipeline: validation, the canonical
// document write, and the projections rebuilt from it.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"xenios/compat/internal/config"
	"xenios/compat/internal/games"
	"xenios/compat/internal/schema"
	"xenios/compat/internal/session"
)

// documentStore is the canonical dataset: fetch with a version token,
// commit conditioned on it.
type documentStore interface {
	Fetch(ctx context.Context) ([]games.Game, string, error)
	Commit(ctx context.Context, list []games.Game, sha, message string) error
}

// issueThreader maintains the per-game discussion thread projection.
type issueThreader interface {
	Sync(ctx context.Context, report schema.Report) (string, error)
}

// notifier posts the Discord projections.
type notifier interface {
	Announce(ctx context.Context, report schema.Report, issueURL string) error
	RefreshBoard(ctx context.Context, list []games.Game) error
}

// sessionStore bridges the two-step Discord report flow.
type sessionStore interface {
	Put(ctx context.Context, interactionID string, pending session.PendingReport) error
	Take(ctx context.Context, interactionID string) (session.PendingReport, error)
	Ping(ctx context.Context) error
}

// attachmentMirror re-hosts report screenshots; optional.
type attachmentMirror interface {
	Mirror(ctx context.Context, sourceURL string) (string, error)
}

// followupEditor patches the deferred Discord acknowledgement.
type followupEditor interface {
	EditOriginal(ctx context.Context, appID, token, content string) error
}

// PipelineResult is the outcome of a processed report.
type PipelineResult struct {
	Success  bool   `json:"success"`
	Game     string `json:"game"`
	Status   string `json:"status"`
	IssueURL string `json:"issueUrl"`
}

type Service struct {
	cfg      config.Config
	store    documentStore
	issues   issueThreader
	notify   notifier
	sessions sessionStore
	mirror   attachmentMirror
	followup followupEditor

	// background tracks detached pipeline runs spawned after a deferred
	// acknowledgement; shutdown waits for them.
	background sync.WaitGroup
}

func New(cfg config.Config, store documentStore, issues issueThreader, notify notifier, sessions sessionStore, mirror attachmentMirror, followup followupEditor) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		issues:   issues,
		notify:   notify,
		sessions: sessions,
		mirror:   mirror,
		followup: followup,
	}
}

// Games returns the canonical list as currently stored.
func (s *Service) Games(ctx context.Context) ([]games.Game, error) {
	list, _, err := s.store.Fetch(ctx)
	return list, err
}

// Ping checks the session cache connection for readiness probes.
func (s *Service) Ping(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

// ProcessReport runs the full pipeline for one validated report: commit
// to the canonical store, then rebuild the projections. The commit is the
// only fatal step; thread and notification failures are logged and the
// report still counts as processed.
func (s *Service) ProcessReport(ctx context.Context, report schema.Report) (PipelineResult, error) {
	if report.ImageURL != "" && s.mirror != nil {
		if mirrored, err := s.mirror.Mirror(ctx, report.ImageURL); err != nil {
			log.Printf("mirror: attachment %s: %v", report.ImageURL, err)
		} else {
			report.ImageURL = mirrored
		}
	}

	list, sha, err := s.store.Fetch(ctx)
	if err != nil {
		return PipelineResult{}, err
	}

	updated := games.Merge(list, report)

	message := fmt.Sprintf("compat: %s — %s on %s (%s) [via %s]",
		report.Title, report.Status, report.Device, schema.PlatformLabel(report.Platform), report.Source)
	if err := s.store.Commit(ctx, updated, sha, message); err != nil {
		return PipelineResult{}, err
	}

	issueURL := ""
	if url, err := s.issues.Sync(ctx, report); err != nil {
		log.Printf("issues: thread sync for %s failed: %v", report.TitleID, err)
	} else {
		issueURL = url
	}

	if err := s.notify.Announce(ctx, report, issueURL); err != nil {
		log.Printf("notify: announcement for %s failed: %v", report.TitleID, err)
	}
	if err := s.notify.RefreshBoard(ctx, updated); err != nil {
		log.Printf("notify: board refresh failed: %v", err)
	}

	return PipelineResult{
		Success:  true,
		Game:     report.Title,
		Status:   report.Status,
		IssueURL: issueURL,
	}, nil
}

// RebuildBoard re-renders the status board from the current dataset.
func (s *Service) RebuildBoard(ctx context.Context) error {
	list, _, err := s.store.Fetch(ctx)
	if err != nil {
		return err
	}
	if err := s.notify.RefreshBoard(ctx, list); err != nil {
		return domainError(502, "BOARD_FAILED", err.Error())
	}
	return nil
}

// spawn runs fn detached from the originating request. The response has
// already been written by the time fn runs; Wait drains these on
// shutdown so a restart doesn't abandon a half-finished pipeline.
func (s *Service) spawn(fn func(ctx context.Context)) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn(context.Background())
	}()
}

// Wait blocks until all detached pipeline runs have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

// normalizeSource clamps a caller-supplied source tag to the known
// channels; the direct report endpoint defaults to the app.
func normalizeSource(source string) string {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "github":
		return "github"
	default:
		return "app"
	}
}
