// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/board-elections/eligibility"
	"github.com/danielhkuo/board-elections/models"
	"github.com/danielhkuo/board-elections/store"
)

// Settings are the notifier's configuration values.
type Settings struct {
	SiteURL          string
	AcceptancePeriod time.Duration
}

// Notifier builds and sends election notices.
type Notifier struct {
	db        *sql.DB
	mailer    Mailer
	evaluator *eligibility.Evaluator
	settings  Settings
	logger    *slog.Logger
	now       func() time.Time
}

func NewNotifier(conn *sql.DB, mailer Mailer, settings Settings, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Notifier{
		db:       conn,
		mailer:   mailer,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
	n.evaluator = eligibility.NewEvaluator(store.New(conn), func() time.Time { return n.now() })
	return n
}

// Handlers returns the job handlers for the worker pool.
func (n *Notifier) Handlers() map[string]Handler {
	return map[string]Handler{
		TypeNominationSubmitted: n.handleNominationSubmitted,
		TypeElectionOpen:        n.handleElectionOpen,
	}
}

func nominationRunID(nominationID string) string {
	return "nomination:" + nominationID
}

func (n *Notifier) handleNominationSubmitted(ctx context.Context, j *Job) error {
	var p NominationPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return n.NotifyNominee(ctx, p.NominationID)
}

// NotifyNominee tells the nominee about a submitted nomination. Nominations
// that were withdrawn, answered or deleted in the meantime are skipped, as is
// a nominee who was already told.
func (n *Notifier) NotifyNominee(ctx context.Context, nominationID string) error {
	s := store.New(n.db)

	nom, err := s.GetNomination(ctx, nominationID)
	if errors.Is(err, store.ErrNotFound) {
		n.logger.Warn("nomination gone before notice", "nomination_id", nominationID)
		return nil
	}
	if err != nil {
		return err
	}
	if nom.Draft || nom.IsSelfNomination() || nom.AcceptanceStatus != models.AcceptancePending {
		return nil
	}

	runID := nominationRunID(nom.ID)
	sent, err := s.NoticeDelivered(ctx, runID, nom.NomineeMemberID)
	if err != nil {
		return err
	}
	if sent {
		return nil
	}

	nominee, err := s.GetMember(ctx, nom.NomineeMemberID)
	if err != nil {
		return fmt.Errorf("load nominee: %w", err)
	}
	nominator, err := s.GetMember(ctx, nom.NominatorID)
	if err != nil {
		return fmt.Errorf("load nominator: %w", err)
	}
	e, err := s.GetElection(ctx, nom.ElectionID)
	if err != nil {
		return fmt.Errorf("load election: %w", err)
	}

	now := n.now()
	deadline := e.ResponseDeadline(n.settings.AcceptancePeriod)
	msg := nominationMessage(n.settings.SiteURL, nominee, nominator, e, nom, deadline, now)
	if err := deliver(ctx, n.mailer, msg); err != nil {
		return err
	}
	if err := s.RecordNotice(ctx, runID, nominee.ID, now); err != nil {
		return err
	}
	n.logger.Info("nominee notified", "nomination_id", nom.ID, "election", e.Slug)
	return nil
}

func (n *Notifier) handleElectionOpen(ctx context.Context, j *Job) error {
	var p ElectionOpenPayload
	if err := json.Unmarshal(j.Payload, &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	summary, err := n.NotifyElectionOpen(ctx, p.ElectionID, p.RunID, false)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d notices failed", summary.Failed, summary.Eligible)
	}
	return nil
}

// OpenSummary counts what an election_open run did.
type OpenSummary struct {
	RunID           string `json:"run_id"`
	DryRun          bool   `json:"dry_run"`
	Eligible        int    `json:"eligible"`
	AlreadyNotified int    `json:"already_notified"`
	Sent            int    `json:"sent"`
	Failed          int    `json:"failed"`
}

// String renders the summary for logs.
func (s OpenSummary) String() string {
	verb := "sent"
	if s.DryRun {
		verb = "would send"
	}
	return fmt.Sprintf("%s %s notices to %s eligible members (%s already notified, %s failed)",
		verb, humanize.Comma(int64(s.Sent)), humanize.Comma(int64(s.Eligible)),
		humanize.Comma(int64(s.AlreadyNotified)), humanize.Comma(int64(s.Failed)))
}

// NotifyElectionOpen tells every member eligible as of the election's
// membership deadline that voting is open. Recipients already recorded for
// runID are skipped. With dryRun nothing is sent or recorded; Sent counts the
// notices that would go out.
func (n *Notifier) NotifyElectionOpen(ctx context.Context, electionID, runID string, dryRun bool) (OpenSummary, error) {
	summary := OpenSummary{RunID: runID, DryRun: dryRun}
	s := store.New(n.db)

	e, err := s.GetElection(ctx, electionID)
	if err != nil {
		return summary, fmt.Errorf("load election: %w", err)
	}
	members, err := s.ListMembers(ctx)
	if err != nil {
		return summary, fmt.Errorf("list members: %w", err)
	}

	now := n.now()
	for _, m := range members {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := n.evaluator.EligibleAsOf(ctx, m.ID, e.MembershipEligibilityDeadline)
		if err != nil {
			return summary, err
		}
		if !res.Eligible || m.Email == "" {
			continue
		}
		summary.Eligible++

		sent, err := s.NoticeDelivered(ctx, runID, m.ID)
		if err != nil {
			return summary, err
		}
		if sent {
			summary.AlreadyNotified++
			continue
		}
		if dryRun {
			summary.Sent++
			continue
		}

		if err := deliver(ctx, n.mailer, electionOpenMessage(n.settings.SiteURL, m, e, now)); err != nil {
			summary.Failed++
			n.logger.Error("failed to send election notice", "error", err, "member_id", m.ID)
			continue
		}
		if err := s.RecordNotice(ctx, runID, m.ID, now); err != nil {
			return summary, err
		}
		summary.Sent++
	}

	n.logger.Info("election open notices", "election", e.Slug, "run_id", runID, "summary", summary.String())
	return summary, nil
}
