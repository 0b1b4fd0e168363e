// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/board-elections/models"
)

const noticeDateLayout = "Monday, January 2, 2006 at 3:04 PM MST"

func relative(then, now time.Time) string {
	return humanize.RelTime(then, now, "ago", "from now")
}

func link(siteURL string, parts ...string) string {
	return strings.TrimRight(siteURL, "/") + "/" + strings.Join(parts, "/")
}

func nominationMessage(siteURL string, nominee, nominator *models.Member, e *models.Election,
	n *models.Nomination, deadline, now time.Time) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", nominee.FirstName)
	fmt.Fprintf(&b, "%s nominated you for the %s.\n\n", nominator.DisplayName(), e.Title)
	fmt.Fprintf(&b, "Their statement:\n\n%s\n\n", n.Statement)
	fmt.Fprintf(&b, "Please accept or decline by %s (%s).\n",
		deadline.Format(noticeDateLayout), relative(deadline, now))
	fmt.Fprintf(&b, "Respond here: %s\n", link(siteURL, "elections", e.Slug, "nominations", n.ID))

	return Message{
		To:      nominee.Email,
		Subject: fmt.Sprintf("You've been nominated for the %s", e.Title),
		Body:    b.String(),
	}
}

func electionOpenMessage(siteURL string, m *models.Member, e *models.Election, now time.Time) Message {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", m.FirstName)
	fmt.Fprintf(&b, "Voting is open for the %s.\n\n", e.Title)
	fmt.Fprintf(&b, "Voting closes %s (%s).\n",
		e.VotingCloses.Format(noticeDateLayout), relative(e.VotingCloses, now))
	fmt.Fprintf(&b, "Cast your ballot: %s\n", link(siteURL, "elections", e.Slug, "ballot"))

	return Message{
		To:      m.Email,
		Subject: fmt.Sprintf("Voting is open: %s", e.Title),
		Body:    b.String(),
	}
}
