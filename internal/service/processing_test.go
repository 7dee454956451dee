package service

import (
	"strings"
	"testing"
	"time"

	"github.com/d2cmedia/syndesk/internal/models"
)

func TestBuildTicketText(t *testing.T) {
	ticket := models.Ticket{
		Subject:     "Kijiji feed for Prestige Auto Laval",
		Description: "Please activate the used inventory export.",
	}

	text := BuildTicketText(ticket)
	if !strings.HasPrefix(text, "Subject: Kijiji feed for Prestige Auto Laval") {
		t.Fatalf("subject missing:\n%s", text)
	}
	if !strings.Contains(text, "Please activate the used inventory export.") {
		t.Fatalf("description missing:\n%s", text)
	}
}

func TestBuildTicketTextLimitsThreads(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	ticket := models.Ticket{
		Subject:     "Feed status",
		Description: "Original request.",
	}
	for i := 0; i < 8; i++ {
		ticket.Threads = append(ticket.Threads, models.Thread{
			Author:    "Client",
			Body:      "message " + string(rune('A'+i)),
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}

	text := BuildTicketText(ticket)
	if strings.Contains(text, "message A") || strings.Contains(text, "message B") || strings.Contains(text, "message C") {
		t.Fatalf("oldest threads should be dropped:\n%s", text)
	}
	for _, want := range []string{"message D", "message E", "message F", "message G", "message H"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "message D") > strings.Index(text, "message H") {
		t.Fatalf("threads out of order:\n%s", text)
	}
}

func TestBuildTicketTextAuthorFallsBackToEmail(t *testing.T) {
	ticket := models.Ticket{
		Description: "Hello",
		Threads: []models.Thread{
			{FromEmail: "client@dealer.ca", Body: "Any update?", Timestamp: time.Now()},
		},
	}

	text := BuildTicketText(ticket)
	if !strings.Contains(text, "From: client@dealer.ca") {
		t.Fatalf("author fallback missing:\n%s", text)
	}
}
