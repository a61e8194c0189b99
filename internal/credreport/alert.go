package credreport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/repobot/internal/log"
)

// Source yields the raw report CSV. *Fetcher is the production implementation.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Notifier delivers alerts.
type Notifier interface {
	// AlertUser tells one user about their findings. Implementations decide
	// whether username can be reached and return sent=false when it cannot.
	AlertUser(ctx context.Context, username string, messages []string) (sent bool, err error)
	// SendDigest posts text to the recipient identified by email.
	SendDigest(ctx context.Context, email, text string) error
}

// Findings fetches the report and evaluates every user.
func Findings(ctx context.Context, src Source, policy Policy, now time.Time) ([]Finding, error) {
	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	log.Debug("parsed credential report", "users", len(entries))
	return policy.EvaluateAll(entries, now), nil
}

// Digest renders the report sent to the digest recipients.
func Digest(findings []Finding) string {
	var lines []string
	for _, f := range findings {
		lines = append(lines, "*"+f.Username+"*")
		for _, m := range f.Messages {
			lines = append(lines, "  - "+m)
		}
	}
	return "Credential report:\n\n" + strings.Join(lines, "\n")
}

// Summary counts what an alert run did.
type Summary struct {
	Findings []Finding
	Alerted  int
	Skipped  int
	Digests  int
}

// Alerter runs the full alert job.
type Alerter struct {
	src        Source
	notifier   Notifier
	policy     Policy
	recipients []string
	now        func() time.Time
}

// NewAlerter creates an Alerter. recipients receive the digest.
func NewAlerter(src Source, notifier Notifier, policy Policy, recipients []string) *Alerter {
	return &Alerter{
		src:        src,
		notifier:   notifier,
		policy:     policy,
		recipients: recipients,
		now:        time.Now,
	}
}

// Run fetches and evaluates the report, alerts each user with findings and
// sends the digest. A failed delivery does not stop the others; all delivery
// errors are returned together once every message has been attempted.
func (a *Alerter) Run(ctx context.Context) (Summary, error) {
	findings, err := Findings(ctx, a.src, a.policy, a.now())
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Findings: findings}

	var errs []error
	for _, f := range findings {
		log.Info("alerts for user", "user", f.Username, "messages", len(f.Messages))
		sent, err := a.notifier.AlertUser(ctx, f.Username, f.Messages)
		if err != nil {
			log.Warn("failed to alert user", "user", f.Username, "error", err)
			errs = append(errs, fmt.Errorf("alert %s: %w", f.Username, err))
			continue
		}
		if sent {
			summary.Alerted++
		} else {
			summary.Skipped++
		}
	}

	digest := Digest(findings)
	for _, email := range a.recipients {
		if err := a.notifier.SendDigest(ctx, email, digest); err != nil {
			log.Warn("failed to send digest", "recipient", email, "error", err)
			errs = append(errs, fmt.Errorf("digest to %s: %w", email, err))
			continue
		}
		summary.Digests++
	}

	return summary, errors.Join(errs...)
}
