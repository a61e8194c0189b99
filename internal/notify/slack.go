// Package notify delivers credential alerts over Slack direct messages.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"github.com/spiffcs/repobot/internal/log"
)

// ErrInvalidToken is returned when the Slack token is not a bot token.
var ErrInvalidToken = errors.New("slack token is not set or invalid")

// ValidateToken checks that token is a bot token (xoxb-).
func ValidateToken(token string) error {
	if !strings.HasPrefix(token, "xoxb-") {
		return ErrInvalidToken
	}
	return nil
}

// SlackAPI is the subset of *slack.Client used here.
type SlackAPI interface {
	GetUserByEmailContext(ctx context.Context, email string) (*slack.User, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// Slack sends alerts as direct messages.
type Slack struct {
	api         SlackAPI
	domain      string
	aliases     map[string]string
	signInURL   string
	helpChannel string
}

// Option configures Slack.
type Option func(*Slack)

// WithEmailDomain restricts user alerts to usernames ending in @domain.
// Other IAM users are assumed to be machines and are skipped.
func WithEmailDomain(domain string) Option {
	return func(s *Slack) {
		s.domain = strings.TrimPrefix(domain, "@")
	}
}

// WithEmailAliases maps an address to the one registered in Slack.
func WithEmailAliases(aliases map[string]string) Option {
	return func(s *Slack) {
		s.aliases = aliases
	}
}

// WithSignInURL adds the console sign-in link to user alerts.
func WithSignInURL(url string) Option {
	return func(s *Slack) {
		s.signInURL = url
	}
}

// WithHelpChannel names the channel ID users are pointed to with questions.
func WithHelpChannel(channelID string) Option {
	return func(s *Slack) {
		s.helpChannel = channelID
	}
}

// NewSlack wraps api.
func NewSlack(api SlackAPI, opts ...Option) *Slack {
	s := &Slack{api: api}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSlackFromToken creates a Slack notifier backed by the Web API.
func NewSlackFromToken(token string, opts ...Option) (*Slack, error) {
	if err := ValidateToken(token); err != nil {
		return nil, err
	}
	return NewSlack(slack.New(token), opts...), nil
}

// UserID resolves an email address to a Slack user ID.
func (s *Slack) UserID(ctx context.Context, email string) (string, error) {
	if alias, ok := s.aliases[email]; ok {
		email = alias
	}
	user, err := s.api.GetUserByEmailContext(ctx, email)
	if err != nil {
		return "", fmt.Errorf("no slack user found for email %s: %w", email, err)
	}
	return user.ID, nil
}

// AlertUser sends the credential alert to username.
func (s *Slack) AlertUser(ctx context.Context, username string, messages []string) (bool, error) {
	if s.domain != "" && !strings.HasSuffix(username, "@"+s.domain) {
		log.Info("not sending slack alert to potentially non-human user", "user", username)
		return false, nil
	}

	userID, err := s.UserID(ctx, username)
	if err != nil {
		return false, err
	}
	if err := s.post(ctx, userID, s.AlertText(userID, messages)); err != nil {
		return false, err
	}
	return true, nil
}

// SendDigest sends text to the user registered under email.
func (s *Slack) SendDigest(ctx context.Context, email, text string) error {
	userID, err := s.UserID(ctx, email)
	if err != nil {
		return err
	}
	return s.post(ctx, userID, text)
}

// AlertText renders a user alert.
func (s *Slack) AlertText(userID string, messages []string) string {
	lines := []string{
		"Hey <@" + userID + ">! You have some old credentials on our AWS account. Please take some time to change/rotate them.",
		"",
		"\t- " + strings.Join(messages, "\n\t- "),
	}

	var footer []string
	if s.signInURL != "" {
		footer = append(footer, "Link to sign in to AWS: <"+s.signInURL+">.")
	}
	if s.helpChannel != "" {
		footer = append(footer, "For any questions, please contact us at the <#"+s.helpChannel+"> channel.")
	}
	if len(footer) > 0 {
		lines = append(lines, "", strings.Join(footer, " "))
	}
	return strings.Join(lines, "\n")
}

func (s *Slack) post(ctx context.Context, channelID, text string) error {
	_, _, err := s.api.PostMessageContext(ctx, channelID,
		slack.MsgOptionText(text, false),
		slack.MsgOptionDisableLinkUnfurl(),
		slack.MsgOptionDisableMediaUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("failed to post slack message: %w", err)
	}
	return nil
}
