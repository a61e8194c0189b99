package credreport

import (
	"fmt"
	"math"
	"time"
)

// Policy thresholds, in days.
const (
	PasswordWarnDays   = 7
	PasswordUrgentDays = 3
	AccessKeyWarnAge   = 85
	AccessKeyMaxAge    = 90
)

const day = 24 * time.Hour

// Policy evaluates report entries. PasswordPolicyURL, when set, is linked
// from every password message.
type Policy struct {
	PasswordPolicyURL string
}

// Evaluate returns the messages for one user; an empty result means the
// user's credentials are in order.
func (p Policy) Evaluate(e Entry, now time.Time) []string {
	var messages []string

	if e.PasswordEnabled && e.PasswordNextRotation != nil {
		days := ceilDays(e.PasswordNextRotation.Sub(now))
		switch {
		case days < 0:
			messages = append(messages, fmt.Sprintf("Your password expired %d days ago. Please change immediately.", -days)+p.suffix())
		case days < PasswordUrgentDays:
			messages = append(messages, fmt.Sprintf("Your password will expire in %d day(s). Please change immediately.", days)+p.suffix())
		case days < PasswordWarnDays:
			messages = append(messages, fmt.Sprintf("Your password will expire in %d day(s). Please change soon.", days)+p.suffix())
		}
	}

	if e.PasswordEnabled && !e.MFAActive {
		messages = append(messages, "You don't have MFA enabled. Please set up MFA immediately.")
	}

	if msg, ok := accessKeyMessage(1, e.AccessKey1Active, e.AccessKey1LastRotated, now); ok {
		messages = append(messages, msg)
	}
	if msg, ok := accessKeyMessage(2, e.AccessKey2Active, e.AccessKey2LastRotated, now); ok {
		messages = append(messages, msg)
	}

	return messages
}

func (p Policy) suffix() string {
	if p.PasswordPolicyURL == "" {
		return ""
	}
	return fmt.Sprintf(" Also, see <%s|password policy>.", p.PasswordPolicyURL)
}

func accessKeyMessage(n int, active bool, rotated *time.Time, now time.Time) (string, bool) {
	if !active || rotated == nil {
		return "", false
	}
	age := ceilDays(now.Sub(*rotated))
	if age < AccessKeyWarnAge {
		return "", false
	}
	urgency := "soon"
	if age >= AccessKeyMaxAge {
		urgency = "immediately"
	}
	return fmt.Sprintf("Your access key %d is %d days old. Access keys should be rotated every %d days. Please regenerate this key %s.",
		n, age, AccessKeyMaxAge, urgency), true
}

func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(day)))
}

// Finding is a user with at least one policy message.
type Finding struct {
	Username string   `json:"username"`
	Messages []string `json:"messages"`
}

// EvaluateAll evaluates every entry and returns the users with messages, in report order.
func (p Policy) EvaluateAll(entries []Entry, now time.Time) []Finding {
	var findings []Finding
	for _, e := range entries {
		if msgs := p.Evaluate(e, now); len(msgs) > 0 {
			findings = append(findings, Finding{Username: e.Username, Messages: msgs})
		}
	}
	return findings
}
