package credreport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/smithy-go"
	"github.com/spiffcs/repobot/internal/log"
)

// IAM error codes returned while a report is unavailable.
const (
	codeReportNotPresent = "ReportNotPresent"
	codeReportExpired    = "ReportExpired"
	codeReportInProgress = "ReportInProgress"
)

const (
	// DefaultRetryDelay is the wait between attempts while a report is generated.
	DefaultRetryDelay = 3 * time.Second
	// DefaultMaxAttempts bounds how many times the report is requested.
	DefaultMaxAttempts = 10
)

// ErrNoContent is returned when IAM hands back a report without content.
var ErrNoContent = errors.New("no content in credential report")

// ErrReportNotReady is returned when the report is still unavailable after every attempt.
var ErrReportNotReady = errors.New("credential report not ready")

// IAMAPI is the subset of *iam.Client used to obtain the report.
type IAMAPI interface {
	GetCredentialReport(ctx context.Context, in *iam.GetCredentialReportInput, optFns ...func(*iam.Options)) (*iam.GetCredentialReportOutput, error)
	GenerateCredentialReport(ctx context.Context, in *iam.GenerateCredentialReportInput, optFns ...func(*iam.Options)) (*iam.GenerateCredentialReportOutput, error)
}

// Fetcher retrieves the credential report, generating it when needed.
type Fetcher struct {
	api         IAMAPI
	delay       time.Duration
	maxAttempts int
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithRetryDelay sets the wait between attempts.
func WithRetryDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.delay = d
	}
}

// WithMaxAttempts sets the attempt bound. Values below 1 are ignored.
func WithMaxAttempts(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// NewFetcher creates a Fetcher around api.
func NewFetcher(api IAMAPI, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{api: api, delay: DefaultRetryDelay, maxAttempts: DefaultMaxAttempts}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the raw CSV of the current credential report.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		out, err := f.api.GetCredentialReport(ctx, &iam.GetCredentialReportInput{})
		if err == nil {
			if len(out.Content) == 0 {
				return nil, ErrNoContent
			}
			return out.Content, nil
		}

		var apiErr smithy.APIError
		if !errors.As(err, &apiErr) {
			return nil, fmt.Errorf("failed to get credential report: %w", err)
		}
		switch apiErr.ErrorCode() {
		case codeReportNotPresent, codeReportExpired:
			log.Info("credential report not present, generating", "attempt", attempt)
			if _, err := f.api.GenerateCredentialReport(ctx, &iam.GenerateCredentialReportInput{}); err != nil {
				return nil, fmt.Errorf("failed to generate credential report: %w", err)
			}
		case codeReportInProgress:
			log.Info("credential report in progress, retrying", "attempt", attempt)
		default:
			return nil, fmt.Errorf("failed to get credential report: %w", err)
		}

		if err := sleep(ctx, f.delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrReportNotReady, f.maxAttempts)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
