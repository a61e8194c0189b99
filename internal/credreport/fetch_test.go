package credreport

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/smithy-go"
)

// fakeIAM replays one response per GetCredentialReport call.
type fakeIAM struct {
	responses []error
	content   []byte
	gets      int
	generates int
}

func (f *fakeIAM) GetCredentialReport(ctx context.Context, in *iam.GetCredentialReportInput, optFns ...func(*iam.Options)) (*iam.GetCredentialReportOutput, error) {
	i := f.gets
	f.gets++
	if i < len(f.responses) && f.responses[i] != nil {
		return nil, f.responses[i]
	}
	return &iam.GetCredentialReportOutput{Content: f.content}, nil
}

func (f *fakeIAM) GenerateCredentialReport(ctx context.Context, in *iam.GenerateCredentialReportInput, optFns ...func(*iam.Options)) (*iam.GenerateCredentialReportOutput, error) {
	f.generates++
	return &iam.GenerateCredentialReportOutput{}, nil
}

func apiErr(code string) error {
	return &smithy.GenericAPIError{Code: code, Message: code}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name          string
		responses     []error
		content       []byte
		maxAttempts   int
		wantErr       error
		wantGets      int
		wantGenerates int
	}{
		{
			name:     "report available",
			content:  []byte("user\n"),
			wantGets: 1,
		},
		{
			name:          "not present then in progress",
			responses:     []error{apiErr(codeReportNotPresent), apiErr(codeReportInProgress)},
			content:       []byte("user\n"),
			wantGets:      3,
			wantGenerates: 1,
		},
		{
			name:          "expired is regenerated",
			responses:     []error{apiErr(codeReportExpired)},
			content:       []byte("user\n"),
			wantGets:      2,
			wantGenerates: 1,
		},
		{
			name:      "empty content",
			responses: nil,
			content:   nil,
			wantErr:   ErrNoContent,
			wantGets:  1,
		},
		{
			name:        "never ready",
			responses:   []error{apiErr(codeReportInProgress), apiErr(codeReportInProgress), apiErr(codeReportInProgress)},
			maxAttempts: 3,
			wantErr:     ErrReportNotReady,
			wantGets:    3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeIAM{responses: tt.responses, content: tt.content}
			opts := []FetcherOption{WithRetryDelay(0)}
			if tt.maxAttempts > 0 {
				opts = append(opts, WithMaxAttempts(tt.maxAttempts))
			}

			got, err := NewFetcher(api, opts...).Fetch(context.Background())
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			} else if string(got) != string(tt.content) {
				t.Errorf("Fetch() = %q, want %q", got, tt.content)
			}
			if api.gets != tt.wantGets {
				t.Errorf("GetCredentialReport called %d times, want %d", api.gets, tt.wantGets)
			}
			if api.generates != tt.wantGenerates {
				t.Errorf("GenerateCredentialReport called %d times, want %d", api.generates, tt.wantGenerates)
			}
		})
	}
}

func TestFetch_UnknownErrorNotRetried(t *testing.T) {
	api := &fakeIAM{responses: []error{apiErr("AccessDenied")}}
	if _, err := NewFetcher(api, WithRetryDelay(0)).Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() expected error")
	}
	if api.gets != 1 {
		t.Errorf("GetCredentialReport called %d times, want 1", api.gets)
	}
}

func TestFetch_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	api := &fakeIAM{responses: []error{apiErr(codeReportInProgress)}}
	if _, err := NewFetcher(api).Fetch(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch() error = %v, want context.Canceled", err)
	}
}
