// Package report e-mails sweep summaries to the operator through Amazon SES.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/domain"
)

// SESAPI is the part of *sesv2.Client the reporter uses.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type Config struct {
	Region string
	From   string
	To     []string
}

// Enabled reports whether there is anyone to send to.
func (c Config) Enabled() bool {
	return c.From != "" && len(c.To) > 0
}

// EmailReporter sends one message per sweep.
type EmailReporter struct {
	client   SESAPI
	from     string
	to       []string
	location *time.Location
	logger   *slog.Logger
}

// New loads the default AWS credential chain for cfg.Region. It returns
// (nil, nil) when cfg is not enabled so callers can skip reporting.
func New(ctx context.Context, cfg Config, loc *time.Location, logger *slog.Logger) (*EmailReporter, error) {
	if !cfg.Enabled() {
		logger.Info("sweep reports disabled: no sender or recipients configured")
		return nil, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("sweep reports enabled", "from", cfg.From, "region", cfg.Region)
	return NewWithClient(sesv2.NewFromConfig(awsCfg), cfg, loc, logger), nil
}

// NewWithClient uses an existing SES client.
func NewWithClient(client SESAPI, cfg Config, loc *time.Location, logger *slog.Logger) *EmailReporter {
	if loc == nil {
		loc = time.UTC
	}
	return &EmailReporter{
		client:   client,
		from:     cfg.From,
		to:       cfg.To,
		location: loc,
		logger:   logger,
	}
}

// ReportSweep sends the summary of result.
func (r *EmailReporter) ReportSweep(ctx context.Context, result domain.SweepResult) error {
	subject := fmt.Sprintf("leasekeeper sweep: %d evicted, %d failed", len(result.Evicted), len(result.Failed))

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(r.from),
		Destination: &types.Destination{
			ToAddresses: r.to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(r.body(result)),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	out, err := r.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send sweep report: %w", err)
	}

	r.logger.Info("sweep report sent", "run_id", result.RunID, "message_id", aws.ToString(out.MessageId))
	return nil
}

func (r *EmailReporter) body(result domain.SweepResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run:      %s\n", result.RunID)
	fmt.Fprintf(&sb, "Started:  %s\n", result.StartedAt.In(r.location).Format(time.RFC1123))
	fmt.Fprintf(&sb, "Duration: %s\n\n", result.Duration.Round(time.Millisecond))

	writeIDs(&sb, "Evicted", result.Evicted)
	writeIDs(&sb, "Failed (will be retried next sweep)", result.Failed)
	return sb.String()
}

func writeIDs(sb *strings.Builder, title string, ids []int64) {
	fmt.Fprintf(sb, "%s: %d\n", title, len(ids))
	for _, id := range ids {
		fmt.Fprintf(sb, "  - %d\n", id)
	}
	sb.WriteString("\n")
}
