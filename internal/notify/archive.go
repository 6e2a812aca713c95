package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type ArchiveConfig struct {
	Bucket          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// ObjectPutter is the part of the S3 client the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive uploads the final standings of every completed tournament to an
// S3 compatible bucket.
type Archive struct {
	client ObjectPutter
	bucket string
}

type archivedResult struct {
	TournamentID uuid.UUID          `json:"tournamentId"`
	WinnerID     *uuid.UUID         `json:"winnerId"`
	Standings    []bracket.Standing `json:"standings"`
	CompletedAt  time.Time          `json:"completedAt"`
}

func NewArchive(ctx context.Context, cfg ArchiveConfig) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	sdkCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewArchiveWithClient(client, cfg.Bucket), nil
}

func NewArchiveWithClient(client ObjectPutter, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

func (*Archive) Name() string { return "archive" }

func ArchiveKey(tournamentID uuid.UUID) string {
	return fmt.Sprintf("tournaments/%s/result.json", tournamentID)
}

func (a *Archive) Observe(ctx context.Context, event Event) error {
	if event.Type != TournamentCompleted {
		return nil
	}

	body, err := json.Marshal(archivedResult{
		TournamentID: event.TournamentID,
		WinnerID:     event.WinnerID,
		Standings:    event.Standings,
		CompletedAt:  event.At,
	})
	if err != nil {
		return err
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ArchiveKey(event.TournamentID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload result (key: %s): %w", ArchiveKey(event.TournamentID), err)
	}
	return nil
}
