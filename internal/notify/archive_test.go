package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/AdamBeresnev/op-tournament-engine/internal/bracket"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveUploadsCompletedTournament(t *testing.T) {
	putter := &fakePutter{}
	archive := NewArchiveWithClient(putter, "results")

	tournamentID, winner := uuid.New(), uuid.New()
	event := Event{
		Type:         TournamentCompleted,
		TournamentID: tournamentID,
		WinnerID:     &winner,
		Standings:    []bracket.Standing{{Rank: 1, ParticipantID: winner, Wins: 3}},
		At:           time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
	}
	require.NoError(t, archive.Observe(context.Background(), event))

	require.Len(t, putter.inputs, 1)
	in := putter.inputs[0]
	assert.Equal(t, "results", aws.ToString(in.Bucket))
	assert.Equal(t, "tournaments/"+tournamentID.String()+"/result.json", aws.ToString(in.Key))
	assert.Equal(t, "application/json", aws.ToString(in.ContentType))

	var stored archivedResult
	require.NoError(t, json.Unmarshal(putter.bodies[0], &stored))
	assert.Equal(t, tournamentID, stored.TournamentID)
	assert.Equal(t, winner, *stored.WinnerID)
	require.Len(t, stored.Standings, 1)
	assert.Equal(t, 3, stored.Standings[0].Wins)
}

func TestArchiveIgnoresOtherEvents(t *testing.T) {
	putter := &fakePutter{}
	archive := NewArchiveWithClient(putter, "results")

	for _, typ := range []EventType{TournamentCreated, TournamentStarted, MatchCompleted} {
		require.NoError(t, archive.Observe(context.Background(), Event{Type: typ, TournamentID: uuid.New()}))
	}
	assert.Empty(t, putter.inputs)
}

func TestArchiveReportsUploadFailure(t *testing.T) {
	archive := NewArchiveWithClient(&fakePutter{err: errors.New("access denied")}, "results")

	err := archive.Observe(context.Background(), Event{Type: TournamentCompleted, TournamentID: uuid.New()})
	assert.ErrorContains(t, err, "access denied")
}

func TestNewArchiveRequiresBucket(t *testing.T) {
	_, err := NewArchive(context.Background(), ArchiveConfig{})
	assert.Error(t, err)

	archive, err := NewArchive(context.Background(), ArchiveConfig{
		Bucket:          "results",
		Endpoint:        "http://localhost:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "archive", archive.Name())
}
