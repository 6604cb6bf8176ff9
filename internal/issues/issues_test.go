package issues

import (
	"context"
	"errors"
	"testing"

	"github.com/decisionhub/decisionhub/internal/cli/client"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	issues []client.Issue
	err    error
	calls  int
}

func (f *fakeAPI) ActiveIssues(ctx context.Context) ([]client.Issue, error) {
	f.calls++
	return f.issues, f.err
}

func TestFetchActive(t *testing.T) {
	api := &fakeAPI{issues: []client.Issue{{ID: "i1", Name: "Supplier"}}}
	s := NewStore(api, zerolog.Nop())
	assert.True(t, s.FetchedAt().IsZero())

	require.NoError(t, s.FetchActive(context.Background()))
	assert.Equal(t, []client.Issue{{ID: "i1", Name: "Supplier"}}, s.Active())
	assert.False(t, s.FetchedAt().IsZero())
}

func TestFetchActiveErrorKeepsCache(t *testing.T) {
	api := &fakeAPI{issues: []client.Issue{{ID: "i1"}}}
	s := NewStore(api, zerolog.Nop())
	require.NoError(t, s.FetchActive(context.Background()))

	api.err = errors.New("down")
	err := s.FetchActive(context.Background())
	assert.ErrorContains(t, err, "failed to fetch active issues")
	assert.Len(t, s.Active(), 1)
}
