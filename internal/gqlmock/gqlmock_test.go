package gqlmock_test

import (
	"context"
	"testing"

	"github.com/Khan/genqlient/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/artifactpipe/core/internal/gql"
	"github.com/artifactpipe/core/internal/gqlmock"
)

func TestUnstubbedRequest_ErrorContainsRequest(t *testing.T) {
	mock := gqlmock.NewMockClient()

	err := mock.MakeRequest(
		context.Background(),
		&graphql.Request{
			Query: "hero { name }",
			Variables: map[string]string{
				"x": "y",
			},
		},
		nil,
	)

	assert.ErrorContains(t, err, "hero { name }")
	assert.ErrorContains(t, err, "map[x:y]")
}

func TestStubbedRequest_UsesStub(t *testing.T) {
	mock := gqlmock.NewMockClient()
	mock.StubOnce(
		func(client graphql.Client) {
			_, _ = gql.CommitArtifact(
				context.Background(),
				client,
				"artifact-id",
			)
		},
		`{
			"commitArtifact": {
				"artifact": {
					"id": "artifact-id",
					"digest": "abc123",
					"state": "COMMITTED"
				}
			}
		}`,
	)

	resp, err := gql.CommitArtifact(
		context.Background(),
		mock,
		"artifact-id",
	)

	require.NoError(t, err)
	require.Equal(t,
		&gql.CommitArtifactResponse{
			CommitArtifact: gql.CommitArtifactCommitArtifactCommitArtifactPayload{
				Artifact: gql.CommitArtifactCommitArtifactCommitArtifactPayloadArtifact{
					Id:     "artifact-id",
					Digest: "abc123",
					State:  gql.ArtifactStateCommitted,
				},
			},
		},
		resp)
}

func TestStubOnce_WorksOnlyOnce(t *testing.T) {
	testRequest := func(client graphql.Client) error {
		return client.MakeRequest(
			context.Background(),
			&graphql.Request{},
			&graphql.Response{Data: &struct{}{}},
		)
	}

	mock := gqlmock.NewMockClient()
	mock.StubOnce(
		func(client graphql.Client) { _ = testRequest(client) },
		"null",
	)

	assert.False(t, mock.AllStubsUsed())
	assert.NoError(t, testRequest(mock))
	assert.True(t, mock.AllStubsUsed())
	assert.Error(t, testRequest(mock))
}
