package jwt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nikmash711/book-corner-server/model"
)

const secret = "test_secret"

func TestIssueAndParse(t *testing.T) {
	token, err := Issue(secret, 42, model.RoleAdmin, 1)
	require.NoError(t, err)

	claims, err := ParseAuth("Bearer "+token, secret)
	require.NoError(t, err)
	require.Equal(t, float64(42), claims["sub"])
	require.Equal(t, model.RoleAdmin, claims["role"])

	// bare token, no scheme prefix
	claims, err = ParseAuth(token, secret)
	require.NoError(t, err)
	require.Equal(t, float64(42), claims["sub"])
}

func TestParseAuth_Rejects(t *testing.T) {
	token, err := Issue(secret, 42, model.RoleUser, 1)
	require.NoError(t, err)

	_, err = ParseAuth("", secret)
	require.Error(t, err)

	_, err = ParseAuth("Bearer ", secret)
	require.Error(t, err)

	_, err = ParseAuth("Bearer "+token, "other_secret")
	require.Error(t, err)

	_, err = ParseAuth("Bearer "+token+"x", secret)
	require.Error(t, err)
}

func TestIssue_ExpiredTokenRejected(t *testing.T) {
	token, err := Issue(secret, 42, model.RoleUser, -1)
	require.NoError(t, err)

	_, err = ParseAuth("Bearer "+token, secret)
	require.Error(t, err)
}
