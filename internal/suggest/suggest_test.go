package suggest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTop_RanksCloserMatchesFirst(t *testing.T) {
	m := Default()
	got := m.Top("handle_request", []string{"handle_request", "handle_response", "unrelated"}, 5)
	require.NotEmpty(t, got)
	require.Equal(t, "handle_request", got[0])
	require.NotContains(t, got, "unrelated")
}

func TestTop_RespectsLimit(t *testing.T) {
	m := Matcher{Threshold: 0.0}
	got := m.Top("abc", []string{"abd", "abe", "abf"}, 2)
	require.Len(t, got, 2)
}

func TestTop_EmptyQueryOrCandidates(t *testing.T) {
	m := Default()
	require.Nil(t, m.Top("", []string{"x"}, 3))
	require.Nil(t, m.Top("x", nil, 3))
}

func TestTop_DeduplicatesCandidates(t *testing.T) {
	m := Matcher{Threshold: 0.0}
	got := m.Top("same", []string{"same", "same"}, 5)
	require.Equal(t, []string{"same"}, got)
}
