package paramstore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"support-agent/internal/replies"
)

type mockParams struct {
	vals  map[string]string
	err   error
	names []string
}

func (m *mockParams) GetParameter(_ context.Context, name string) (string, error) {
	m.names = append(m.names, name)
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.vals[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrParameterNotFound, name)
	}
	return v, nil
}

func supportBase(t *testing.T) replies.Profile {
	t.Helper()
	p, err := replies.ProfileByName(replies.ProfileSupport)
	require.NoError(t, err)
	return p
}

func TestNewProfileLoader_Validates(t *testing.T) {
	_, err := NewProfileLoader(nil, "/prefix", supportBase(t))
	require.Error(t, err)

	_, err = NewProfileLoader(&mockParams{}, " / ", supportBase(t))
	require.Error(t, err)
}

func TestLoadProfile_AppliesOverlay(t *testing.T) {
	params := &mockParams{vals: map[string]string{
		"/support-agent/copy_profile": "greeting: Namaste!\ncredit_windows:\n  refund_success: 2-3 business days\n",
	}}
	l, err := NewProfileLoader(params, "/support-agent/", supportBase(t))
	require.NoError(t, err)

	p, err := l.LoadProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Namaste!", p.Greeting)
	require.Equal(t, "2-3 business days", p.Windows.RefundSuccess)
	require.Equal(t, supportBase(t).Fallback, p.Fallback)
	require.Equal(t, []string{"/support-agent/copy_profile"}, params.names)
}

func TestLoadProfile_EmptyValueKeepsBase(t *testing.T) {
	params := &mockParams{vals: map[string]string{"/p/copy_profile": ""}}
	l, err := NewProfileLoader(params, "/p", supportBase(t))
	require.NoError(t, err)

	p, err := l.LoadProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, supportBase(t), p)
}

func TestLoadProfile_MissingParameterKeepsBase(t *testing.T) {
	l, err := NewProfileLoader(&mockParams{}, "/p", supportBase(t))
	require.NoError(t, err)

	p, err := l.LoadProfile(context.Background())
	require.NoError(t, err)
	require.Equal(t, supportBase(t), p)
}

func TestLoadProfile_Errors(t *testing.T) {
	l, err := NewProfileLoader(&mockParams{err: errors.New("AccessDenied")}, "/p", supportBase(t))
	require.NoError(t, err)
	_, err = l.LoadProfile(context.Background())
	require.ErrorContains(t, err, "AccessDenied")

	l, err = NewProfileLoader(&mockParams{vals: map[string]string{"/p/copy_profile": "bogus_key: 1\n"}}, "/p", supportBase(t))
	require.NoError(t, err)
	_, err = l.LoadProfile(context.Background())
	require.ErrorContains(t, err, "parse profile /p/copy_profile")
}
