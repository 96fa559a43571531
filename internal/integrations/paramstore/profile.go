package paramstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"support-agent/internal/replies"
)

// ProfileParameter is the parameter, under the deployment prefix, that holds
// the YAML reply copy overlay.
const ProfileParameter = "copy_profile"

// ProfileLoader builds the deployment's reply profile from a base profile
// and the YAML overlay stored in Parameter Store.
type ProfileLoader struct {
	params Getter
	name   string
	base   replies.Profile
}

func NewProfileLoader(params Getter, prefix string, base replies.Profile) (*ProfileLoader, error) {
	if params == nil {
		return nil, errors.New("paramstore: getter must not be nil")
	}
	prefix = strings.TrimRight(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("paramstore: parameter prefix must not be empty")
	}
	return &ProfileLoader{
		params: params,
		name:   prefix + "/" + ProfileParameter,
		base:   base,
	}, nil
}

// LoadProfile fetches and applies the overlay. A missing or empty parameter
// leaves the base profile unchanged.
func (l *ProfileLoader) LoadProfile(ctx context.Context) (replies.Profile, error) {
	raw, err := l.params.GetParameter(ctx, l.name)
	if errors.Is(err, ErrParameterNotFound) {
		return l.base, nil
	}
	if err != nil {
		return replies.Profile{}, fmt.Errorf("paramstore: load profile: %w", err)
	}
	p, err := replies.LoadProfile(strings.NewReader(raw), l.base)
	if err != nil {
		return replies.Profile{}, fmt.Errorf("paramstore: parse profile %s: %w", l.name, err)
	}
	return p, nil
}
