package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/guardrail-ml/gce/pkg/gce"
)

type stubBackend struct {
	name string
}

func (s *stubBackend) Name() string     { return s.name }
func (s *stubBackend) Provider() string { return "test/" + s.name }

func (s *stubBackend) ComputeVerdict(_ context.Context, _ *gce.RunBundle) (*gce.Verdict, error) {
	return &gce.Verdict{CC: 1.0, Label: gce.LabelIndependent}, nil
}

// withRegistry swaps the process registry for the duration of a test.
func withRegistry(t *testing.T, factories map[string]Factory) {
	t.Helper()
	registryMu.Lock()
	old := registry
	registry = factories
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		registry = old
		registryMu.Unlock()
	})
}

func workingFactory(name string) Factory {
	return func() (gce.Backend, error) {
		return &stubBackend{name: name}, nil
	}
}

func brokenFactory(err error) Factory {
	return func() (gce.Backend, error) {
		return nil, err
	}
}

func TestPreferenceFromEnv(t *testing.T) {
	tests := []struct {
		name  string
		set   bool
		value string
		want  Preference
	}{
		{name: "unset", set: false, want: Unset},
		{name: "empty counts as presence", set: true, value: "", want: PreferCC},
		{name: "one", set: true, value: "1", want: PreferCC},
		{name: "true", set: true, value: "true", want: PreferCC},
		{name: "odd value", set: true, value: "yes please", want: PreferCC},
		{name: "zero", set: true, value: "0", want: PreferFallback},
		{name: "false", set: true, value: "false", want: PreferFallback},
		{name: "no", set: true, value: "no", want: PreferFallback},
		{name: "off", set: true, value: "off", want: PreferFallback},
		{name: "mixed case falsy", set: true, value: " FALSE ", want: PreferFallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				t.Setenv(EnvPreferCC, tt.value)
			} else {
				// t.Setenv restores the original value afterwards even
				// when the variable is unset again inside the test.
				t.Setenv(EnvPreferCC, "")
				require.NoError(t, os.Unsetenv(EnvPreferCC))
			}
			assert.Equal(t, tt.want, PreferenceFromEnv())
		})
	}
}

func TestResolvePolicy(t *testing.T) {
	tests := []struct {
		name        string
		ccAvailable bool
		pref        Preference
		wantBackend string
		wantReason  string
	}{
		{
			name:        "cc available and preferred",
			ccAvailable: true,
			pref:        PreferCC,
			wantBackend: NameCC,
			wantReason:  ReasonPreferredAvailable,
		},
		{
			name:        "cc available and no preference",
			ccAvailable: true,
			pref:        Unset,
			wantBackend: NameCC,
			wantReason:  ReasonDefaultAvailable,
		},
		{
			name:        "fallback forced while cc available",
			ccAvailable: true,
			pref:        PreferFallback,
			wantBackend: NameFallback,
			wantReason:  ReasonExplicitPreference,
		},
		{
			name:        "cc unavailable and preferred",
			ccAvailable: false,
			pref:        PreferCC,
			wantBackend: NameFallback,
			wantReason:  ReasonUnavailable,
		},
		{
			name:        "cc unavailable and no preference",
			ccAvailable: false,
			pref:        Unset,
			wantBackend: NameFallback,
			wantReason:  ReasonUnavailable,
		},
		{
			name:        "cc unavailable and fallback forced",
			ccAvailable: false,
			pref:        PreferFallback,
			wantBackend: NameFallback,
			wantReason:  ReasonExplicitPreference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factories := map[string]Factory{
				NameFallback: workingFactory(NameFallback),
			}
			if tt.ccAvailable {
				factories[NameCC] = workingFactory(NameCC)
			} else {
				factories[NameCC] = brokenFactory(errors.New("framework not installed"))
			}
			withRegistry(t, factories)

			res, err := Resolve(tt.pref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBackend, res.Backend.Name())
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestResolveUnregisteredCC(t *testing.T) {
	// A missing cc factory behaves like an unavailable backend.
	withRegistry(t, map[string]Factory{
		NameFallback: workingFactory(NameFallback),
	})

	res, err := Resolve(Unset)
	require.NoError(t, err)
	assert.Equal(t, NameFallback, res.Backend.Name())
	assert.Equal(t, ReasonUnavailable, res.Reason)
}

func TestResolveFallbackUnavailable(t *testing.T) {
	boom := errors.New("fallback exploded")
	withRegistry(t, map[string]Factory{
		NameCC:       brokenFactory(errors.New("framework not installed")),
		NameFallback: brokenFactory(boom),
	})

	res, err := Resolve(Unset)
	assert.Nil(t, res)

	var unavailable *gce.BackendUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, NameFallback, unavailable.Name)
	assert.ErrorIs(t, err, boom)
}

func TestResolveFallbackNotRegistered(t *testing.T) {
	withRegistry(t, map[string]Factory{})

	res, err := Resolve(PreferFallback)
	assert.Nil(t, res)

	var unavailable *gce.BackendUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, NameFallback, unavailable.Name)
}

func TestResolveDefaultMemoizes(t *testing.T) {
	calls := 0
	withRegistry(t, map[string]Factory{
		NameFallback: func() (gce.Backend, error) {
			calls++
			return &stubBackend{name: fmt.Sprintf("%s-%d", NameFallback, calls)}, nil
		},
	})

	resolveOnce = sync.Once{}
	resolved, resolveErr = nil, nil
	t.Cleanup(func() {
		resolveOnce = sync.Once{}
		resolved, resolveErr = nil, nil
	})

	first, err := ResolveDefault()
	require.NoError(t, err)
	second, err := ResolveDefault()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestRegisteredSorted(t *testing.T) {
	withRegistry(t, map[string]Factory{
		NameFallback: workingFactory(NameFallback),
		NameCC:       workingFactory(NameCC),
	})

	assert.Equal(t, []string{NameCC, NameFallback}, Registered())
}

func TestRegisterDuplicatePanics(t *testing.T) {
	withRegistry(t, map[string]Factory{})

	Register("dup", workingFactory("dup"))
	assert.Panics(t, func() {
		Register("dup", workingFactory("dup"))
	})
	assert.Panics(t, func() {
		Register("nil", nil)
	})
}
