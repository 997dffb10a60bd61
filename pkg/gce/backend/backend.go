// Package backend selects the verdict backend for a process: the
// optional cc-framework implementation when it is installed and
// preferred, or the local fallback that always ships with the module.
//
// Implementations self-register from their package init functions, in
// the style of database/sql drivers:
//
//	import (
//	    _ "github.com/guardrail-ml/gce/pkg/gce/backend/cc"
//	    _ "github.com/guardrail-ml/gce/pkg/gce/backend/fallback"
//	)
//
// Resolution happens once per process and is deterministic given the
// preference (from GCE_PREFER_CC) and the availability of the primary
// backend.
package backend

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/guardrail-ml/gce/pkg/gce"
)

// Canonical backend names.
const (
	NameCC       = "cc-framework"
	NameFallback = "fallback"
)

// EnvPreferCC is the environment flag that steers backend selection.
// Unset leaves the choice to availability; an explicit falsy value
// ("0", "false", "no", "off") forces the fallback; anything else
// prefers the cc-framework backend.
const EnvPreferCC = "GCE_PREFER_CC"

// Preference is the user's backend choice, read once at startup.
type Preference int

const (
	// Unset means no preference was expressed; availability decides.
	Unset Preference = iota
	// PreferCC requests the cc-framework backend when available.
	PreferCC
	// PreferFallback forces the local fallback backend.
	PreferFallback
)

func (p Preference) String() string {
	switch p {
	case PreferCC:
		return "prefer-cc"
	case PreferFallback:
		return "prefer-fallback"
	}
	return "unset"
}

// PreferenceFromEnv derives the preference from GCE_PREFER_CC.
func PreferenceFromEnv() Preference {
	v, ok := os.LookupEnv(EnvPreferCC)
	if !ok {
		return Unset
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "no", "off":
		return PreferFallback
	}
	// Presence counts as preferring the primary backend, even for odd
	// values like "yes please".
	return PreferCC
}

// Selection reasons surfaced by backend-info.
const (
	ReasonPreferredAvailable = "preferred+available"
	ReasonDefaultAvailable   = "default-available"
	ReasonExplicitPreference = "explicit preference"
	ReasonUnavailable        = "unavailable"
)

// Factory constructs a backend. A factory returning an error marks its
// backend as unavailable for this process; for the cc-framework backend
// that is the normal signal that the optional dependency is not
// installed or not reachable.
type Factory func() (gce.Backend, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend factory available under the given name. It
// is intended to be called from package init functions and panics on
// duplicate registration.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("backend: Register factory is nil")
	}
	if _, dup := registry[name]; dup {
		panic("backend: Register called twice for " + name)
	}
	registry[name] = factory
}

// Registered lists the registered backend names, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Resolution is the outcome of backend selection: the chosen backend and
// the reason it won.
type Resolution struct {
	Backend gce.Backend
	Reason  string
}

// Info reports the resolution in the flat shape the CLI prints.
func (r *Resolution) Info() gce.BackendInfo {
	return gce.BackendInfo{
		Backend:  r.Backend.Name(),
		Provider: r.Backend.Provider(),
		Reason:   r.Reason,
	}
}

// Resolve picks a backend for the given preference.
//
// Policy:
//   - preference PreferFallback: fallback, regardless of cc availability
//   - cc available and preference PreferCC or Unset: cc
//   - cc unavailable: fallback
//
// It fails with *gce.BackendUnavailableError only when the fallback
// itself cannot be constructed.
func Resolve(pref Preference) (*Resolution, error) {
	if pref != PreferFallback {
		if factory, ok := lookup(NameCC); ok {
			if b, err := factory(); err == nil {
				reason := ReasonDefaultAvailable
				if pref == PreferCC {
					reason = ReasonPreferredAvailable
				}
				return &Resolution{Backend: b, Reason: reason}, nil
			}
		}
	}

	factory, ok := lookup(NameFallback)
	if !ok {
		return nil, &gce.BackendUnavailableError{
			Name: NameFallback,
			Err:  fmt.Errorf("backend is not registered (missing blank import?)"),
		}
	}
	b, err := factory()
	if err != nil {
		return nil, &gce.BackendUnavailableError{Name: NameFallback, Err: err}
	}

	reason := ReasonUnavailable
	if pref == PreferFallback {
		reason = ReasonExplicitPreference
	}
	return &Resolution{Backend: b, Reason: reason}, nil
}

var (
	resolveOnce sync.Once
	resolved    *Resolution
	resolveErr  error
)

// ResolveDefault resolves the process-wide backend from the environment
// preference. The first call decides; subsequent calls return the same
// resolution, so exactly one backend identity exists per process.
func ResolveDefault() (*Resolution, error) {
	resolveOnce.Do(func() {
		resolved, resolveErr = Resolve(PreferenceFromEnv())
	})
	return resolved, resolveErr
}
