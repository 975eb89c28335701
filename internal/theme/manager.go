package theme

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/rileyhilliard/vmm/internal/errors"
	"github.com/rileyhilliard/vmm/internal/logger"
)

var customNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,31}$`)

// Manager owns the active theme, custom themes and the session's inversion
// toggles. It is safe for concurrent use; the file watcher reloads it from
// its own goroutine.
type Manager struct {
	mu         sync.RWMutex
	store      *Store
	log        logger.Logger
	rng        *rand.Rand
	current    string
	custom     map[string]Theme
	random     *Theme
	invertBg   bool
	invertText bool
}

// NewManager loads the theme file. A missing file is not an error; a
// broken one is logged and the built-in defaults are used.
func NewManager(ctx context.Context, store *Store, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Noop()
	}
	m := &Manager{
		store:   store,
		log:     log,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec
		current: DefaultName,
		custom:  map[string]Theme{},
	}
	if _, err := m.Reload(ctx); err != nil {
		log.Error("Error loading themes: %v", err)
	}
	return m
}

// SetRand replaces the random source (tests).
func (m *Manager) SetRand(r *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rng = r
}

// Reload re-reads the theme file and reports whether anything visible
// changed.
func (m *Manager) Reload(ctx context.Context) (bool, error) {
	f, err := m.store.Load(ctx)
	if err != nil {
		return false, err
	}

	custom := make(map[string]Theme, len(f.CustomThemes))
	for name, t := range f.CustomThemes {
		if IsBuiltin(name) || name == RandomName {
			m.log.Warn("Ignoring custom theme %q: name is reserved", name)
			continue
		}
		if err := t.Validate(); err != nil {
			m.log.Warn("Ignoring custom theme %q: %v", name, err)
			continue
		}
		custom[name] = t
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.activeLocked()
	m.custom = custom
	if f.CurrentTheme != "" && m.existsLocked(f.CurrentTheme) && m.current != RandomName {
		m.current = f.CurrentTheme
	}
	if !m.existsLocked(m.current) {
		m.current = DefaultName
	}
	return before != m.activeLocked(), nil
}

// Names returns selectable theme names: built-ins, then custom themes
// sorted, then the unsaved random theme if one exists.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := append([]string(nil), BuiltinNames...)
	names = append(names, m.customNamesLocked()...)
	if m.random != nil {
		names = append(names, RandomName)
	}
	return names
}

// CustomNames returns the saved custom theme names, sorted.
func (m *Manager) CustomNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.customNamesLocked()
}

// CurrentName returns the selected theme's name.
func (m *Manager) CurrentName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Active returns the selected theme with the inversion toggles applied.
func (m *Manager) Active() Theme {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeLocked()
}

// Select makes name the current theme and persists the choice.
func (m *Manager) Select(ctx context.Context, name string) error {
	m.mu.Lock()
	if !m.existsLocked(name) {
		m.mu.Unlock()
		return errors.New(errors.ErrTheme, fmt.Sprintf("No theme named %q", name), "")
	}
	m.current = name
	m.mu.Unlock()

	if name == RandomName {
		// Generated themes live only in memory until saved under a name.
		return nil
	}
	return m.persist(ctx, func(f *File) { f.CurrentTheme = name })
}

// GenerateRandom creates a random theme and selects it without saving.
func (m *Manager) GenerateRandom() Theme {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := Random(m.rng)
	m.random = &t
	m.current = RandomName
	return t
}

// SaveCurrent stores the current theme (without inversions) as a custom
// theme called name and selects it.
func (m *Manager) SaveCurrent(ctx context.Context, name string) error {
	if !customNamePattern.MatchString(name) {
		return errors.New(errors.ErrTheme,
			fmt.Sprintf("Invalid theme name %q", name),
			"Use up to 32 letters, digits, '-' or '_'")
	}
	if IsBuiltin(name) || name == RandomName {
		return errors.New(errors.ErrTheme,
			fmt.Sprintf("%q is a built-in theme name", name),
			"Pick a different name")
	}

	m.mu.Lock()
	t, _ := m.lookupLocked(m.current)
	t.Name = name
	m.custom[name] = t
	m.current = name
	m.random = nil
	m.mu.Unlock()

	return m.persist(ctx, func(f *File) {
		f.CustomThemes[name] = t
		f.CurrentTheme = name
	})
}

// Delete removes a custom theme. Built-in themes cannot be deleted. When
// the deleted theme was selected, the default theme takes over.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if IsBuiltin(name) {
		return errors.New(errors.ErrTheme,
			fmt.Sprintf("Can't delete built-in theme %q", name), "")
	}

	m.mu.Lock()
	if _, ok := m.custom[name]; !ok {
		m.mu.Unlock()
		return errors.New(errors.ErrTheme, fmt.Sprintf("No custom theme named %q", name), "")
	}
	delete(m.custom, name)
	wasCurrent := m.current == name
	if wasCurrent {
		m.current = DefaultName
	}
	m.mu.Unlock()

	return m.persist(ctx, func(f *File) {
		delete(f.CustomThemes, name)
		if wasCurrent || f.CurrentTheme == name {
			f.CurrentTheme = DefaultName
		}
	})
}

// ToggleInvertBackground flips background inversion and returns the new state.
func (m *Manager) ToggleInvertBackground() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invertBg = !m.invertBg
	return m.invertBg
}

// ToggleInvertText flips text inversion and returns the new state.
func (m *Manager) ToggleInvertText() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invertText = !m.invertText
	return m.invertText
}

func (m *Manager) persist(ctx context.Context, fn func(*File)) error {
	err := m.store.Update(ctx, func(f *File) error {
		fn(f)
		return nil
	})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrTheme,
			"Couldn't save themes to "+m.store.Path(),
			"Check the directory is writable")
	}
	return nil
}

func (m *Manager) activeLocked() Theme {
	t, ok := m.lookupLocked(m.current)
	if !ok {
		t, _ = Builtin(DefaultName)
	}
	return t.Inverted(m.invertBg, m.invertText)
}

func (m *Manager) lookupLocked(name string) (Theme, bool) {
	if t, ok := Builtin(name); ok {
		return t, true
	}
	if name == RandomName && m.random != nil {
		return *m.random, true
	}
	t, ok := m.custom[name]
	return t, ok
}

func (m *Manager) existsLocked(name string) bool {
	_, ok := m.lookupLocked(name)
	return ok
}

func (m *Manager) customNamesLocked() []string {
	names := make([]string, 0, len(m.custom))
	for name := range m.custom {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
