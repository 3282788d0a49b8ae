package widget

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Preferences persists the chosen language per client.
type Preferences interface {
	Language(ctx context.Context, clientID string) (string, error)
	SetLanguage(ctx context.Context, clientID, lang string) error
}

// Registry owns the open sessions.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	languages map[string]string

	client  Chatter
	prefs   Preferences
	opts    Options
	logger  *zap.Logger
	onEvict func(id string)
}

func NewRegistry(client Chatter, prefs Preferences, opts Options) *Registry {
	opts = opts.withDefaults()
	return &Registry{
		sessions:  make(map[string]*Session),
		languages: make(map[string]string),
		client:    client,
		prefs:     prefs,
		opts:      opts,
		logger:    opts.Logger,
	}
}

// Create opens a session, restoring the client's saved language.
func (r *Registry) Create(ctx context.Context, clientID string) *Session {
	id := uuid.NewString()
	s := NewSession(id, clientID, r.client, r.opts)

	if r.prefs != nil && clientID != "" {
		lang, err := r.prefs.Language(ctx, clientID)
		if err != nil {
			r.logger.Warn("load language preference", zap.String("client", clientID), zap.Error(err))
		} else if lang != "" {
			s.SetLanguage(lang)
		}
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Debug("session created", zap.String("session", id), zap.String("client", clientID))
	return s
}

// Get returns the session and marks it active.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	s.touch(r.opts.Clock.Now())
	return s, nil
}

// OnEvict registers fn to run for every session dropped for idleness.
func (r *Registry) OnEvict(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onEvict = fn
}

// EvictIdle closes the sessions idle for at least the idle timeout and
// returns their ids.
func (r *Registry) EvictIdle() []string {
	if r.opts.IdleTimeout <= 0 {
		return nil
	}
	now := r.opts.Clock.Now()

	r.mu.Lock()
	var evicted []*Session
	for id, s := range r.sessions {
		if s.idle(now, r.opts.IdleTimeout) {
			evicted = append(evicted, s)
			delete(r.sessions, id)
		}
	}
	onEvict := r.onEvict
	r.mu.Unlock()

	ids := make([]string, 0, len(evicted))
	for _, s := range evicted {
		s.Close()
		ids = append(ids, s.ID)
		if onEvict != nil {
			onEvict(s.ID)
		}
	}
	if len(ids) > 0 {
		r.logger.Info("evicted idle sessions", zap.Int("count", len(ids)))
	}
	return ids
}

// Run evicts idle sessions every half idle timeout until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	if r.opts.IdleTimeout <= 0 {
		return
	}
	ticker := r.opts.Clock.Ticker(r.opts.IdleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.EvictIdle()
		}
	}
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	s.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll closes every session, used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

// SetLanguages replaces the known language list, code to display name.
func (r *Registry) SetLanguages(langs map[string]string) {
	m := make(map[string]string, len(langs))
	for code, name := range langs {
		m[canonical(code)] = name
	}
	r.mu.Lock()
	r.languages = m
	r.mu.Unlock()
}

type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (r *Registry) Languages() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Language, 0, len(r.languages))
	for code, name := range r.languages {
		out = append(out, Language{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// SetLanguage changes a session's language and saves it for the client.
// When a language list is known the code must be on it.
func (r *Registry) SetLanguage(ctx context.Context, s *Session, code string) (string, error) {
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}
	lang := tag.String()

	r.mu.RLock()
	_, known := r.languages[lang]
	checked := len(r.languages) > 0
	r.mu.RUnlock()
	if checked && !known {
		return "", fmt.Errorf("%w: %q", ErrUnknownLanguage, code)
	}

	s.SetLanguage(lang)
	if r.prefs != nil && s.ClientID != "" {
		if err := r.prefs.SetLanguage(ctx, s.ClientID, lang); err != nil {
			r.logger.Warn("save language preference", zap.String("client", s.ClientID), zap.Error(err))
		}
	}
	return lang, nil
}

func canonical(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	return tag.String()
}
