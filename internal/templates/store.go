package templates

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/validate"
	"go.uber.org/zap"
)

// DefaultCategory is used for custom templates created without one.
const DefaultCategory = "greeting"

// Template is a message body the operator can pick.
type Template struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Body     string `json:"body"`
	Category string `json:"category,omitempty"`
	Builtin  bool   `json:"builtin"`
}

type builtin struct {
	key, name, body string
}

const (
	realNumberBody     = "Hey! This is my real number. I'm a professional Forex trader with proven strategies that generate consistent profits. Please don't share this number with anyone else - I only work with serious traders."
	privacyRequestBody = "IMPORTANT: This is my private trading number. Please keep it confidential and don't share it with others. I only work with dedicated traders who are serious about their success."
	telegramCTABody    = "Ready to access my exclusive trading strategies and real-time signals? Join my private Telegram channel for professional insights: {{link}}"
	fullStrategyBody   = "Hey! This is my real trading number. I'm a professional Forex trader with proven strategies that generate consistent profits. Please don't share this number with anyone else - I only work with serious traders.\n\nReady to access my exclusive trading strategies and real-time signals? Join my private Telegram channel: {{link}}"
)

var builtins = []builtin{
	{"realNumber", "Real Number", realNumberBody},
	{"privacyRequest", "Privacy Request", privacyRequestBody},
	{"telegramCTA", "Telegram CTA", telegramCTABody},
	{"fullStrategy", "Full Strategy", fullStrategyBody},
}

// Store holds built-in and custom templates and the active selection.
// Custom templates live for the lifetime of the process.
type Store struct {
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time

	mu       sync.RWMutex
	link     string
	rendered []Template
	custom   []Template
	active   string
}

// NewStore creates a template store with built-ins rendered for link.
func NewStore(link string, b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{bus: b, logger: logger, now: time.Now}
	s.link = link
	s.renderLocked()
	return s
}

func (s *Store) renderLocked() {
	values := map[string]string{"link": s.link}
	s.rendered = make([]Template, 0, len(builtins))
	for _, b := range builtins {
		s.rendered = append(s.rendered, Template{
			Key:     b.key,
			Name:    b.name,
			Body:    Fill(b.body, values),
			Builtin: true,
		})
	}
}

// Builtins returns the built-in templates in their fixed order.
func (s *Store) Builtins() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Template(nil), s.rendered...)
}

// All returns built-ins followed by custom templates in creation order.
func (s *Store) All() []Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Template, 0, len(s.rendered)+len(s.custom))
	out = append(out, s.rendered...)
	for _, t := range s.custom {
		out = append(out, s.renderCustomLocked(t))
	}
	return out
}

// Link returns the link interpolated into template bodies.
func (s *Store) Link() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.link
}

// SetLink changes the link and re-renders every body that references it.
func (s *Store) SetLink(link string) {
	link = strings.TrimSpace(link)
	s.mu.Lock()
	s.link = link
	s.renderLocked()
	s.mu.Unlock()

	s.logger.Info("template link changed", zap.String("link", link))
	s.bus.Emit(bus.TemplatesChanged, map[string]string{"link": link})
}

// Select makes key the active template. Unknown keys are ignored and
// reported by returning false.
func (s *Store) Select(key string) bool {
	s.mu.Lock()
	if _, ok := s.getLocked(key); !ok {
		s.mu.Unlock()
		return false
	}
	s.active = key
	s.mu.Unlock()

	s.bus.Emit(bus.TemplatesChanged, map[string]string{"active": key})
	return true
}

// Clear drops the active selection.
func (s *Store) Clear() {
	s.mu.Lock()
	changed := s.active != ""
	s.active = ""
	s.mu.Unlock()

	if changed {
		s.bus.Emit(bus.TemplatesChanged, map[string]string{"active": ""})
	}
}

// ActiveKey returns the active template key, or "".
func (s *Store) ActiveKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// ActiveBody returns the active template's body, or "".
func (s *Store) ActiveBody() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.getLocked(s.active)
	if !ok {
		return ""
	}
	return t.Body
}

// Get looks up a template by key.
func (s *Store) Get(key string) (Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(key)
}

// Name returns the display name for key, "Template" when unknown.
func (s *Store) Name(key string) string {
	if t, ok := s.Get(key); ok {
		return t.Name
	}
	return "Template"
}

func (s *Store) getLocked(key string) (Template, bool) {
	if key == "" {
		return Template{}, false
	}
	for _, t := range s.rendered {
		if t.Key == key {
			return t, true
		}
	}
	for _, t := range s.custom {
		if t.Key == key {
			return s.renderCustomLocked(t), true
		}
	}
	return Template{}, false
}

func (s *Store) renderCustomLocked(t Template) Template {
	t.Body = Fill(t.Body, map[string]string{"link": s.link})
	return t
}

// Create stores a custom template and returns its generated key.
func (s *Store) Create(name, category, body string) (string, error) {
	name, body = strings.TrimSpace(name), strings.TrimSpace(body)
	if err := validate.Required("name", name); err != nil {
		return "", err
	}
	if err := validate.Required("body", body); err != nil {
		return "", err
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = DefaultCategory
	}

	s.mu.Lock()
	stamp := s.now().UnixMilli()
	key := fmt.Sprintf("custom_%d", stamp)
	for {
		if _, taken := s.getLocked(key); !taken {
			break
		}
		stamp++
		key = fmt.Sprintf("custom_%d", stamp)
	}
	s.custom = append(s.custom, Template{Key: key, Name: name, Body: body, Category: category})
	s.mu.Unlock()

	s.logger.Info("template created", zap.String("key", key), zap.String("category", category))
	s.bus.Emit(bus.TemplatesChanged, map[string]string{"created": key})
	return key, nil
}
