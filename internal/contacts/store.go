package contacts

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/config"
	"github.com/matheus3301/bcast/internal/directory"
	"github.com/matheus3301/bcast/internal/validate"
	"go.uber.org/zap"
)

// phoneNamespace seeds stable contact IDs.
var phoneNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bcast:contact"))

var legacyStatuses = []Status{StatusOnline, StatusOffline, StatusPending}

// Directory is the part of the directory client the store needs.
type Directory interface {
	FetchContacts(ctx context.Context) ([]directory.Record, error)
	AddContact(ctx context.Context, name, phone string) error
}

// Stats summarizes the contact list.
type Stats struct {
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
	Selected int `json:"selected"`
	Online   int `json:"online"`
}

// Store owns the contact list and every view derived from it.
type Store struct {
	dir    Directory
	cfg    config.Contacts
	bus    *bus.Bus
	logger *zap.Logger
	now    func() time.Time
	pick   func(n int) int

	mu       sync.RWMutex
	contacts []Contact
	term     string
	status   Status
	filtered []int
	page     int
}

// NewStore creates an empty contact store. Load fills it.
func NewStore(dir Directory, cfg config.Contacts, b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = config.Default().Contacts.PageSize
	}
	return &Store{
		dir:    dir,
		cfg:    cfg,
		bus:    b,
		logger: logger,
		now:    time.Now,
		pick:   rand.Intn,
		page:   1,
	}
}

// Load replaces the contact list with a fresh fetch. The filter and page
// cursor are reset. Selection is reset unless identity is stable, in which
// case contacts keep their selection by ID. On failure nothing changes.
func (s *Store) Load(ctx context.Context) error {
	records, err := s.dir.FetchContacts(ctx)
	if err != nil {
		s.logger.Warn("load contacts failed", zap.Error(err))
		return fmt.Errorf("load contacts: %w", err)
	}

	loaded := s.build(records)

	s.mu.Lock()
	if s.cfg.Identity == config.IdentityStable {
		kept := make(map[string]bool, len(s.contacts))
		for _, c := range s.contacts {
			if c.Selected {
				kept[c.ID] = true
			}
		}
		for i := range loaded {
			loaded[i].Selected = kept[loaded[i].ID]
		}
	}
	s.contacts = loaded
	s.term, s.status = "", ""
	s.refilterLocked()
	stats := s.statsLocked()
	s.mu.Unlock()

	s.logger.Info("contacts loaded", zap.Int("count", stats.Total), zap.Int("online", stats.Online))
	s.bus.Emit(bus.ContactsLoaded, stats)
	return nil
}

func (s *Store) build(records []directory.Record) []Contact {
	stamp := s.now().UnixMilli()
	seen := make(map[string]int, len(records))
	out := make([]Contact, 0, len(records))

	for i, r := range records {
		c := Contact{
			Name:   r.Name,
			Phone:  r.Phone,
			Source: r.Source,
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("Contact %d", i+1)
		}
		if c.Phone == "" {
			c.Phone = "Unknown"
		}

		if r.Source == directory.SourceLegacy {
			c.Status = StatusUnknown
			if s.cfg.LegacyStatus == config.LegacyStatusRandom {
				c.Status = legacyStatuses[s.pick(len(legacyStatuses))]
			}
		} else {
			c.Flags = Flags{Active: r.Active, Interviewed: r.Interview, Subscribed: r.Subscription}
			c.Status = DeriveStatus(c.Flags)
		}

		switch {
		case s.cfg.Identity == config.IdentityStable:
			name := c.Phone
			if n := seen[c.Phone]; n > 0 {
				name = fmt.Sprintf("%s#%d", c.Phone, n)
			}
			seen[c.Phone]++
			c.ID = uuid.NewSHA1(phoneNamespace, []byte(name)).String()
		case r.ID != "":
			c.ID = r.ID
		default:
			c.ID = fmt.Sprintf("num_%d_%d", i, stamp)
		}
		out = append(out, c)
	}
	return out
}

// Filter recomputes the filtered view and moves the cursor to page 1.
func (s *Store) Filter(term string, status Status) []Contact {
	s.mu.Lock()
	s.term, s.status = term, status
	s.refilterLocked()
	out := s.filteredLocked()
	s.mu.Unlock()

	s.bus.Emit(bus.ContactsFiltered, map[string]any{"term": term, "status": status, "count": len(out)})
	return out
}

// Filtered returns the current filtered view.
func (s *Store) Filtered() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filteredLocked()
}

// FilterState returns the active search term and status filter.
func (s *Store) FilterState() (string, Status) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.term, s.status
}

func (s *Store) refilterLocked() {
	needle := strings.ToLower(strings.TrimSpace(s.term))
	s.filtered = s.filtered[:0]
	for i, c := range s.contacts {
		if matches(c, needle, s.status) {
			s.filtered = append(s.filtered, i)
		}
	}
	s.page = 1
}

func (s *Store) filteredLocked() []Contact {
	out := make([]Contact, 0, len(s.filtered))
	for _, i := range s.filtered {
		out = append(out, s.contacts[i])
	}
	return out
}

// PageSize returns the configured page size.
func (s *Store) PageSize() int { return s.cfg.PageSize }

// PageCount returns the number of pages in the filtered view.
func (s *Store) PageCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return PageCount(len(s.filtered), s.cfg.PageSize)
}

// GoToPage moves the cursor, clamped to the valid range, and returns the page.
func (s *Store) GoToPage(n int) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Paginate(s.filteredLocked(), n, s.cfg.PageSize)
	s.page = p.Number
	return p
}

// CurrentPage returns the page under the cursor.
func (s *Store) CurrentPage() Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Paginate(s.filteredLocked(), s.page, s.cfg.PageSize)
}

// Query filters and pages the list in one read. The shared filter and
// page cursor are left alone, so concurrent readers never see each
// other's terms. Stats.Filtered counts the query's matches.
func (s *Store) Query(term string, status Status, n int) (Page, Stats) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := Paginate(FilterContacts(s.contacts, term, status), n, s.cfg.PageSize)
	st := s.statsLocked()
	st.Filtered = p.Total
	return p, st
}

// ToggleSelection sets the selection of one contact. Returns false if
// no contact has that ID.
func (s *Store) ToggleSelection(id string, selected bool) bool {
	s.mu.Lock()
	found := false
	for i := range s.contacts {
		if s.contacts[i].ID == id {
			s.contacts[i].Selected = selected
			found = true
			break
		}
	}
	stats := s.statsLocked()
	s.mu.Unlock()

	if found {
		s.bus.Emit(bus.ContactsSelectionChanged, stats)
	}
	return found
}

// SelectAll sets the selection of every contact.
func (s *Store) SelectAll(selected bool) {
	s.mu.Lock()
	for i := range s.contacts {
		s.contacts[i].Selected = selected
	}
	stats := s.statsLocked()
	s.mu.Unlock()

	s.bus.Emit(bus.ContactsSelectionChanged, stats)
}

// SelectOnlineOnly deselects every contact that is not online. Online
// contacts keep whatever selection they had.
func (s *Store) SelectOnlineOnly() {
	s.mu.Lock()
	for i := range s.contacts {
		if s.contacts[i].Status != StatusOnline {
			s.contacts[i].Selected = false
		}
	}
	stats := s.statsLocked()
	s.mu.Unlock()

	s.bus.Emit(bus.ContactsSelectionChanged, stats)
}

// SelectedContacts returns the selected contacts in store order.
func (s *Store) SelectedContacts() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Contact{}
	for _, c := range s.contacts {
		if c.Selected {
			out = append(out, c)
		}
	}
	return out
}

// SelectedPhones returns the phone numbers of the selected contacts.
func (s *Store) SelectedPhones() []string {
	selected := s.SelectedContacts()
	phones := make([]string, 0, len(selected))
	for _, c := range selected {
		phones = append(phones, c.Phone)
	}
	return phones
}

// Contacts returns a copy of the full list in store order.
func (s *Store) Contacts() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Contact, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// Stats returns list counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statsLocked()
}

func (s *Store) statsLocked() Stats {
	st := Stats{Total: len(s.contacts), Filtered: len(s.filtered)}
	for _, c := range s.contacts {
		if c.Selected {
			st.Selected++
		}
		if c.Status == StatusOnline {
			st.Online++
		}
	}
	return st
}

// AddContact validates the input, registers it with the directory and
// reloads the list.
func (s *Store) AddContact(ctx context.Context, name, phone string) error {
	if err := validate.Contact(name, phone); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	phone = validate.StripSpace(phone)

	if err := s.dir.AddContact(ctx, name, phone); err != nil {
		s.logger.Warn("add contact failed", zap.String("phone", phone), zap.Error(err))
		return fmt.Errorf("add contact: %w", err)
	}
	s.logger.Info("contact added", zap.String("phone", phone))
	return s.Load(ctx)
}
