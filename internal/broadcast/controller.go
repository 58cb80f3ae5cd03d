package broadcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/config"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/store"
	"github.com/matheus3301/bcast/internal/templates"
	"github.com/matheus3301/bcast/internal/validate"
	"go.uber.org/zap"
)

// ErrSendInFlight is returned by Send while another send is running.
var ErrSendInFlight = errors.New("a broadcast is already being sent")

// Sender delivers one broadcast.
type Sender interface {
	SendBroadcast(ctx context.Context, numbers []string, body string) error
}

// Recipients supplies the selected contacts.
type Recipients interface {
	SelectedContacts() []contacts.Contact
}

// Templates is the part of the template store the controller needs.
type Templates interface {
	ActiveBody() string
	ActiveKey() string
	Select(key string) bool
	Get(key string) (templates.Template, bool)
	Clear()
}

// Recorder persists broadcast outcomes.
type Recorder interface {
	RecordBroadcast(ctx context.Context, b store.Broadcast) (store.Broadcast, error)
}

// Summary describes a prepared broadcast.
type Summary struct {
	Message    string    `json:"message"`
	Recipients int       `json:"recipients"`
	Skipped    int       `json:"skipped"`
	PreparedAt time.Time `json:"prepared_at"`
	ReadyAt    time.Time `json:"ready_at"`
}

// Result describes a completed send.
type Result struct {
	ID         string        `json:"id"`
	Recipients int           `json:"recipients"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

// Snapshot is what the dashboard renders.
type Snapshot struct {
	State      State         `json:"state"`
	Message    string        `json:"message"`
	Template   string        `json:"template,omitempty"`
	Chars      int           `json:"chars"`
	Lines      int           `json:"lines"`
	Recipients int           `json:"recipients"`
	Countdown  time.Duration `json:"countdown"`
}

// Controller gates sending behind an explicit prepare step.
type Controller struct {
	sender     Sender
	recipients Recipients
	templates  Templates
	recorder   Recorder
	cfg        config.Broadcast
	bus        *bus.Bus
	logger     *zap.Logger
	now        func() time.Time

	mu         sync.Mutex
	state      State
	composer   string
	prepared   string
	preparedAt time.Time
	cancel     context.CancelFunc
}

// Params are the controller's collaborators. Recorder, Bus and Logger
// are optional.
type Params struct {
	Sender     Sender
	Recipients Recipients
	Templates  Templates
	Recorder   Recorder
	Config     config.Broadcast
	Bus        *bus.Bus
	Logger     *zap.Logger
}

// NewController creates a controller in the Idle state.
func NewController(p Params) *Controller {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if p.Config.SendTimeout.Duration <= 0 {
		p.Config.SendTimeout = config.Default().Broadcast.SendTimeout
	}
	return &Controller{
		sender:     p.Sender,
		recipients: p.Recipients,
		templates:  p.Templates,
		recorder:   p.Recorder,
		cfg:        p.Config,
		bus:        p.Bus,
		logger:     logger,
		now:        time.Now,
		state:      Idle,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) transitionLocked(to State) error {
	if err := checkTransition(c.state, to); err != nil {
		return err
	}
	from := c.state
	c.state = to
	c.bus.Emit(bus.BroadcastStateChanged, StateChange{From: from, To: to})
	return nil
}

// messageLocked resolves the body to send: composer text, else the
// active template.
func (c *Controller) messageLocked() string {
	if msg := strings.TrimSpace(c.composer); msg != "" {
		return msg
	}
	return strings.TrimSpace(c.templates.ActiveBody())
}

// Message returns the resolved message body.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.messageLocked()
}

// Composer returns the raw composer text.
func (c *Controller) Composer() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composer
}

// SetMessage replaces the composer text. A prepared broadcast goes back
// to Idle and must be prepared again.
func (c *Controller) SetMessage(text string) {
	c.mu.Lock()
	changed := text != c.composer
	c.composer = text
	if changed {
		c.invalidateLocked()
	}
	c.mu.Unlock()

	if changed {
		c.bus.Emit(bus.BroadcastMessageChanged, map[string]int{"chars": utf8.RuneCountInString(text)})
	}
}

// UseTemplate selects a template and copies its body into the composer.
// Returns false for an unknown key.
func (c *Controller) UseTemplate(key string) bool {
	tpl, ok := c.templates.Get(key)
	if !ok || !c.templates.Select(key) {
		return false
	}
	c.SetMessage(tpl.Body)
	return true
}

// ClearMessage empties the composer and drops the template selection.
func (c *Controller) ClearMessage() {
	c.templates.Clear()
	c.mu.Lock()
	c.composer = ""
	c.invalidateLocked()
	c.mu.Unlock()

	c.bus.Emit(bus.BroadcastMessageChanged, map[string]int{"chars": 0})
}

func (c *Controller) invalidateLocked() {
	if c.state == Prepared {
		_ = c.transitionLocked(Idle)
		c.prepared = ""
		c.logger.Info("prepared broadcast invalidated by edit")
	}
}

// recipientNumbers returns the phones of the selected contacts that can
// be sent to. Contacts whose phone fell back to a placeholder or fails
// validation are counted as skipped.
func recipientNumbers(selected []contacts.Contact) (numbers []string, skipped int) {
	numbers = make([]string, 0, len(selected))
	for _, ct := range selected {
		if validate.Phone(ct.Phone) != nil {
			skipped++
			continue
		}
		numbers = append(numbers, ct.Phone)
	}
	return numbers, skipped
}

var errNoValidRecipients = &validate.ValidationError{Field: "recipients", Reason: "no selected contact has a valid phone number"}

// Prepare validates the message and recipients and arms the send.
// Selected contacts without a valid phone are left out and reported in
// Summary.Skipped.
func (c *Controller) Prepare() (Summary, error) {
	selected := c.recipients.SelectedContacts()
	numbers, skipped := recipientNumbers(selected)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != Idle {
		return Summary{}, &validate.ValidationError{Reason: fmt.Sprintf("cannot prepare while %s", c.state)}
	}
	msg := c.messageLocked()
	if msg == "" {
		return Summary{}, &validate.ValidationError{Field: "message", Reason: "select a template or enter a message first"}
	}
	if len(selected) == 0 {
		return Summary{}, &validate.ValidationError{Field: "recipients", Reason: "select at least one recipient"}
	}
	if len(numbers) == 0 {
		return Summary{}, errNoValidRecipients
	}

	if err := c.transitionLocked(Prepared); err != nil {
		return Summary{}, err
	}
	c.prepared = msg
	c.preparedAt = c.now()

	if skipped > 0 {
		c.logger.Warn("selected contacts without a valid phone skipped", zap.Int("skipped", skipped))
	}
	c.logger.Info("broadcast prepared", zap.Int("recipients", len(numbers)))
	return Summary{
		Message:    msg,
		Recipients: len(numbers),
		Skipped:    skipped,
		PreparedAt: c.preparedAt,
		ReadyAt:    c.preparedAt.Add(c.cfg.ConfirmDelay.Duration),
	}, nil
}

// Send delivers the prepared broadcast with exactly one directory call.
// While a send is in flight further calls return ErrSendInFlight. On
// success the controller returns to Idle; on failure it stays Prepared
// so the operator can retry.
func (c *Controller) Send(ctx context.Context) (Result, error) {
	selected := c.recipients.SelectedContacts()
	numbers, skipped := recipientNumbers(selected)

	c.mu.Lock()
	switch c.state {
	case Sending:
		c.mu.Unlock()
		return Result{}, ErrSendInFlight
	case Idle:
		c.mu.Unlock()
		return Result{}, &validate.ValidationError{Reason: "prepare the broadcast before sending"}
	}

	msg := c.messageLocked()
	if msg == "" {
		c.mu.Unlock()
		return Result{}, &validate.ValidationError{Field: "message", Reason: "no message to send"}
	}
	if len(selected) == 0 {
		c.mu.Unlock()
		return Result{}, &validate.ValidationError{Field: "recipients", Reason: "select at least one recipient"}
	}
	if len(numbers) == 0 {
		c.mu.Unlock()
		return Result{}, errNoValidRecipients
	}
	if msg != c.prepared {
		_ = c.transitionLocked(Idle)
		c.prepared = ""
		c.mu.Unlock()
		return Result{}, &validate.ValidationError{Field: "message", Reason: "message changed since it was prepared; prepare again"}
	}
	if remaining := c.countdownLocked(); remaining > 0 {
		c.mu.Unlock()
		return Result{}, &validate.ValidationError{Reason: fmt.Sprintf("confirm in %s", remaining.Round(time.Second))}
	}

	if err := c.transitionLocked(Sending); err != nil {
		c.mu.Unlock()
		return Result{}, err
	}
	sendCtx, cancel := context.WithTimeout(ctx, c.cfg.SendTimeout.Duration)
	c.cancel = cancel
	c.mu.Unlock()

	start := c.now()
	err := c.sender.SendBroadcast(sendCtx, numbers, msg)
	cancel()
	took := c.now().Sub(start)

	c.mu.Lock()
	c.cancel = nil
	if err == nil {
		_ = c.transitionLocked(Idle)
		c.prepared = ""
	} else {
		_ = c.transitionLocked(Prepared)
	}
	c.mu.Unlock()

	record := store.Broadcast{
		ID:         uuid.NewString(),
		Body:       msg,
		Recipients: numbers,
		Status:     store.StatusSent,
		Duration:   took,
		CreatedAt:  start,
	}
	if err != nil {
		record.Status = store.StatusFailed
		record.Error = err.Error()
	}
	c.record(ctx, record)

	if err != nil {
		c.logger.Warn("broadcast failed", zap.Int("recipients", len(numbers)), zap.Error(err))
		c.bus.Emit(bus.BroadcastFailed, map[string]any{"id": record.ID, "error": err.Error()})
		return Result{}, fmt.Errorf("send broadcast: %w", err)
	}

	result := Result{ID: record.ID, Recipients: len(numbers), Skipped: skipped, Duration: took}
	c.logger.Info("broadcast sent", zap.String("id", result.ID), zap.Int("recipients", result.Recipients))
	c.bus.Emit(bus.BroadcastSent, result)
	return result, nil
}

func (c *Controller) record(ctx context.Context, b store.Broadcast) {
	if c.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if _, err := c.recorder.RecordBroadcast(ctx, b); err != nil {
		c.logger.Error("record broadcast", zap.String("id", b.ID), zap.Error(err))
	}
}

// Cancel aborts an in-flight send. Returns false when nothing is sending.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Sending || c.cancel == nil {
		return false
	}
	c.cancel()
	c.logger.Info("broadcast send cancelled")
	return true
}

// Reset drops a prepared broadcast back to Idle.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case Sending:
		return ErrSendInFlight
	case Prepared:
		c.prepared = ""
		return c.transitionLocked(Idle)
	}
	return nil
}

// Countdown returns how long until a prepared broadcast may be sent.
func (c *Controller) Countdown() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countdownLocked()
}

func (c *Controller) countdownLocked() time.Duration {
	if c.state != Prepared || c.cfg.ConfirmDelay.Duration <= 0 {
		return 0
	}
	return max(0, c.preparedAt.Add(c.cfg.ConfirmDelay.Duration).Sub(c.now()))
}

// Counts returns the rune and line count of a message. Empty text still
// counts as one line.
func Counts(text string) (chars, lines int) {
	return utf8.RuneCountInString(text), strings.Count(text, "\n") + 1
}

// Snapshot returns the composer and readiness state.
func (c *Controller) Snapshot() Snapshot {
	selected := len(c.recipients.SelectedContacts())

	c.mu.Lock()
	defer c.mu.Unlock()
	msg := c.messageLocked()
	chars, lines := Counts(msg)
	return Snapshot{
		State:      c.state,
		Message:    msg,
		Chars:      chars,
		Lines:      lines,
		Recipients: selected,
		Template:   c.templates.ActiveKey(),
		Countdown:  c.countdownLocked(),
	}
}
