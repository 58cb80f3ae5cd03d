package broadcast

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/bcast/internal/bus"
	"github.com/matheus3301/bcast/internal/config"
	"github.com/matheus3301/bcast/internal/contacts"
	"github.com/matheus3301/bcast/internal/store"
	"github.com/matheus3301/bcast/internal/templates"
	"github.com/matheus3301/bcast/internal/validate"
)

type fakeSender struct {
	mu      sync.Mutex
	calls   [][]string
	bodies  []string
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSender) SendBroadcast(ctx context.Context, numbers []string, body string) error {
	f.mu.Lock()
	f.calls = append(f.calls, slices.Clone(numbers))
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.err
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecipients struct {
	mu       sync.Mutex
	selected []contacts.Contact
}

func (f *fakeRecipients) SelectedContacts() []contacts.Contact {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.selected)
}

func (f *fakeRecipients) set(phones ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = nil
	for _, p := range phones {
		f.selected = append(f.selected, contacts.Contact{ID: p, Phone: p, Selected: true})
	}
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []store.Broadcast
}

func (f *fakeRecorder) RecordBroadcast(ctx context.Context, b store.Broadcast) (store.Broadcast, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, b)
	return b, nil
}

type fixture struct {
	ctrl       *Controller
	sender     *fakeSender
	recipients *fakeRecipients
	templates  *templates.Store
	recorder   *fakeRecorder
}

func newFixture(t *testing.T, cfg config.Broadcast) *fixture {
	t.Helper()
	f := &fixture{
		sender:     &fakeSender{},
		recipients: &fakeRecipients{},
		templates:  templates.NewStore("https://t.me/x", nil, nil),
		recorder:   &fakeRecorder{},
	}
	f.ctrl = NewController(Params{
		Sender:     f.sender,
		Recipients: f.recipients,
		Templates:  f.templates,
		Recorder:   f.recorder,
		Config:     cfg,
	})
	return f
}

func defaultFixture(t *testing.T) *fixture {
	return newFixture(t, config.Default().Broadcast)
}

func assertValidation(t *testing.T, err error, reason string) {
	t.Helper()
	var ve *validate.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if reason != "" && ve.Reason != reason {
		t.Errorf("Reason = %q, want %q", ve.Reason, reason)
	}
}

func TestPrepareWithoutRecipients(t *testing.T) {
	f := defaultFixture(t)
	f.ctrl.SetMessage("hello")

	_, err := f.ctrl.Prepare()
	assertValidation(t, err, "select at least one recipient")
	if f.ctrl.State() != Idle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}
}

func TestPrepareWithoutMessage(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("   ")

	_, err := f.ctrl.Prepare()
	assertValidation(t, err, "select a template or enter a message first")
	if f.ctrl.State() != Idle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}
}

func TestPrepareOnlyFromIdle(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	_, err := f.ctrl.Prepare()
	assertValidation(t, err, "")
	if f.ctrl.State() != Prepared {
		t.Errorf("state = %s, want PREPARED", f.ctrl.State())
	}
}

func TestSendToTwoRecipients(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100", "+551101")
	f.ctrl.SetMessage("  hello  ")

	sum, err := f.ctrl.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if sum.Recipients != 2 || sum.Message != "hello" {
		t.Errorf("Summary = %+v", sum)
	}

	res, err := f.ctrl.Send(context.Background())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Recipients != 2 {
		t.Errorf("Result.Recipients = %d, want 2", res.Recipients)
	}
	if f.sender.callCount() != 1 {
		t.Fatalf("SendBroadcast calls = %d, want 1", f.sender.callCount())
	}
	if got := f.sender.calls[0]; !slices.Equal(got, []string{"+551100", "+551101"}) {
		t.Errorf("numbers = %v", got)
	}
	if f.sender.bodies[0] != "hello" {
		t.Errorf("body = %q, want hello", f.sender.bodies[0])
	}
	if f.ctrl.State() != Idle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}

	_, err = f.ctrl.Send(context.Background())
	assertValidation(t, err, "prepare the broadcast before sending")
	if f.sender.callCount() != 1 {
		t.Error("send without re-prepare reached the directory")
	}
}

func TestSendFromIdle(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")

	_, err := f.ctrl.Send(context.Background())
	assertValidation(t, err, "prepare the broadcast before sending")
	if f.sender.callCount() != 0 {
		t.Error("unprepared send reached the directory")
	}
}

func TestDoubleSendMakesOneCall(t *testing.T) {
	f := defaultFixture(t)
	f.sender.started = make(chan struct{}, 1)
	f.sender.release = make(chan struct{})
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Send(context.Background())
		done <- err
	}()

	select {
	case <-f.sender.started:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send to start")
	}
	if f.ctrl.State() != Sending {
		t.Errorf("state = %s, want SENDING", f.ctrl.State())
	}

	if _, err := f.ctrl.Send(context.Background()); !errors.Is(err, ErrSendInFlight) {
		t.Errorf("second Send() error = %v, want ErrSendInFlight", err)
	}
	if err := f.ctrl.Reset(); !errors.Is(err, ErrSendInFlight) {
		t.Errorf("Reset() while sending = %v, want ErrSendInFlight", err)
	}

	close(f.sender.release)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("first Send() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for send to finish")
	}
	if f.sender.callCount() != 1 {
		t.Errorf("SendBroadcast calls = %d, want 1", f.sender.callCount())
	}
}

func TestEditAfterPrepareInvalidates(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}

	f.ctrl.SetMessage("hello, edited")
	if f.ctrl.State() != Idle {
		t.Errorf("state after edit = %s, want IDLE", f.ctrl.State())
	}
	_, err := f.ctrl.Send(context.Background())
	assertValidation(t, err, "prepare the broadcast before sending")

	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatalf("re-Prepare() error = %v", err)
	}
	if _, err := f.ctrl.Send(context.Background()); err != nil {
		t.Fatalf("Send() after re-prepare error = %v", err)
	}
	if f.sender.bodies[0] != "hello, edited" {
		t.Errorf("sent body = %q", f.sender.bodies[0])
	}
}

func TestSameTextDoesNotInvalidate(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}
	f.ctrl.SetMessage("hello")
	if f.ctrl.State() != Prepared {
		t.Errorf("state = %s, want PREPARED", f.ctrl.State())
	}
}

func TestTemplateChangeAfterPrepare(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100")
	f.templates.Select("telegramCTA")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	f.templates.SetLink("https://t.me/changed")

	_, err := f.ctrl.Send(context.Background())
	assertValidation(t, err, "")
	if f.ctrl.State() != Idle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}
	if f.sender.callCount() != 0 {
		t.Error("changed message was sent")
	}
}

func TestSendRevalidatesRecipients(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}

	f.recipients.set()
	_, err := f.ctrl.Send(context.Background())
	assertValidation(t, err, "select at least one recipient")
	if f.ctrl.State() != Prepared {
		t.Errorf("state = %s, want PREPARED", f.ctrl.State())
	}
}

func TestSendFailureStaysPrepared(t *testing.T) {
	f := defaultFixture(t)
	f.sender.err = errors.New("HTTP 502")
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}

	if _, err := f.ctrl.Send(context.Background()); err == nil {
		t.Fatal("Send() expected error")
	}
	if f.ctrl.State() != Prepared {
		t.Errorf("state = %s, want PREPARED", f.ctrl.State())
	}

	f.sender.err = nil
	if _, err := f.ctrl.Send(context.Background()); err != nil {
		t.Fatalf("retry Send() error = %v", err)
	}
	if f.sender.callCount() != 2 {
		t.Errorf("calls = %d, want 2", f.sender.callCount())
	}
}

func TestHistoryRecorded(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100", "+551101")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}
	f.sender.err = errors.New("boom")
	_, _ = f.ctrl.Send(context.Background())
	f.sender.err = nil
	res, err := f.ctrl.Send(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(f.recorder.records) != 2 {
		t.Fatalf("records = %d, want 2", len(f.recorder.records))
	}
	failed, sent := f.recorder.records[0], f.recorder.records[1]
	if failed.Status != store.StatusFailed || failed.Error != "boom" {
		t.Errorf("failed record = %+v", failed)
	}
	if sent.Status != store.StatusSent || sent.ID != res.ID || len(sent.Recipients) != 2 {
		t.Errorf("sent record = %+v", sent)
	}
}

func TestCancelInFlight(t *testing.T) {
	f := defaultFixture(t)
	f.sender.started = make(chan struct{}, 1)
	f.sender.release = make(chan struct{})
	defer close(f.sender.release)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}
	if f.ctrl.Cancel() {
		t.Error("Cancel() with nothing in flight = true")
	}

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Send(context.Background())
		done <- err
	}()
	<-f.sender.started

	if !f.ctrl.Cancel() {
		t.Fatal("Cancel() = false while sending")
	}
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Send() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled send did not return")
	}
	if f.ctrl.State() != Prepared {
		t.Errorf("state = %s, want PREPARED", f.ctrl.State())
	}
}

func TestSendTimeout(t *testing.T) {
	cfg := config.Default().Broadcast
	cfg.SendTimeout = config.Duration{Duration: 20 * time.Millisecond}
	f := newFixture(t, cfg)
	f.sender.release = make(chan struct{})
	defer close(f.sender.release)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}

	_, err := f.ctrl.Send(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() error = %v, want deadline exceeded", err)
	}
	if f.ctrl.State() != Prepared {
		t.Errorf("state = %s, want PREPARED", f.ctrl.State())
	}
}

func TestCountdownGate(t *testing.T) {
	cfg := config.Default().Broadcast
	cfg.ConfirmDelay = config.Duration{Duration: 3 * time.Second}
	f := newFixture(t, cfg)
	now := time.Unix(1000, 0)
	f.ctrl.now = func() time.Time { return now }
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")

	sum, err := f.ctrl.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	if !sum.ReadyAt.Equal(now.Add(3 * time.Second)) {
		t.Errorf("ReadyAt = %v", sum.ReadyAt)
	}
	if got := f.ctrl.Countdown(); got != 3*time.Second {
		t.Errorf("Countdown() = %v, want 3s", got)
	}

	now = now.Add(time.Second)
	_, err = f.ctrl.Send(context.Background())
	assertValidation(t, err, "confirm in 2s")
	if f.ctrl.State() != Prepared || f.sender.callCount() != 0 {
		t.Errorf("gate leaked: state %s, calls %d", f.ctrl.State(), f.sender.callCount())
	}

	now = now.Add(2 * time.Second)
	if _, err := f.ctrl.Send(context.Background()); err != nil {
		t.Fatalf("Send() after countdown error = %v", err)
	}
	if got := f.ctrl.Countdown(); got != 0 {
		t.Errorf("Countdown() after send = %v, want 0", got)
	}
}

func TestUseTemplateAndClear(t *testing.T) {
	f := defaultFixture(t)
	if f.ctrl.UseTemplate("missing") {
		t.Error("UseTemplate(missing) = true")
	}
	if !f.ctrl.UseTemplate("realNumber") {
		t.Fatal("UseTemplate(realNumber) = false")
	}
	tpl, _ := f.templates.Get("realNumber")
	if f.ctrl.Composer() != tpl.Body {
		t.Errorf("Composer() = %q, want template body", f.ctrl.Composer())
	}
	if snap := f.ctrl.Snapshot(); snap.Template != "realNumber" {
		t.Errorf("Snapshot().Template = %q", snap.Template)
	}

	f.ctrl.ClearMessage()
	if f.ctrl.Message() != "" || f.templates.ActiveKey() != "" {
		t.Errorf("after ClearMessage: message %q, active %q", f.ctrl.Message(), f.templates.ActiveKey())
	}
}

func TestMessageFallsBackToTemplate(t *testing.T) {
	f := defaultFixture(t)
	f.templates.Select("privacyRequest")
	want := f.templates.ActiveBody()
	if got := f.ctrl.Message(); got != want {
		t.Errorf("Message() = %q, want active template body", got)
	}
	f.ctrl.SetMessage("custom")
	if got := f.ctrl.Message(); got != "custom" {
		t.Errorf("Message() = %q, want composer text", got)
	}
}

func TestReset(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100")
	f.ctrl.SetMessage("hello")
	if _, err := f.ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}
	if err := f.ctrl.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if f.ctrl.State() != Idle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}
	if err := f.ctrl.Reset(); err != nil {
		t.Errorf("Reset() from IDLE error = %v", err)
	}
}

func TestSnapshotCounts(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100", "+551101", "+551102")
	f.ctrl.SetMessage("olá\nmundo")

	snap := f.ctrl.Snapshot()
	if snap.Chars != 9 || snap.Lines != 2 || snap.Recipients != 3 || snap.State != Idle {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestSendSkipsContactsWithoutValidPhone(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("+551100", "Unknown", "+551101")
	f.ctrl.SetMessage("hello")

	sum, err := f.ctrl.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if sum.Recipients != 2 || sum.Skipped != 1 {
		t.Errorf("Summary = %+v, want 2 recipients and 1 skipped", sum)
	}

	res, err := f.ctrl.Send(context.Background())
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Recipients != 2 || res.Skipped != 1 {
		t.Errorf("Result = %+v", res)
	}
	if got := f.sender.calls[0]; !slices.Equal(got, []string{"+551100", "+551101"}) {
		t.Errorf("numbers = %v, want placeholder phone left out", got)
	}
}

func TestPrepareRejectsOnlyInvalidPhones(t *testing.T) {
	f := defaultFixture(t)
	f.recipients.set("Unknown")
	f.ctrl.SetMessage("hello")

	_, err := f.ctrl.Prepare()
	assertValidation(t, err, "no selected contact has a valid phone number")
	if f.ctrl.State() != Idle {
		t.Errorf("state = %s, want IDLE", f.ctrl.State())
	}
	if f.sender.callCount() != 0 {
		t.Error("directory called without valid recipients")
	}
}

func TestCounts(t *testing.T) {
	tests := []struct {
		text         string
		chars, lines int
	}{
		{"", 0, 1},
		{"hi", 2, 1},
		{"olá\nmundo", 9, 2},
		{"a\n", 2, 2},
	}
	for _, tt := range tests {
		c, l := Counts(tt.text)
		if c != tt.chars || l != tt.lines {
			t.Errorf("Counts(%q) = %d, %d; want %d, %d", tt.text, c, l, tt.chars, tt.lines)
		}
	}
}

func TestStateChangesPublished(t *testing.T) {
	b := bus.New()
	ch, unsub := b.Subscribe("broadcast.state", 8)
	defer unsub()

	recipients := &fakeRecipients{}
	recipients.set("+551100")
	ctrl := NewController(Params{
		Sender:     &fakeSender{},
		Recipients: recipients,
		Templates:  templates.NewStore("", nil, nil),
		Config:     config.Default().Broadcast,
		Bus:        b,
	})
	ctrl.SetMessage("hello")
	if _, err := ctrl.Prepare(); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.Send(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []StateChange{{Idle, Prepared}, {Prepared, Sending}, {Sending, Idle}}
	for _, w := range want {
		select {
		case evt := <-ch:
			if got, ok := evt.Payload.(StateChange); !ok || got != w {
				t.Errorf("payload = %#v, want %v", evt.Payload, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %v", w)
		}
	}
}
