// Package session owns the guest journey: one state machine sequences card
// scan, verification, consent, capture, composition, delivery and reset.
// All session data lives here and only here; resetting or superseding a
// session discards every frame and the artifact.
package session

import (
	"context"
	"errors"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zonarhotels/liftselfie/internal/capture"
	"github.com/zonarhotels/liftselfie/internal/composite"
	"github.com/zonarhotels/liftselfie/internal/delivery"
	"github.com/zonarhotels/liftselfie/internal/directory"
	"github.com/zonarhotels/liftselfie/internal/events"
	"github.com/zonarhotels/liftselfie/internal/models"
)

// Notice kinds surfaced to the guest-facing UI.
const (
	NoticeCardNotRecognized = "card_not_recognized"
	NoticeConsentMissing    = "consent_missing"
	NoticeConsentDeclined   = "consent_declined"
	NoticeLookupFailed      = "lookup_failed"
	NoticeCompositionFailed = "composition_failed"
)

// Publisher receives kiosk events for the connected screens.
type Publisher interface {
	Publish(events.Event)
}

// SourceFactory builds a fresh frame source per capture run, so each session
// acquires and releases the camera on its own.
type SourceFactory func() capture.FrameSource

// Config carries the dwells and capture timings of the flow.
type Config struct {
	// VerifyDwell is the visible confirmation beat between a successful
	// lookup and the consent prompt. Zero folds verification into scanning.
	VerifyDwell        time.Duration
	NoticeDwell        time.Duration
	ConsentDeniedDwell time.Duration
	DeclineDwell       time.Duration
	PreviewDwell       time.Duration
	ResetDwell         time.Duration

	Capture capture.Timings
	Shots   int
}

// Machine is the session state machine. All transitions, timer-driven and
// user-triggered alike, are funneled through a single event loop; stale
// timers and stale async completions are discarded by epoch.
type Machine struct {
	cfg       Config
	directory directory.Client
	renderer  *composite.Renderer
	sender    delivery.Sender
	source    SourceFactory
	pub       Publisher

	evts     chan event
	done     chan struct{}
	stopOnce sync.Once

	mu         sync.RWMutex
	sess       *models.Session
	epoch      uint64
	timers     []*time.Timer
	cancelWork context.CancelFunc
	workCtx    context.Context
}

type kind int

const (
	evScan kind = iota
	evReset
	evConsent
	evResolved
	evResolveFailed
	evVerified
	evShotsDone
	evArtifactReady
	evShown
	evReturnIdle
)

type event struct {
	kind     kind
	epoch    uint64
	external bool

	uid      string
	accepted bool
	room     *models.Room
	err      error
	frames   []image.Image
	artifact []byte
}

// New creates a machine. Start must be called before feeding it events.
func New(cfg Config, dir directory.Client, renderer *composite.Renderer, sender delivery.Sender, source SourceFactory, pub Publisher) *Machine {
	if cfg.Shots <= 0 {
		cfg.Shots = composite.SlotCount
	}
	return &Machine{
		cfg:       cfg,
		directory: dir,
		renderer:  renderer,
		sender:    sender,
		source:    source,
		pub:       pub,
		evts:      make(chan event, 32),
		done:      make(chan struct{}),
	}
}

// Start launches the event loop.
func (m *Machine) Start() {
	go m.loop()
}

// Stop ends the event loop and tears down any in-flight session, releasing
// the camera.
func (m *Machine) Stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// Scan feeds a card-scan. A scan always supersedes whatever session is in
// flight.
func (m *Machine) Scan(uid string) {
	m.post(event{kind: evScan, external: true, uid: uid})
}

// Consent feeds the guest's consent decision. Ignored unless the machine is
// awaiting consent.
func (m *Machine) Consent(accepted bool) {
	m.post(event{kind: evConsent, external: true, accepted: accepted})
}

// Reset returns the kiosk to idle immediately, discarding the session.
func (m *Machine) Reset() {
	m.post(event{kind: evReset, external: true})
}

// Snapshot returns the JSON-safe view of the live session.
func (m *Machine) Snapshot() models.View {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.View()
}

// Artifact returns the composed polaroid of the live session, or nil.
func (m *Machine) Artifact() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil || len(m.sess.Artifact) == 0 {
		return nil
	}
	out := make([]byte, len(m.sess.Artifact))
	copy(out, m.sess.Artifact)
	return out
}

func (m *Machine) post(ev event) {
	select {
	case m.evts <- ev:
	case <-m.done:
	}
}

func (m *Machine) loop() {
	for {
		select {
		case <-m.done:
			m.supersede()
			return
		case ev := <-m.evts:
			m.handle(ev)
		}
	}
}

func (m *Machine) handle(ev event) {
	if !ev.external && ev.epoch != m.epoch {
		slog.Debug("Dropping stale event", "kind", int(ev.kind), "epoch", ev.epoch, "current", m.epoch)
		return
	}

	switch ev.kind {
	case evScan:
		m.startSession(ev.uid)
	case evReset, evReturnIdle:
		m.toIdle()
	case evConsent:
		m.handleConsent(ev.accepted)
	case evResolved:
		m.handleResolved(ev.room)
	case evResolveFailed:
		m.handleResolveFailed(ev.err)
	case evVerified:
		m.setStep(models.StepAwaitingConsent)
	case evShotsDone:
		m.handleShotsDone(ev.frames)
	case evArtifactReady:
		m.handleArtifactReady(ev.artifact, ev.err)
	case evShown:
		m.setStep(models.StepComplete)
		m.schedule(m.cfg.ResetDwell, event{kind: evReturnIdle})
	}
}

// startSession supersedes any in-flight session and begins directory
// resolution for the scanned card.
func (m *Machine) startSession(uid string) {
	m.supersede()

	ctx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.sess = &models.Session{
		ID:        uuid.NewString(),
		Step:      models.StepScanning,
		ScannedID: uid,
		StartedAt: time.Now(),
	}
	m.workCtx = ctx
	m.cancelWork = cancel
	epoch := m.epoch
	m.mu.Unlock()

	slog.Info("Card scanned", "uid", uid, "session_id", m.sess.ID)
	m.publishStep()

	go func() {
		room, err := m.directory.Resolve(ctx, uid)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			m.post(event{kind: evResolveFailed, epoch: epoch, err: err})
			return
		}
		m.post(event{kind: evResolved, epoch: epoch, room: room})
	}()
}

func (m *Machine) handleResolved(room *models.Room) {
	if room == nil || room.Guest == nil {
		m.notice(NoticeCardNotRecognized, "Please try again or contact reception.")
		m.schedule(m.cfg.NoticeDwell, event{kind: evReturnIdle})
		return
	}
	if !room.Guest.Consent {
		slog.Info("Guest has not opted in", "room", room.Room)
		m.notice(NoticeConsentMissing, "Consent is required for the Lift Selfie service.")
		m.schedule(m.cfg.ConsentDeniedDwell, event{kind: evReturnIdle})
		return
	}

	m.mu.Lock()
	m.sess.Room = room
	m.mu.Unlock()

	slog.Info("Guest verified", "room", room.Room, "guest", room.Guest.Name)
	m.setStep(models.StepVerifying)
	m.schedule(m.cfg.VerifyDwell, event{kind: evVerified})
}

func (m *Machine) handleResolveFailed(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if errors.Is(err, directory.ErrNotFound) {
		m.notice(NoticeCardNotRecognized, "Please try again or contact reception.")
	} else {
		slog.Error("Directory lookup failed", "err", err)
		m.notice(NoticeLookupFailed, "An error occurred. Please try again.")
	}
	m.schedule(m.cfg.NoticeDwell, event{kind: evReturnIdle})
}

func (m *Machine) handleConsent(accepted bool) {
	if m.step() != models.StepAwaitingConsent {
		slog.Debug("Ignoring consent outside consent step", "step", string(m.step()))
		return
	}

	if !accepted {
		slog.Info("Guest declined")
		m.notice(NoticeConsentDeclined, "Razumijemo. Uživajte u vašem boravku!")
		m.schedule(m.cfg.DeclineDwell, event{kind: evReturnIdle})
		return
	}

	m.setStep(models.StepCapturing)

	m.mu.RLock()
	ctx := m.workCtx
	epoch := m.epoch
	sessID := m.sess.ID
	m.mu.RUnlock()

	engine := capture.NewEngine(m.source(), m.cfg.Capture)
	engine.OnTick = func(shot, remaining int) {
		m.pub.Publish(events.Event{Type: events.EvCountdownTick, SessionID: sessID, Shot: shot, Count: remaining})
	}
	engine.OnShot = func(shot int) {
		m.pub.Publish(events.Event{Type: events.EvPhotoTaken, SessionID: sessID, Shot: shot})
	}

	go func() {
		frames, err := engine.Run(ctx, m.cfg.Shots)
		if err != nil {
			// Only cancellation reaches here; the session is already gone.
			return
		}
		m.post(event{kind: evShotsDone, epoch: epoch, frames: frames})
	}()
}

func (m *Machine) handleShotsDone(frames []image.Image) {
	m.mu.Lock()
	m.sess.Frames = frames
	ctx := m.workCtx
	epoch := m.epoch
	m.mu.Unlock()

	slog.Info("All shots taken", "frames", len(frames))
	m.setStep(models.StepComposing)

	go func() {
		artifact, err := m.renderer.Compose(ctx, frames)
		if ctx.Err() != nil {
			return
		}
		m.post(event{kind: evArtifactReady, epoch: epoch, artifact: artifact, err: err})
	}()
}

func (m *Machine) handleArtifactReady(artifact []byte, err error) {
	if len(artifact) == 0 {
		slog.Error("Composition failed with nothing to show", "err", err)
		m.notice(NoticeCompositionFailed, "An error occurred. Please try again.")
		m.schedule(m.cfg.NoticeDwell, event{kind: evReturnIdle})
		return
	}
	if err != nil {
		// Best-effort artifact; keep going.
		slog.Warn("Composition degraded", "err", err)
	}

	m.mu.Lock()
	m.sess.Artifact = artifact
	guest := m.sess.Room.Guest
	sessID := m.sess.ID
	m.mu.Unlock()

	m.setStep(models.StepDelivering)
	m.dispatchDelivery(sessID, artifact, delivery.Destination{Phone: guest.Phone, Email: guest.Email})
	m.schedule(m.cfg.PreviewDwell, event{kind: evShown})
}

// dispatchDelivery is fire-and-forget: the visible flow advances regardless,
// and the result is surfaced asynchronously.
func (m *Machine) dispatchDelivery(sessID string, artifact []byte, dest delivery.Destination) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		err := m.sender.Send(ctx, artifact, dest)
		ev := events.Event{Type: events.EvDeliveryResult, SessionID: sessID, Detail: dest.String()}
		if err != nil {
			slog.Error("Delivery failed", "to", dest.String(), "err", err)
			ev.Notice = "delivery_failed"
		} else {
			slog.Info("Artifact delivered", "to", dest.String())
			ev.Notice = "delivery_sent"
		}
		m.pub.Publish(ev)
	}()
}

// toIdle discards the session and returns to idle.
func (m *Machine) toIdle() {
	m.supersede()

	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()

	m.publishStep()
}

// supersede cancels in-flight work (releasing the camera), defuses pending
// timers and advances the epoch so anything already fired is discarded.
func (m *Machine) supersede() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancelWork != nil {
		m.cancelWork()
		m.cancelWork = nil
		m.workCtx = nil
	}
	for _, t := range m.timers {
		t.Stop()
	}
	m.timers = nil
	m.epoch++
}

// schedule arms a timer whose event carries the current epoch. A
// non-positive delay posts immediately.
func (m *Machine) schedule(d time.Duration, ev event) {
	m.mu.Lock()
	ev.epoch = m.epoch
	if d <= 0 {
		m.mu.Unlock()
		m.post(ev)
		return
	}
	t := time.AfterFunc(d, func() { m.post(ev) })
	m.timers = append(m.timers, t)
	m.mu.Unlock()
}

func (m *Machine) step() models.Step {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.View().Step
}

func (m *Machine) setStep(step models.Step) {
	m.mu.Lock()
	if m.sess == nil {
		m.mu.Unlock()
		return
	}
	m.sess.Step = step
	m.mu.Unlock()
	m.publishStep()
}

func (m *Machine) publishStep() {
	v := m.Snapshot()
	m.pub.Publish(events.Event{Type: events.EvStepChanged, SessionID: v.ID, Step: v.Step})
}

func (m *Machine) notice(name, detail string) {
	v := m.Snapshot()
	m.pub.Publish(events.Event{Type: events.EvNotice, SessionID: v.ID, Notice: name, Detail: detail})
}
