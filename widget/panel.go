package widget

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

type PanelState string

const (
	PanelClosed  PanelState = "closed"
	PanelOpening PanelState = "opening"
	PanelOpen    PanelState = "open"
	PanelClosing PanelState = "closing"
)

// Animation phases of an open or close transition: the width change runs
// first, then the border and rounding are finalised.
const (
	PhaseWidth  = "width"
	PhaseBorder = "border"
)

// Panel is the open/closed state machine of the sources panel plus its
// "new sources" badge. The logical state always settles within the
// transition timeout, whether or not transition-end events arrive.
type Panel struct {
	state PanelState
	phase string
	badge bool

	transitionTimeout time.Duration
	badgeTimeout      time.Duration

	fallback   transient
	badgeTimer transient
}

func NewPanel(c clock.Clock, l sync.Locker, transitionTimeout, badgeTimeout time.Duration) *Panel {
	return &Panel{
		state:             PanelClosed,
		transitionTimeout: transitionTimeout,
		badgeTimeout:      badgeTimeout,
		fallback:          newTransient(c, l),
		badgeTimer:        newTransient(c, l),
	}
}

func (p *Panel) State() PanelState { return p.state }
func (p *Panel) Phase() string     { return p.phase }
func (p *Panel) Badge() bool       { return p.badge }

// IsOpen reports whether the panel is open or on its way there.
func (p *Panel) IsOpen() bool {
	return p.state == PanelOpen || p.state == PanelOpening
}

// Open starts the opening transition. It returns false when the panel is
// already open or opening. Opening clears the badge immediately.
func (p *Panel) Open() bool {
	if p.IsOpen() {
		return false
	}
	p.clearBadge()
	p.begin(PanelOpening)
	return true
}

// Close starts the closing transition. It returns false when the panel is
// already closed or closing.
func (p *Panel) Close() bool {
	if !p.IsOpen() {
		return false
	}
	p.begin(PanelClosing)
	return true
}

func (p *Panel) Toggle() {
	if p.IsOpen() {
		p.Close()
		return
	}
	p.Open()
}

func (p *Panel) begin(state PanelState) {
	p.state = state
	p.phase = PhaseWidth
	p.fallback.schedule(p.transitionTimeout, p.finish)
}

// TransitionEnd advances the running transition when the host reports the
// end of a phase. Events that do not match the current phase are ignored.
func (p *Panel) TransitionEnd(phase string) {
	if p.state != PanelOpening && p.state != PanelClosing {
		return
	}
	switch {
	case phase == PhaseWidth && p.phase == PhaseWidth:
		p.phase = PhaseBorder
	case phase == PhaseBorder && p.phase == PhaseBorder:
		p.finish()
	}
}

func (p *Panel) finish() {
	p.fallback.stop()
	switch p.state {
	case PanelOpening:
		p.state = PanelOpen
	case PanelClosing:
		p.state = PanelClosed
	}
	p.phase = ""
}

// Notify shows the badge when sources arrive while the panel is closed.
// The badge hides itself after the badge timeout.
func (p *Panel) Notify() bool {
	if p.IsOpen() {
		return false
	}
	p.badge = true
	p.badgeTimer.schedule(p.badgeTimeout, func() { p.badge = false })
	return true
}

func (p *Panel) clearBadge() {
	p.badge = false
	p.badgeTimer.stop()
}

// Stop cancels every pending timer and settles the current transition.
func (p *Panel) Stop() {
	p.clearBadge()
	if p.fallback.pending() {
		p.finish()
	}
}
