package confirm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Iron-Ham/coursegen/internal/errors"
	"github.com/Iron-Ham/coursegen/internal/event"
)

// State is a gate state.
type State string

const (
	StateIdle       State = "idle"
	StateConfirming State = "confirming"
	StateInFlight   State = "in-flight"
)

// Sentinel errors returned by gate operations.
var (
	ErrGateBusy      = fmt.Errorf("%w: another action is awaiting confirmation or running", errors.ErrBusy)
	ErrNotConfirming = errors.New("gate is not awaiting confirmation")
	ErrNotInFlight   = errors.New("gate has no action in flight")
)

// Prompt is what the user is asked to confirm.
type Prompt struct {
	Title       string
	Description string
}

// Confirmer obtains an answer for a prompt. An error is treated as a
// dismissal.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// Gate is safe for concurrent use.
type Gate struct {
	name      string
	title     string
	confirmer Confirmer
	bus       *event.Bus

	mu    sync.Mutex
	state State
	item  string
	desc  string
}

// NewGate creates an idle gate. title heads every prompt it shows.
func NewGate(name, title string, c Confirmer, bus *event.Bus) *Gate {
	return &Gate{
		name:      name,
		title:     title,
		confirmer: c,
		bus:       bus,
		state:     StateIdle,
	}
}

// Name returns the gate name.
func (g *Gate) Name() string { return g.name }

// State returns the current state and the item it concerns.
func (g *Gate) State() (State, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.item
}

// Request moves an idle gate to confirming for itemID.
func (g *Gate) Request(itemID, description string) error {
	if strings.TrimSpace(description) == "" {
		return errors.NewValidationError("a description of the action is required").WithField("description")
	}

	g.mu.Lock()
	if g.state != StateIdle {
		g.mu.Unlock()
		return ErrGateBusy
	}
	g.state = StateConfirming
	g.item = itemID
	g.desc = description
	g.mu.Unlock()

	g.publish(itemID, StateIdle, StateConfirming)
	return nil
}

// Accept moves a confirming gate to in-flight and returns its item.
func (g *Gate) Accept() (string, error) {
	g.mu.Lock()
	if g.state != StateConfirming {
		g.mu.Unlock()
		return "", ErrNotConfirming
	}
	g.state = StateInFlight
	item := g.item
	g.mu.Unlock()

	g.publish(item, StateConfirming, StateInFlight)
	return item, nil
}

// Dismiss returns a confirming gate to idle without running anything.
func (g *Gate) Dismiss() error {
	g.mu.Lock()
	if g.state != StateConfirming {
		g.mu.Unlock()
		return ErrNotConfirming
	}
	item := g.item
	g.reset()
	g.mu.Unlock()

	g.publish(item, StateConfirming, StateIdle)
	return nil
}

// Finish returns an in-flight gate to idle.
func (g *Gate) Finish() error {
	g.mu.Lock()
	if g.state != StateInFlight {
		g.mu.Unlock()
		return ErrNotInFlight
	}
	item := g.item
	g.reset()
	g.mu.Unlock()

	g.publish(item, StateInFlight, StateIdle)
	return nil
}

func (g *Gate) reset() {
	g.state = StateIdle
	g.item = ""
	g.desc = ""
}

// Run asks for confirmation and runs fn only on an affirmative answer. A
// negative answer returns errors.ErrDeclined; a dismissal returns
// ErrDeclined joined with the confirmer's error. The gate is idle again
// when Run returns.
func (g *Gate) Run(ctx context.Context, itemID, description string, fn func(context.Context) error) error {
	if err := g.Request(itemID, description); err != nil {
		return err
	}

	ok, err := g.confirmer.Confirm(ctx, Prompt{Title: g.title, Description: description})
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil || !ok {
		_ = g.Dismiss()
		if err != nil {
			return errors.Join(errors.ErrDeclined, err)
		}
		return errors.ErrDeclined
	}

	if _, err := g.Accept(); err != nil {
		return err
	}
	defer func() { _ = g.Finish() }()

	return fn(ctx)
}

func (g *Gate) publish(item string, from, to State) {
	g.bus.Publish(event.NewConfirmStateChangedEvent(g.name, item, string(from), string(to)))
}
