package workflow

import (
	"fmt"
	"strings"
)

// Request carries the inputs a guard needs to decide a transition
type Request struct {
	Actor Actor
	// OwnerID is the supplier company the entity belongs to
	OwnerID int64
	Comment string
}

// GuardFunc evaluates whether a transition is allowed. A nil return permits it;
// otherwise the error explains the refusal.
type GuardFunc func(req Request) error

// TransitionOption adjusts a configured transition
type TransitionOption func(*transition)

// RequireComment marks a transition as needing a non-empty comment
func RequireComment() TransitionOption {
	return func(t *transition) {
		t.commentRequired = true
	}
}

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates an immutable decision table from the configuration
	Build() StateMachine
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState State, opts ...TransitionOption) StateConfiguration

	// PermitIf allows a trigger to transition to the target state if the guard condition passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc, opts ...TransitionOption) StateConfiguration
}

// transition represents a state transition with optional guard
type transition struct {
	toState         State
	guard           GuardFunc
	commentRequired bool
}

// stateConfig implements StateConfiguration
type stateConfig struct {
	fromState   State
	transitions map[Trigger][]transition
}

// stateMachineBuilder implements StateMachineBuilder
type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

// stateMachine implements StateMachine
type stateMachine struct {
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// Build creates an immutable decision table from the configuration
func (b *stateMachineBuilder) Build() StateMachine {
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition, len(config.transitions))
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, transitions...)
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{configurations: configsCopy}
}

// Permit allows a trigger to transition to the target state
func (c *stateConfig) Permit(trigger Trigger, toState State, opts ...TransitionOption) StateConfiguration {
	return c.PermitIf(trigger, toState, nil, opts...)
}

// PermitIf allows a trigger to transition to the target state if the guard condition passes
func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc, opts ...TransitionOption) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}
	if !trigger.IsValid() {
		panic(fmt.Sprintf("invalid trigger: %s", trigger))
	}

	t := transition{toState: toState, guard: guard}
	for _, opt := range opts {
		opt(&t)
	}
	c.transitions[trigger] = append(c.transitions[trigger], t)

	return c
}

// Fire evaluates the trigger from the given state and returns the target state
func (m *stateMachine) Fire(from State, trigger Trigger, req Request) (State, error) {
	if !from.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidState, from)
	}

	transitions := m.transitions(from, trigger)
	if len(transitions) == 0 {
		return "", fmt.Errorf("%w: cannot %s from state %s", ErrInvalidTransition, actionName(trigger), from)
	}

	t, err := choose(transitions, req, true)
	if err != nil {
		return "", fmt.Errorf("%s from state %s: %w", actionName(trigger), from, err)
	}

	return t.toState, nil
}

// Resolve finds the trigger that moves the given state to the requested one
func (m *stateMachine) Resolve(from, to State, req Request) (Trigger, error) {
	if !from.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidState, from)
	}
	if !to.IsValid() {
		return "", fmt.Errorf("%w: unknown target state %s", ErrInvalidTransition, to)
	}

	var firstErr error
	for _, trigger := range orderedTriggers {
		var candidates []transition
		for _, t := range m.transitions(from, trigger) {
			if t.toState == to {
				candidates = append(candidates, t)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		if _, err := choose(candidates, req, true); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s from state %s: %w", actionName(trigger), from, err)
			}
			continue
		}
		return trigger, nil
	}

	if firstErr != nil {
		return "", firstErr
	}
	return "", fmt.Errorf("%w: no transition from %s to %s", ErrInvalidTransition, from, to)
}

// CanFire reports whether the actor may fire the trigger from the given state.
// Input requirements such as a mandatory comment are not checked.
func (m *stateMachine) CanFire(from State, trigger Trigger, req Request) bool {
	transitions := m.transitions(from, trigger)
	if len(transitions) == 0 {
		return false
	}
	_, err := choose(transitions, req, false)
	return err == nil
}

// PermittedTriggers returns the triggers the actor may fire from the given state
func (m *stateMachine) PermittedTriggers(from State, req Request) []Trigger {
	triggers := make([]Trigger, 0, len(orderedTriggers))
	for _, trigger := range orderedTriggers {
		if m.CanFire(from, trigger, req) {
			triggers = append(triggers, trigger)
		}
	}
	return triggers
}

func (m *stateMachine) transitions(from State, trigger Trigger) []transition {
	config, exists := m.configurations[from]
	if !exists {
		return nil
	}
	return config.transitions[trigger]
}

// choose returns the first transition whose guard passes. Guard refusals take
// precedence over input validation so a caller with the wrong role never
// learns about missing input.
func choose(transitions []transition, req Request, checkInput bool) (*transition, error) {
	var firstErr error
	for i := range transitions {
		t := &transitions[i]
		if t.guard != nil {
			if err := t.guard(req); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}
		if checkInput && t.commentRequired && strings.TrimSpace(req.Comment) == "" {
			return nil, fmt.Errorf("%w: comment is required", ErrValidationFailed)
		}
		return t, nil
	}
	return nil, firstErr
}

var orderedTriggers = []Trigger{
	TriggerApprove,
	TriggerReject,
	TriggerSendToSupplier,
	TriggerAccept,
	TriggerDecline,
}

func actionName(t Trigger) string {
	return strings.ReplaceAll(strings.ToLower(string(t)), "_", " ")
}
