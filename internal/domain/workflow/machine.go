package workflow

// StateMachine is a stateless decision table. Callers pass the current state
// on every call, so a single instance can be shared across goroutines.
type StateMachine interface {
	// Fire evaluates the trigger from the given state and returns the target state
	Fire(from State, trigger Trigger, req Request) (State, error)

	// Resolve finds the trigger that moves the given state to the requested one
	Resolve(from, to State, req Request) (Trigger, error)

	// CanFire reports whether the actor may fire the trigger from the given state
	CanFire(from State, trigger Trigger, req Request) bool

	// PermittedTriggers returns the triggers the actor may fire from the given state
	PermittedTriggers(from State, req Request) []Trigger
}
