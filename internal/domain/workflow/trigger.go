package workflow

import (
	"fmt"
	"strings"
)

// Trigger represents an actor action that can cause a state transition
type Trigger string

const (
	TriggerApprove        Trigger = "APPROVE"
	TriggerReject         Trigger = "REJECT"
	TriggerSendToSupplier Trigger = "SEND_TO_SUPPLIER"
	TriggerAccept         Trigger = "ACCEPT"
	TriggerDecline        Trigger = "DECLINE"
)

var validTriggers = map[Trigger]bool{
	TriggerApprove:        true,
	TriggerReject:         true,
	TriggerSendToSupplier: true,
	TriggerAccept:         true,
	TriggerDecline:        true,
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true if the trigger is known
func (t Trigger) IsValid() bool {
	return validTriggers[t]
}

// ParseTrigger converts an API action name such as "send_to_supplier" into a Trigger
func ParseTrigger(action string) (Trigger, error) {
	t := Trigger(strings.ToUpper(strings.TrimSpace(action)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown action %q", ErrValidationFailed, action)
	}
	return t, nil
}
