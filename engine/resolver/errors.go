package resolver

import (
	"fmt"
	"strings"
)

// Role names which of the two clips a diagnostic is about.
type Role string

const (
	RoleIdle   Role = "idle"
	RoleAttack Role = "attack"
)

// NoAnimationError reports that a source asset carried no clips for a role.
type NoAnimationError struct {
	Role Role
}

func (e *NoAnimationError) Error() string {
	return fmt.Sprintf("resolver: no %s animation available", e.Role)
}

// IncompatibleRigError reports that a clip shares no bones with the rendered skeleton.
type IncompatibleRigError struct {
	// Clip is the name of the discarded clip.
	Clip string

	// Missing are the track targets that were not found, in first-seen order.
	Missing []string
}

func (e *IncompatibleRigError) Error() string {
	return fmt.Sprintf("resolver: clip %q shares no bones with the rendered skeleton (missing %s)",
		e.Clip, strings.Join(e.Missing, ", "))
}
