package errors

import "fmt"

// FrameError indicates that bytes read from a connection do not form a valid message frame.
type FrameError struct {
	Offset int64
	Reason string
}

// Error is an implementation of the error interface.
func (n *FrameError) Error() string {
	return fmt.Sprintf("malformed frame at byte %d: %s", n.Offset, n.Reason)
}

// FrameSizeLimitError indicates that a length prefix exceeded the configured limit.
type FrameSizeLimitError struct {
	Size  int64
	Limit int64
}

// Error is an implementation of the error interface.
func (n *FrameSizeLimitError) Error() string {
	return fmt.Sprintf("frame element of %d bytes exceeds permitted limit of %d", n.Size, n.Limit)
}

// CapabilityError indicates that a host object does not expose an expected capability.
type CapabilityError struct {
	Capability string
	TypeName   string
}

// Error is an implementation of the error interface.
func (n *CapabilityError) Error() string {
	return fmt.Sprintf("%s does not expose %s", n.TypeName, n.Capability)
}

// IncompatibleChangeError indicates that a redefinition changes the shape of a loaded type.
type IncompatibleChangeError struct {
	TypeName string
	Detail   string
}

// Error is an implementation of the error interface.
func (n *IncompatibleChangeError) Error() string {
	return fmt.Sprintf("incompatible schema change for %s: %s", n.TypeName, n.Detail)
}
