package scheduler

import "errors"

// Sentinel errors for errors.Is matching. All errors the scheduler
// itself returns wrap one of these.
var (
	// ErrUnknownFamily is returned when a FamilyID does not refer to a
	// family registered on this scheduler.
	ErrUnknownFamily = errors.New("scheduler: unknown family")

	// ErrLaunchActive is returned by Launch when another launch is
	// already active on this scheduler.
	ErrLaunchActive = errors.New("scheduler: launch already active")

	// ErrResizeWhileActive is returned by Resize when a launch is
	// active.
	ErrResizeWhileActive = errors.New("scheduler: resize while launch active")

	// ErrInvalidWorkerCount is returned when a requested worker count
	// falls outside [1, 128] and cannot be clamped at the call site
	// (reserved for future strict-mode construction; New itself always
	// clamps rather than erroring).
	ErrInvalidWorkerCount = errors.New("scheduler: invalid worker count")

	// ErrPacketPanic is returned by Launch when a user function
	// panicked while processing a packet. The returned error wraps
	// this sentinel; the recovered panic value, annotated with its
	// stack trace, is part of the error's message only.
	ErrPacketPanic = errors.New("scheduler: packet function panicked")
)
