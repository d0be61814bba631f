package bridge

import "errors"

var (
	// ErrNotConnected is returned when no player surface is attached.
	ErrNotConnected = errors.New("bridge: player surface not connected")

	// ErrNoState is returned before the player surface has reported its state.
	ErrNoState = errors.New("bridge: player state not reported")

	// ErrPlayExpired completes a media play whose result never arrived.
	ErrPlayExpired = errors.New("bridge: play result not received")
)
