package warehouse

import "errors"

var (
	// ErrConfiguration is wrapped by every error raised while setting up
	// a warehouse: malformed maps, item types without a pickup location
	// or delivery zone, and observations which do not match their
	// declared specification.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidAction is returned when stepping with an action outside
	// of {0, 1, 2, 3}. The environment is left untouched.
	ErrInvalidAction = errors.New("invalid action")

	// ErrTerminated is returned when stepping an episode which has
	// already ended. Reset must be called first.
	ErrTerminated = errors.New("episode terminated")
)
