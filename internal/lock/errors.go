package lock

import "errors"

var (
	// ErrNotLocked is returned by Unlock when the gate is already open.
	ErrNotLocked = errors.New("session is not locked")

	// ErrEmptyCredential is returned when Enable or ChangeCredential gets no input.
	ErrEmptyCredential = errors.New("credential is empty")

	// ErrSettingsCorrupt marks a stored settings record that could not be decoded.
	ErrSettingsCorrupt = errors.New("stored lock settings are corrupt")

	// ErrUnknownHashScheme is returned for a hash scheme name lockgate cannot produce.
	ErrUnknownHashScheme = errors.New("unknown credential hash scheme")
)
