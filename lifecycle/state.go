package lifecycle

import (
	"errors"
	"fmt"
)

// State is the stage a plugin directory reached while loading.
type State int

const (
	Discovered State = iota
	ManifestParsed
	VersionChecked
	SourcesReserved
	Instantiated
	Initialized
	Registered
	Rejected
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case ManifestParsed:
		return "manifest parsed"
	case VersionChecked:
		return "version checked"
	case SourcesReserved:
		return "sources reserved"
	case Instantiated:
		return "instantiated"
	case Initialized:
		return "initialized"
	case Registered:
		return "registered"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrIncompatibleProtocol = errors.New("incompatible protocol")
	ErrSourceConflict       = errors.New("source conflict")
	ErrAlreadyLoaded        = errors.New("plugin already loaded")
	ErrNotAPlugin           = errors.New("not a plugin")
	ErrInitializationFailed = errors.New("initialization failed")
)

// RejectionError reports why a plugin directory was not registered.
// State is the last stage the directory passed before failing.
type RejectionError struct {
	Dir   string
	State State
	Err   error
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("plugin %s rejected after %s: %s", e.Dir, e.State, e.Err)
}

func (e *RejectionError) Unwrap() error {
	return e.Err
}

// Outcome is the recorded result of processing one plugin directory.
type Outcome struct {
	Dir   string
	Name  string
	State State
	Err   error
}

// Ok reports whether the directory ended up registered.
func (o Outcome) Ok() bool {
	return o.State == Registered
}
