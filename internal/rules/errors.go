package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors for rule compilation.
var (
	// ErrNoChannelIDs indicates an entry without watch_channel_ids.
	ErrNoChannelIDs = errors.New("rules: entry has no channel ids")

	// ErrEmptyChannelID indicates a blank id inside watch_channel_ids.
	ErrEmptyChannelID = errors.New("rules: empty channel id")

	// ErrEmptyRoleID indicates a role mapping with a blank key.
	ErrEmptyRoleID = errors.New("rules: empty role id")

	// ErrInvalidKeyword indicates a keyword that is not a valid pattern.
	ErrInvalidKeyword = errors.New("rules: invalid keyword pattern")
)

// CompileError reports which configuration entry failed to compile.
type CompileError struct {
	Index      int
	ChannelIDs []string
	Cause      error
}

func (e *CompileError) Error() string {
	if len(e.ChannelIDs) > 0 {
		return fmt.Sprintf("rules: channels[%d] %v: %v", e.Index, e.ChannelIDs, e.Cause)
	}
	return fmt.Sprintf("rules: channels[%d]: %v", e.Index, e.Cause)
}

func (e *CompileError) Unwrap() error {
	return e.Cause
}

// KeywordError carries the keyword that failed to compile.
type KeywordError struct {
	Keyword string
	Err     error
}

func (e *KeywordError) Error() string {
	return fmt.Sprintf("%v %q: %v", ErrInvalidKeyword, e.Keyword, e.Err)
}

// Is implements errors.Is for KeywordError.
func (e *KeywordError) Is(target error) bool {
	return target == ErrInvalidKeyword
}

func (e *KeywordError) Unwrap() error {
	return e.Err
}
