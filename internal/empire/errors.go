package empire

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the simulation core. Call sites wrap these with
// entity context via fmt.Errorf("...: %w", ...) so callers can match with
// errors.Is while logs stay specific.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidAction         = errors.New("action must be HELP or IGNORE")
	ErrIncompatibleType      = errors.New("planet type incompatible with upgrade")
	ErrInsufficientResources = errors.New("insufficient resources")
	ErrAlreadyResolved       = errors.New("event already resolved")
	ErrInvalidRange          = errors.New("value outside valid range")
)

func planetKey(id uint64) string { return fmt.Sprintf("planet:%d", id) }
func empireKey(id uint64) string { return fmt.Sprintf("empire:%d", id) }
