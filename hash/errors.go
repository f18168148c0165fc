package hash

import "errors"

// ErrMalformed is returned when a hex or byte representation of a
// HashId has the wrong length or is not valid hex.
var ErrMalformed = errors.New("malformed hash")
