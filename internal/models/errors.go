package models

import "errors"

// ErrInvalidParameter marks input rejected at the boundary before it reaches
// the hazard model. Wrapped errors carry the field-specific message.
var ErrInvalidParameter = errors.New("invalid parameter")
