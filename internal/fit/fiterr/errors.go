// Package fiterr defines the calculation core's error taxonomy: metadata
// errors raised to the caller versus data errors that are logged and
// swallowed by the register/calculator.
package fiterr

import "fmt"

// AttributeMetadataError indicates the type/effect/modifier database has no
// descriptor at all for an attribute id — a corrupt or incomplete catalog,
// not a per-item data problem. Unlike data errors (malformed modifiers,
// unknown filters/domains) this is raised to the caller rather than logged
// and ignored.
type AttributeMetadataError struct {
	AttributeID int64
}

func (e *AttributeMetadataError) Error() string {
	return fmt.Sprintf("no attribute descriptor for attribute %d", e.AttributeID)
}

// NewAttributeMetadataError constructs an AttributeMetadataError for attrID.
func NewAttributeMetadataError(attrID int64) error {
	return &AttributeMetadataError{AttributeID: attrID}
}
