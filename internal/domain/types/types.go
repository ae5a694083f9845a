// Package types contains read-model shapes shared across the application
package types

import "github.com/okian/dugout/internal/domain/model"

// Descriptor identifies one persisted macro: a subject with recorded
// games in a season. Discovery endpoints return these without touching
// the trees themselves.
type Descriptor struct {
	Kind    model.SubjectKind `json:"kind"`
	Subject string            `json:"subject"`
	Season  int               `json:"season"`
}
