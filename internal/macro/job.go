package macro

import (
	"github.com/okian/dugout/internal/adapters/repository"
	"github.com/okian/dugout/internal/domain/model"
)

// Job identifies one macro awaiting an asynchronous rebuild.
type Job struct {
	Kind    model.SubjectKind `json:"kind"`
	Subject string            `json:"subject"`
	Season  int               `json:"season"`
}

// JobFor builds the rebuild job for a normalized record.
func JobFor(rec model.GameRecord) Job {
	return Job{Kind: rec.SubjectKind, Subject: rec.SubjectID, Season: rec.Season}
}

// Key is the job's dedupe identity, shared with the macro keyspace so a
// pending mark and its macro always name the same thing.
func (j Job) Key() string {
	return repository.MacroKey{Kind: j.Kind, Subject: j.Subject, Season: j.Season}.String()
}
