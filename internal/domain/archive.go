package domain

import "time"

// ArchiveStatus is the terminal outcome recorded against an archived
// intention.
type ArchiveStatus string

const (
	ArchiveOK    ArchiveStatus = "OK"
	ArchiveError ArchiveStatus = "ERROR"
)

// ArchJob is the archived counterpart of a Job: kept around so archived
// intentions retain a reference to the execution that produced them,
// after the live Job row is deleted.
type ArchJob struct {
	ID          string
	CreatedAt   time.Time
	ArchivedAt  time.Time
	WorkerID    *string
	LogLocation *string
}

// ArchivedIntention is the frozen, terminal record of a completed or
// failed intention. Once inserted, its status is durable; the
// administrative/browsing UI reads this table, never the live Intention
// table, to determine outcome.
type ArchivedIntention struct {
	ID          string
	Kind        IntentionKind
	UserID      string
	RepoID      string
	CreatedAt   time.Time
	CompletedAt time.Time
	Status      ArchiveStatus
	ArchJobID   string
}
