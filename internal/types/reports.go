package types

import "time"

// BundleComment is the report-facing view of a top-level comment: text,
// author email and timestamp, stripped of relational foreign keys.
type BundleComment struct {
	ID        string    `json:"id"`
	Text      string    `json:"comentario"`
	Author    string    `json:"autor"`
	Timestamp time.Time `json:"fecha"`
}

// BundleReply is the first (earliest) reply to a top-level comment.
type BundleReply struct {
	ID        string    `json:"id"`
	Text      string    `json:"comentario"`
	Author    string    `json:"autor"`
	Timestamp time.Time `json:"fecha"`
	ParentID  string    `json:"id_comentario_principal"`
}

// DailyCommentBundle is one report row: a top-level comment of the day tied
// to its zone/species/animal context, plus at most one reply. Reply is nil
// when the comment has no replies; when it has several, only the earliest
// by timestamp is retained.
type DailyCommentBundle struct {
	Zone    string        `json:"zona"`
	Species string        `json:"specie"`
	Animal  string        `json:"animal"`
	Comment BundleComment `json:"comentario"`
	Reply   *BundleReply  `json:"respuesta,omitempty"`
}

// UserReportJob bundles all of today's report rows for one animal owner.
// Jobs are created fresh per aggregation run and never persisted; a job
// always carries at least one bundle.
type UserReportJob struct {
	UserID  string               `json:"userId"`
	Email   string               `json:"email"`
	Bundles []DailyCommentBundle `json:"data"`
}

// RenderedArtifact describes one generated report document after upload:
// the human-facing file name and the opaque object-storage key.
type RenderedArtifact struct {
	FileName   string `json:"name_file"`
	StorageKey string `json:"s3_name"`
}

// RunError records a non-fatal failure scoped to a single user's pipeline
// stage. Collected into the RunSummary instead of aborting the run.
type RunError struct {
	UserID string `json:"userId"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// RunSummary is the outcome of one daily task execution. Success means no
// per-user errors were recorded; a run with zero users is still successful.
type RunSummary struct {
	Success       bool       `json:"success"`
	TotalUsers    int        `json:"totalUsers"`
	TotalComments int        `json:"totalComments"`
	Errors        []RunError `json:"errors,omitempty"`
}
