package models

// Draft mode values. A draft created from the in-app camera flow is a
// capture draft; a draft created for a remote-initiated upload session is an
// upload draft. Lookups are scoped by mode so the two kinds never
// cross-contaminate each other's ids.
const (
	ModeCapture = "capture"
	ModeUpload  = "upload"
)

type Draft struct {
	ID       string    `json:"id"`
	Segments []Segment `json:"segments"`
	// MaxDurationSeconds is the user-chosen recording ceiling. It is a
	// setting, never derived from segment contents, and survives every
	// segment-mutating operation verbatim.
	MaxDurationSeconds int    `json:"max_duration_seconds"`
	Mode               string `json:"mode"`
	Name               string `json:"name,omitempty"`
	// Thumbnail is a root-relative path under the managed media root.
	Thumbnail string `json:"thumbnail,omitempty"`
	// Created/Updated timestamps (ns)
	CreatedTS int64 `json:"created_ts,omitempty"`
	UpdatedTS int64 `json:"updated_ts,omitempty"`

	// Upload holds the remote destination for upload-mode drafts.
	Upload *UploadConfig `json:"upload,omitempty"`
}

// UploadConfig is the remote destination for an upload-mode draft.
type UploadConfig struct {
	Server string `json:"server,omitempty"`
	Token  string `json:"token,omitempty"`
}
