package domain

// ResultStatus is the three-tier outcome of a multi-step flow: fatal failure,
// partial success with warnings, or full success.
type ResultStatus string

const (
	StatusOK      ResultStatus = "ok"
	StatusPartial ResultStatus = "partial"
	StatusError   ResultStatus = "error"
)

// TodoItem is a to-do seeded onto a freshly created matter.
type TodoItem struct {
	Title   string `json:"title"`
	DueDate string `json:"dueDate,omitempty"`
}

// FileUpload describes a document to attach to a matter after creation.
type FileUpload struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// MatterDraft is the local input to the matter intake flow. Validation
// happens before any network call.
type MatterDraft struct {
	Name         string       `json:"name"`
	ClientName   string       `json:"clientName"`
	PracticeArea string       `json:"practiceArea,omitempty"`
	Files        []FileUpload `json:"files,omitempty"`
	Assignees    []string     `json:"assignees,omitempty"`
	Todos        []TodoItem   `json:"todos,omitempty"`
}

// MatterIntakeResult is the outcome of the create-matter flow. Only the
// primary record-creation step can fail the whole operation; each follow-on
// step failure is downgraded to a warning on a partial success.
type MatterIntakeResult struct {
	Status   ResultStatus `json:"status"`
	MatterID string       `json:"matterId,omitempty"`
	Warnings []string     `json:"warnings,omitempty"`
	Err      error        `json:"-"`
}
