package domain

// Draft is the pre-registration result of analyzing an upload: the stored
// artifact location plus the classifier verdict, open to operator edits.
type Draft struct {
	Title    string   `json:"title"`
	FileName string   `json:"file_name"`
	FileURL  string   `json:"file_url,omitempty"`
	Analysis Analysis `json:"analysis"`
	Tags     []string `json:"tags"`
}

// RegisterInput carries the operator-confirmed fields for a new record.
type RegisterInput struct {
	Title    string   `json:"title"`
	FileName string   `json:"file_name"`
	FileURL  string   `json:"file_url"`
	Type     string   `json:"type"`
	Urgency  string   `json:"urgency"`
	Summary  string   `json:"summary"`
	Tags     []string `json:"tags"`
}
