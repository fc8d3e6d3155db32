package domain

import "time"

// DocumentType is the closed set of institutional document kinds.
type DocumentType string

const (
	TypeOficio     DocumentType = "Oficio"
	TypeCarta      DocumentType = "Carta"
	TypeMemorando  DocumentType = "Memorando"
	TypeInforme    DocumentType = "Informe"
	TypeResolucion DocumentType = "Resolución"
	TypeOtro       DocumentType = "Otro"
)

func (t DocumentType) Valid() bool {
	switch t {
	case TypeOficio, TypeCarta, TypeMemorando, TypeInforme, TypeResolucion, TypeOtro:
		return true
	}
	return false
}

// ParseDocumentType maps free text to the enum, defaulting to Otro.
func ParseDocumentType(s string) DocumentType {
	t := DocumentType(s)
	if t.Valid() {
		return t
	}
	return TypeOtro
}

type Urgency string

const (
	UrgencyAlta  Urgency = "Alta"
	UrgencyMedia Urgency = "Media"
	UrgencyBaja  Urgency = "Baja"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyAlta, UrgencyMedia, UrgencyBaja:
		return true
	}
	return false
}

// Rank orders urgencies for the inbox sort: Alta=3, Media=2, Baja=1.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyAlta:
		return 3
	case UrgencyMedia:
		return 2
	case UrgencyBaja:
		return 1
	}
	return 0
}

func ParseUrgency(s string) Urgency {
	u := Urgency(s)
	if u.Valid() {
		return u
	}
	return UrgencyBaja
}

// Status is the three-stage workflow state of a document.
type Status string

const (
	StatusRecibido   Status = "Recibido"
	StatusEnRevision Status = "En Revisión"
	StatusArchivado  Status = "Archivado"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRecibido, StatusEnRevision, StatusArchivado:
		return true
	}
	return false
}

func ParseStatus(s string) Status {
	st := Status(s)
	if st.Valid() {
		return st
	}
	return StatusRecibido
}

// DocumentRecord is the central intake entity. ID starts as a client-assigned
// temporary token and becomes the row store's integer id after the first
// refresh. FileURL is empty until an upload succeeds; an empty value means
// "never uploaded", not a dead link.
type DocumentRecord struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	FileName     string       `json:"file_name"`
	FileURL      string       `json:"file_url,omitempty"`
	Type         DocumentType `json:"type"`
	Urgency      Urgency      `json:"urgency"`
	Status       Status       `json:"status"`
	Summary      string       `json:"summary"`
	CreatedAt    time.Time    `json:"created_at"`
	LastModified time.Time    `json:"last_modified"`
	Tags         []string     `json:"tags"`
	AssignedTo   string       `json:"assigned_to,omitempty"`
	AssignedArea string       `json:"assigned_area,omitempty"`
}

// Analysis is a classifier verdict for one uploaded document.
type Analysis struct {
	Type    DocumentType `json:"type"`
	Urgency Urgency      `json:"urgency"`
	Summary string       `json:"summary"`
}

// DefaultAnalysis is returned whenever classification cannot complete.
func DefaultAnalysis() Analysis {
	return Analysis{
		Type:    TypeOtro,
		Urgency: UrgencyBaja,
		Summary: "Requiere revisión manual.",
	}
}
