// Package heuristic is the offline classification strategy: deterministic
// keyword matching over the upper-cased snippet. It mirrors the headers real
// mesa-de-partes documents carry and needs no credentials.
package heuristic

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

type Classifier struct{}

func New() *Classifier {
	return &Classifier{}
}

// typeRules is checked in order; the first hit wins, so "OFICIO N" beats a
// "MEMORANDO" mentioned later in the body.
var typeRules = []struct {
	keyword string
	docType domain.DocumentType
}{
	{"OFICIO N", domain.TypeOficio},
	{"CARTA N", domain.TypeCarta},
	{"MEMORANDO", domain.TypeMemorando},
	{"INFORME", domain.TypeInforme},
	{"RESOLUCIÓN", domain.TypeResolucion},
	{"RESOLUCION", domain.TypeResolucion},
}

var (
	highUrgencyKeywords   = []string{"URGENTE", "PLAZO", "HUMANITARIO"}
	mediumUrgencyKeywords = []string{"SOLICITUD", "REMISIÓN"}
)

var asuntoPattern = regexp.MustCompile(`(?i)Asunto:[ \t]*([^\r\n]+)`)

func (c *Classifier) Classify(_ context.Context, snippet, filename string) (domain.Analysis, error) {
	upper := strings.ToUpper(snippet)

	return domain.Analysis{
		Type:    detectType(upper),
		Urgency: detectUrgency(upper),
		Summary: extractSummary(snippet, filename),
	}, nil
}

func detectType(upper string) domain.DocumentType {
	for _, rule := range typeRules {
		if strings.Contains(upper, rule.keyword) {
			return rule.docType
		}
	}
	return domain.TypeOtro
}

// detectUrgency runs independently of type detection; a document can hit
// both an Oficio header and an URGENTE marker.
func detectUrgency(upper string) domain.Urgency {
	for _, keyword := range highUrgencyKeywords {
		if strings.Contains(upper, keyword) {
			return domain.UrgencyAlta
		}
	}
	for _, keyword := range mediumUrgencyKeywords {
		if strings.Contains(upper, keyword) {
			return domain.UrgencyMedia
		}
	}
	return domain.UrgencyBaja
}

func extractSummary(snippet, filename string) string {
	if match := asuntoPattern.FindStringSubmatch(snippet); match != nil {
		if subject := strings.TrimSpace(match[1]); subject != "" {
			return subject
		}
	}
	return fmt.Sprintf("Registra el documento %s para trámite.", filename)
}
