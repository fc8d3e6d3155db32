package heuristic

import (
	"context"
	"strings"
	"testing"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

func classify(t *testing.T, snippet string) domain.Analysis {
	t.Helper()
	analysis, err := New().Classify(context.Background(), snippet, "expediente.pdf")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	return analysis
}

func TestTypePriorityOficioBeatsLaterMemorando(t *testing.T) {
	analysis := classify(t, "OFICIO N° 123-2024-MRE/DGA\nse adjunta el MEMORANDO previo")
	if analysis.Type != domain.TypeOficio {
		t.Fatalf("expected Oficio, got %s", analysis.Type)
	}
}

func TestTypeDetectionTable(t *testing.T) {
	cases := []struct {
		snippet string
		want    domain.DocumentType
	}{
		{"CARTA N° 45-2024", domain.TypeCarta},
		{"MEMORANDO MULTIPLE 12", domain.TypeMemorando},
		{"INFORME TECNICO 08", domain.TypeInforme},
		{"resolución ministerial 004", domain.TypeResolucion},
		{"RESOLUCION DIRECTORAL 91", domain.TypeResolucion},
		{"nota verbal sin cabecera", domain.TypeOtro},
	}
	for _, tc := range cases {
		if got := classify(t, tc.snippet).Type; got != tc.want {
			t.Errorf("snippet %q: expected %s, got %s", tc.snippet, tc.want, got)
		}
	}
}

func TestUrgenteAlwaysMeansAlta(t *testing.T) {
	snippets := []string{
		"URGENTE: responder hoy",
		"solicitud urgente de visado",
		"INFORME con plazo perentorio",
		"caso humanitario pendiente",
	}
	for _, snippet := range snippets {
		if got := classify(t, snippet).Urgency; got != domain.UrgencyAlta {
			t.Errorf("snippet %q: expected Alta, got %s", snippet, got)
		}
	}
}

func TestUrgencyIndependentOfType(t *testing.T) {
	analysis := classify(t, "OFICIO N° 55\nAtención URGENTE requerida")
	if analysis.Type != domain.TypeOficio {
		t.Fatalf("expected Oficio, got %s", analysis.Type)
	}
	if analysis.Urgency != domain.UrgencyAlta {
		t.Fatalf("expected Alta, got %s", analysis.Urgency)
	}
}

func TestMediumAndLowUrgency(t *testing.T) {
	if got := classify(t, "remisión de expediente consular").Urgency; got != domain.UrgencyMedia {
		t.Fatalf("expected Media, got %s", got)
	}
	if got := classify(t, "texto sin marcadores").Urgency; got != domain.UrgencyBaja {
		t.Fatalf("expected Baja, got %s", got)
	}
}

func TestAsuntoLineBecomesSummary(t *testing.T) {
	analysis := classify(t, "OFICIO N° 1\nAsunto: Solicita acreditación de delegación APEC\nAtentamente,")
	if analysis.Summary != "Solicita acreditación de delegación APEC" {
		t.Fatalf("unexpected summary %q", analysis.Summary)
	}
}

func TestSummaryFallsBackToFilename(t *testing.T) {
	analysis := classify(t, "texto sin linea de asunto")
	if !strings.Contains(analysis.Summary, "expediente.pdf") {
		t.Fatalf("expected filename in summary, got %q", analysis.Summary)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	snippet := "CARTA N° 9\nAsunto: Remite informe de gestión\nSOLICITUD adjunta"
	first := classify(t, snippet)
	second := classify(t, snippet)
	if first != second {
		t.Fatalf("expected identical results, got %+v then %+v", first, second)
	}
}
