package gemini

import (
	"fmt"

	"github.com/expedium/mesa-partes/internal/core/domain"
)

func buildClassificationPrompt(snippet, filename string) string {
	return fmt.Sprintf(`Eres un asistente experto en gestión documental de mesa de partes institucional.
Analiza el siguiente fragmento de texto extraído de un documento oficial.

Texto: "%s"
Nombre de archivo: "%s"

Instrucciones:
1. Identifica el TIPO de documento según su cabecera (ej. "OFICIO N°...", "CARTA N°...", "MEMORANDO").
   Tipos válidos: "Oficio", "Carta", "Memorando", "Informe", "Resolución", "Otro".
2. Determina la URGENCIA según el contenido. Menciones de "plazo perentorio", "urgente", "salud", "vida" o "seguridad" implican "Alta".
3. Genera un RESUMEN ejecutivo de máximo 12 palabras.
   - Debe comenzar con un verbo de acción en presente (ej. "Solicita...", "Informa...", "Remite...").
   - Debe capturar el propósito central del documento.

Responde estrictamente en JSON.`, snippet, filename)
}

func classificationSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "STRING",
				"enum": []string{
					string(domain.TypeOficio),
					string(domain.TypeCarta),
					string(domain.TypeMemorando),
					string(domain.TypeInforme),
					string(domain.TypeResolucion),
					string(domain.TypeOtro),
				},
			},
			"urgency": map[string]any{
				"type": "STRING",
				"enum": []string{
					string(domain.UrgencyAlta),
					string(domain.UrgencyMedia),
					string(domain.UrgencyBaja),
				},
			},
			"summary": map[string]any{"type": "STRING"},
		},
		"required": []string{"type", "urgency", "summary"},
	}
}
