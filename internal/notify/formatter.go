package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/expdynts/expwatch/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	firstObservationMessage = "📋 Nuevo expediente registrado. A partir de ahora recibirás avisos cuando se publiquen cambios."
	noChangesMessage        = "Sin cambios detectados en el expediente."

	// fallbackMessage replaces the formatted listing when message
	// construction fails. The subscriber still learns something changed.
	fallbackMessage = "⚠️ Se detectaron cambios en tu expediente, pero no fue posible generar el detalle. Consulta el boletín publicado."
)


// FormatMessage renders the delivery text for one diff result following
// the fixed layout: header, case metadata, recipient line, then one
// numbered block per changed entry. Empty fields are omitted, never
// printed blank.
func FormatMessage(result domain.DiffResult) string {
	if result.IsFirstObservation {
		return firstObservationMessage
	}

	if !result.HasChanged || result.Payload == nil {
		return noChangesMessage
	}

	var b strings.Builder
	payload := result.Payload

	b.WriteString("🔔 *Cambios detectados en tu expediente*\n")
	writeCaseMeta(&b, payload.CaseMeta)

	if payload.RecipientContact != "" {
		fmt.Fprintf(&b, "Contacto: %s\n", payload.RecipientContact)
	}

	for i, entry := range payload.ChangedEntries {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d)\n", i+1)
		writeEntry(&b, entry)
	}

	return b.String()
}

func writeCaseMeta(b *strings.Builder, meta domain.CaseMeta) {
	// Casers carry transform state, so each message gets its own.
	title := cases.Title(language.Spanish)

	if meta.Number != 0 {
		fmt.Fprintf(b, "Expediente: %d/%d\n", meta.Number, meta.Year)
	}
	if meta.CourtName != "" {
		fmt.Fprintf(b, "Juzgado: %s\n", title.String(strings.ToLower(meta.CourtName)))
	}
	if meta.Location != "" {
		fmt.Fprintf(b, "Región: %s\n", title.String(strings.ToLower(meta.Location)))
	}
}

// writeEntry emits one numbered block. Only non-empty fields appear.
func writeEntry(b *strings.Builder, entry domain.CaseEntry) {
	writeField(b, "Expediente", entry.Exp)
	writeField(b, "Juzgado", entry.CourtCode)
	writeField(b, "Fecha de proveído", formatDate(entry.ProcedureDate))
	writeField(b, "Fecha de acuerdo", formatDate(entry.AgreementDate))
	writeField(b, "Fecha de resolución", formatDate(entry.ResolutionDate))
	writeField(b, "Boletín", entry.Bulletin)
	writeField(b, "Boletín 2", entry.Bulletin2)
	writeField(b, "Boletín 3", entry.Bulletin3)
	writeField(b, "Descripción", entry.Description)
	writeField(b, "Actor", entry.ActorNames)
	writeField(b, "Demandado", entry.DefendantNames)
	writeField(b, "Autoridad", entry.AuthorityNames)
	writeField(b, "Promovente", entry.ProsecutorNames)
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, " %s: %s\n", label, value)
}

// dateLayouts covers the formats the source has been observed to
// publish. Unparseable values pass through untouched.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func formatDate(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("02/01/2006")
		}
	}
	return value
}
