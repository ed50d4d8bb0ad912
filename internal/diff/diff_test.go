package diff

import (
	"testing"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanges_ChangedAndAdded(t *testing.T) {
	previous := []domain.CaseEntry{
		{Exp: "1", AgreementDate: "2024-01-01", Description: "A"},
	}
	current := []domain.CaseEntry{
		{Exp: "1", AgreementDate: "2024-01-01", Description: "B"},
		{Exp: "2", AgreementDate: "2024-01-02", Description: "C"},
	}

	changes := Changes(previous, current)

	require.Len(t, changes, 2)
	assert.Equal(t, "1", changes[0].Exp)
	assert.Equal(t, "B", changes[0].Description)
	assert.Equal(t, "2", changes[1].Exp)
}

func TestChanges_RemovalDetection(t *testing.T) {
	previous := []domain.CaseEntry{
		{Exp: "1", AgreementDate: "d1"},
		{Exp: "2", AgreementDate: "d2"},
	}
	current := []domain.CaseEntry{
		{Exp: "1", AgreementDate: "d1"},
	}

	changes := Changes(previous, current)

	require.Len(t, changes, 1)
	assert.Equal(t, "2", changes[0].Exp)
	assert.Equal(t, "d2", changes[0].AgreementDate)
}

func TestChanges_NoChanges(t *testing.T) {
	entries := []domain.CaseEntry{
		{Exp: "1", AgreementDate: "2024-01-01", Description: "A", ActorNames: "PEREZ"},
		{Exp: "2", AgreementDate: "2024-01-02", Description: "B"},
	}

	assert.Empty(t, Changes(entries, entries))
}

func TestChanges_WhitelistedFields(t *testing.T) {
	base := domain.CaseEntry{
		Exp:           "7",
		AgreementDate: "2024-03-03",
		CourtCode:     "L04",
		Description:   "ACUERDO",
	}

	tests := []struct {
		name   string
		mutate func(*domain.CaseEntry)
	}{
		{"description", func(e *domain.CaseEntry) { e.Description = "OTRO" }},
		{"notification", func(e *domain.CaseEntry) { e.Notification = "SI" }},
		{"bulletin", func(e *domain.CaseEntry) { e.Bulletin = "B-1" }},
		{"bulletin2", func(e *domain.CaseEntry) { e.Bulletin2 = "B-2" }},
		{"bulletin3", func(e *domain.CaseEntry) { e.Bulletin3 = "B-3" }},
		{"type", func(e *domain.CaseEntry) { e.Type = "SENTENCIA" }},
		{"direction", func(e *domain.CaseEntry) { e.Direction = "2" }},
		{"resolution date", func(e *domain.CaseEntry) { e.ResolutionDate = "2024-04-04" }},
		{"actor names", func(e *domain.CaseEntry) { e.ActorNames = "GOMEZ" }},
		{"defendant names", func(e *domain.CaseEntry) { e.DefendantNames = "RUIZ" }},
		{"authority names", func(e *domain.CaseEntry) { e.AuthorityNames = "JUZGADO" }},
		{"prosecutor names", func(e *domain.CaseEntry) { e.ProsecutorNames = "FISCAL" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modified := base
			tt.mutate(&modified)

			changes := Changes([]domain.CaseEntry{base}, []domain.CaseEntry{modified})

			require.Len(t, changes, 1)
			assert.Equal(t, modified, changes[0])
		})
	}
}

func TestChanges_OrderIsScanOrder(t *testing.T) {
	previous := []domain.CaseEntry{
		{Exp: "3", AgreementDate: "d3", Description: "old"},
		{Exp: "9", AgreementDate: "d9"},
	}
	current := []domain.CaseEntry{
		{Exp: "5", AgreementDate: "d5"},                      // new
		{Exp: "3", AgreementDate: "d3", Description: "new"},  // changed
		{Exp: "1", AgreementDate: "d1"},                      // new
	}

	changes := Changes(previous, current)

	// Scan order of current, then leftovers from previous. Not sorted by key.
	require.Len(t, changes, 4)
	assert.Equal(t, "5", changes[0].Exp)
	assert.Equal(t, "3", changes[1].Exp)
	assert.Equal(t, "1", changes[2].Exp)
	assert.Equal(t, "9", changes[3].Exp)
}

func TestChanges_EmptyPrevious(t *testing.T) {
	current := []domain.CaseEntry{
		{Exp: "1", AgreementDate: "d1"},
		{Exp: "2", AgreementDate: "d2"},
	}

	changes := Changes(nil, current)

	assert.Equal(t, current, changes)
}
