package fingerprint

import (
	"testing"

	"github.com/expdynts/expwatch/internal/domain"
	"github.com/stretchr/testify/assert"
)

func entries() []domain.CaseEntry {
	return []domain.CaseEntry{
		{Exp: "123/2024", AgreementDate: "2024-01-01", Description: "ACUERDO", ActorNames: "PEREZ JUAN"},
		{Exp: "124/2024", AgreementDate: "2024-01-02", Description: "SENTENCIA", DefendantNames: "LOPEZ ANA"},
	}
}

func TestSum_Deterministic(t *testing.T) {
	a := Sum(entries())
	b := Sum(entries())

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex-encoded 256-bit digest
}

func TestSum_ChangedFieldChangesDigest(t *testing.T) {
	base := Sum(entries())

	modified := entries()
	modified[0].Description = "ACUERDO MODIFICADO"

	assert.NotEqual(t, base, Sum(modified))
}

func TestSum_MembershipChangesDigest(t *testing.T) {
	base := Sum(entries())

	assert.NotEqual(t, base, Sum(entries()[:1]))
}

func TestSum_OrderSensitive(t *testing.T) {
	e := entries()
	forward := Sum(e)
	backward := Sum([]domain.CaseEntry{e[1], e[0]})

	assert.NotEqual(t, forward, backward)
}

func TestSum_EmptyAndNilAgree(t *testing.T) {
	assert.Equal(t, Sum(nil), Sum([]domain.CaseEntry{}))
}
