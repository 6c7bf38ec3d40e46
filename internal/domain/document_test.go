package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trustnet/internal/domain"
)

func TestQueuePriorityByDocumentType(t *testing.T) {
	tests := []struct {
		docType domain.DocumentType
		want    domain.Priority
	}{
		{domain.DocumentNationalID, domain.PriorityHigh},
		{domain.DocumentPassport, domain.PriorityNormal},
		{domain.DocumentDriverLicense, domain.PriorityNormal},
		{domain.DocumentBirthCertificate, domain.PriorityNormal},
		{domain.DocumentOther, domain.PriorityLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.docType.QueuePriority(), string(tt.docType))
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, domain.StateApproved.Terminal())
	assert.True(t, domain.StateRejected.Terminal())
	assert.False(t, domain.StateAwaitingSubmitterAction.Terminal())
	assert.False(t, domain.StateUnderReview.Terminal())
	assert.False(t, domain.StateSubmitted.Terminal())
}

func TestParseRole(t *testing.T) {
	role, err := domain.ParseRole("user")
	assert.NoError(t, err)
	assert.Equal(t, domain.RoleSubmitter, role)

	role, err = domain.ParseRole("verifier")
	assert.NoError(t, err)
	assert.Equal(t, domain.RoleVerifier, role)

	_, err = domain.ParseRole("admin")
	assert.Error(t, err)
}

func TestParseDecision(t *testing.T) {
	for _, valid := range []string{"Approved", "Rejected", "Pending"} {
		_, err := domain.ParseDecision(valid)
		assert.NoError(t, err, valid)
	}
	_, err := domain.ParseDecision("Maybe")
	assert.Error(t, err)
}

func TestValidFileName(t *testing.T) {
	assert.True(t, domain.ValidFileName("national_id_scan.jpg"))
	assert.True(t, domain.ValidFileName("passport_scan.PDF"))
	assert.False(t, domain.ValidFileName("malware.exe"))
	assert.False(t, domain.ValidFileName("notes"))
}
