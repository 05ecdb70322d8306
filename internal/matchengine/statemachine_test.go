package matchengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdoElHodaky/tradsys-core/internal/domain"
)

func TestLegalTransitionAllowsSubmittedToAccepted(t *testing.T) {
	assert.True(t, legalTransition(domain.StatusSubmitted, domain.EvtAccepted))
}

func TestLegalTransitionRejectsTerminalReentry(t *testing.T) {
	// a Filled order has no further legal transitions listed.
	assert.False(t, legalTransition(domain.StatusFilled, domain.EvtCanceled))
}

func TestLegalTransitionRejectsSkippingAcceptance(t *testing.T) {
	assert.False(t, legalTransition(domain.StatusInitialized, domain.EvtFilled))
}

func TestLegalTransitionAllowsPendingCancelToCanceledOrFilled(t *testing.T) {
	assert.True(t, legalTransition(domain.StatusPendingCancel, domain.EvtCanceled))
	assert.True(t, legalTransition(domain.StatusPendingCancel, domain.EvtFilled))
	assert.False(t, legalTransition(domain.StatusPendingCancel, domain.EvtUpdated))
}
