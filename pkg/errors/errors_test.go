package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesWrappedCoreErrorKind(t *testing.T) {
	base := New(KindNotFound, "missing order")
	wrapped := fmt.Errorf("context: %w", base)

	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindRejected))
}

func TestIsReturnsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(fmt.Errorf("plain"), KindNotFound))
}

func TestWithDetailAndWithCauseChain(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := New(KindRejected, "rejected").WithDetail("reason", "insufficient margin").WithCause(cause)

	assert.Equal(t, "insufficient margin", err.Details["reason"])
	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "caused by")
}

func TestIsFatalOnlyForStateMachineViolation(t *testing.T) {
	assert.True(t, IsFatal(New(KindStateMachineViolation, "bad transition")))
	assert.False(t, IsFatal(New(KindRejected, "rejected")))
	assert.False(t, IsFatal(nil))
}

func TestGetKindReturnsEmptyForNonCoreError(t *testing.T) {
	assert.Equal(t, Kind(""), GetKind(fmt.Errorf("plain")))
}

func TestGroupAccumulatesAndReportsErrors(t *testing.T) {
	g := NewGroup()
	assert.False(t, g.HasErrors())

	g.Add(nil)
	assert.False(t, g.HasErrors())

	g.Add(New(KindNotFound, "order-1 missing"))
	g.Add(New(KindRejected, "order-2 rejected"))

	assert.True(t, g.HasErrors())
	assert.Len(t, g.Errors(), 2)
	assert.Equal(t, "2 errors occurred", g.Error())
}

func TestGroupSingleErrorReturnsItsOwnMessage(t *testing.T) {
	g := NewGroup()
	g.Add(New(KindNotFound, "order-1 missing"))

	assert.Contains(t, g.Error(), "order-1 missing")
}
