package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := New("STORE_001", "event store read failed")
	assert.Equal(t, "[STORE_001] event store read failed", err.Error())

	wrapped := New("STORE_001", "event store read failed", fmt.Errorf("disk full"))
	assert.Equal(t, "[STORE_001] event store read failed: disk full", wrapped.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := fmt.Errorf("database is locked")
	err := Wrap(cause, "STORE_002", "event store write failed")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "STORE_002", GetCode(err))
}

func TestIsAppError(t *testing.T) {
	assert.True(t, IsAppError(ErrProfileNotFound))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
}

func TestGetCode_Unknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

func TestSentinels_MatchWithErrorsIs(t *testing.T) {
	wrapped := Wrap(ErrProfileNotFound, "STORE_001", "while computing features")
	assert.True(t, errors.Is(wrapped, ErrProfileNotFound))
}
