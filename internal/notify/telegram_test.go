package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	apperrors "github.com/gmsas95/quitcoach/internal/errors"
)

func TestNewTelegramNotifier_RequiresConfiguration(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	_, err := NewTelegramNotifier(TelegramConfig{}, logger)
	assert.ErrorIs(t, err, apperrors.ErrNotifierNotConfigured)

	_, err = NewTelegramNotifier(TelegramConfig{Token: "123:abc"}, logger)
	assert.ErrorIs(t, err, apperrors.ErrNotifierNotConfigured)
}
