package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRegistrationCode(t *testing.T) {
	assert.Equal(t, "VIP001", FormatRegistrationCode("VIP", 1))
	assert.Equal(t, "SPK042", FormatRegistrationCode("SPK", 42))
	assert.Equal(t, "PTC999", FormatRegistrationCode("PTC", 999))

	// 超过三位后自然加宽，不截断
	assert.Equal(t, "PTC1000", FormatRegistrationCode("PTC", 1000))
	assert.Equal(t, "PTC12345", FormatRegistrationCode("PTC", 12345))
}
