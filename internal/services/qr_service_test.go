package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRService_GenerateReceiveQR(t *testing.T) {
	service := NewQRService()

	t.Run("generates PNG with amount", func(t *testing.T) {
		png, err := service.GenerateReceiveQR("Alice@Example.com", 2550)
		require.NoError(t, err)
		require.NotEmpty(t, png)

		// PNG signature
		assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, png[:4])
	})

	t.Run("zero amount leaves it to the payer", func(t *testing.T) {
		png, err := service.GenerateReceiveQR("alice@example.com", 0)
		require.NoError(t, err)
		assert.NotEmpty(t, png)
	})
}
