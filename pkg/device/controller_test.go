package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type waitingController struct {
	NullController
	waited []string
}

func (w *waitingController) WaitForDevice(ctx context.Context, id string) error {
	w.waited = append(w.waited, id)
	return nil
}

func TestWaitForDevice(t *testing.T) {
	w := &waitingController{}
	assert.NoError(t, WaitForDevice(context.Background(), w, "ABC123"))
	assert.Equal(t, []string{"ABC123"}, w.waited)

	err := WaitForDevice(context.Background(), NewNullController(), "ABC123")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.EqualError(t, err, "operation not supported: transport cannot wait for device ABC123")
}
