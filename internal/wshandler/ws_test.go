package wshandler

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrolhub/patrolhub/internal/model"
)

func newTestHandler(queue int) *JSONWsHandler {
	return &JSONWsHandler{
		log:    slog.Default(),
		name:   "test",
		ch:     make(chan *model.WebMessage, queue),
		active: 1,
	}
}

func TestSendEventQueueFull(t *testing.T) {
	w := newTestHandler(1)

	require.True(t, w.SendEvent(model.ErrorMsg("storage", "one")))

	// the second message is dropped, the connection stays up
	require.True(t, w.SendEvent(model.ErrorMsg("storage", "two")))

	got := <-w.ch
	assert.Equal(t, "one", got.Err.Message)

	select {
	case m := <-w.ch:
		t.Fatalf("unexpected message %v", m)
	default:
	}
}

func TestSendEventAfterStop(t *testing.T) {
	w := newTestHandler(4)

	w.stop()

	assert.False(t, w.IsActive())
	assert.False(t, w.SendEvent(model.ErrorMsg("storage", "late")))

	// second stop is a no-op
	w.stop()
}

func TestStopDuringSend(t *testing.T) {
	w := newTestHandler(2)

	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			w.SendEvent(model.ErrorMsg("storage", "msg"))
		}()
	}

	w.stop()
	wg.Wait()

	assert.False(t, w.IsActive())
}
