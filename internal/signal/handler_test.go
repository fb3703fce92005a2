package signal

import (
	"context"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_SignalCancelsContext(t *testing.T) {
	t.Parallel()

	h := NewHandler(context.Background())
	defer h.Stop()

	require.NoError(t, h.Context().Err())
	assert.Nil(t, h.Received())

	h.handleSignal(syscall.SIGTERM)

	require.ErrorIs(t, h.Context().Err(), context.Canceled)
	assert.Equal(t, syscall.SIGTERM, h.Received())
	select {
	case <-h.Interrupted():
	default:
		t.Fatal("interrupted channel should be closed after a signal")
	}
}

func TestHandler_FirstSignalWins(t *testing.T) {
	t.Parallel()

	h := NewHandler(context.Background())
	defer h.Stop()

	h.handleSignal(syscall.SIGINT)
	h.handleSignal(syscall.SIGTERM)

	assert.Equal(t, syscall.SIGINT, h.Received())
}

func TestHandler_ChannelDelivery(t *testing.T) {
	t.Parallel()

	h := NewHandler(context.Background())
	defer h.Stop()

	h.sigChan <- syscall.SIGTERM

	select {
	case <-h.Interrupted():
	case <-time.After(2 * time.Second):
		t.Fatal("signal was not handled")
	}
	assert.Equal(t, syscall.SIGTERM, h.Received())
}

func TestHandler_StopIsNotAnInterrupt(t *testing.T) {
	t.Parallel()

	h := NewHandler(context.Background())
	h.Stop()
	h.Stop()

	require.Error(t, h.Context().Err())
	select {
	case <-h.Interrupted():
		t.Fatal("Stop must not close the interrupted channel")
	default:
	}
}

func TestHandler_ParentCancellation(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(context.Background())
	h := NewHandlerFor(parent, syscall.SIGHUP)
	defer h.Stop()

	cancel()
	assert.Error(t, h.Context().Err())
}
