package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type flakyHandler struct {
	fails int
	calls int
}

func (h *flakyHandler) Topic() string { return "t" }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	h.calls++
	if h.calls <= h.fails {
		return errors.New("boom")
	}
	return nil
}

type panicHandler struct{}

func (panicHandler) Topic() string { return "p" }
func (panicHandler) Handle(context.Context, []byte) error { panic("bad payload") }

func newTestConsumer(t *testing.T, retries int) *Consumer {
	t.Helper()
	c, err := NewConsumer(nil,
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retries, time.Millisecond, 2*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return c
}

func TestHandleWithRetryRecovers(t *testing.T) {
	c := newTestConsumer(t, 3)
	h := &flakyHandler{fails: 2}
	err := c.handleWithRetry(context.Background(), h, nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, h.calls)
}

func TestHandleWithRetryGivesUp(t *testing.T) {
	c := newTestConsumer(t, 1)
	h := &flakyHandler{fails: 10}
	err := c.handleWithRetry(context.Background(), h, nil)
	assert.Error(t, err)
	assert.Equal(t, 2, h.calls)
}

func TestHandlerPanicBecomesError(t *testing.T) {
	c := newTestConsumer(t, 0)
	err := c.handleWithRetry(context.Background(), panicHandler{}, nil)
	assert.ErrorContains(t, err, "bad payload")
}

func TestBackoffBounds(t *testing.T) {
	for attempt := 1; attempt < 10; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.LessOrEqual(t, d, 80*time.Millisecond)
		assert.Greater(t, d, time.Duration(0))
	}
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(nil)
	assert.Error(t, err)
}
