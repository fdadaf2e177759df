package interfaces

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mtogo/internal/service/order/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type transitionCall struct {
	OrderID string
	Target  domain.Status
}

type fakeEngine struct {
	mu    sync.Mutex
	calls []transitionCall
	errs  map[string]error
}

func (e *fakeEngine) ApplyStatusTransition(_ context.Context, orderID string, target domain.Status) (*domain.Order, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, transitionCall{OrderID: orderID, Target: target})
	if err := e.errs[orderID]; err != nil {
		return nil, err
	}
	return &domain.Order{ID: orderID, Status: target}, nil
}

func (e *fakeEngine) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

type fakeReader struct {
	msgs      chan kafka.Message
	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	case m := <-r.msgs:
		return m, nil
	}
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

type fakeSink struct {
	mu     sync.Mutex
	failed []kafka.Message
	causes []error
}

func (s *fakeSink) Handle(_ context.Context, msg kafka.Message, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, msg)
	s.causes = append(s.causes, cause)
}

func newTestConsumer(reader MessageReader, engine StatusTransitioner, sink FailureSink) *StatusUpdateConsumer {
	return NewStatusUpdateConsumer(reader, "order-status-update", engine, sink, noop.NewTracerProvider().Tracer("test"))
}

func statusMsg(offset int64, value string) kafka.Message {
	return kafka.Message{Topic: "order-status-update", Offset: offset, Value: []byte(value)}
}

func TestConsumer_AppliesTransition(t *testing.T) {
	engine := &fakeEngine{}
	sink := &fakeSink{}
	c := newTestConsumer(newFakeReader(), engine, sink)

	c.handle(context.Background(), statusMsg(1, `{"orderId":"o-1","status":"YOUR_FOOD_IS_READY_FOR_PICKUP"}`))

	require.Len(t, engine.calls, 1)
	assert.Equal(t, transitionCall{OrderID: "o-1", Target: domain.StatusReadyForPickup}, engine.calls[0])
	assert.Empty(t, sink.failed)
}

func TestConsumer_DiscardsMalformedMessages(t *testing.T) {
	engine := &fakeEngine{}
	sink := &fakeSink{}
	c := newTestConsumer(newFakeReader(), engine, sink)

	for _, raw := range []string{`not json`, `{"status":"YOUR_FOOD_IS_ON_THE_WAY"}`, `{"orderId":"o-1"}`} {
		c.handle(context.Background(), statusMsg(1, raw))
	}

	assert.Empty(t, engine.calls)
	assert.Empty(t, sink.failed)
}

func TestConsumer_EngineFailureGoesToDeadLetter(t *testing.T) {
	engine := &fakeEngine{errs: map[string]error{"o-1": domain.ErrInvalidStatus}}
	sink := &fakeSink{}
	c := newTestConsumer(newFakeReader(), engine, sink)

	msg := statusMsg(7, `{"orderId":"o-1","status":"TELEPORTED"}`)
	c.handle(context.Background(), msg)

	require.Len(t, sink.failed, 1)
	assert.Equal(t, int64(7), sink.failed[0].Offset)
	assert.True(t, errors.Is(sink.causes[0], domain.ErrInvalidStatus))
}

func TestConsumer_CommitsEveryMessageAndStops(t *testing.T) {
	engine := &fakeEngine{errs: map[string]error{"o-2": errors.New("db down")}}
	sink := &fakeSink{}
	reader := newFakeReader(
		statusMsg(1, `{"orderId":"o-1","status":"YOUR_FOOD_IS_ON_THE_WAY"}`),
		statusMsg(2, `{"orderId":"o-2","status":"YOUR_FOOD_IS_ON_THE_WAY"}`),
		statusMsg(3, `garbage`),
	)
	c := newTestConsumer(reader, engine, sink)

	require.NoError(t, c.Start(context.Background()))
	require.Eventually(t, func() bool { return len(reader.committedOffsets()) == 3 }, time.Second, 5*time.Millisecond)
	c.Stop(context.Background())

	assert.Equal(t, []int64{1, 2, 3}, reader.committedOffsets())
	assert.Equal(t, 2, engine.callCount())
	assert.Len(t, sink.failed, 1)
	assert.True(t, reader.closed)
}
