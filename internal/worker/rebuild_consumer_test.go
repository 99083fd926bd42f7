package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/nsqio/go-nsq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRebuilder struct{ mock.Mock }

func (m *MockRebuilder) Ensure(ctx context.Context, rebuild bool) error {
	args := m.Called(ctx, rebuild)
	return args.Error(0)
}

func TestRebuildConsumer_HandleMessage(t *testing.T) {
	t.Run("Triggers Full Rebuild", func(t *testing.T) {
		rebuilder := &MockRebuilder{}
		rebuilder.On("Ensure", mock.Anything, true).Return(nil)

		h := NewRebuildConsumer(rebuilder)
		msg := nsq.NewMessage(nsq.MessageID{}, []byte(`{"reason":"documents uploaded","correlation_id":"abc-123"}`))

		err := h.HandleMessage(msg)
		assert.NoError(t, err)
		rebuilder.AssertExpectations(t)
	})

	t.Run("Empty Body Is A No-Op", func(t *testing.T) {
		rebuilder := &MockRebuilder{}

		h := NewRebuildConsumer(rebuilder)
		msg := nsq.NewMessage(nsq.MessageID{}, nil)

		err := h.HandleMessage(msg)
		assert.NoError(t, err)
		rebuilder.AssertNotCalled(t, "Ensure")
	})

	t.Run("Malformed JSON Is Dropped Not Requeued", func(t *testing.T) {
		rebuilder := &MockRebuilder{}

		h := NewRebuildConsumer(rebuilder)
		msg := nsq.NewMessage(nsq.MessageID{}, []byte(`{not json`))

		err := h.HandleMessage(msg)
		assert.NoError(t, err)
		rebuilder.AssertNotCalled(t, "Ensure")
	})

	t.Run("Rebuild Failure Requeues", func(t *testing.T) {
		rebuilder := &MockRebuilder{}
		rebuilder.On("Ensure", mock.Anything, true).Return(errors.New("embedding engine down"))

		h := NewRebuildConsumer(rebuilder)
		msg := nsq.NewMessage(nsq.MessageID{}, []byte(`{"reason":"manual"}`))

		err := h.HandleMessage(msg)
		assert.Error(t, err)
	})
}
