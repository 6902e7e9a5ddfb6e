package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"zigcored/internal/logger"
	"zigcored/internal/zigbee/model"
)

type fakeTransmitter struct {
	refuse bool
}

func (f *fakeTransmitter) Transmit(ctx context.Context, req *model.Request) error {
	if f.refuse {
		return assert.AnError
	}
	return nil
}

func TestEnqueueAllocatesRollingID(t *testing.T) {
	s := New(&fakeTransmitter{}, logger.GetLogger("[test]", logger.LogLevelDebug), time.Hour, nil)

	r1 := s.Enqueue(model.RequestData, model.IEEEAddress(1), nil)
	r2 := s.Enqueue(model.RequestData, model.IEEEAddress(1), nil)

	assert.NotEqual(t, r1.ID, r2.ID)
	assert.Equal(t, model.RequestPending, r1.Status)
}

func TestTickTransmitsPendingAndDrainsFinished(t *testing.T) {
	s := New(&fakeTransmitter{}, logger.GetLogger("[test]", logger.LogLevelDebug), time.Hour, nil)

	req := s.Enqueue(model.RequestData, model.IEEEAddress(1), nil)
	s.tick(context.Background())
	assert.Equal(t, model.RequestSent, req.Status)
	assert.Equal(t, 1, s.Len())

	s.Finish(req.ID, 0)
	s.tick(context.Background())
	assert.Equal(t, 0, s.Len())
}

func TestTickAbortsOnAdapterRefusal(t *testing.T) {
	finished := make(chan *model.Request, 1)
	s := New(&fakeTransmitter{refuse: true}, logger.GetLogger("[test]", logger.LogLevelDebug), time.Hour, func(req *model.Request) {
		finished <- req
	})

	s.Enqueue(model.RequestData, model.IEEEAddress(1), nil)
	s.tick(context.Background())

	select {
	case req := <-finished:
		assert.Equal(t, model.RequestAborted, req.Status)
	default:
		t.Fatal("expected onFinished to be called")
	}
}

func TestAllocateIDSkipsInFlightIDs(t *testing.T) {
	s := New(&fakeTransmitter{}, logger.GetLogger("[test]", logger.LogLevelDebug), time.Hour, nil)

	first := s.Enqueue(model.RequestData, model.IEEEAddress(1), nil)
	// Wind the counter back onto the still-Pending id so the next
	// allocation has to skip it.
	s.nextID = first.ID
	second := s.Enqueue(model.RequestData, model.IEEEAddress(1), nil)

	assert.NotEqual(t, first.ID, second.ID)
}
