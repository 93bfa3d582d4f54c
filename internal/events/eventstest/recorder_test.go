package eventstest

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/socialgraph/internal/events"
	"github.com/d60-Lab/socialgraph/internal/model"
)

var _ events.Publisher = (*Recorder)(nil)

func TestRecorderConcurrentPublish(t *testing.T) {
	r := &Recorder{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Publish(context.Background(), model.Event{Type: model.EventStatusCreated})
		}()
	}
	wg.Wait()
	assert.Len(t, r.Events(), 50)

	snapshot := r.Events()
	snapshot[0].Type = model.EventUnfollowed
	assert.Equal(t, model.EventStatusCreated, r.Events()[0].Type)
}
