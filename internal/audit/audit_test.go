package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_MemoryPublisher(t *testing.T) {
	sink := NewMemory()
	ctx := context.Background()

	require.NoError(t, sink.Publish(ctx, Event{
		Action:    ActionSignupCompleted,
		Timestamp: time.Now(),
		ActorKind: "driver",
		PrimaryID: "9999999999",
	}))
	require.NoError(t, sink.Publish(ctx, Event{
		Action:    ActionLoginFailed,
		ActorKind: "investor",
		Reason:    "invalid credentials",
	}))

	events := sink.Events()
	require.Len(t, events, 2)
	assert.Equal(t, ActionSignupCompleted, events[0].Action)
	assert.Equal(t, ActionLoginFailed, events[1].Action)

	// Events returns a copy
	events[0].Action = ActionAccountDeleted
	assert.Equal(t, ActionSignupCompleted, sink.Events()[0].Action)
}

func Test_MemoryPublisher_Concurrent(t *testing.T) {
	sink := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = sink.Publish(ctx, Event{Action: ActionCheckPerformed})
		}()
	}
	wg.Wait()

	assert.Len(t, sink.Events(), 20)
}

func Test_NopPublisher(t *testing.T) {
	require.NoError(t, Nop{}.Publish(context.Background(), Event{Action: ActionLoginSucceeded}))
}
