package events

import (
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	var got []EventType
	record := func(e *Event) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.Type)
	}

	unsubA := bus.Subscribe(record)
	unsubB := bus.Subscribe(record)
	assert.Equal(t, 2, bus.SubscriberCount())

	bus.Publish(&Event{Type: HealthUpdated})
	assert.Equal(t, []EventType{HealthUpdated, HealthUpdated}, got)

	unsubA()
	unsubA() // idempotent
	bus.Publish(&Event{Type: TradeLogged})
	assert.Len(t, got, 3)
	assert.Equal(t, TradeLogged, got[2])

	unsubB()
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestEventType_Table(t *testing.T) {
	for _, et := range AllChangeTypes() {
		assert.NotEmpty(t, et.Table(), "change type %s must map to a table", et)
	}
	assert.Equal(t, TableMealLog, MealLogReplaced.Table())
	assert.Empty(t, ErrorOccurred.Table())
	assert.Empty(t, BackupCompleted.Table())
}

func TestManager_EmitPublishesOnBus(t *testing.T) {
	bus := NewBus()
	mgr := NewManager(bus, zerolog.New(nil).Level(zerolog.Disabled))

	var received *Event
	bus.Subscribe(func(e *Event) { received = e })

	mgr.Emit(ReportUpdated, "reports", map[string]interface{}{"report_id": "r1"})
	require.NotNil(t, received)
	assert.Equal(t, ReportUpdated, received.Type)
	assert.Equal(t, "reports", received.Module)
	assert.Equal(t, "r1", received.Data["report_id"])
	assert.Equal(t, TableReports, received.Table())
	assert.False(t, received.Timestamp.IsZero())

	mgr.EmitError("meals", errors.New("disk full"), nil)
	assert.Equal(t, ErrorOccurred, received.Type)
	assert.Equal(t, "disk full", received.Data["error"])
}
