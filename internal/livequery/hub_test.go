package livequery

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aristath/mission-control/internal/events"
	testutil "github.com/aristath/mission-control/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterRegistry(t *testing.T, runs *atomic.Int64) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.Register(Query{
		Name:   "counter",
		Tables: []string{events.TableAgentStatus},
		Run: func(a Args) (interface{}, error) {
			return runs.Add(1), nil
		},
	}))
	require.NoError(t, r.Register(Query{
		Name:   "broken",
		Tables: []string{events.TableReports},
		Run: func(Args) (interface{}, error) {
			return nil, errors.New("disk on fire")
		},
	}))
	return r
}

func nextFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	select {
	case f := <-c.Frames():
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case f := <-c.Frames():
		t.Fatalf("unexpected frame %+v", f)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	run := func(Args) (interface{}, error) { return nil, nil }

	require.NoError(t, r.Register(Query{Name: "b", Tables: []string{"t"}, Run: run}))
	require.NoError(t, r.Register(Query{Name: "a", Tables: []string{"t"}, Run: run}))
	assert.Error(t, r.Register(Query{Name: "a", Tables: []string{"t"}, Run: run}), "duplicate name")
	assert.Error(t, r.Register(Query{Name: "c", Run: run}), "no tables")
	assert.Error(t, r.Register(Query{Name: "d", Tables: []string{"t"}}), "no run func")

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Nil(t, r.Get("missing"))
}

func TestArgs_Int(t *testing.T) {
	a := Args{"f": float64(30), "i": int8(5), "u": uint64(900), "s": "12", "bad": "x", "neg": float64(-3)}
	assert.Equal(t, 30, a.Int("f", 7, 366))
	assert.Equal(t, 5, a.Int("i", 7, 366))
	assert.Equal(t, 366, a.Int("u", 7, 366))
	assert.Equal(t, 12, a.Int("s", 7, 366))
	assert.Equal(t, 7, a.Int("bad", 7, 366))
	assert.Equal(t, 7, a.Int("neg", 7, 366))
	assert.Equal(t, 7, a.Int("missing", 7, 366))
	assert.Equal(t, "", a.String("f"))
}

func TestHub_RerunsOnDependentTableChange(t *testing.T) {
	var runs atomic.Int64
	bus := events.NewBus()
	em := events.NewManager(bus, testutil.NopLogger())
	hub := NewHub(counterRegistry(t, &runs), bus, testutil.NopLogger())
	defer hub.Close()

	client := hub.Connect(context.Background())
	defer client.Close()

	require.NoError(t, client.Subscribe("s1", "counter", nil))
	f := nextFrame(t, client)
	assert.Equal(t, "s1", f.ID)
	assert.Equal(t, int64(1), f.Data)

	em.Emit(events.AgentStatusUpdated, "agents", nil)
	assert.Equal(t, int64(2), nextFrame(t, client).Data)

	em.Emit(events.ReportUpdated, "reports", nil)
	em.Emit(events.BackupCompleted, "reliability", nil)
	assertNoFrame(t, client)

	client.Unsubscribe("s1")
	assert.Zero(t, hub.SubscriptionCount())
	em.Emit(events.AgentStatusUpdated, "agents", nil)
	assertNoFrame(t, client)
}

func TestHub_SubscribeErrors(t *testing.T) {
	var runs atomic.Int64
	hub := NewHub(counterRegistry(t, &runs), events.NewBus(), testutil.NopLogger())
	defer hub.Close()
	client := hub.Connect(context.Background())

	assert.Error(t, client.Subscribe("", "counter", nil))
	assert.Error(t, client.Subscribe("x", "nope", nil))

	require.NoError(t, client.Subscribe("b", "broken", nil))
	f := nextFrame(t, client)
	assert.Equal(t, "b", f.ID)
	assert.Equal(t, "query failed", f.Error)
	assert.Nil(t, f.Data)

	client.Close()
	assert.Zero(t, hub.SubscriptionCount())
	assert.Error(t, client.Subscribe("c", "counter", nil), "closed client")
	client.Close()
}

func TestHub_ResubscribeReplaces(t *testing.T) {
	var runs atomic.Int64
	hub := NewHub(counterRegistry(t, &runs), events.NewBus(), testutil.NopLogger())
	defer hub.Close()
	client := hub.Connect(context.Background())
	defer client.Close()

	require.NoError(t, client.Subscribe("s", "counter", nil))
	nextFrame(t, client)
	require.NoError(t, client.Subscribe("s", "counter", Args{"days": 3}))
	nextFrame(t, client)

	assert.Equal(t, 1, hub.SubscriptionCount())
}

func TestHub_ContextCancelStopsClient(t *testing.T) {
	var runs atomic.Int64
	bus := events.NewBus()
	hub := NewHub(counterRegistry(t, &runs), bus, testutil.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	client := hub.Connect(ctx)
	cancel()

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("client should observe parent cancellation")
	}

	hub.Close()
	assert.Zero(t, bus.SubscriberCount())
}
