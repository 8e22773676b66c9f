package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ringline/racecore/internal/storage"
	"github.com/ringline/racecore/pkg/core"
	"github.com/ringline/racecore/pkg/streaming"
)

// Compile-time interface checks.
var (
	_ storage.Backend       = (*Backend)(nil)
	_ storage.QueueReporter = (*Backend)(nil)
)

type received struct {
	conn int
	env  streaming.Envelope
}

type messageLog struct {
	mu       sync.Mutex
	messages []received
	secrets  []string
}

func (m *messageLog) add(conn int, env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, received{conn: conn, env: env})
}

func (m *messageLog) all() []received {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]received, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func (m *messageLog) count(msgType string) int {
	n := 0
	for _, r := range m.all() {
		if r.env.Type == msgType {
			n++
		}
	}
	return n
}

// testServer upgrades to WebSocket, records envelopes per connection, and
// acks start_race and end_race. When dropFirst is set the first connection
// is closed right after its start_race ack.
func testServer(t *testing.T, dropFirst bool) (*httptest.Server, *messageLog, *atomic.Int32) {
	t.Helper()
	ml := &messageLog{}
	var conns atomic.Int32

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.mu.Lock()
		ml.secrets = append(ml.secrets, r.URL.Query().Get("secret"))
		ml.mu.Unlock()

		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()
		id := int(conns.Add(1))

		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(id, env)

			if env.Type == streaming.TypeStartRace || env.Type == streaming.TypeEndRace {
				data, _ := json.Marshal(streaming.AckMessage{Type: "ack", For: env.Type})
				if err := c.WriteMessage(ws.TextMessage, data); err != nil {
					return
				}
				if dropFirst && id == 1 && env.Type == streaming.TypeStartRace {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, ml, &conns
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestStartAndEndRace(t *testing.T) {
	srv, ml, _ := testServer(t, false)

	b := New(Config{URL: wsURL(srv), Secret: "test"}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	race := &core.Race{ID: "2DvZ3ys5bGg0x4xjPu6Y0Qk5Zb1", TrackName: "oval", TotalLaps: 3}
	require.NoError(t, b.StartRace(race))
	require.NoError(t, b.EndRace(&core.RaceResult{RaceID: race.ID, Completed: true}))

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, streaming.TypeStartRace, msgs[0].env.Type)
	assert.Equal(t, streaming.TypeEndRace, msgs[1].env.Type)

	var start streaming.StartRacePayload
	require.NoError(t, json.Unmarshal(msgs[0].env.Payload, &start))
	assert.Equal(t, "oval", start.Race.TrackName)

	ml.mu.Lock()
	assert.Equal(t, []string{"test"}, ml.secrets)
	ml.mu.Unlock()
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml, _ := testServer(t, false)

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRace(&core.Race{ID: "r"}))
	require.NoError(t, b.RecordVehicleState(&core.VehicleState{Tick: 1, Gear: 2}))
	require.NoError(t, b.RecordGearShift(&core.GearShiftEvent{From: 2, To: 3}))
	require.NoError(t, b.RecordCollision(&core.CollisionEvent{Barrier: 5}))
	require.NoError(t, b.RecordCheckpoint(&core.CheckpointEvent{Index: 1}))
	require.NoError(t, b.RecordLap(&core.LapRecord{Lap: 1, LapTime: 30}))
	require.NoError(t, b.EndRace(&core.RaceResult{}))

	// end_race is acked after everything queued before it was read
	for _, typ := range []string{
		streaming.TypeStartRace,
		streaming.TypeVehicleState,
		streaming.TypeGearShift,
		streaming.TypeCollision,
		streaming.TypeCheckpoint,
		streaming.TypeLap,
		streaming.TypeEndRace,
	} {
		assert.Equal(t, 1, ml.count(typ), typ)
	}
}

func TestRecordOutsideRace(t *testing.T) {
	srv, ml, _ := testServer(t, false)

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	assert.ErrorIs(t, b.RecordLap(&core.LapRecord{}), storage.ErrNoRace)
	assert.ErrorIs(t, b.EndRace(&core.RaceResult{}), storage.ErrNoRace)
	assert.Empty(t, ml.all())
}

func TestReconnectReplaysStart(t *testing.T) {
	srv, ml, conns := testServer(t, true)

	b := New(Config{URL: wsURL(srv)}, nil)
	b.conn.backoff = 10 * time.Millisecond
	require.NoError(t, b.Init())
	defer b.Close()

	require.NoError(t, b.StartRace(&core.Race{ID: "replayed"}))
	require.Eventually(t, func() bool { return conns.Load() == 2 && ml.count(streaming.TypeStartRace) == 2 },
		2*time.Second, 5*time.Millisecond)

	require.NoError(t, b.RecordLap(&core.LapRecord{Lap: 1}))
	require.NoError(t, b.EndRace(&core.RaceResult{}))

	var second []string
	for _, r := range ml.all() {
		if r.conn == 2 {
			second = append(second, r.env.Type)
		}
	}
	assert.Equal(t, []string{streaming.TypeStartRace, streaming.TypeLap, streaming.TypeEndRace}, second)
}

func TestAckTimeout(t *testing.T) {
	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)}, nil)
	require.NoError(t, b.Init())
	defer b.Close()

	data, err := marshalEnvelope(streaming.TypeStartRace, streaming.StartRacePayload{})
	require.NoError(t, err)
	err = b.conn.sendAndWait(data, streaming.TypeStartRace, 50*time.Millisecond)
	assert.ErrorContains(t, err, "timeout")
}

func TestInit_BadURL(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/live"}, nil)
	assert.Error(t, b.Init())
	assert.NoError(t, b.Close())
}

func TestSendDropsWhenFull(t *testing.T) {
	b := New(Config{}, nil)
	for i := 0; i < sendChSize+3; i++ {
		b.conn.send([]byte("x"))
	}
	assert.Equal(t, sendChSize, b.QueueDepth())
	assert.Equal(t, uint64(3), b.Dropped())
}
