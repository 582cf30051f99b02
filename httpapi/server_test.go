package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/recordsync"
)

func seed() recordsync.Collection {
	return recordsync.Collection{{ID: 0, Value: 75}, {ID: 1, Value: 20}, {ID: 2, Value: 80}}
}

func newTestServer(t *testing.T) (*Server, *recordsync.Engine) {
	t.Helper()
	store := recordsync.NewStore()
	store.SetData(seed())
	e := recordsync.NewEngine(store)
	t.Cleanup(e.Close)
	return NewServer(e, Config{Addr: "127.0.0.1:0"}), e
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestGetRecords(t *testing.T) {
	s, _ := newTestServer(t)
	rec, out := do(t, s.Handler(), http.MethodGet, "/api/records", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["records"], 3)
}

func TestApplyText(t *testing.T) {
	s, e := newTestServer(t)
	h := s.Handler()

	rec, out := do(t, h, http.MethodPut, "/api/text", `[{"id": 5, "value": 6}]`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, out["diagnostic"])
	assert.Equal(t, recordsync.Collection{{ID: 5, Value: 6}}, e.Store().Data())
	assert.Equal(t, recordsync.ToText(e.Store().Data()), out["text"])

	rec, out = do(t, h, http.MethodPut, "/api/text", "[\n  {\n    \"id\": 1,\n    \"value\": -1\n  }\n]")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	diag, ok := out["diagnostic"].(map[string]any)
	require.True(t, ok, "diagnostic expected: %v", out)
	assert.Equal(t, "SchemaRangeError", diag["kind"])
	assert.Equal(t, float64(4), diag["line"])
	hl := out["highlight"].(map[string]any)
	assert.Equal(t, true, hl["active"])
	assert.Equal(t, float64(4), hl["line"])
	assert.Equal(t, recordsync.Collection{{ID: 5, Value: 6}}, e.Store().Data(), "store untouched")

	_, out = do(t, h, http.MethodGet, "/api/diagnostic", "")
	assert.NotNil(t, out["diagnostic"])

	rec, out = do(t, h, http.MethodPost, "/api/text/reset", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, out["diagnostic"])
	assert.Equal(t, recordsync.ToText(e.Store().Data()), out["text"])
	assert.Equal(t, false, out["highlight"].(map[string]any)["active"])
}

func TestReplaceRecords(t *testing.T) {
	s, e := newTestServer(t)
	h := s.Handler()

	rec, _ := do(t, h, http.MethodPut, "/api/records", `[{"id": 1, "value": 1}, {"id": 2, "value": 2}]`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, e.Store().Len())

	rec, out := do(t, h, http.MethodPut, "/api/records", `[{"id": 1, "value": 1}, {"id": 1, "value": 2}]`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DuplicateIdentityError", out["diagnostic"].(map[string]any)["kind"])

	rec, _ = do(t, h, http.MethodPut, "/api/records", `[{"id": 1}]`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 2, e.Store().Len())
}

func TestAddRecord(t *testing.T) {
	s, e := newTestServer(t)
	h := s.Handler()

	rec, out := do(t, h, http.MethodPost, "/api/records", `{"id": 9, "value": 1}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(9), out["id"])
	assert.Equal(t, 4, e.Store().Len())

	rec, out = do(t, h, http.MethodPost, "/api/records", `{"id": 9, "value": 2}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ID 9 already exists.", out["diagnostic"].(map[string]any)["message"])

	rec, _ = do(t, h, http.MethodPost, "/api/records", `{"id": 10, "value": -2}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = do(t, h, http.MethodPost, "/api/records", ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 4, e.Store().Len())
}

func TestBodyLimit(t *testing.T) {
	store := recordsync.NewStore()
	e := recordsync.NewEngine(store)
	t.Cleanup(e.Close)
	s := NewServer(e, Config{MaxBodyBytes: 8})

	rec, _ := do(t, s.Handler(), http.MethodPut, "/api/text", `[{"id": 1, "value": 1}]`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDecodeCollection_Context(t *testing.T) {
	var got recordsync.Collection
	h := DecodeCollection(func(text string) (recordsync.Collection, error) {
		return recordsync.Validate(text)
	}, 0, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CollectionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`[{"id":3,"value":4}]`)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, recordsync.Collection{{ID: 3, Value: 4}}, got)

	_, ok := CollectionFromContext(context.Background())
	assert.False(t, ok)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestWebSocket_PushesCommits(t *testing.T) {
	s, e := newTestServer(t)
	require.NoError(t, s.Start())
	defer s.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeRecords, msg.Type)
	assert.Equal(t, seed(), msg.Records)

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	_, err = e.ApplyText(`[{"id": 42, "value": 1}]`)
	require.NoError(t, err)

	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeRecords, msg.Type)
	assert.Equal(t, recordsync.Collection{{ID: 42, Value: 1}}, msg.Records)

	s.NotifyHighlight(recordsync.Highlight{Line: 3, Active: true})
	msg = readMessage(t, conn)
	assert.Equal(t, MessageTypeHighlight, msg.Type)
	require.NotNil(t, msg.Highlight)
	assert.Equal(t, 3, msg.Highlight.Line)
}

func TestWebSocket_JoinDuringCommitsEndsOnLatestState(t *testing.T) {
	s, e := newTestServer(t)
	require.NoError(t, s.Start())
	defer s.Stop()

	commitsDone := make(chan struct{})
	go func() {
		defer close(commitsDone)
		for i := int64(0); i < 50; i++ {
			e.Store().AddItem(recordsync.Record{ID: 100 + i, Value: i})
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	<-commitsDone
	want := e.Store().Data()
	for {
		msg := readMessage(t, conn)
		if msg.Type == MessageTypeRecords && msg.Records.Equal(want) {
			return
		}
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	require.NoError(t, s.Start())
	defer s.Stop()

	resp, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, float64(0), out["clients"])
	assert.Equal(t, float64(3), out["records"])
}
