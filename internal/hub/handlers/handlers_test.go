package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/agenthub/agenthub/internal/common/logger"
	"github.com/agenthub/agenthub/internal/events/bus"
	"github.com/agenthub/agenthub/internal/hub/notifier"
	"github.com/agenthub/agenthub/internal/hub/service"
	"github.com/agenthub/agenthub/internal/hub/state"
	"github.com/agenthub/agenthub/internal/hub/store"
	"github.com/agenthub/agenthub/internal/sharedfs"
)

type apiFixture struct {
	router *gin.Engine
}

func createAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	sharedDir := t.TempDir()
	files, err := sharedfs.New(sharedDir)
	if err != nil {
		t.Fatalf("failed to create shared fs: %v", err)
	}

	hubState := state.New(st, log)
	eventBus := bus.NewMemoryEventBus(log)
	t.Cleanup(eventBus.Close)

	notify := notifier.New(hubState, st, eventBus, log)
	svc := service.New(hubState, st, notify, eventBus, sharedDir, log)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	New(svc, files, log).RegisterRoutes(router)

	return &apiFixture{router: router}
}

// doJSON performs a request against the in-memory router and decodes the
// JSON response body.
func (f *apiFixture) doJSON(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if len(rec.Body.Bytes()) > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, decoded
}

func (f *apiFixture) join(t *testing.T, room, agentID, agentName string) {
	t.Helper()
	status, resp := f.doJSON(t, http.MethodPost, "/api/join/"+room, map[string]interface{}{
		"agentId":   agentID,
		"agentName": agentName,
	})
	if status != http.StatusOK {
		t.Fatalf("join returned %d: %v", status, resp)
	}
}

func TestAPI_JoinSendAndNotify(t *testing.T) {
	f := createAPIFixture(t)
	f.join(t, "dev", "a1", "Alice")
	f.join(t, "dev", "a2", "Bob")

	status, resp := f.doJSON(t, http.MethodPost, "/api/send", map[string]interface{}{
		"agentId": "a1",
		"content": "hey @Bob, review please",
	})
	if status != http.StatusOK {
		t.Fatalf("send returned %d: %v", status, resp)
	}
	mentions, _ := resp["mentions"].([]interface{})
	if len(mentions) != 1 || mentions[0] != "Bob" {
		t.Errorf("unexpected mentions: %v", resp["mentions"])
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/notifications/a2?unreadOnly=true", nil)
	if status != http.StatusOK {
		t.Fatalf("notifications returned %d: %v", status, resp)
	}
	notifs, _ := resp["notifications"].([]interface{})
	if len(notifs) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifs))
	}
	first := notifs[0].(map[string]interface{})
	if first["message"] != "Alice mentioned you: hey @Bob, review please" {
		t.Errorf("unexpected notification text: %v", first["message"])
	}

	// Mark read is idempotent: the second call reports no update.
	id := first["id"].(string)
	status, resp = f.doJSON(t, http.MethodPost, "/api/notifications/"+id+"/read", nil)
	if status != http.StatusOK || resp["updated"] != true {
		t.Fatalf("first mark-read: status %d, resp %v", status, resp)
	}
	status, resp = f.doJSON(t, http.MethodPost, "/api/notifications/"+id+"/read", nil)
	if status != http.StatusOK || resp["updated"] != false {
		t.Fatalf("second mark-read: status %d, resp %v", status, resp)
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/notifications/a2?unreadOnly=true", nil)
	if status != http.StatusOK {
		t.Fatalf("notifications returned %d: %v", status, resp)
	}
	if notifs, _ := resp["notifications"].([]interface{}); len(notifs) != 0 {
		t.Errorf("expected no unread notifications, got %d", len(notifs))
	}
}

func TestAPI_History(t *testing.T) {
	f := createAPIFixture(t)
	f.join(t, "dev", "a1", "Alice")

	for i := 0; i < 3; i++ {
		status, resp := f.doJSON(t, http.MethodPost, "/api/send", map[string]interface{}{
			"agentId": "a1",
			"content": fmt.Sprintf("msg %d", i),
		})
		if status != http.StatusOK {
			t.Fatalf("send returned %d: %v", status, resp)
		}
	}

	// Join announcement plus three chat messages, in order.
	status, resp := f.doJSON(t, http.MethodGet, "/api/messages/dev", nil)
	if status != http.StatusOK {
		t.Fatalf("messages returned %d: %v", status, resp)
	}
	msgs, _ := resp["messages"].([]interface{})
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	last := msgs[len(msgs)-1].(map[string]interface{})
	if last["content"] != "msg 2" {
		t.Errorf("expected newest message last, got %v", last["content"])
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/messages/dev?limit=2", nil)
	if status != http.StatusOK {
		t.Fatalf("messages returned %d: %v", status, resp)
	}
	if msgs, _ := resp["messages"].([]interface{}); len(msgs) != 2 {
		t.Errorf("expected 2 messages with limit=2, got %d", len(msgs))
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/messages/dev?limit=0", nil)
	if status != http.StatusOK {
		t.Fatalf("messages returned %d: %v", status, resp)
	}
	if msgs, _ := resp["messages"].([]interface{}); len(msgs) != 0 {
		t.Errorf("expected no messages with limit=0, got %d", len(msgs))
	}

	if status, _ := f.doJSON(t, http.MethodGet, "/api/messages/dev?since=notatime", nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid since, got %d", status)
	}
	if status, _ := f.doJSON(t, http.MethodGet, "/api/messages/ghost", nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown room, got %d", status)
	}
}

func TestAPI_BroadcastAndRooms(t *testing.T) {
	f := createAPIFixture(t)
	f.join(t, "dev", "a1", "Alice")
	f.join(t, "ops", "a2", "Bob")

	status, resp := f.doJSON(t, http.MethodPost, "/api/broadcast/dev", map[string]interface{}{
		"content": "deploy at noon",
	})
	if status != http.StatusOK {
		t.Fatalf("broadcast returned %d: %v", status, resp)
	}
	msg := resp["message"].(map[string]interface{})
	if msg["content"] != "[System] deploy at noon" {
		t.Errorf("unexpected broadcast content: %v", msg["content"])
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/rooms", nil)
	if status != http.StatusOK {
		t.Fatalf("rooms returned %d: %v", status, resp)
	}
	rooms, _ := resp["rooms"].([]interface{})
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/agents/dev", nil)
	if status != http.StatusOK {
		t.Fatalf("agents returned %d: %v", status, resp)
	}
	agents, _ := resp["agents"].([]interface{})
	if len(agents) != 1 {
		t.Fatalf("expected 1 agent in dev, got %d", len(agents))
	}

	if status, _ := f.doJSON(t, http.MethodPost, "/api/broadcast/ghost", map[string]interface{}{"content": "x"}); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown room, got %d", status)
	}
}

func TestAPI_LeaveRoom(t *testing.T) {
	f := createAPIFixture(t)
	f.join(t, "dev", "a1", "Alice")

	status, resp := f.doJSON(t, http.MethodPost, "/api/leave/a1", nil)
	if status != http.StatusOK {
		t.Fatalf("leave returned %d: %v", status, resp)
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/agents/dev", nil)
	if status != http.StatusOK {
		t.Fatalf("agents returned %d: %v", status, resp)
	}
	if agents, _ := resp["agents"].([]interface{}); len(agents) != 0 {
		t.Errorf("expected empty roster after leave, got %d", len(agents))
	}

	if status, _ := f.doJSON(t, http.MethodPost, "/api/leave/ghost", nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown agent, got %d", status)
	}
}

func TestAPI_TaskLifecycle(t *testing.T) {
	f := createAPIFixture(t)
	f.join(t, "dev", "a1", "Alice")

	status, resp := f.doJSON(t, http.MethodPost, "/api/tasks", map[string]interface{}{
		"roomName": "dev",
		"title":    "Write docs",
		"creator":  "Alice",
	})
	if status != http.StatusOK {
		t.Fatalf("create task returned %d: %v", status, resp)
	}
	task := resp["task"].(map[string]interface{})
	if task["status"] != "todo" || task["priority"] != "medium" {
		t.Errorf("unexpected task defaults: %v", task)
	}
	taskID := task["id"].(string)

	status, resp = f.doJSON(t, http.MethodPost, "/api/tasks/"+taskID+"/update", map[string]interface{}{
		"status":   "in_progress",
		"assignee": "Bob",
	})
	if status != http.StatusOK {
		t.Fatalf("update task returned %d: %v", status, resp)
	}
	task = resp["task"].(map[string]interface{})
	if task["status"] != "in_progress" || task["assignee"] != "Bob" {
		t.Errorf("unexpected updated task: %v", task)
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/tasks/dev", nil)
	if status != http.StatusOK {
		t.Fatalf("list tasks returned %d: %v", status, resp)
	}
	if tasks, _ := resp["tasks"].([]interface{}); len(tasks) != 1 {
		t.Errorf("expected 1 task, got %d", len(tasks))
	}

	if status, _ := f.doJSON(t, http.MethodPost, "/api/tasks", map[string]interface{}{
		"roomName": "dev", "title": "x", "creator": "Alice", "priority": "urgent-ish",
	}); status != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid priority, got %d", status)
	}
	if status, _ := f.doJSON(t, http.MethodPost, "/api/tasks/ghost/update", map[string]interface{}{
		"status": "done",
	}); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown task, got %d", status)
	}
}

func TestAPI_Memory(t *testing.T) {
	f := createAPIFixture(t)
	f.join(t, "dev", "a1", "Alice")

	status, resp := f.doJSON(t, http.MethodPost, "/api/memory/a1", map[string]interface{}{
		"key":   "build-cmd",
		"value": "make all",
		"type":  "procedure",
	})
	if status != http.StatusOK {
		t.Fatalf("store memory returned %d: %v", status, resp)
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/memory/a1?key=build-cmd", nil)
	if status != http.StatusOK {
		t.Fatalf("get memory returned %d: %v", status, resp)
	}
	memories, _ := resp["memories"].([]interface{})
	if len(memories) != 1 {
		t.Fatalf("expected 1 memory, got %d", len(memories))
	}
	entry := memories[0].(map[string]interface{})
	if entry["value"] != "make all" || entry["type"] != "procedure" {
		t.Errorf("unexpected memory entry: %v", entry)
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/memory/a1?type=fact", nil)
	if status != http.StatusOK {
		t.Fatalf("get memory returned %d: %v", status, resp)
	}
	if memories, _ := resp["memories"].([]interface{}); len(memories) != 0 {
		t.Errorf("expected no fact memories, got %d", len(memories))
	}
}

func TestAPI_Stats(t *testing.T) {
	f := createAPIFixture(t)
	f.join(t, "dev", "a1", "Alice")
	f.join(t, "ops", "a2", "Bob")

	status, resp := f.doJSON(t, http.MethodGet, "/api/stats", nil)
	if status != http.StatusOK {
		t.Fatalf("stats returned %d: %v", status, resp)
	}
	if resp["totalRooms"] != float64(2) || resp["totalAgents"] != float64(2) {
		t.Errorf("unexpected stats: %v", resp)
	}
}

func TestAPI_Files(t *testing.T) {
	f := createAPIFixture(t)

	status, resp := f.doJSON(t, http.MethodPost, "/api/files/notes/plan.md", map[string]interface{}{
		"content": "# Plan",
	})
	if status != http.StatusOK {
		t.Fatalf("write file returned %d: %v", status, resp)
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/files/notes/plan.md", nil)
	if status != http.StatusOK {
		t.Fatalf("read file returned %d: %v", status, resp)
	}
	if resp["content"] != "# Plan" {
		t.Errorf("unexpected file content: %v", resp["content"])
	}

	status, resp = f.doJSON(t, http.MethodGet, "/api/files/notes", nil)
	if status != http.StatusOK {
		t.Fatalf("list dir returned %d: %v", status, resp)
	}
	entries, _ := resp["entries"].([]interface{})
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}

	if status, _ := f.doJSON(t, http.MethodGet, "/api/files/../etc/passwd", nil); status != http.StatusOK && status != http.StatusBadRequest && status != http.StatusNotFound {
		t.Errorf("unexpected status for traversal: %d", status)
	}
	// Cleaned paths never leave the root, so an escape attempt resolves
	// inside the shared dir and reports not found rather than escaping.
	status, resp = f.doJSON(t, http.MethodGet, "/api/files/notes/../notes/plan.md", nil)
	if status != http.StatusOK {
		t.Fatalf("normalized read returned %d: %v", status, resp)
	}

	status, resp = f.doJSON(t, http.MethodDelete, "/api/files/notes/plan.md", nil)
	if status != http.StatusOK {
		t.Fatalf("delete file returned %d: %v", status, resp)
	}
	if status, _ := f.doJSON(t, http.MethodDelete, "/api/files/notes/plan.md", nil); status != http.StatusNotFound {
		t.Errorf("expected 404 deleting missing file, got %d", status)
	}
}
