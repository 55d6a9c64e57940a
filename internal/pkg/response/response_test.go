package response

import (
	stdjson "encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewMeta(t *testing.T) {
	m := NewMeta(45, 2, 20)
	if m.Pages != 3 || !m.HasNext || !m.HasPrev {
		t.Fatalf("unexpected meta: %+v", m)
	}

	last := NewMeta(45, 3, 20)
	if last.HasNext {
		t.Fatalf("last page must not have next: %+v", last)
	}

	empty := NewMeta(0, 1, 0)
	if empty.Pages != 0 {
		t.Fatalf("expected zero pages, got %d", empty.Pages)
	}
}

func TestConflictEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	Conflict(w, "apartment not available for selected dates")

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	var body Response
	if err := stdjson.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == nil || body.Error.Code != "CONFLICT" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestOKEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	OK(w, map[string]string{"status": "ok"})

	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := stdjson.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data["status"] != "ok" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}
