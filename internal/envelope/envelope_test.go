package envelope

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type planPayload struct {
	Plans []string `json:"plans"`
}

func TestDecode_Success(t *testing.T) {
	body := []byte(`{"status":"success","data":{"plans":["basic","pro"]}}`)
	got, err := Decode[planPayload]("load plans", http.StatusOK, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Plans) != 2 || got.Plans[0] != "basic" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestDecode_ErrorStatusUsesServerMessage(t *testing.T) {
	body := []byte(`{"status":"error","message":"plan limit reached"}`)
	_, err := Decode[planPayload]("load plans", http.StatusOK, body)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "plan limit reached" {
		t.Errorf("expected server message verbatim, got %q", err.Error())
	}
}

func TestDecode_Non2xxTemplatedFallback(t *testing.T) {
	_, err := Decode[planPayload]("load plans", http.StatusBadGateway, []byte("<html>"))
	if err == nil {
		t.Fatal("expected error")
	}
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %T", err)
	}
	if err.Error() != "failed to load plans (status 502)" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestDecode_Non2xxPrefersServerMessage(t *testing.T) {
	body := []byte(`{"status":"error","message":"subscription required"}`)
	_, err := Decode[planPayload]("upgrade plan", http.StatusPaymentRequired, body)
	if err == nil || err.Error() != "subscription required" {
		t.Errorf("expected server message, got %v", err)
	}
}

func TestDecode_MalformedBodyOn2xxIsAbsentPayload(t *testing.T) {
	// Parse failure degrades to an envelope with no status, which reads as a
	// rejection (status is not "success"), never a panic.
	_, err := Decode[planPayload]("load plans", http.StatusOK, []byte("not json"))
	if err == nil {
		t.Fatal("expected error for missing success status")
	}
}

func TestDecode_MissingDataLeavesZeroValue(t *testing.T) {
	got, err := Decode[planPayload]("load plans", http.StatusOK, []byte(`{"status":"success"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Plans != nil {
		t.Errorf("expected zero payload, got %+v", got)
	}
}

func TestDecode_MalformedDataLeavesZeroValue(t *testing.T) {
	body := []byte(`{"status":"success","data":{"plans":"not-an-array"}}`)
	got, err := Decode[planPayload]("load plans", http.StatusOK, body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Plans != nil {
		t.Errorf("expected zero payload after malformed data, got %+v", got)
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, http.StatusCreated, planPayload{Plans: []string{"basic"}})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v", err)
	}
	if env.Status != StatusSuccess {
		t.Errorf("expected success status, got %q", env.Status)
	}

	got, err := Decode[planPayload]("round trip", w.Code, w.Body.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Plans) != 1 {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestWriteError_Shape(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "insufficient balance", http.StatusConflict)

	var env Envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	if env.Status != StatusError {
		t.Errorf("expected error status, got %q", env.Status)
	}
	if env.Message != "insufficient balance" {
		t.Errorf("unexpected message: %q", env.Message)
	}
}
