package ipc

import (
	"encoding/json"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	payload, _ := json.Marshal(RestoreKeyPayload{Key: "editor", WindowID: 42})
	req := Request{Command: CommandRestoreKey, Payload: payload}

	data, err := json.Marshal(&req)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	parsed, err := ParseRequest(data)
	if err != nil {
		t.Fatalf("ParseRequest failed: %v", err)
	}
	if parsed.Command != CommandRestoreKey {
		t.Errorf("command = %q", parsed.Command)
	}

	var rp RestoreKeyPayload
	if err := json.Unmarshal(parsed.Payload, &rp); err != nil {
		t.Fatalf("payload unmarshal failed: %v", err)
	}
	if rp.Key != "editor" || rp.WindowID != 42 {
		t.Errorf("payload = %+v", rp)
	}
}

func TestParseRequestRejectsGarbage(t *testing.T) {
	if _, err := ParseRequest([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestOKResponseCarriesData(t *testing.T) {
	resp, err := NewOKResponse(StatusData{
		PlacementsFile: "/tmp/p.json",
		TrackedKeys:    3,
		UptimeSeconds:  60,
		DaemonRunning:  true,
	})
	if err != nil {
		t.Fatalf("NewOKResponse failed: %v", err)
	}
	if resp.Status != "OK" {
		t.Errorf("status = %q", resp.Status)
	}

	data, err := resp.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	var status StatusData
	if err := json.Unmarshal(decoded.Data, &status); err != nil {
		t.Fatalf("data unmarshal failed: %v", err)
	}
	if status.TrackedKeys != 3 || !status.DaemonRunning {
		t.Errorf("status = %+v", status)
	}
}

func TestErrorResponse(t *testing.T) {
	resp := NewErrorResponse("no placement recorded")
	if resp.Status != "ERROR" || resp.Error != "no placement recorded" {
		t.Errorf("response = %+v", resp)
	}
}
