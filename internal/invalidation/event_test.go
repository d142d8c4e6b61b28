package invalidation

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func mustTS() time.Time { return time.Date(2025, 7, 24, 12, 30, 45, 0, time.UTC) }

func TestEvent_Validate(t *testing.T) {
	cases := []struct {
		name    string
		ev      Event
		wantErr string
	}{
		{"delete ok", Event{Version: 1, Op: OpDelete, Addresses: []string{"용답동 250"}, TS: mustTS()}, ""},
		{"clear ok", Event{Version: 1, Op: OpClear, Seq: 7, TS: mustTS()}, ""},
		{"bad version", Event{Version: 2, Op: OpClear, TS: mustTS()}, "version"},
		{"missing ts", Event{Version: 1, Op: OpClear}, "ts"},
		{"unknown op", Event{Version: 1, Op: "update", TS: mustTS()}, "op must be"},
		{"delete without addresses", Event{Version: 1, Op: OpDelete, TS: mustTS()}, "at least one"},
		{"blank address", Event{Version: 1, Op: OpDelete, Addresses: []string{"a", " "}, TS: mustTS()}, "addresses[1]"},
		{"clear with addresses", Event{Version: 1, Op: OpClear, Addresses: []string{"a"}, TS: mustTS()}, "no addresses"},
	}
	for _, tc := range cases {
		err := tc.ev.Validate()
		switch {
		case tc.wantErr == "" && err != nil:
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		case tc.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tc.wantErr)):
			t.Fatalf("%s: err=%v want containing %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestDecode_WireFormat(t *testing.T) {
	raw := `{"version":1,"op":"delete","addresses":["알수없는주소 999"],"seq":3,"ts":"2025-07-24T12:30:45Z","source":"ops"}`
	ev, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if ev.Seq != 3 || ev.Addresses[0] != "알수없는주소 999" || !ev.TS.Equal(mustTS()) {
		t.Fatalf("decoded %+v", ev)
	}

	b, _ := json.Marshal(Event{Version: 1, Op: OpClear, TS: mustTS()})
	if strings.Contains(string(b), "addresses") || strings.Contains(string(b), "seq") {
		t.Fatalf("empty optional fields should be omitted: %s", b)
	}

	if _, err := Decode([]byte(`{`)); err == nil {
		t.Fatalf("expected decode error")
	}
	if _, err := Decode([]byte(`{"version":1,"op":"clear"}`)); err == nil {
		t.Fatalf("expected validation error")
	}
}
