package main

import "testing"

func TestEventsURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://localhost:6360", "ws://localhost:6360/events"},
		{"https://state.example.com/debug/", "wss://state.example.com/debug/events"},
		{"ws://localhost:6360", "ws://localhost:6360/events"},
	}
	for _, c := range cases {
		got, err := eventsURL(c.in)
		if err != nil {
			t.Errorf("eventsURL(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("eventsURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}

	if _, err := eventsURL("ftp://nope"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}
