package session

import "testing"

func TestDeriveDisplay(t *testing.T) {
	cases := []struct {
		name     string
		status   Status
		closed   bool
		killed   bool
		ready    bool
		serverUp bool
		agentUp  bool
		want     DisplayStatus
	}{
		{"idle healthy", StatusIdle, false, false, false, true, true, DisplayIdle},
		{"waiting healthy", StatusWaiting, false, false, false, true, true, DisplayWaiting},
		{"playing ready", StatusPlaying, false, false, true, true, true, DisplayPlaying},
		{"playing before seat assignment", StatusPlaying, false, false, false, true, true, DisplayKilled},
		{"closed wins over everything", StatusPlaying, true, true, true, false, false, DisplayClosed},
		{"killed wins over connecting", StatusIdle, false, true, false, false, true, DisplayKilled},
		{"server down", StatusIdle, false, false, false, false, true, DisplayConnecting},
		{"agent down", StatusWaiting, false, false, false, true, false, DisplayConnecting},
		{"both down", StatusIdle, false, false, false, false, false, DisplayConnecting},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveDisplay(tc.status, tc.closed, tc.killed, tc.ready, tc.serverUp, tc.agentUp)
			if got != tc.want {
				t.Errorf("DeriveDisplay(%v, closed=%v, killed=%v, ready=%v, server=%v, agent=%v) = %v, want %v",
					tc.status, tc.closed, tc.killed, tc.ready, tc.serverUp, tc.agentUp, got, tc.want)
			}
		})
	}
}

func TestStatusStrings(t *testing.T) {
	if got := StatusPlaying.String(); got != "playing" {
		t.Errorf("StatusPlaying = %q", got)
	}
	if got := DisplayConnecting.String(); got != "connecting" {
		t.Errorf("DisplayConnecting = %q", got)
	}
	if got := DisplayStatus(99).String(); got != "unknown" {
		t.Errorf("out-of-range display = %q", got)
	}
}
