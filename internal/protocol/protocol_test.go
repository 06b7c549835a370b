package protocol_test

import (
	"strings"
	"testing"

	"dserver/internal/protocol"
)

func TestRespondStop(t *testing.T) {
	reply := protocol.Respond("STOP")
	if !reply.Stop {
		t.Fatal("expected STOP to request termination")
	}
	if reply.Text != "DServer stopped" {
		t.Fatalf("unexpected ack %q", reply.Text)
	}
}

func TestRespondEchoesMessage(t *testing.T) {
	cases := []string{
		"hello",
		"",
		"stop",
		"STOP ",
		" STOP",
		"STOPPED",
		"multi word message",
		strings.Repeat("x", 1022),
	}
	for _, msg := range cases {
		reply := protocol.Respond(msg)
		if reply.Stop {
			t.Fatalf("Respond(%q) should not request termination", msg)
		}
		if reply.Text != "DServer: "+msg {
			t.Fatalf("Respond(%q) = %q", msg, reply.Text)
		}
	}
}
