// Package protocol maps inbound daemon messages to replies.
package protocol

const (
	// StopDirective asks the daemon to acknowledge and shut down.
	StopDirective = "STOP"
	// StopAck is the reply to StopDirective.
	StopAck = "DServer stopped"
	// ReplyPrefix precedes the echoed message in ordinary replies.
	ReplyPrefix = "DServer: "
)

// Reply is the outcome of handling one message.
type Reply struct {
	Text string
	Stop bool
}

// Respond computes the reply for msg. Only the exact text of StopDirective
// terminates the daemon; everything else is echoed back unmodified.
func Respond(msg string) Reply {
	if msg == StopDirective {
		return Reply{Text: StopAck, Stop: true}
	}
	return Reply{Text: ReplyPrefix + msg}
}
