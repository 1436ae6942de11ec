package cli

import (
	"fmt"
	"io"

	"github.com/roach88/reprise/msg"
)

// writeMessages renders a message sequence in the requested format:
// wire-form JSON lines, or a readable one-line-per-message text listing.
func writeMessages(w io.Writer, format string, msgs []msg.Message) error {
	for _, m := range msgs {
		switch format {
		case "json":
			data, err := msg.Encode(m)
			if err != nil {
				return fmt.Errorf("encode offset %d: %w", m.MsgOffset(), err)
			}
			fmt.Fprintf(w, "%s\n", data)
		default:
			fmt.Fprintf(w, "%6d  %-28s %s\n", m.MsgOffset(), m.MsgKind(), summarize(m))
		}
	}
	return nil
}

// summarize renders the distinguishing fields of a message for text output.
func summarize(m msg.Message) string {
	switch v := m.(type) {
	case msg.EntityStateChanged:
		return "state updated"
	case msg.CreateEntityRequestReceived:
		return "construct subject"
	case msg.EntityMethodRequestReceived:
		return "invoke " + v.Method
	case msg.EntityMethodRequestSent:
		return fmt.Sprintf("call %s.%s (trace %d)", v.Receiver, v.Method, v.TraceOffset)
	case msg.EntityMethodResponseReceived:
		return fmt.Sprintf("response to %d", v.RequestOffset)
	case msg.EntityMethodErrorReceived:
		return fmt.Sprintf("error %s for %d", v.Error.Name, v.RequestOffset)
	case msg.EntityMethodResponseSent:
		return fmt.Sprintf("answer to %d", v.RequestOffset)
	case msg.CreateEntityRequestSent:
		return fmt.Sprintf("create %s (trace %d)", v.EntityKind, v.TraceOffset)
	case msg.CreateEntityResponseReceived:
		return fmt.Sprintf("entity %s for %d", v.Entity, v.RequestOffset)
	case msg.CreateEntityErrorReceived:
		return fmt.Sprintf("error %s for %d", v.Error.Name, v.RequestOffset)
	case msg.CreateEntityResponseSent:
		return fmt.Sprintf("constructed, answer to %d", v.RequestOffset)
	case msg.ServiceRequestSent:
		return fmt.Sprintf("service %s.%s (trace %d)", v.Service, v.Method, v.TraceOffset)
	case msg.ServiceResponseReceived:
		return fmt.Sprintf("response to %d", v.RequestOffset)
	case msg.ServiceErrorReceived:
		return fmt.Sprintf("error %s for %d", v.Error.Name, v.RequestOffset)
	case msg.ErrorRaised:
		return fmt.Sprintf("%s: %s", v.Fault, v.Reason)
	}
	return ""
}
