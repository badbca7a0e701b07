package conversation

import (
	"log"
	"time"

	"github.com/careersim/interview-skill/backend/internal/service/session"
)

// Deliver sends engine replies over the transport in order. Delayed replies
// are scheduled with timers that accumulate, so a later reply never
// overtakes an earlier one. A send against a transport that closed in the
// meantime fails with ErrTransportClosed, which is logged and swallowed so
// a dangling timer cannot take the process down.
func Deliver(conn session.Conn, sessionID string, replies []Reply) {
	var offset time.Duration
	for _, reply := range replies {
		payload := Payload{
			SessionID: sessionID,
			Text:      reply.Text,
			Meta:      Meta{EndConversation: reply.EndConversation},
		}

		offset += reply.Delay
		if offset == 0 {
			if err := conn.Send(session.MsgConversation, payload); err != nil {
				log.Printf("[conversation] send failed session=%s: %v", sessionID, err)
			}
			continue
		}

		time.AfterFunc(offset, func() {
			if err := conn.Send(session.MsgConversation, payload); err != nil {
				log.Printf("[conversation] delayed send skipped session=%s: %v", sessionID, err)
			}
		})
	}
}
