package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Tomyshh/aerilux-commerce/internal/domain"
)

// LogSink writes events to the process log. Default sink when no broker is
// configured.
type LogSink struct{}

func (LogSink) LogEvent(_ context.Context, event domain.CommerceEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal commerce event %s: %v", event.Name, err)
		return
	}
	log.Printf("commerce event %s: %s", event.Name, payload)
}
