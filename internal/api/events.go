package api

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"

	"github.com/smazurov/hdmiinput/internal/events"
)

// EventsRequest optionally narrows the stream to some notifications.
type EventsRequest struct {
	Event string `query:"event" doc:"Comma-separated notification names to receive; empty means all" example:"onSignalChanged,onVideoModeUpdate"`
}

// registerSSERoutes registers the notification stream.
func (s *Server) registerSSERoutes() {
	if s.eventBus == nil {
		return
	}

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Notification stream",
		Description: "Every HdmiInput notification (onDevicesChanged, onSignalChanged, ...) as Server-Sent Events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"notification": events.NotificationEvent{},
	}, func(ctx context.Context, input *EventsRequest, send sse.Sender) {
		filter := splitNames(input.Event)
		eventCh := make(chan any, 32)
		unsubscribe := events.SubscribeToChannel[events.NotificationEvent](s.eventBus, eventCh)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				n, ok := event.(events.NotificationEvent)
				if !ok || (len(filter) > 0 && !slices.Contains(filter, n.Event)) {
					continue
				}
				if err := send.Data(n); err != nil {
					return
				}
			}
		}
	})
}

func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
