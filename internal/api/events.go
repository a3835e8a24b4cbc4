package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/stripnode/internal/events"
)

// registerEventRoutes registers the render event stream.
func (s *Server) registerEventRoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Render Event Stream",
		Description: "Effect changes, rate limited frame reports, sink errors and playlist reloads as Server-Sent Events",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"effect-changed":    events.EffectChangedEvent{},
		"frame-rendered":    events.FrameRenderedEvent{},
		"sink-error":        events.SinkErrorEvent{},
		"playlist-reloaded": events.PlaylistReloadedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		if s.eventBus == nil {
			<-ctx.Done()
			return
		}

		eventCh := make(chan any, 32)
		unsubscribers := []func(){
			events.SubscribeToChannel[events.EffectChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.FrameRenderedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SinkErrorEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.PlaylistReloadedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		// Give the client the current state before live events.
		status := s.status.Status()
		if err := send.Data(events.EffectChangedEvent{
			Effect:    status.Effect,
			Position:  status.Position,
			Reason:    "connected",
			Timestamp: status.UpdatedAt,
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
