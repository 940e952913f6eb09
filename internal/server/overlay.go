package server

import (
	"github.com/yaklabco/mdsync/pkg/caret"
	"github.com/yaklabco/mdsync/pkg/render"
)

// eventOverlay draws the caret by publishing its transitions to clients.
type eventOverlay struct {
	broker *Broker
}

func (o eventOverlay) Show(box caret.Box) {
	o.broker.Publish(Event{Type: EventCaretShow, Data: box})
}

func (o eventOverlay) Move(box caret.Box) {
	o.broker.Publish(Event{Type: EventCaretMove, Data: box})
}

func (o eventOverlay) Hide() {
	o.broker.Publish(Event{Type: EventCaretHide, Data: struct{}{}})
}

type highlightData struct {
	ID string `json:"id"`
}

type updatedData struct {
	Generation uint64 `json:"generation"`
	Failed     bool   `json:"failed"`
}

func (s *Server) publishHighlight(id string) {
	s.broker.Publish(Event{Type: EventHighlight, Data: highlightData{ID: id}})
}

func (s *Server) publishRender(result *render.Result) {
	s.broker.Publish(Event{Type: EventPreviewUpdated, Data: updatedData{
		Generation: result.Generation,
		Failed:     result.Failed,
	}})
}
