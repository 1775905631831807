package webd

import (
	"encoding/json"

	"github.com/olahol/melody"
	"github.com/rotblauer/bustrack/events"
	"github.com/rotblauer/bustrack/types/fix"
)

type websocketAction string

const (
	websocketActionPopulate websocketAction = "populate"
	websocketActionDelete   websocketAction = "delete"
)

// broadcast is the message sent to websocket clients.
type broadcast struct {
	Action websocketAction `json:"action"`
	Bus    string          `json:"bus"`
	Fixes  fix.Fixes       `json:"fixes,omitempty"`
	Start  int64           `json:"start,omitempty"`
	End    int64           `json:"end,omitempty"`
}

// initMelody sets up the websocket handler.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	// Replay the last pushes so new clients can draw buses right away.
	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Info("Websocket connected", "remote", session.Request.RemoteAddr)
		for busID, item := range s.Service.Caches.LastPush.Items() {
			if item.IsExpired() {
				continue
			}
			b, err := json.Marshal(broadcast{
				Action: websocketActionPopulate,
				Bus:    busID.String(),
				Fixes:  item.Value(),
			})
			if err != nil {
				continue
			}
			if err := session.Write(b); err != nil {
				s.logger.Warn("Failed to replay last push", "error", err)
				return
			}
		}
	})

	// Right now don't care about incoming messages from clients. Log and drop.
	s.melodyInstance.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "msg", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Info("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "error", e, "remote", session.Request.RemoteAddr)
	})

	// Broadcast stored pushes (i.e. 'populate') to all connected clients.
	// Duplicates and fixes that failed to store are never sent.
	pushes := make(chan events.BusFixes)
	pushSub := events.StoredFeed.Subscribe(pushes)
	deletes := make(chan events.Deleted)
	deleteSub := events.DeletedFeed.Subscribe(deletes)
	quit := make(chan struct{})
	s.stopFeeds = func() {
		pushSub.Unsubscribe()
		deleteSub.Unsubscribe()
		close(quit)
	}

	go func() {
		for {
			var bc broadcast
			select {
			case <-quit:
				return
			case p := <-pushes:
				bc = broadcast{Action: websocketActionPopulate, Bus: p.BusID.String(), Fixes: p.Fixes}
			case d := <-deletes:
				bc = broadcast{Action: websocketActionDelete, Bus: d.BusID.String(), Start: d.Start, End: d.End}
			case err := <-pushSub.Err():
				if err != nil {
					s.logger.Error("Stored feed subscription failed", "error", err)
				}
				return
			case err := <-deleteSub.Err():
				if err != nil {
					s.logger.Error("Delete feed subscription failed", "error", err)
				}
				return
			}
			b, err := json.Marshal(bc)
			if err != nil {
				s.logger.Error("Failed to marshal broadcast", "error", err)
				continue
			}
			if s.melodyInstance.IsClosed() {
				continue
			}
			if err := s.melodyInstance.Broadcast(b); err != nil {
				s.logger.Warn("Failed to broadcast", "error", err)
			}
		}
	}()
}
