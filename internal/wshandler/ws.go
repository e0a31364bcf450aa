package wshandler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"

	"github.com/patrolhub/patrolhub/internal/model"
	"github.com/patrolhub/patrolhub/internal/tracker"
)

// Dispatcher is the event sink behind a connection; *tracker.Tracker
// satisfies it.
type Dispatcher interface {
	HandleEvent(connID string, msg *model.WebMessage) error
	Disconnect(connID string)
}

// JSONWsHandler serves one websocket connection: the reader feeds
// inbound events into the dispatcher, the writer drains a bounded queue
// so one slow peer never stalls a broadcast.
type JSONWsHandler struct {
	log        *slog.Logger
	name       string
	ws         *websocket.Conn
	dispatcher Dispatcher

	mx     sync.Mutex
	ch     chan *model.WebMessage
	active int32
}

func NewHandler(log *slog.Logger, name string, ws *websocket.Conn, d Dispatcher, queue int) *JSONWsHandler {
	if queue <= 0 {
		queue = 16
	}

	return &JSONWsHandler{
		log:        log.With("client", name),
		name:       name,
		ws:         ws,
		dispatcher: d,
		ch:         make(chan *model.WebMessage, queue),
		active:     1,
	}
}

func (w *JSONWsHandler) GetName() string {
	return w.name
}

func (w *JSONWsHandler) IsActive() bool {
	return w != nil && atomic.LoadInt32(&w.active) == 1
}

func (w *JSONWsHandler) stop() {
	if atomic.CompareAndSwapInt32(&w.active, 1, 0) {
		w.mx.Lock()
		close(w.ch)
		w.mx.Unlock()

		if w.ws != nil {
			w.ws.Close()
		}
	}
}

// SendEvent queues the message for delivery, dropping it when the
// queue is full. Returns false once the connection is gone. The lock
// orders the send against close of the queue in stop.
func (w *JSONWsHandler) SendEvent(msg *model.WebMessage) bool {
	if w == nil || !w.IsActive() {
		return false
	}

	w.mx.Lock()
	defer w.mx.Unlock()

	if !w.IsActive() {
		return false
	}

	select {
	case w.ch <- msg:
	default:
		dropMetric.WithLabelValues(msg.Typ).Inc()
	}

	return true
}

func (w *JSONWsHandler) writer() {
	for item := range w.ch {
		if !w.IsActive() {
			return
		}

		if item == nil {
			continue
		}

		_ = w.ws.WriteJSON(item)
	}
}

func (w *JSONWsHandler) reader() {
	defer w.stop()

	for {
		_, data, err := w.ws.ReadMessage()

		if err != nil {
			return
		}

		msg := new(model.WebMessage)

		if err := json.Unmarshal(data, msg); err != nil {
			w.log.Warn("bad payload", slog.Any("error", err))
			w.SendEvent(model.ErrorMsg("validation", "malformed message"))

			continue
		}

		if err := w.dispatcher.HandleEvent(w.name, msg); err != nil {
			w.log.Warn("event rejected", slog.String("type", msg.Typ), slog.Any("error", err))
			w.SendEvent(model.ErrorMsg(tracker.ErrorCode(err), err.Error()))
		}
	}
}

func (w *JSONWsHandler) closehandler(code int, text string) error {
	w.log.Info(fmt.Sprintf("closed with code %d, msg %s", code, text))
	w.stop()

	return nil
}

// Listen blocks until the connection is closed, then unbinds the
// session through the same dispatch path as any other event.
func (w *JSONWsHandler) Listen() {
	w.log.Debug("ws start")
	w.ws.SetCloseHandler(w.closehandler)

	go w.writer()
	w.reader()
	w.dispatcher.Disconnect(w.name)
	w.log.Debug("ws stop")
}
