package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-pose/models/model/preprocess"
	"github.com/nvr-ai/go-pose/pipeline"
)

// Stream message types.
const (
	MessageResult = "result"
	MessageError  = "error"
)

// StreamMessage is sent to stream clients as a text frame.
type StreamMessage struct {
	Type        string     `json:"type"`
	StreamID    string     `json:"stream_id"`
	FrameID     int64      `json:"frame_id,omitempty"`
	Keypoints   []Keypoint `json:"keypoints,omitempty"`
	InferenceMS float64    `json:"inference_ms,omitempty"`
	// Dropped counts the frames of this stream rejected so far because an estimate was in flight.
	Dropped int64  `json:"dropped"`
	Error   string `json:"error,omitempty"`
}

// streamWriter serializes writes to a connection shared by the reader loop and the dispatcher.
type streamWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
	log  logrus.FieldLogger
}

func (w *streamWriter) send(msg StreamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		w.log.WithError(err).Error("encode stream message")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
		w.log.WithError(err).Warn("set write deadline")
		return
	}
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		w.log.WithError(err).Debug("write stream message")
	}
}

// stream handles GET /v1/pose/stream. Every binary message is an encoded frame; frames arriving
// while the previous one is still being estimated are dropped.
func (s *Server) stream(c *websocket.Conn) {
	streamID := uuid.NewString()
	log := s.log.WithField("stream_id", streamID)
	log.Info("stream connected")
	defer log.Info("stream disconnected")

	writer := &streamWriter{conn: c, log: log}

	var (
		frames     atomic.Int64
		dispatcher *pipeline.Dispatcher
	)
	dispatcher = pipeline.NewDispatcher(s.engine, func(r pipeline.Result) {
		msg := StreamMessage{
			Type:        MessageResult,
			StreamID:    streamID,
			FrameID:     r.FrameID,
			InferenceMS: float64(r.Inference.Microseconds()) / 1000,
			Dropped:     dispatcher.Stats().Dropped,
		}
		if r.Err != nil {
			msg.Type = MessageError
			msg.Error = r.Err.Error()
		} else {
			msg.Keypoints = s.keypoints(r.Keypoints, r.Bounds)
		}
		writer.send(msg)
	}, pipeline.Options{
		Timeout: s.opts.Timeout,
		Logger:  log,
	})
	defer dispatcher.Close()

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("stream closed unexpectedly")
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			log.WithField("type", messageType).Debug("ignoring non-binary message")
			continue
		}

		id := frames.Add(1)
		img, _, err := preprocess.DecodeImage(message)
		if err != nil {
			writer.send(StreamMessage{
				Type:     MessageError,
				StreamID: streamID,
				FrameID:  id,
				Dropped:  dispatcher.Stats().Dropped,
				Error:    err.Error(),
			})
			continue
		}

		dispatcher.Submit(pipeline.Frame{ID: id, Image: img, Timestamp: time.Now()})
	}
}
