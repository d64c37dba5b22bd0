package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"safespace-chat/internal/chat"
	"safespace-chat/internal/crisis"

	"github.com/go-playground/validator/v10"
)

var (
	ErrClientDisconnected = errors.New("client disconnected")
	ErrSendBufferFull     = errors.New("send buffer full")
	ErrClientNotFound     = errors.New("client not found")
)

const (
	DefaultHeartbeatInterval = 30 * time.Second
	alertTimeout             = 5 * time.Second
	alertQueueSize           = 256
	alertWorkers             = 4
)

// Hub routes events between live connections and the room state.
//
// Every state change and the enqueues it causes happen under dispatchMu, so
// all members of a room observe that room's events in the same order.
type Hub struct {
	rooms     *chat.RoomRegistry
	directory *chat.ParticipantDirectory
	pipeline  *chat.MessagePipeline
	alerts    crisis.AlertSink
	metrics   *ConnectionMetrics
	validate  *validator.Validate
	log       *slog.Logger
	now       func() time.Time

	sendBuffer        int
	heartbeatInterval time.Duration
	historyPage       int

	mu      sync.RWMutex
	clients map[string]*Client

	dispatchMu sync.Mutex

	alertQueue chan crisis.Alert

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(rooms *chat.RoomRegistry, directory *chat.ParticipantDirectory, pipeline *chat.MessagePipeline, alerts crisis.AlertSink, log *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = slog.Default()
	}
	if alerts == nil {
		alerts = crisis.LogSink{Log: log}
	}

	h := &Hub{
		rooms:             rooms,
		directory:         directory,
		pipeline:          pipeline,
		alerts:            alerts,
		metrics:           NewConnectionMetrics(100),
		validate:          validator.New(),
		log:               log,
		now:               time.Now,
		sendBuffer:        DefaultSendBuffer,
		heartbeatInterval: DefaultHeartbeatInterval,
		historyPage:       chat.HistoryPageSize,
		clients:           make(map[string]*Client),
		alertQueue:        make(chan crisis.Alert, alertQueueSize),
		ctx:               ctx,
		cancel:            cancel,
	}

	for i := 0; i < alertWorkers; i++ {
		h.wg.Add(1)
		go h.alertWorker()
	}
	return h
}

// SetSendBuffer sets the outbound queue depth for clients created afterwards.
func (h *Hub) SetSendBuffer(n int) {
	if n > 0 {
		h.sendBuffer = n
	}
}

func (h *Hub) SetHeartbeatInterval(d time.Duration) {
	if d > 0 {
		h.heartbeatInterval = d
	}
}

// SetHistoryPage sets how many messages a get-history reply carries.
func (h *Hub) SetHistoryPage(n int) {
	if n > 0 {
		h.historyPage = n
	}
}

func (h *Hub) Metrics() *ConnectionMetrics {
	return h.metrics
}

// Run sends the system heartbeat until ctx is cancelled or Stop is called.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.BroadcastHeartbeat()
		case <-ctx.Done():
			return
		case <-h.ctx.Done():
			h.log.Info("WebSocket hub shutting down")
			return
		}
	}
}

// Stop closes every connection and waits for queued crisis alerts to be
// delivered, giving up when ctx expires.
func (h *Hub) Stop(ctx context.Context) error {
	h.cancel()

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		h.log.Warn("Hub stopped before all crisis alerts were delivered", "pending", len(h.alertQueue))
		return ctx.Err()
	}
}

func (h *Hub) Register(c *Client) {
	if h.ctx.Err() != nil {
		c.close()
		return
	}

	h.mu.Lock()
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.RecordConnect()
	h.log.Info("Anonymous user connected", "clientID", c.id, "connections", total)
}

// Unregister removes the connection and completes its implicit leave before
// returning. Calling it twice is harmless.
func (h *Hub) Unregister(c *Client) {
	h.dispatchMu.Lock()
	defer h.dispatchMu.Unlock()

	h.mu.Lock()
	_, known := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.close()
	if !known {
		return
	}
	h.metrics.RecordDisconnect()

	if p, ok := h.directory.Unbind(c.id); ok {
		h.departLocked(p)
	}
	h.log.Info("Anonymous user disconnected", "clientID", c.id)
}

// ClientCount is the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) client(connectionID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connectionID]
	return c, ok
}

// HandleMessage decodes one inbound frame and applies it. Malformed frames
// are dropped without a reply.
func (h *Hub) HandleMessage(c *Client, raw []byte) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.log.Debug("Dropping malformed frame", "clientID", c.id, "error", err)
		return
	}
	if !msg.Type.IsInbound() {
		h.log.Debug("Dropping unknown event", "clientID", c.id, "type", msg.Type)
		return
	}

	var alert *crisis.Alert

	h.dispatchMu.Lock()
	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if h.decode(c, msg, &data) {
			h.handleJoin(c, data)
		}
	case MessageTypeLeave:
		var data LeaveData
		if h.decode(c, msg, &data) {
			h.handleLeave(c, data)
		}
	case MessageTypeMessage:
		var data ChatMessageData
		if h.decode(c, msg, &data) {
			alert = h.handleChatMessage(c, data)
		}
	case MessageTypeTyping:
		var data TypingData
		if h.decode(c, msg, &data) {
			h.handleTyping(c, data)
		}
	case MessageTypeChangeID:
		var data ChangeIDData
		if h.decode(c, msg, &data) {
			h.handleChangeID(c, data)
		}
	case MessageTypeGetHistory:
		var data HistoryRequestData
		if h.decode(c, msg, &data) {
			h.handleGetHistory(c, data)
		}
	}
	h.dispatchMu.Unlock()

	if alert != nil {
		h.publishAlert(*alert)
	}
}

func (h *Hub) decode(c *Client, msg Message, dst any) bool {
	if len(msg.Data) == 0 {
		h.log.Debug("Dropping event without data", "clientID", c.id, "type", msg.Type)
		return false
	}
	if err := json.Unmarshal(msg.Data, dst); err != nil {
		h.log.Debug("Dropping undecodable payload", "clientID", c.id, "type", msg.Type, "error", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.log.Debug("Dropping invalid payload", "clientID", c.id, "type", msg.Type, "error", err)
		return false
	}
	return true
}

func (h *Hub) handleJoin(c *Client, data JoinData) {
	mood := chat.ParseMood(data.Mood)

	current, bound := h.directory.Lookup(c.id)
	if bound && current.Room == data.Room && current.AnonymousID == data.AnonymousID {
		return
	}

	_, prev, hadPrev := h.directory.Bind(c.id, data.AnonymousID, data.Room, mood)
	if hadPrev {
		h.departLocked(prev)
	}

	h.rooms.Join(data.Room, data.AnonymousID)

	h.BroadcastToRoom(data.Room, MessageTypeUserJoined, UserJoinedData{
		AnonymousID: data.AnonymousID,
		Mood:        mood,
		Timestamp:   h.now(),
	}, c.id)
	h.BroadcastRoomStats(data.Room)

	h.log.Info("Anonymous user joined room", "room", data.Room, "mood", mood)
}

func (h *Hub) handleLeave(c *Client, data LeaveData) {
	p, ok := h.directory.Lookup(c.id)
	if !ok || p.Room != data.Room {
		h.log.Debug("Dropping leave for a room the connection has not joined", "clientID", c.id, "room", data.Room)
		return
	}

	h.directory.Unbind(c.id)
	h.departLocked(p)
}

// departLocked removes p from its room and tells the remaining members.
// The caller holds dispatchMu and has already unbound p's connection.
func (h *Hub) departLocked(p chat.Participant) {
	h.rooms.Leave(p.Room, p.AnonymousID)

	h.BroadcastToRoom(p.Room, MessageTypeUserLeft, UserLeftData{
		AnonymousID: p.AnonymousID,
		Timestamp:   h.now(),
	}, "")
	h.BroadcastRoomStats(p.Room)
}

func (h *Hub) handleChatMessage(c *Client, data ChatMessageData) *crisis.Alert {
	res, ok := h.pipeline.Submit(c.id, chat.Submission{
		ID:        data.ID,
		RoomID:    data.Room,
		SenderID:  data.SenderID,
		Content:   data.Content,
		Mood:      data.Mood,
		Timestamp: data.Timestamp,
	})
	if !ok {
		return nil
	}

	h.BroadcastToRoom(res.Message.Room, MessageTypeMessage, res.Message, "")

	if !res.Crisis {
		return nil
	}

	if err := h.SendToConnection(c.id, MessageTypeCrisisDetected, crisis.NewSupport(h.now())); err != nil {
		h.log.Warn("Failed to deliver crisis resources", "clientID", c.id, "error", err)
	}

	return &crisis.Alert{
		Room:         res.Message.Room,
		Content:      chat.Truncate(res.Message.Content, crisis.AlertPreviewLength),
		SenderID:     res.Message.SenderID,
		ConnectionID: c.id,
		MessageID:    res.Message.ID,
		Keyword:      res.Message.Room != chat.CrisisRoom,
		Timestamp:    h.now(),
	}
}

func (h *Hub) handleTyping(c *Client, data TypingData) {
	p, ok := h.directory.Lookup(c.id)
	if !ok || p.Room != data.Room {
		return
	}
	if data.SenderID != p.AnonymousID {
		h.log.Debug("Dropping typing event sent under another id", "clientID", c.id, "room", data.Room)
		return
	}

	h.BroadcastToRoom(data.Room, MessageTypeTyping, TypingEventData{
		SenderID:  p.AnonymousID,
		IsTyping:  data.IsTyping,
		Timestamp: h.now(),
	}, c.id)
}

func (h *Hub) handleChangeID(c *Client, data ChangeIDData) {
	current, ok := h.directory.Lookup(c.id)
	if !ok {
		h.log.Debug("Dropping change-id for an unbound connection", "clientID", c.id)
		return
	}
	if current.AnonymousID == data.NewID {
		return
	}

	old, ok := h.directory.Rebind(c.id, data.NewID)
	if !ok {
		return
	}

	h.BroadcastToRoom(old.Room, MessageTypeUserIDChanged, UserIDChangedData{
		OldID:     old.AnonymousID,
		NewID:     data.NewID,
		Timestamp: h.now(),
	}, c.id)
}

func (h *Hub) handleGetHistory(c *Client, data HistoryRequestData) {
	if !h.rooms.Exists(data.Room) {
		return
	}

	err := h.SendToConnection(c.id, MessageTypeHistory, HistoryData{
		Room:     data.Room,
		Messages: h.rooms.RecentHistory(data.Room, h.historyPage),
	})
	if err != nil {
		h.log.Debug("Failed to deliver history", "clientID", c.id, "error", err)
	}
}

// publishAlert hands alert to the delivery workers without blocking. When
// the queue is full the alert is dropped and counted.
func (h *Hub) publishAlert(alert crisis.Alert) {
	select {
	case h.alertQueue <- alert:
	default:
		h.metrics.RecordAlertDropped(alert.Room)
		h.log.Error("Crisis alert queue full, dropping alert", "room", alert.Room, "messageID", alert.MessageID)
	}
}

// alertWorker delivers queued alerts. Once the hub stops it flushes what is
// already queued and exits.
func (h *Hub) alertWorker() {
	defer h.wg.Done()

	for {
		select {
		case alert := <-h.alertQueue:
			h.deliverAlert(alert)
		case <-h.ctx.Done():
			for {
				select {
				case alert := <-h.alertQueue:
					h.deliverAlert(alert)
				default:
					return
				}
			}
		}
	}
}

// deliverAlert runs outside dispatchMu since sinks may do network I/O.
func (h *Hub) deliverAlert(alert crisis.Alert) {
	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()

	start := time.Now()
	err := h.alerts.Publish(ctx, alert)
	h.metrics.RecordAlert(alert.Room, time.Since(start), err)
	if err != nil {
		h.log.Error("Failed to publish crisis alert", "room", alert.Room, "messageID", alert.MessageID, "error", err)
	}
}

// BroadcastToRoom enqueues one event to every connection bound to room,
// except excludeConnectionID. It returns the number of successful enqueues.
func (h *Hub) BroadcastToRoom(room string, msgType MessageType, payload any, excludeConnectionID string) int {
	start := time.Now()

	data, err := encodeMessage(msgType, payload, h.now())
	if err != nil {
		h.log.Error("Failed to encode event", "type", msgType, "room", room, "error", err)
		return 0
	}

	targets := h.directory.ConnectionsInRoom(room)

	success, failed := 0, 0
	for _, id := range targets {
		if id == excludeConnectionID {
			continue
		}
		c, ok := h.client(id)
		if !ok {
			failed++
			continue
		}
		if err := c.enqueue(data); err != nil {
			failed++
			continue
		}
		success++
	}

	h.metrics.RecordBroadcastMetric(room, time.Since(start), success, failed, len(data))
	if failed > 0 {
		h.log.Warn("Broadcast partially failed", "room", room, "type", msgType, "delivered", success, "failed", failed)
	}
	return success
}

// SendToConnection enqueues one event to a single connection.
func (h *Hub) SendToConnection(connectionID string, msgType MessageType, payload any) error {
	c, ok := h.client(connectionID)
	if !ok {
		return ErrClientNotFound
	}

	data, err := encodeMessage(msgType, payload, h.now())
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

// BroadcastRoomStats sends the room's current member count to its members.
func (h *Hub) BroadcastRoomStats(room string) {
	h.BroadcastToRoom(room, MessageTypeRoomStats, RoomStatsData{
		Room:        room,
		ActiveUsers: h.rooms.MemberCount(room),
	}, "")
}

// BroadcastHeartbeat sends the system heartbeat to every connection, joined
// or not.
func (h *Hub) BroadcastHeartbeat() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	data, err := encodeMessage(MessageTypeHeartbeat, HeartbeatData{
		Timestamp:   h.now(),
		ActiveUsers: len(clients),
	}, h.now())
	if err != nil {
		h.log.Error("Failed to encode heartbeat", "error", err)
		return
	}

	for _, c := range clients {
		if err := c.enqueue(data); err != nil {
			h.log.Debug("Heartbeat not delivered", "clientID", c.id, "error", err)
		}
	}
}
