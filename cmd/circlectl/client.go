package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/xiaot623/serenai/internal/protocol"
)

// Client is a websocket client for one pseudonymous participant.
type Client struct {
	conn        *websocket.Conn
	anonymousID string
	writeMu     sync.Mutex
}

// NewClient connects to the server.
func NewClient(addr, anonymousID string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	return &Client{conn: conn, anonymousID: anonymousID}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Client) send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

type outbound struct {
	Type string `json:"type"`
	protocol.CircleRef
	AnonymousID string `json:"anonymousId,omitempty"`
	Message     string `json:"message,omitempty"`
	Emotion     string `json:"emotion,omitempty"`
	MessageID   string `json:"messageId,omitempty"`
}

func (c *Client) Join(circleID string) error {
	return c.send(outbound{Type: protocol.TypeJoinCircle, CircleRef: protocol.CircleRef{CircleID: circleID}, AnonymousID: c.anonymousID})
}

func (c *Client) Post(circleID, text, emotion string) error {
	return c.send(outbound{
		Type:        protocol.TypeSendMessage,
		CircleRef:   protocol.CircleRef{CircleID: circleID},
		AnonymousID: c.anonymousID,
		Message:     text,
		Emotion:     emotion,
	})
}

func (c *Client) Like(circleID, messageID string) error {
	return c.send(outbound{Type: protocol.TypeLikeMessage, CircleRef: protocol.CircleRef{CircleID: circleID}, MessageID: messageID})
}

func (c *Client) Typing(circleID string, typing bool) error {
	t := protocol.TypeStopTyping
	if typing {
		t = protocol.TypeTyping
	}
	return c.send(outbound{Type: t, CircleRef: protocol.CircleRef{CircleID: circleID}, AnonymousID: c.anonymousID})
}

func (c *Client) Leave(circleID string) error {
	return c.send(outbound{Type: protocol.TypeLeaveCircle, CircleRef: protocol.CircleRef{CircleID: circleID}, AnonymousID: c.anonymousID})
}

// Next blocks for the next server event.
func (c *Client) Next() (map[string]interface{}, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var event map[string]interface{}
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}

// formatEvent renders an event as a single line.
func formatEvent(w io.Writer, event map[string]interface{}) {
	str := func(k string) string {
		s, _ := event[k].(string)
		return s
	}
	switch str("type") {
	case protocol.TypeNewMessage:
		line := fmt.Sprintf("[%s] %s: %s", str("messageId"), str("anonymousId"), str("message"))
		if e := str("emotion"); e != "" {
			line += " (" + e + ")"
		}
		fmt.Fprintln(w, line)
	case protocol.TypeMemberJoined:
		fmt.Fprintf(w, "* %s joined %s\n", str("anonymousId"), str("circleId"))
	case protocol.TypeMemberLeft:
		fmt.Fprintf(w, "* %s left %s\n", str("anonymousId"), str("circleId"))
	case protocol.TypeMessageLiked:
		fmt.Fprintf(w, "* %s was liked\n", str("messageId"))
	case protocol.TypeUserTyping:
		fmt.Fprintf(w, "* %s is typing...\n", str("anonymousId"))
	case protocol.TypeUserStopTyping:
		// not shown
	case protocol.TypeError:
		fmt.Fprintf(w, "! error %s: %s\n", str("code"), str("message"))
	default:
		keys := make([]string, 0, len(event))
		for k := range event {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "? %v\n", keys)
	}
}
