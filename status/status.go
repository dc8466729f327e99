// Package status broadcasts viewer progress to websocket clients.
package status

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	INFO = iota
	ERROR
	PROGRESS
	FRAME
)

type status struct {
	Message  string      `json:"message"`
	Time     time.Time   `json:"time"`
	Type     int         `json:"type"`
	Progress float32     `json:"progress"`
	Data     interface{} `json:"data,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	ticker := time.NewTicker(time.Second * 30)
	defer func() {
		ticker.Stop()
		unregisterClient(c)
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("[status] ws write msg error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(40 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[status] ws write ping error: %v", err)
				return
			}
		}
	}
}

// readPump drains the connection so control frames are handled and a
// closed peer is noticed.
func (c *client) readPump() {
	defer closeClient(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func NewClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, 32)}
	globalLock.Lock()
	broadcastList[c] = true
	if lastMessage != nil {
		c.send <- lastMessage
	}
	globalLock.Unlock()

	go c.writePump()
	go c.readPump()
	return c
}

var statusBroadcast chan *status
var broadcastList map[*client]bool
var globalLock sync.Mutex
var lastMessage []byte = nil

func unregisterClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	delete(broadcastList, c)
}

// closeClient stops the write pump of c once.
func closeClient(c *client) {
	globalLock.Lock()
	defer globalLock.Unlock()
	if broadcastList[c] {
		delete(broadcastList, c)
		close(c.send)
	}
}

func init() {
	statusBroadcast = make(chan *status, 16)
	broadcastList = make(map[*client]bool)
	go func() {
		for s := range statusBroadcast {
			data, err := json.Marshal(s)
			if err != nil {
				log.Printf("[status] marshal error: %v", err)
				continue
			}
			globalLock.Lock()
			lastMessage = data
			for c := range broadcastList {
				select {
				case c.send <- data:
				default:
					// slow client, it catches up with the next message
				}
			}
			globalLock.Unlock()
		}
	}()
}

// Clients is the number of connected websocket clients.
func Clients() int {
	globalLock.Lock()
	defer globalLock.Unlock()
	return len(broadcastList)
}

func send(s *status) {
	select {
	case statusBroadcast <- s:
	default:
		log.Printf("[status] dropped %q", s.Message)
	}
}

func Status(msg string, _type int, progress float32) {
	if math.IsNaN(float64(progress)) || math.IsInf(float64(progress), 0) {
		progress = 0
	}
	send(&status{
		Message:  msg,
		Time:     time.Now(),
		Type:     _type,
		Progress: progress})
}

func Info(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), INFO, 0.0)
}

func Error(format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), ERROR, 0.0)
}

func Progress(progress float32, format string, a ...interface{}) {
	Status(fmt.Sprintf(format, a...), PROGRESS, progress)
}

// Frame publishes render statistics. data must marshal to JSON.
func Frame(data interface{}) {
	send(&status{
		Message: "frame",
		Time:    time.Now(),
		Type:    FRAME,
		Data:    data})
}
