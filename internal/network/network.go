// Package network backs zawk's http_get/http_post/wsopen/wssend/wsrecv/
// wsclose builtins (SPEC_FULL.md Domain Stack). It follows the donor's
// webclient/network module shape — a name-keyed registry of live
// connections reused across calls — generalized from the donor's
// security-testing HTTP/WS clients to plain request/response and
// send/receive operations an AWK program can drive.
package network

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Manager is the process-wide registry of open WebSocket connections,
// addressed by the caller-chosen id passed to wsopen. HTTP calls are
// one-shot (http_get/http_post take no id) so they need no registry
// entry, only a shared client for connection reuse.
type Manager struct {
	client *http.Client

	mu    sync.Mutex
	conns map[string]*wsConn
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewManager() *Manager {
	return &Manager{
		client: &http.Client{Timeout: 30 * time.Second},
		conns:  make(map[string]*wsConn),
	}
}

// Response is an HTTP response reduced to what an AWK builtin can
// return as scalars: the body text plus the status code. The
// http_get/http_post builtins return the body and store the status in
// the HTTPSTATUS global.
type Response struct {
	Status int
	Body   string
}

func (m *Manager) Get(url string, headers map[string]string) (Response, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return Response{}, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return m.do(req)
}

func (m *Manager) Post(url, body, contentType string, headers map[string]string) (Response, error) {
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return m.do(req)
}

func (m *Manager) do(req *http.Request) (Response, error) {
	resp, err := m.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: resp.StatusCode, Body: string(body)}, nil
}

// WSOpen dials a WebSocket endpoint and registers it under id,
// replacing any prior connection of the same id.
func (m *Manager) WSOpen(id, url string) error {
	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second
	c, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("wsopen %s: %w", id, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, exists := m.conns[id]; exists {
		old.conn.Close()
	}
	m.conns[id] = &wsConn{conn: c}
	return nil
}

func (m *Manager) get(id string) (*wsConn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return nil, fmt.Errorf("no open websocket %q", id)
	}
	return c, nil
}

func (m *Manager) WSSend(id, message string) error {
	c, err := m.get(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// WSRecv blocks for one message up to timeout.
func (m *Manager) WSRecv(id string, timeout time.Duration) (string, error) {
	c, err := m.get(id)
	if err != nil {
		return "", err
	}
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (m *Manager) WSClose(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[id]
	if !ok {
		return fmt.Errorf("no open websocket %q", id)
	}
	delete(m.conns, id)
	return c.conn.Close()
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.conns {
		c.conn.Close()
		delete(m.conns, id)
	}
}
