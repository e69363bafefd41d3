// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Quillbotics

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"golang.org/x/term"

	"github.com/quillbotics/servolink/pkg/lss"
)

// SerialTransport wraps a serial port. The port's native read timeout
// already matches the lss.Transport contract: (0, nil) when it elapses.
type SerialTransport struct {
	port serial.Port
}

func (s *SerialTransport) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialTransport) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialTransport) SetReadTimeout(timeout time.Duration) error {
	return s.port.SetReadTimeout(timeout)
}

func (s *SerialTransport) Close() error {
	return s.port.Close()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket bridge
var ErrConnectionClosed = fmt.Errorf("websocket connection closed")

// WebSocketTransport adapts a WebSocket bridge to the byte-stream transport
// contract. A pump goroutine reads messages into a channel so Read can honor
// the timeout set via SetReadTimeout without poisoning the connection with
// read deadlines.
type WebSocketTransport struct {
	conn        *websocket.Conn
	messages    chan []byte
	readErr     chan error
	buf         []byte
	bufOffset   int
	readTimeout time.Duration
	closed      bool
}

func newWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	w := &WebSocketTransport{
		conn:        conn,
		messages:    make(chan []byte, 16),
		readErr:     make(chan error, 1),
		readTimeout: lss.DefaultTimeout,
	}
	go w.pump()
	return w
}

// pump moves binary messages from the WebSocket into the message channel
// until the connection fails.
func (w *WebSocketTransport) pump() {
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr <- err
			close(w.messages)
			return
		}
		// The bridge relays raw bus bytes as binary messages; skip the rest
		if messageType != websocket.BinaryMessage {
			continue
		}
		w.messages <- data
	}
}

func (w *WebSocketTransport) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	// Drain buffered bytes from the previous message first
	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	timer := time.NewTimer(w.readTimeout)
	defer timer.Stop()

	select {
	case data, ok := <-w.messages:
		if !ok {
			w.closed = true
			select {
			case err := <-w.readErr:
				return 0, err
			default:
				return 0, ErrConnectionClosed
			}
		}
		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil

	case <-timer.C:
		// Read timeout elapsed with no data
		return 0, nil
	}
}

func (w *WebSocketTransport) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketTransport) SetReadTimeout(timeout time.Duration) error {
	w.readTimeout = timeout
	return nil
}

func (w *WebSocketTransport) Close() error {
	w.closed = true
	return w.conn.Close()
}

// OpenSerialTransport opens a serial port at 8N1
func OpenSerialTransport(portName string, baudRate int) (lss.Transport, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %v", portName, err)
	}

	return &SerialTransport{port: port}, nil
}

// OpenWebSocketTransport opens a WebSocket bridge connection with HTTP Basic auth
func OpenWebSocketTransport(wsURL, username, password string, skipSSLVerify bool) (lss.Transport, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %v", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		// OK
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %v", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %v", err)
	}

	return newWebSocketTransport(conn), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	// First check environment variable
	if pw := os.Getenv("SERVOLINK_PASSWORD"); pw != "" {
		return pw, nil
	}

	// Prompt user for password (hide input)
	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %v", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenTransport opens either a serial or WebSocket transport based on flags
func OpenTransport() (lss.Transport, string, error) {
	if wsURL != "" {
		password := ""
		if wsUsername != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		transport, err := OpenWebSocketTransport(wsURL, wsUsername, password, wsNoSSLVerify)
		if err != nil {
			return nil, "", err
		}

		return transport, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName != "" {
		transport, err := OpenSerialTransport(portName, baudRate)
		if err != nil {
			return nil, "", err
		}

		return transport, fmt.Sprintf("Serial: %s @ %d baud", portName, baudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// openExchanger opens a transport and wraps it in an exchange engine, with
// raw traffic tracing when --verbose is set.
func openExchanger() (*lss.Exchanger, string, error) {
	transport, connInfo, err := OpenTransport()
	if err != nil {
		return nil, "", err
	}

	cfg := lss.ExchangerConfig{
		Transport: transport,
		Timeout:   replyWait,
	}
	if verbose {
		cfg.Trace = func(dir lss.TraceDirection, data []byte) {
			log.Debug().Str("dir", dir.String()).Str("bytes", fmt.Sprintf("%q", data)).Msg("bus")
		}
	}

	ex, err := lss.NewExchanger(cfg)
	if err != nil {
		transport.Close()
		return nil, "", err
	}
	return ex, connInfo, nil
}

// openServo opens an exchanger and a handle for the --id servo
func openServo() (*lss.Servo, *lss.Exchanger, string, error) {
	ex, connInfo, err := openExchanger()
	if err != nil {
		return nil, nil, "", err
	}
	servo, err := lss.NewServo(ex, servoID)
	if err != nil {
		ex.Close()
		return nil, nil, "", err
	}
	return servo, ex, connInfo, nil
}
