// Package fetchertest provides in-process servers for exercising fetchers,
// in the spirit of net/http/httptest.
package fetchertest

import (
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"
)

// FTPServer is a minimal passive-mode FTP server that serves files from memory.
// It speaks the subset a RETR needs: USER, PASS, TYPE, EPSV, RETR and QUIT.
// Anything else gets a 502, which clients treat as an unsupported extension.
type FTPServer struct {
	// Addr is the host:port the control connection listens on.
	Addr string

	files    map[string]string
	listener net.Listener
	done     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	conns    map[net.Conn]bool
	commands []string
	hold     chan struct{}
}

// NewFTPServer starts a server on 127.0.0.1 serving files keyed by absolute path.
// It is closed when the test finishes.
func NewFTPServer(t testing.TB, files map[string]string) *FTPServer {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("fetchertest: listen: %v", err)
	}
	s := &FTPServer{
		Addr:     l.Addr().String(),
		files:    files,
		listener: l,
		done:     make(chan struct{}),
		conns:    make(map[net.Conn]bool),
	}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// URL returns an ftp:// locator for path on this server.
func (s *FTPServer) URL(path string) string {
	return "ftp://" + s.Addr + path
}

// HoldTransfers makes every later RETR send its body and then keep the data
// connection open without the 226 reply, until release is called.
func (s *FTPServer) HoldTransfers() (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hold := make(chan struct{})
	s.hold = hold
	var once sync.Once
	return func() { once.Do(func() { close(hold) }) }
}

// Commands returns the command verbs received so far, in order.
func (s *FTPServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Received reports whether cmd arrives within the given wait.
func (s *FTPServer) Received(cmd string, within time.Duration) bool {
	deadline := time.Now().Add(within)
	for {
		for _, c := range s.Commands() {
			if c == cmd {
				return true
			}
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// Close stops the listener and drops every open connection.
func (s *FTPServer) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	s.listener.Close()

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *FTPServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		select {
		case <-s.done:
			s.mu.Unlock()
			conn.Close()
			return
		default:
		}
		s.conns[conn] = true
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *FTPServer) handle(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	var data net.Listener
	defer func() {
		if data != nil {
			data.Close()
		}
	}()

	tp := textproto.NewConn(conn)
	tp.PrintfLine("220 fetchertest ready")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		verb, arg, _ := strings.Cut(line, " ")
		verb = strings.ToUpper(verb)
		s.record(verb)

		switch verb {
		case "USER":
			tp.PrintfLine("331 password required")
		case "PASS":
			tp.PrintfLine("230 logged in")
		case "TYPE":
			tp.PrintfLine("200 type set to %s", arg)
		case "EPSV":
			if data != nil {
				data.Close()
			}
			data, err = net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				tp.PrintfLine("425 cannot open data connection")
				continue
			}
			tp.PrintfLine("229 Entering Extended Passive Mode (|||%d|)", data.Addr().(*net.TCPAddr).Port)
		case "RETR":
			s.retr(tp, data, arg)
			if data != nil {
				data.Close()
				data = nil
			}
		case "QUIT":
			tp.PrintfLine("221 bye")
			return
		default:
			tp.PrintfLine("502 %s not implemented", verb)
		}
	}
}

func (s *FTPServer) retr(tp *textproto.Conn, data net.Listener, path string) {
	body, ok := s.files[path]
	if !ok || data == nil {
		tp.PrintfLine("550 %s: no such file", path)
		return
	}
	dc, err := data.Accept()
	if err != nil {
		tp.PrintfLine("425 data connection failed")
		return
	}
	defer dc.Close()

	tp.PrintfLine("150 opening data connection for %s", path)
	io.WriteString(dc, body)

	s.mu.Lock()
	hold := s.hold
	s.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-s.done:
			return
		}
	}

	dc.Close()
	tp.PrintfLine("226 transfer complete")
}

func (s *FTPServer) record(verb string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, verb)
}
