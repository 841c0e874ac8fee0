package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fieldmapper/src/directors"
	"fieldmapper/src/engine"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Welcome is the first line sent on every connection.
const Welcome = "fieldmapper ready"

// ErrOutsideDataDir is returned for file arguments that resolve outside the
// server's data directory.
var ErrOutsideDataDir = errors.New("path is outside the data directory")

// Server answers mapper commands over a line based TCP protocol. Every
// request is one line, every response is one JSON line.
//
//	ABILITIES <definition.json>
//	JSONSCHEMA <definition.json>
//	VALIDATE <definition.json> <document.json|document.bson>
//	QUERY <path> <operator> <value> [type=<elementType>] [definition=<file>]
//
// File arguments are resolved against DataDir and may not leave it.
type Server struct {
	Host        string
	Port        int
	IdleTimeout time.Duration
	DataDir     string

	listener          net.Listener
	activeConnections map[string]*Connection
	mu                sync.Mutex
	wg                sync.WaitGroup
	running           atomic.Bool
	manager           *directors.ServiceManager
	logger            *zap.SugaredLogger
}

// Connection represents an active client connection
type Connection struct {
	ID         string
	Conn       net.Conn
	Reader     *bufio.Reader
	Writer     *bufio.Writer
	LastActive time.Time
	Logger     *zap.SugaredLogger
}

// Response is the JSON envelope of every answer.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// NewServer creates a server reading files below dataDir, the working
// directory when dataDir is empty.
func NewServer(host string, port int, idleTimeout time.Duration, dataDir string, manager *directors.ServiceManager, logger *zap.SugaredLogger) *Server {
	if dataDir == "" {
		dataDir = "."
	}
	return &Server{
		Host:              host,
		Port:              port,
		IdleTimeout:       idleTimeout,
		DataDir:           dataDir,
		activeConnections: make(map[string]*Connection),
		manager:           manager,
		logger:            logger,
	}
}

// Start begins listening for incoming connections
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("error starting server on %s: %w", addr, err)
	}

	s.listener = listener
	s.running.Store(true)
	s.logger.Infof("fieldmapper server listening on %s", listener.Addr())

	go s.acceptConnections()
	return nil
}

// Addr returns the listen address once the server is started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every open connection, then waits for the
// connection handlers to return.
func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}

	err := s.listener.Close()

	// Connections are registered under mu after a running check, so every
	// accepted connection is either closed here or rejected by the loop.
	s.mu.Lock()
	for id, conn := range s.activeConnections {
		conn.Conn.Close()
		delete(s.activeConnections, id)
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("Server shutdown complete")
	return err
}

func (s *Server) acceptConnections() {
	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				s.logger.Errorw("Error accepting connection", "error", err)
			}
			continue
		}

		connection, ok := s.register(conn)
		if !ok {
			conn.Close()
			return
		}
		connection.Logger.Debug("New connection received")

		go func() {
			defer s.wg.Done()
			s.handleConnection(connection)
		}()
	}
}

// register records conn as active and adds it to the wait group. It
// refuses the connection once Stop has begun.
func (s *Server) register(conn net.Conn) (*Connection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return nil, false
	}

	connID := uuid.NewString()
	connection := &Connection{
		ID:         connID,
		Conn:       conn,
		Reader:     bufio.NewReader(conn),
		Writer:     bufio.NewWriter(conn),
		LastActive: time.Now(),
		Logger:     s.logger.With("connID", connID, "remoteAddr", conn.RemoteAddr().String()),
	}
	s.activeConnections[connID] = connection
	s.wg.Add(1)
	return connection, true
}

func (s *Server) handleConnection(connection *Connection) {
	conn := connection.Conn
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.activeConnections, connection.ID)
		s.mu.Unlock()
		connection.Logger.Debug("Connection closed")
	}()

	connection.Writer.WriteString(Welcome + "\n")
	connection.Writer.Flush()

	for {
		if s.IdleTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.IdleTimeout))
		}
		line, err := connection.Reader.ReadString('\n')
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				connection.Logger.Infof("Connection idle for %s, closing", s.IdleTimeout)
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		connection.LastActive = time.Now()
		connection.Logger.Debugw("Received from client", "data", line)

		if strings.EqualFold(line, "QUIT") {
			sendSuccess(connection.Writer, "bye")
			return
		}

		result, err := s.ProcessCommand(line)
		if err != nil {
			sendError(connection.Writer, err)
			continue
		}
		sendResult(connection.Writer, result, connection.Logger)
	}
}

// ProcessCommand runs one protocol line through the directors.
func (s *Server) ProcessCommand(line string) (*directors.CommandResponse, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command")
	}
	command := strings.ToLower(parts[0])

	if command != "query" {
		args := parts[1:]
		switch command {
		case "abilities", "jsonschema", "validate":
			for i, arg := range args {
				path, err := s.resolvePath(arg)
				if err != nil {
					return nil, err
				}
				args[i] = path
			}
		}
		return directors.CommandDirector(s.manager, command, args, s.logger)
	}

	req, err := parseQueryRequest(parts[1:])
	if err != nil {
		return nil, err
	}
	if req.Definition != "" {
		if req.Definition, err = s.resolvePath(req.Definition); err != nil {
			return nil, err
		}
	}
	resp, err := directors.QueryDirector(s.manager, req)
	if err != nil {
		return nil, err
	}

	// Fragments travel as relaxed extended JSON so dates and numbers keep
	// their BSON types.
	if fragment, ok := resp.Result.(engine.QueryFragment); ok {
		rendered, err := engine.ExtJSON(fragment, false)
		if err != nil {
			return nil, err
		}
		resp.Result = json.RawMessage(rendered)
	}
	return resp, nil
}

// resolvePath maps a client supplied file name into DataDir. Relative names
// are joined to DataDir; absolute names must already lie below it.
func (s *Server) resolvePath(name string) (string, error) {
	root, err := filepath.Abs(s.DataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data directory %s: %w", s.DataDir, err)
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideDataDir, name)
	}
	return path, nil
}

func parseQueryRequest(args []string) (directors.QueryRequest, error) {
	req := directors.QueryRequest{ElementType: engine.TypeString}

	var positional []string
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		switch {
		case found && strings.EqualFold(key, "type"):
			req.ElementType = engine.ElementType(value)
		case found && strings.EqualFold(key, "definition"):
			req.Definition = value
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) < 3 {
		return req, fmt.Errorf("QUERY requires a path, an operator and a value")
	}
	req.Path = positional[0]
	req.Operator = positional[1]
	req.Value = strings.Join(positional[2:], " ")
	return req, nil
}

func sendError(writer *bufio.Writer, err error) {
	response := Response{Status: "error", Message: err.Error()}
	if errs := multierr.Errors(err); len(errs) > 1 {
		response.Message = fmt.Sprintf("%d errors", len(errs))
		for _, e := range errs {
			response.Errors = append(response.Errors, e.Error())
		}
	}
	writeResponse(writer, response)
}

func sendSuccess(writer *bufio.Writer, message string) {
	writeResponse(writer, Response{Status: "success", Message: message})
}

func sendResult(writer *bufio.Writer, result *directors.CommandResponse, logger *zap.SugaredLogger) {
	logger.Debugw("Sending result", "definitionId", result.DefinitionID, "resultCount", result.ResultCount)
	writeResponse(writer, Response{Status: "success", Result: result})
}

func writeResponse(writer *bufio.Writer, response Response) {
	data, err := json.Marshal(response)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"status":"error","message":%q}`, err.Error()))
	}
	writer.Write(data)
	writer.WriteString("\n")
	writer.Flush()
}
