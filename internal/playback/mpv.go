package playback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"
)

type mpvCommand struct {
	Command   []interface{} `json:"command"`
	RequestID int           `json:"request_id,omitempty"`
}

type mpvResponse struct {
	Data      interface{} `json:"data"`
	RequestID int         `json:"request_id"`
	Error     string      `json:"error"`
}

type mpvEvent struct {
	Event string `json:"event"`
}

// MPVElement drives a single mpv process over its JSON IPC socket and
// adapts it to the Element contract. mpv runs in idle mode so switching
// sources never restarts the process.
type MPVElement struct {
	mu         sync.Mutex
	proc       mpvProcess
	socketPath string
	position   float64
	duration   float64
	metaOK     bool
	metaCh     chan struct{}
	ticks      chan float64
	eventConn  net.Conn
	stopCh     chan struct{}
	closed     bool
}

// mpvProcess abstracts the launched process for teardown.
type mpvProcess interface {
	Kill() error
	Wait() error
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Kill() error { return p.cmd.Process.Kill() }
func (p *execProcess) Wait() error { return p.cmd.Wait() }

// startMPV launches mpv in idle mode with the IPC socket enabled.
func startMPV(socketPath string) (mpvProcess, error) {
	cmd := exec.Command("mpv",
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--input-ipc-server="+socketPath,
	)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

// NewMPVElement starts mpv in idle mode and connects the event stream. The
// binary must be on PATH.
func NewMPVElement() (*MPVElement, error) {
	e := &MPVElement{
		socketPath: fmt.Sprintf("/tmp/podboard-mpv-%d", os.Getpid()),
		metaCh:     make(chan struct{}),
		ticks:      make(chan float64, 1),
		stopCh:     make(chan struct{}),
	}

	// Clean up any stale socket from a previous run
	os.Remove(e.socketPath)

	proc, err := startMPV(e.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}
	e.proc = proc

	// Wait for mpv to create the socket with timeout
	socketReady := false
	for i := 0; i < 20; i++ {
		if _, err := os.Stat(e.socketPath); err == nil {
			socketReady = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !socketReady {
		proc.Kill()
		proc.Wait()
		return nil, fmt.Errorf("mpv socket not created after timeout")
	}

	if err := e.startEventListener(); err != nil {
		log.Printf("Warning: failed to start mpv event listener: %v", err)
	}
	go e.watchProgress()

	log.Println("mpv started in idle mode, ready for playback")
	return e, nil
}

// Load switches mpv to a new source without restarting the process and
// resets the metadata-ready signal for the new file.
func (e *MPVElement) Load(source string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("element closed")
	}
	e.metaOK = false
	e.metaCh = make(chan struct{})
	e.position = 0
	e.duration = 0
	e.mu.Unlock()

	resp, err := e.sendCommand(mpvCommand{Command: []interface{}{"loadfile", source}})
	if err != nil {
		return fmt.Errorf("loadfile failed: %w", err)
	}
	if resp != nil && resp.Error != "" && resp.Error != "success" {
		return fmt.Errorf("loadfile returned: %s", resp.Error)
	}
	return nil
}

// HasMetadata reports whether the current file's metadata has loaded.
func (e *MPVElement) HasMetadata() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metaOK
}

// MetadataReady returns the channel closed when the current file's metadata
// arrives. Load replaces it.
func (e *MPVElement) MetadataReady() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metaCh
}

// SetPosition seeks to an absolute position in seconds.
func (e *MPVElement) SetPosition(seconds int) error {
	if seconds < 0 {
		seconds = 0
	}
	if _, err := e.sendCommand(mpvCommand{Command: []interface{}{"seek", seconds, "absolute"}}); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// Play resumes playback.
func (e *MPVElement) Play() error {
	if _, err := e.sendCommand(mpvCommand{Command: []interface{}{"set_property", "pause", false}}); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}
	return nil
}

// Pause pauses playback.
func (e *MPVElement) Pause() error {
	if _, err := e.sendCommand(mpvCommand{Command: []interface{}{"set_property", "pause", true}}); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	return nil
}

// Position returns the last observed playback position in seconds.
func (e *MPVElement) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Duration returns the current file's duration in seconds, 0 when unknown.
func (e *MPVElement) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

// Ticks delivers the advancing playback position roughly once per second.
func (e *MPVElement) Ticks() <-chan float64 {
	return e.ticks
}

// Close stops the watchers and shuts mpv down.
func (e *MPVElement) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.stopCh)
	if e.eventConn != nil {
		e.eventConn.Close()
		e.eventConn = nil
	}
	e.mu.Unlock()

	e.sendCommand(mpvCommand{Command: []interface{}{"quit"}})

	if e.proc != nil {
		done := make(chan error, 1)
		go func() { done <- e.proc.Wait() }()
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			log.Printf("Force killing mpv process")
			if err := e.proc.Kill(); err != nil {
				log.Printf("Error killing mpv process: %v", err)
			}
			<-done
		}
	}

	// The socket file can linger while the process exits
	for i := 0; i < 3; i++ {
		if err := os.Remove(e.socketPath); err == nil || os.IsNotExist(err) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// sendCommand sends one command over a fresh IPC connection.
func (e *MPVElement) sendCommand(cmd mpvCommand) (*mpvResponse, error) {
	conn, err := net.Dial("unix", e.socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mpv socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(2 * time.Second))

	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal command: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write command: %w", err)
	}

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		var response mpvResponse
		if err := json.Unmarshal(line, &response); err != nil {
			continue // interleaved event lines are not responses
		}
		if response.Error == "" {
			continue
		}
		if response.Error != "success" {
			return &response, fmt.Errorf("mpv error: %s", response.Error)
		}
		return &response, nil
	}
}

// startEventListener subscribes to the mpv event stream; file-loaded drives
// the metadata-ready signal.
func (e *MPVElement) startEventListener() error {
	conn, err := net.Dial("unix", e.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect for events: %w", err)
	}
	e.mu.Lock()
	e.eventConn = conn
	e.mu.Unlock()
	go e.handleEvents(conn)
	return nil
}

func (e *MPVElement) handleEvents(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		conn.SetReadDeadline(time.Now().Add(250 * time.Millisecond))
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			log.Printf("mpv event reader error: %v", err)
			return
		}

		var event mpvEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue // skip malformed events
		}

		switch event.Event {
		case "file-loaded":
			e.mu.Lock()
			if !e.metaOK {
				e.metaOK = true
				close(e.metaCh)
			}
			e.mu.Unlock()
		case "end-file":
			e.mu.Lock()
			if e.duration > 0 {
				e.position = e.duration
			}
			final := e.position
			e.mu.Unlock()
			select {
			case e.ticks <- final:
			default:
			}
		}
	}
}

// watchProgress polls mpv for position and duration and forwards playback
// ticks. Dropped ticks are fine; consumers only care about the latest.
func (e *MPVElement) watchProgress() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			if resp, err := e.sendCommand(mpvCommand{Command: []interface{}{"get_property", "time-pos"}}); err == nil {
				if pos, ok := resp.Data.(float64); ok && pos >= 0 {
					e.mu.Lock()
					e.position = pos
					e.mu.Unlock()
				}
			}
			if resp, err := e.sendCommand(mpvCommand{Command: []interface{}{"get_property", "duration"}}); err == nil {
				if dur, ok := resp.Data.(float64); ok && dur > 0 {
					e.mu.Lock()
					e.duration = dur
					e.mu.Unlock()
				}
			}

			e.mu.Lock()
			pos := e.position
			meta := e.metaOK
			e.mu.Unlock()
			if meta {
				select {
				case e.ticks <- pos:
				default:
				}
			}
		}
	}
}
