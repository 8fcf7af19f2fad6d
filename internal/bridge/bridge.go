package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"os/exec"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/phaseq/mwtest/internal/runner"
)

// Bridge owns the child helper process, the loopback connection to it, and
// the shared, append-only registry of issued commands the issuer and
// collector goroutines coordinate through.
type Bridge struct {
	conn   net.Conn
	helper *exec.Cmd
	logger *zap.SugaredLogger

	mu     sync.Mutex
	issued []runner.TestInstance
}

// Launch starts helperPath as a child process connected back to a fresh
// loopback listener: listen first, then spawn, then accept. helperArgs are
// appended before the "client <addr>" arguments the helper expects on its
// own command line.
func Launch(ctx context.Context, helperPath string, helperArgs []string, logger *zap.SugaredLogger) (*Bridge, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, &runner.BridgeFatal{Cause: err}
	}
	defer listener.Close()

	addr := listener.Addr().String()
	args := append(append([]string{}, helperArgs...), "client", addr)
	cmd := exec.CommandContext(ctx, helperPath, args...)
	logger.Infow("launching remote execution helper", "path", helperPath, "addr", addr)
	if err := cmd.Start(); err != nil {
		return nil, &runner.BridgeFatal{Cause: err}
	}

	conn, err := listener.Accept()
	if err != nil {
		_ = cmd.Process.Kill()
		return nil, &runner.BridgeFatal{Cause: err}
	}

	return &Bridge{conn: conn, helper: cmd, logger: logger}, nil
}

// NewForTest builds a Bridge around an already-connected net.Conn, skipping
// Launch's listen-then-spawn handshake. It exists so the issuer/collector
// logic can be exercised against a fake child without a real helper binary.
func NewForTest(conn net.Conn, logger *zap.SugaredLogger) *Bridge {
	return &Bridge{conn: conn, logger: logger}
}

// RunForTest drives the issuer and collector the same way Run does, but
// without a helper process to wait on afterward.
func (b *Bridge) RunForTest(tasks <-chan runner.TestInstance, results chan<- runner.ResultMessage) error {
	eg := errgroup.Group{}
	eg.Go(func() error { return b.issue(tasks) })
	eg.Go(func() error { return b.collect(results) })
	return eg.Wait()
}

// Run drives the issuer and collector until tasks is closed and the child
// signals end of stream, publishing one ResultMessage per response onto
// results and cleaning up each instance's scratch directory afterward.
// Run blocks until both goroutines finish, then waits for the child helper
// to exit.
func (b *Bridge) Run(tasks <-chan runner.TestInstance, results chan<- runner.ResultMessage) error {
	eg := errgroup.Group{}

	eg.Go(func() error {
		return b.issue(tasks)
	})
	eg.Go(func() error {
		return b.collect(results)
	})

	if err := eg.Wait(); err != nil {
		_ = b.helper.Process.Kill()
		return &runner.BridgeFatal{Cause: err}
	}

	if err := b.helper.Wait(); err != nil {
		b.logger.Warnw("remote execution helper exited with an error", "error", err)
	}
	return nil
}

func (b *Bridge) issue(tasks <-chan runner.TestInstance) error {
	defer b.closeWrite()

	enc := json.NewEncoder(b.conn)
	for instance := range tasks {
		req := b.register(instance)
		if err := enc.Encode(req); err != nil {
			return err
		}
	}
	_, err := b.conn.Write([]byte(doneLine + "\n"))
	return err
}

// register appends instance to the issued-commands registry under the
// mutex and builds its Request, so the id handed to the child always
// matches the registry slot the collector will later read.
func (b *Bridge) register(instance runner.TestInstance) Request {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uint64(len(b.issued))
	b.issued = append(b.issued, instance)
	return Request{
		ID:      id,
		Title:   instance.TestID.ID,
		Cwd:     instance.Command.Cwd,
		Command: instance.Command.Argv,
		Local:   false,
	}
}

func (b *Bridge) lookup(id uint64) (runner.TestInstance, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id >= uint64(len(b.issued)) {
		return runner.TestInstance{}, false
	}
	return b.issued[id], true
}

func (b *Bridge) collect(results chan<- runner.ResultMessage) error {
	scanner := bufio.NewScanner(b.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, doneLine) {
			return nil
		}
		if !strings.HasPrefix(line, responsePrefix) {
			continue // malformed/unrecognized line, ignored silently
		}

		var resp Response
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, responsePrefix)), &resp); err != nil {
			continue // malformed line, ignored silently
		}

		instance, ok := b.lookup(resp.ID)
		if !ok {
			continue
		}

		results <- runner.ResultMessage{
			Instance: instance,
			Result:   runner.Result{ExitCode: resp.ExitCode, CombinedOutput: resp.Stdout},
		}
		if err := instance.Cleanup(); err != nil {
			b.logger.Warnw("failed to clean up scratch directory after remote run",
				"scratch_dir", instance.Command.ScratchDir, "error", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return nil // EOF before "mwt done": caller's watchdog will notice the shortfall.
}

func (b *Bridge) closeWrite() {
	if tcpConn, ok := b.conn.(*net.TCPConn); ok {
		_ = tcpConn.CloseWrite()
		return
	}
	_ = b.conn.Close()
}
