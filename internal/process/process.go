// Package process manages the external capture and recorder
// subprocesses: start, output streaming, graceful stop.
package process

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/framesync/framesync/internal/logging"
)

// OutputHandler receives output lines from the subprocess. The marker
// ingestor and the recorder progress parser implement it.
type OutputHandler interface {
	HandleLine(source, line string)
}

// LogParser parses a subprocess output line and returns the log level
// and message. nil means every line logs at info.
type LogParser func(line string) (level, msg string)

type exitReason int

const (
	exitReasonProcessExit exitReason = iota
	exitReasonShutdown
	exitReasonRestart
)

// Process manages the lifecycle of one subprocess.
type Process struct {
	id            string
	command       string
	commandMu     sync.RWMutex
	cmd           *exec.Cmd
	logger        logging.Logger
	processLogger logging.Logger // logger for subprocess output (nil = use logger)
	logParser     LogParser
	ctx           context.Context
	cancel        context.CancelFunc
	restartChan   chan string // receives new command for restart

	outputHandler   OutputHandler
	gracefulTimeout time.Duration // SIGINT grace before force kill
	killTimeout     time.Duration // wait after Kill() before giving up
}

// NewProcess creates a new process.
func NewProcess(id, command string, logger logging.Logger) *Process {
	return NewProcessWithOutput(id, command, logger, nil)
}

// NewProcessWithOutput creates a process whose stdout/stderr lines are
// handed to handler.
func NewProcessWithOutput(id, command string, logger logging.Logger, handler OutputHandler) *Process {
	ctx, cancel := context.WithCancel(context.Background())
	return &Process{
		id:              id,
		command:         command,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		restartChan:     make(chan string, 1),
		outputHandler:   handler,
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
	}
}

// SetLogParser sets a dedicated logger and parser for subprocess
// output lines.
func (p *Process) SetLogParser(logger logging.Logger, parser LogParser) {
	p.processLogger = logger
	p.logParser = parser
}

// RequestRestart requests a restart with a new command. Non-blocking:
// if a restart is already pending this is a no-op.
func (p *Process) RequestRestart(newCommand string) {
	select {
	case p.restartChan <- newCommand:
		p.logger.Info("Restart requested")
	default:
		p.logger.Warn("Restart already pending, ignoring")
	}
}

// Shutdown triggers a graceful shutdown of the process.
func (p *Process) Shutdown() {
	p.cancel()
}

// runningProcess holds channels for monitoring a running subprocess.
type runningProcess struct {
	processDone <-chan error
	outputDone  chan struct{} // receives twice, once per output stream
}

func (p *Process) startProcess(command string) (*runningProcess, error) {
	args, err := splitCommand(command)
	if err != nil {
		p.logger.Error("Failed to parse command", "error", err)
		return nil, err
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command")
	}

	p.cmd = exec.Command(args[0], args[1:]...)
	// Own process group so signals reach the whole pipeline.
	p.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	if err := p.cmd.Start(); err != nil {
		p.logger.Error("Failed to start process", "error", err, "command", command)
		return nil, err
	}

	p.logger.Info("Process started", "id", p.id, "pid", p.cmd.Process.Pid, "command", command)

	outputDone := make(chan struct{}, 2)
	go func() {
		p.streamOutput(stdout, "stdout")
		outputDone <- struct{}{}
	}()
	go func() {
		p.streamOutput(stderr, "stderr")
		outputDone <- struct{}{}
	}()

	processDone := make(chan error, 1)
	go func() {
		processDone <- p.cmd.Wait()
	}()

	return &runningProcess{processDone: processDone, outputDone: outputDone}, nil
}

func (p *Process) waitOutputDone(outputDone <-chan struct{}) {
	<-outputDone
	<-outputDone
}

// exitCodeFromError extracts the exit code from a Wait error.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// Run starts the subprocess and blocks until it exits or Shutdown is
// called. Returns the subprocess exit code.
func (p *Process) Run() int {
	rp, err := p.startProcess(p.command)
	if err != nil {
		return 1
	}
	defer p.waitOutputDone(rp.outputDone)

	select {
	case <-p.ctx.Done():
		p.logger.Info("Shutting down process", "id", p.id)
		p.sendStopSignal()
		return p.waitForExit(rp.processDone, p.gracefulTimeout)
	case processErr := <-rp.processDone:
		exitCode := exitCodeFromError(processErr)
		p.logger.Info("Process exited", "id", p.id, "exit_code", exitCode)
		return exitCode
	}
}

// RunWithRestart runs the subprocess and handles restart requests,
// looping until shutdown or an unexpected exit.
func (p *Process) RunWithRestart() int {
	for {
		exitCode, reason := p.runOnce()
		switch reason {
		case exitReasonShutdown:
			p.logger.Info("Shutdown complete", "exit_code", exitCode)
			return exitCode
		case exitReasonRestart:
			p.logger.Info("Restarting process")
			continue
		default:
			p.logger.Info("Process exited unexpectedly", "exit_code", exitCode)
			return exitCode
		}
	}
}

func (p *Process) runOnce() (int, exitReason) {
	p.commandMu.RLock()
	command := p.command
	p.commandMu.RUnlock()

	rp, err := p.startProcess(command)
	if err != nil {
		return 1, exitReasonProcessExit
	}
	defer p.waitOutputDone(rp.outputDone)

	select {
	case <-p.ctx.Done():
		p.sendStopSignal()
		return p.waitForExit(rp.processDone, p.gracefulTimeout), exitReasonShutdown

	case newCmd := <-p.restartChan:
		p.sendStopSignal()
		p.commandMu.Lock()
		p.command = newCmd
		p.commandMu.Unlock()
		return p.waitForExit(rp.processDone, p.gracefulTimeout), exitReasonRestart

	case processErr := <-rp.processDone:
		exitCode := exitCodeFromError(processErr)
		p.logger.Info("Process exited", "id", p.id, "exit_code", exitCode)
		return exitCode, exitReasonProcessExit
	}
}

// sendStopSignal sends SIGINT to the subprocess without waiting.
func (p *Process) sendStopSignal() {
	if p.cmd == nil || p.cmd.Process == nil {
		return
	}
	if err := p.cmd.Process.Signal(syscall.SIGINT); err != nil {
		p.logger.Warn("Failed to send SIGINT", "error", err)
	}
}

// waitForExit waits for exit with a timeout, force-killing if needed.
func (p *Process) waitForExit(processDone <-chan error, timeout time.Duration) int {
	select {
	case err := <-processDone:
		return exitCodeFromError(err)
	case <-time.After(timeout):
		p.logger.Warn("Graceful shutdown timeout, forcing kill", "timeout", timeout)
		if p.cmd.Process != nil {
			if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				p.logger.Error("Failed to kill process", "error", err)
			}
		}
		select {
		case <-processDone:
		case <-time.After(p.killTimeout):
			p.logger.Error("Process did not exit after kill signal")
		}
		return 137
	}
}

// streamOutput scans one output stream, feeding the handler and the
// process logger.
func (p *Process) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)

	logger := p.processLogger
	if logger == nil {
		logger = p.logger
	}

	for scanner.Scan() {
		line := scanner.Text()

		if p.outputHandler != nil {
			p.outputHandler.HandleLine(source, line)
		}

		level, msg := "info", line
		if p.logParser != nil {
			level, msg = p.logParser(line)
		}

		switch level {
		case "fatal", "error":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "debug", "trace":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		p.logger.Warn("Error reading output", "source", source, "error", err)
	}
}

// splitCommand splits a command string into argv, honoring quotes and
// backslash escapes.
func splitCommand(command string) ([]string, error) {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := rune(0)

	runes := []rune(strings.TrimSpace(command))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' || r == '\'':
			switch {
			case !inQuote:
				inQuote = true
				quoteChar = r
			case r == quoteChar:
				inQuote = false
				quoteChar = 0
			default:
				current.WriteRune(r)
			}
		case r == ' ' && !inQuote:
			if current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			}
		case r == '\\' && i+1 < len(runes):
			i++
			current.WriteRune(runes[i])
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		args = append(args, current.String())
	}
	if inQuote {
		return nil, fmt.Errorf("unclosed quote in command")
	}
	return args, nil
}
