package worker

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"

	"github.com/relaykit/mediator/config"
	"github.com/relaykit/mediator/errors"
)

// terminateSignal is the soft-terminate signal sent before a worker is
// forcibly killed (§4.1 Terminate).
const terminateSignal = syscall.SIGTERM

// ptySession wraps one subprocess attached to a PTY master. Reads go
// through Read(), writes (worker stdin) through Write().
type ptySession struct {
	cmd *exec.Cmd
	ptm *os.File
}

// startPTY launches command under a PTY. ExecutionModeSubprocessInShell
// wraps it in $SHELL -c so a worker's command_template can use shell
// features (pipes, globs); ExecutionModeNative execs it directly.
func startPTY(mode, workingDir string, env []string, commandTemplate []string) (*ptySession, error) {
	if len(commandTemplate) == 0 {
		return nil, errors.Wrap(errors.ErrSpawnFailed, "worker: empty command template")
	}

	var cmd *exec.Cmd
	switch mode {
	case config.ExecutionModeSubprocessInShell:
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
		cmd = exec.Command(shell, "-c", joinArgs(commandTemplate))
	default:
		cmd = exec.Command(commandTemplate[0], commandTemplate[1:]...)
	}

	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color")

	ptm, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 40, Cols: 200})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrSpawnFailed, "worker: pty start: %v", err)
	}

	return &ptySession{cmd: cmd, ptm: ptm}, nil
}

func joinArgs(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

// Write sends bytes to the subprocess's stdin via the PTY master.
func (p *ptySession) Write(b []byte) (int, error) {
	return p.ptm.Write(b)
}

// Read reads subprocess output from the PTY master.
func (p *ptySession) Read(b []byte) (int, error) {
	return p.ptm.Read(b)
}

// Close closes the PTY master and kills the subprocess if still alive.
func (p *ptySession) Close() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	return p.ptm.Close()
}

// pid returns the subprocess's OS process ID, used by the performance
// sampler to attach gopsutil to the right process.
func (p *ptySession) pid() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// wait blocks until the subprocess exits and returns its exit code.
func (p *ptySession) wait() (exitCode int, err error) {
	err = p.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// signalTerminate sends SIGTERM (soft) to the subprocess.
func (p *ptySession) signalTerminate() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(terminateSignal)
}
