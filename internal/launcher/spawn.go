package launcher

import (
	"os"
	"os/exec"
)

// ServerProcess is the handle to a spawned kuuzuki server. The launcher owns
// it exclusively until it is either detached on success or killed on timeout,
// so an unhealthy spawn is never orphaned.
type ServerProcess interface {
	Pid() int
	Kill() error
	Detach()
}

// SpawnFunc starts the server executable. Swapped in tests.
type SpawnFunc func(bin string) (ServerProcess, error)

// spawnServer launches the server with dynamic port allocation. The server
// picks a free port and records where it bound in its descriptor file; the
// poll loop rediscovers it from there.
func spawnServer(bin string) (ServerProcess, error) {
	cmd := exec.Command(bin, "--port", "0")
	// Headless mode: the server must not start its own TUI under a shell.
	cmd.Env = append(os.Environ(), "KUUZUKI_HEADLESS=1")
	// Server output goes to stderr; stdout is reserved for this process's
	// own command output.
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = sysProcAttr()
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd}, nil
}

type execProcess struct{ cmd *exec.Cmd }

func (p *execProcess) Pid() int { return p.cmd.Process.Pid }

func (p *execProcess) Kill() error {
	err := p.cmd.Process.Kill()
	go func() { _ = p.cmd.Wait() }()
	return err
}

// Detach stops supervising the process. The reaper goroutine prevents a
// zombie if the server exits after we let go of it.
func (p *execProcess) Detach() {
	go func() { _ = p.cmd.Wait() }()
}
