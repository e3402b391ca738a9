//go:build !windows

package pty

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"
)

// unixPTY wraps the master side of a Unix pseudo-terminal.
type unixPTY struct {
	master *os.File
}

func (p *unixPTY) Read(b []byte) (int, error) {
	return p.master.Read(b)
}

func (p *unixPTY) Write(b []byte) (int, error) {
	return p.master.Write(b)
}

func (p *unixPTY) Close() error {
	return p.master.Close()
}

func (p *unixPTY) Fd() uintptr {
	return p.master.Fd()
}

func (p *unixPTY) Resize(rows, cols uint16) error {
	ws := &unix.Winsize{Row: rows, Col: cols}
	return unix.IoctlSetWinsize(int(p.master.Fd()), unix.TIOCSWINSZ, ws)
}

// Start opens a fresh pseudo-terminal pair and starts the child on its slave
// side, with the slave as the controlling terminal.
func Start(opts StartOptions) (*Process, error) {
	if len(opts.Argv) == 0 {
		return nil, errors.New("empty argument vector")
	}

	master, slave, err := openPTY()
	if err != nil {
		return nil, fmt.Errorf("failed to open PTY: %w", err)
	}

	if opts.InitialRows > 0 && opts.InitialCols > 0 {
		ws := &unix.Winsize{Row: opts.InitialRows, Col: opts.InitialCols}
		if err := unix.IoctlSetWinsize(int(master.Fd()), unix.TIOCSWINSZ, ws); err != nil {
			master.Close()
			slave.Close()
			return nil, fmt.Errorf("failed to set window size: %w", err)
		}
	}

	cmd := exec.Command(opts.Argv[0], opts.Argv[1:]...)
	cmd.Env = opts.Env
	if cmd.Env == nil {
		cmd.Env = os.Environ()
	}
	cmd.Dir = opts.Dir

	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	if err := cmd.Start(); err != nil {
		master.Close()
		slave.Close()
		return nil, fmt.Errorf("failed to start process: %w", err)
	}

	// The child holds its own copy of the slave descriptor.
	slave.Close()

	return &Process{
		PTY: &unixPTY{master: master},
		Cmd: cmd,
		pid: cmd.Process.Pid,
	}, nil
}

// Wait blocks until the child exits and returns its exit status. A child
// killed by a signal maps to 128 plus the signal number, so the status is
// always a plain integer.
func (p *Process) Wait() (int, error) {
	err := p.Cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// openPTY allocates a master/slave pair via /dev/ptmx.
func openPTY() (master, slave *os.File, err error) {
	master, err = os.OpenFile("/dev/ptmx", os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open /dev/ptmx: %w", err)
	}

	name, err := ptsname(master)
	if err != nil {
		master.Close()
		return nil, nil, fmt.Errorf("failed to get slave name: %w", err)
	}

	if err := unlockpt(master); err != nil {
		master.Close()
		return nil, nil, fmt.Errorf("failed to unlock PTY: %w", err)
	}

	slave, err = os.OpenFile(name, os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		master.Close()
		return nil, nil, fmt.Errorf("failed to open slave PTY: %w", err)
	}

	return master, slave, nil
}

func ptsname(master *os.File) (string, error) {
	var n uint32
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, master.Fd(), syscall.TIOCGPTN, uintptr(unsafe.Pointer(&n)))
	if errno != 0 {
		return "", errno
	}
	return fmt.Sprintf("/dev/pts/%d", n), nil
}

func unlockpt(master *os.File) error {
	var unlock int32
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, master.Fd(), syscall.TIOCSPTLCK, uintptr(unsafe.Pointer(&unlock)))
	if errno != 0 {
		return errno
	}
	return nil
}
