package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/backmassage/squeeze/internal/planner"
)

// Status is the terminal state of one encode attempt.
type Status int

const (
	StatusSuccess   Status = iota // Output exists and is non-empty.
	StatusFailed                  // Child failed, stalled, or produced bad output.
	StatusCancelled               // Run-level interruption stopped the encode.
)

// Result is the executor's terminal report for one file. TempPath is always
// set once the child was started; ownership of the temp file passes to the
// validator with this value, whatever the status.
type Result struct {
	Status   Status
	TempPath string
	Bytes    int64  // Output size; only meaningful on StatusSuccess.
	Reason   string // Failure/cancellation detail for logging.
}

// Runner executes one ffmpeg child per call with the configured stall and
// cancellation policy.
type Runner struct {
	StallTimeout time.Duration // Fail when no progress line arrives for this long.
	GracePeriod  time.Duration // SIGINT-to-SIGKILL window on cancellation.
	OnProgress   func(Progress)
}

// Run encodes inputPath according to plan, writing to the candidate's
// temporary path. The child's progress stream is drained continuously so a
// full pipe can never stall the encode. Cancellation via ctx interrupts the
// child gracefully, escalating to SIGKILL after the grace period; a child
// that produces no progress within StallTimeout is killed and reported as
// failed.
func (r *Runner) Run(ctx context.Context, plan *planner.EncodePlan, inputPath, filters string) Result {
	tempPath := TempPath(inputPath)
	args := BuildArgs(plan, inputPath, tempPath, filters)

	cmd := exec.Command(args[0], args[1:]...)
	var stderr tailBuffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{Status: StatusFailed, TempPath: tempPath, Reason: "stdout pipe: " + err.Error()}
	}
	if err := cmd.Start(); err != nil {
		return Result{Status: StatusFailed, TempPath: tempPath, Reason: "start ffmpeg: " + err.Error()}
	}

	// The reader goroutine owns stdout until EOF; Wait runs only after it
	// finishes, per the os/exec pipe contract.
	lines := make(chan string, 64)
	readerDone := make(chan struct{})
	go func() {
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
		close(readerDone)
	}()

	waitErr := make(chan error, 1)
	go func() {
		<-readerDone
		waitErr <- cmd.Wait()
	}()

	stallTimeout := r.StallTimeout
	if stallTimeout <= 0 {
		stallTimeout = 5 * time.Minute
	}
	stall := time.NewTimer(stallTimeout)
	defer stall.Stop()

	var (
		prog      Progress
		cancelled bool
		stalled   bool
		killTimer *time.Timer
	)

	ctxDone := ctx.Done()
	for drain := lines; drain != nil; {
		select {
		case line, ok := <-drain:
			if !ok {
				drain = nil
				continue
			}
			resetTimer(stall, stallTimeout)
			if parseProgressLine(&prog, line) && r.OnProgress != nil {
				r.OnProgress(prog)
			}

		case <-ctxDone:
			ctxDone = nil // fires once; keep draining until the child exits
			cancelled = true
			killTimer = r.interrupt(cmd)

		case <-stall.C:
			stalled = true
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	err = <-waitErr
	if killTimer != nil {
		killTimer.Stop()
	}

	switch {
	case cancelled:
		return Result{Status: StatusCancelled, TempPath: tempPath, Reason: "interrupted"}
	case stalled:
		return Result{Status: StatusFailed, TempPath: tempPath,
			Reason: fmt.Sprintf("no progress for %s, child killed", stallTimeout)}
	case err != nil:
		return Result{Status: StatusFailed, TempPath: tempPath, Reason: failReason(err, stderr.String())}
	}

	fi, statErr := os.Stat(tempPath)
	if statErr != nil {
		return Result{Status: StatusFailed, TempPath: tempPath, Reason: "output missing after encode"}
	}
	if fi.Size() == 0 {
		return Result{Status: StatusFailed, TempPath: tempPath, Reason: "output is empty"}
	}
	return Result{Status: StatusSuccess, TempPath: tempPath, Bytes: fi.Size()}
}

// interrupt asks the child to finish gracefully and arms the SIGKILL
// escalation. The returned timer must be stopped once the child exits.
func (r *Runner) interrupt(cmd *exec.Cmd) *time.Timer {
	if cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
	}
	grace := r.GracePeriod
	if grace <= 0 {
		grace = 10 * time.Second
	}
	return time.AfterFunc(grace, func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	})
}

// resetTimer safely rearms a timer that may have fired or been stopped.
func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}

// failReason prefers the stderr tail over the bare exit error.
func failReason(err error, stderr string) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return err.Error()
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return err.Error() + ": " + strings.Join(lines, " | ")
}

// tailBuffer keeps the last few KiB written to it, so a chatty child can't
// grow the stderr capture without bound.
type tailBuffer struct {
	buf []byte
}

const tailBufferCap = 4096

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > tailBufferCap {
		t.buf = t.buf[len(t.buf)-tailBufferCap:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string { return string(t.buf) }
