package engine

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/fitrepo/fit/internal/vcs"
)

// runPipeline connects producer stdout to consumer stdin and runs both
// to completion. Nothing is buffered beyond the pipe itself, so memory
// stays bounded no matter how large the streamed history is.
//
// Failure contract:
//   - The consumer's exit status decides success.
//   - A producer failure must still abort the transfer: the producer's
//     stdout closes when it exits (Wait releases the pipe), the
//     consumer drains the partial stream, and the pipeline waits on it
//     before reporting the producer's error. The consumer is never
//     left hanging on a half-open pipe.
//
// There is no mid-stream cancellation; an interrupted transfer is
// simply an aborted sync, retried from the last recorded mark.
func runPipeline(producer, consumer *exec.Cmd, producerErrBuf, consumerErrBuf *bytes.Buffer) error {
	pipe, err := producer.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open producer pipe: %w", err)
	}
	consumer.Stdin = pipe

	if err := producer.Start(); err != nil {
		return toolErr(producer, producerErrBuf, err)
	}
	if err := consumer.Start(); err != nil {
		// The producer is already running; reap it before returning.
		_ = producer.Process.Kill()
		_ = producer.Wait()
		return toolErr(consumer, consumerErrBuf, err)
	}

	// Wait on the producer first: its exit closes the pipe and lets
	// the consumer see EOF even when the producer failed partway.
	producerErr := producer.Wait()
	consumerErr := consumer.Wait()

	if consumerErr != nil {
		return toolErr(consumer, consumerErrBuf, consumerErr)
	}
	if producerErr != nil {
		return toolErr(producer, producerErrBuf, producerErr)
	}
	return nil
}

// toolErr wraps a pipeline process failure as a vcs.ToolError carrying
// the captured stderr.
func toolErr(cmd *exec.Cmd, stderr *bytes.Buffer, err error) error {
	tool := cmd.Path
	args := cmd.Args
	if len(args) > 0 {
		tool = args[0]
		args = args[1:]
	}
	return vcs.NewToolError(tool, args, strings.TrimSpace(stderr.String()), err)
}
