package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/PeladoCollado/requester/requester/logger"
)

const stopCommand = "stop"

type stopReason string

const (
	reasonOperator   stopReason = "operator stop command"
	reasonEndOfInput stopReason = "end of operator input"
	reasonSignal     stopReason = "signal"
	reasonExhausted  stopReason = "all quotas exhausted"
)

// watchOperator reads commands one line at a time until the stop command
// (matched case-insensitively) or the end of input, and reports which one
// ended it. Other lines are answered with a hint on out.
func watchOperator(in io.Reader, out io.Writer) stopReason {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		command := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(command, stopCommand) {
			return reasonOperator
		}
		if command != "" {
			fmt.Fprintf(out, "Unknown command %q. Type 'stop' to stop the workers.\n", command)
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Logger.Warnw("Unable to read operator input", "error", err)
	}
	return reasonEndOfInput
}
