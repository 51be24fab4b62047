// Package agent provides asynchronous agents: values that change only by
// applying actions sent to them, one at a time and in send order.
//
// Send never blocks. Actions are queued in the agent's mailbox and applied
// by a Dispatcher, which runs CPU-class actions on a fixed worker pool and
// I/O-class actions on their own goroutines. Only one action of an agent
// is in flight at a time; actions of different agents run in parallel and
// are not ordered against each other.
//
// Error modes:
//
//   - ModeFail: the first failure stops the agent. Sends are rejected with
//     ErrAgentFailed until Restart.
//   - ModeContinue: the failed result is discarded and the mailbox keeps
//     draining.
//
// The error handler, if set, is called for every failure in either mode.
//
// Usage:
//
//	d := agent.NewDispatcher()
//	defer d.Shutdown(ctx)
//
//	log, _ := agent.New(d, []string(nil))
//	log.SendIO(func(lines []string) ([]string, error) {
//		return append(lines, "opened"), nil
//	})
//	err := log.AwaitFor(time.Second)
package agent
