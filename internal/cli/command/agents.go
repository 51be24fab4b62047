package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/stmkit/pkg/agent"
)

// AgentsCommand walks through agent ordering, failure and restart.
func AgentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "agents",
		Usage: "Demonstrate agent ordering, fail mode, restart and continue mode",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "fanout",
				Usage: "Agents incremented concurrently in the await-all step",
				Value: 4,
			},
		},
		Action: runAgents,
	}
}

type agentStep struct {
	Step  string `json:"step" yaml:"step"`
	Value string `json:"value" yaml:"value"`
	OK    bool   `json:"ok" yaml:"ok"`
}

var errBoom = errors.New("boom")

func inc(n int) (int, error) { return n + 1, nil }

func fail(int) (int, error) { return 0, errBoom }

func appendAction(s string) agent.Action[[]string] {
	return func(v []string) ([]string, error) {
		return append(slices.Clip(v), s), nil
	}
}

func runAgents(c *cli.Context) error {
	e, err := envFrom(c)
	if err != nil {
		return err
	}
	d := e.dispatcher(nil)
	defer d.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(c.Context, e.cfg.Agent.AwaitTimeout)
	defer cancel()

	var steps []agentStep
	for _, walk := range []func(context.Context, *agent.Dispatcher, int) (agentStep, error){
		walkOrdering,
		walkAwaitAll,
		walkFailRestart,
		walkContinue,
	} {
		step, err := walk(ctx, d, c.Int("fanout"))
		if err != nil {
			return fmt.Errorf("%s: %w", step.Step, err)
		}
		steps = append(steps, step)
	}

	if err := e.render(c.App.Writer, steps); err != nil {
		return err
	}
	for _, s := range steps {
		if !s.OK {
			return checkFailed("step %s produced %s", s.Step, s.Value)
		}
	}
	return nil
}

// walkOrdering sends f1 and f3 as CPU actions and f2 as an I/O action.
// They must apply in send order.
func walkOrdering(ctx context.Context, d *agent.Dispatcher, _ int) (agentStep, error) {
	step := agentStep{Step: "ordering"}
	a, err := agent.New(d, []string(nil), agent.WithName[[]string]("ordering"))
	if err != nil {
		return step, err
	}
	if err := a.Send(appendAction("f1")); err != nil {
		return step, err
	}
	if err := a.SendIO(appendAction("f2")); err != nil {
		return step, err
	}
	if err := a.Send(appendAction("f3")); err != nil {
		return step, err
	}
	if err := a.Await(ctx); err != nil {
		return step, err
	}
	got := a.Deref()
	step.Value = fmt.Sprint(got)
	step.OK = slices.Equal(got, []string{"f1", "f2", "f3"})
	return step, nil
}

// walkAwaitAll increments several agents in parallel and awaits them
// together.
func walkAwaitAll(ctx context.Context, d *agent.Dispatcher, fanout int) (agentStep, error) {
	const sends = 100
	step := agentStep{Step: "await-all"}
	fanout = max(fanout, 1)

	agents := make([]*agent.Agent[int], fanout)
	waiters := make([]agent.Awaiter, fanout)
	for i := range agents {
		a, err := agent.New(d, 0, agent.WithName[int](fmt.Sprintf("counter-%d", i)))
		if err != nil {
			return step, err
		}
		agents[i], waiters[i] = a, a
	}
	for range sends {
		for _, a := range agents {
			if err := a.Send(inc); err != nil {
				return step, err
			}
		}
	}
	if err := agent.AwaitAll(ctx, waiters...); err != nil {
		return step, err
	}

	values := make([]int, fanout)
	step.OK = true
	for i, a := range agents {
		values[i] = a.Deref()
		step.OK = step.OK && values[i] == sends
	}
	step.Value = fmt.Sprint(values)
	return step, nil
}

// walkFailRestart fails a Fail-mode agent, checks that it rejects sends,
// then restarts it.
func walkFailRestart(ctx context.Context, d *agent.Dispatcher, _ int) (agentStep, error) {
	step := agentStep{Step: "fail-restart"}
	a, err := agent.New(d, 0,
		agent.WithName[int]("strict"),
		agent.WithMode[int](agent.ModeFail),
	)
	if err != nil {
		return step, err
	}
	if err := a.Send(inc); err != nil {
		return step, err
	}
	if err := a.Send(fail); err != nil {
		return step, err
	}

	awaitErr := a.Await(ctx)
	sendErr := a.Send(inc)
	failedValue := a.Deref()
	stopped := awaitErr == nil &&
		errors.Is(sendErr, agent.ErrAgentFailed) &&
		errors.Is(a.Error(), errBoom)

	if err := a.Restart(10); err != nil {
		return step, err
	}
	if err := a.Send(inc); err != nil {
		return step, err
	}
	if err := a.Await(ctx); err != nil {
		return step, err
	}

	step.Value = fmt.Sprintf("failed at %d, restarted to %d", failedValue, a.Deref())
	step.OK = stopped && failedValue == 1 && a.Deref() == 11 && a.Error() == nil
	return step, nil
}

// walkContinue fails one action of a Continue-mode agent. The handler sees
// the error and the remaining actions still apply.
func walkContinue(ctx context.Context, d *agent.Dispatcher, _ int) (agentStep, error) {
	step := agentStep{Step: "continue"}
	var handled atomic.Int32
	a, err := agent.New(d, 0,
		agent.WithName[int]("lenient"),
		agent.WithErrorHandler[int](func(_ *agent.Agent[int], err error) {
			if errors.Is(err, errBoom) {
				handled.Add(1)
			}
		}),
	)
	if err != nil {
		return step, err
	}
	for _, action := range []agent.Action[int]{inc, fail, inc} {
		if err := a.Send(action); err != nil {
			return step, err
		}
	}
	if err := a.Await(ctx); err != nil {
		return step, err
	}

	step.Value = fmt.Sprintf("value %d, %d handled", a.Deref(), handled.Load())
	step.OK = a.Deref() == 2 && handled.Load() == 1
	return step, nil
}
