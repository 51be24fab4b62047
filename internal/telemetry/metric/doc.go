// Package metric exposes stmkit metrics in Prometheus format.
//
// A Registry owns its own prometheus.Registry with the Go and process
// collectors, and provides observer adapters for the cell, stm and agent
// packages:
//
//	reg := metric.NewRegistry()
//	rt := stm.NewRuntime(stm.WithObserver(reg.STM()))
//	d := agent.NewDispatcher(agent.WithObserver(reg.Agent()))
//	_ = reg.Register(metric.NewDispatcherCollector(d))
//	http.Handle("/metrics", reg.Handler())
package metric
