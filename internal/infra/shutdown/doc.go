// Package shutdown coordinates graceful process shutdown.
//
// A Handler waits for SIGINT, SIGTERM, a Trigger call or the end of the
// parent context, then runs the registered hooks in reverse order under
// a shared timeout:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("dispatcher", d.Shutdown)
//	go runLoad(h.Context())
//	err := h.Wait(ctx)
package shutdown
