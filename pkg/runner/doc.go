/*
Package runner implements the interaction loop and I/O orchestration for the step controller.

It acts as the bridge between the controller and the outside world. Interactive hosts
use Runner with a pluggable IOHandler (TextHandler for terminals, JSONHandler for NDJSON
pipes); request/response hosts (HTTP, MCP) use Sessions, which records what a single
controller call displayed. Both persist state through a session.Manager.

# Usage

	h := runner.NewTextHandler(os.Stdout, runner.WithTextHandlerReader(os.Stdin))
	defer h.Close()

	r := runner.NewRunner(controller,
		runner.WithInputHandler(h),
		runner.WithSessionID("user-1"),
	)
	if _, err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
