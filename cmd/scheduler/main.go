// Command scheduler is the CLI entrypoint for the job scheduler: it
// manages persisted jobs (add/list/remove/status/enable/disable),
// triggers and backs up/restores them, and runs the long-lived daemon
// that actually drives the tick loop (serve).
package main

func main() {
	Execute()
}
