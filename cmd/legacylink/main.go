// Command legacylink runs the LegacyLink server and its operator tasks.
//
// Without a subcommand it serves gRPC and metrics and runs the release sweep
// on a schedule. Server settings come from defaults, an optional JSON file
// (-c) and short flags such as -d for the database DSN; see the config
// package for the full list.
//
//	legacylink -d postgres://... -a :50051
//	legacylink migrate
//	legacylink sweep
//	legacylink owner add --name Ann --email ann@example.com
//	legacylink token --owner 3f6c...
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
