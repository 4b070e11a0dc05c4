// Command atlas-bridge drives the Flight Health Atlas web application on
// behalf of an MCP client, or directly from the terminal.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
