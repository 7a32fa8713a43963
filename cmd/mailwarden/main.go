// mailwarden is an intent-alignment guardrail for email agents. It sits
// between a user's natural-language request and the action an agent
// proposes, and rejects actions that do not match the user's intent.
package main

import "github.com/ppiankov/mailwarden/internal/cli"

func main() {
	cli.Execute()
}
