// Package commands defines the scorectl CLI.
//
// Commands
//
//   - tally     Score a sequence of button presses offline and print the result
//   - show      Print the cached display state of a live session
//   - replay    Rebuild a session from the event ledger
//   - sessions  List recent sessions recorded in the ledger
//
// Redis and Postgres connections are opened by the commands that need them,
// so tally runs with no infrastructure at all.
package commands
