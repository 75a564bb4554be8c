// Package engine implements a cooperative discrete-event scheduler driven by a
// single virtual clock measured in whole seconds.
//
// Processes are resumed one at a time. A resumed process runs until its next
// suspension point and returns how many ticks it wants to sleep. Processes that
// wake at the same instant run in the order they were spawned, which keeps runs
// of the same configuration reproducible.
package engine
