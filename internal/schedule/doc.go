// Package schedule runs periodic work on an injectable clock.
//
// A Task calls its function immediately and then once per interval on a
// single goroutine, so a slow run delays the next one but never overlaps
// with it. Cancel stops future runs without interrupting a run in progress.
// Tests drive the schedule with clock.NewMock().
package schedule
