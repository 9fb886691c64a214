// Package sync reconciles the server library, the device media store and the
// local snapshot.
//
// Every public pass runs behind a FIFO gate, so at most one pass touches the
// snapshot at a time. Passes report whether anything changed. Storage and
// upstream failures are logged and reported as "no change"; rerunning a pass
// is always safe.
package sync
