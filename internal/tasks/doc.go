// Package tasks implements supervision of the remote sync job.
//
// [Poller] fetches the authoritative job status on a fixed period and
// delivers every result over a channel. Polls are strictly sequential per
// subscription: the next poll is not issued until the previous result has
// been received by the consumer, so out-of-order responses cannot interleave.
// Stopping a subscription guarantees no further deliveries.
//
// [Supervisor] consumes those snapshots and gates the start/stop operations
// on the last observed state. It never mutates the state itself; after a
// start or stop request, the next poll reflects whatever the service decided.
package tasks
