// Package chanx provides context-aware pipeline utilities built on
// [lockchan.Chan] and [lockchan.Select].
//
// Every stage is a goroutine reading from one or more channels and writing
// to channels it owns. An output channel is closed when its inputs are
// exhausted or the context is cancelled, so consumers can simply range over
// [lockchan.Chan.All].
//
//   - [SendBatch] and [RecvBatch]: send or receive many values in one call,
//     stopping early on cancellation or close.
//   - [Merge]: fan-in that keeps selecting over the inputs still open and
//     closes its output once every input is closed.
//   - [Distribute] and [FanOut]: fan-out where each value goes to whichever
//     output can take it first.
//   - [Tee]: broadcasts every value to N outputs.
//   - [Map] and [Filter]: per-value transformation stages.
//   - [Buffer] and [BufferWithReason]: batching by size or age.
//   - [First]: the first value from any of several channels.
//   - [Drain] and [Collect]: consume the rest of a channel.
//   - [Semaphore]: a counting semaphore whose slots are channel capacity.
package chanx
