package lockchan

// Observer receives operation events from the channels it is registered on
// via [WithObserver]. Methods are called from the goroutine performing the
// operation, outside the channel lock, and must not block.
type Observer interface {
	// ObserveSend is called after a send completes on c.
	ObserveSend(c Channel)
	// ObserveRecv is called after a receive returns a value from c.
	ObserveRecv(c Channel)
	// ObserveWait is called when a goroutine parks on c.
	ObserveWait(c Channel, op Op)
	// ObserveClose is called once, when c is closed.
	ObserveClose(c Channel)
}
