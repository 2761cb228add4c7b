package p2p

// Router fans inbound messages out into one bounded, blocking-
// dequeue channel per content type (buffer depth set by NewRouter;
// Dispatch blocks while the target queue is full). CONTROL is a separate queue from
// SHARD_BLOCK — the source sometimes multiplexes them onto one
// channel, which spec.md §9 explicitly calls out to avoid.
type Router struct {
	shardBlocks  chan Message
	mainBlocks   chan Message
	control      chan Message
	transactions chan Message
	other        chan Message
}

// NewRouter builds a Router with the given per-queue buffer depth. A
// depth of 0 makes every queue a synchronous (unbuffered) handoff.
func NewRouter(depth int) *Router {
	return &Router{
		shardBlocks:  make(chan Message, depth),
		mainBlocks:   make(chan Message, depth),
		control:      make(chan Message, depth),
		transactions: make(chan Message, depth),
		other:        make(chan Message, depth),
	}
}

// Dispatch enqueues msg onto the channel matching its content type,
// blocking if that queue is full.
func (r *Router) Dispatch(msg Message) {
	switch msg.ContentType {
	case ContentShardBlock:
		r.shardBlocks <- msg
	case ContentMainBlock:
		r.mainBlocks <- msg
	case ContentControl:
		r.control <- msg
	case ContentTransaction:
		r.transactions <- msg
	default:
		r.other <- msg
	}
}

// ShardBlocks returns the receive-only SHARD_BLOCK queue.
func (r *Router) ShardBlocks() <-chan Message { return r.shardBlocks }

// MainBlocks returns the receive-only MAIN_BLOCK queue.
func (r *Router) MainBlocks() <-chan Message { return r.mainBlocks }

// Control returns the receive-only CONTROL queue.
func (r *Router) Control() <-chan Message { return r.control }

// Transactions returns the receive-only TRANSACTION queue.
func (r *Router) Transactions() <-chan Message { return r.transactions }

// Other returns the receive-only queue for any unrecognized content
// type.
func (r *Router) Other() <-chan Message { return r.other }

// Close closes every queue. Callers must stop calling Dispatch before
// calling Close.
func (r *Router) Close() {
	close(r.shardBlocks)
	close(r.mainBlocks)
	close(r.control)
	close(r.transactions)
	close(r.other)
}
