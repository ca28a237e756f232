package message

import "sync"

// pendingRequests holds the reply channels of requests awaiting their
// response, keyed by request ID.
type pendingRequests struct {
	mu      sync.Mutex
	replies map[uint64]chan Message
}

func newPendingRequests() *pendingRequests {
	return &pendingRequests{replies: make(map[uint64]chan Message)}
}

// add registers id and returns the channel its response is delivered on.
func (p *pendingRequests) add(id uint64) <-chan Message {
	reply := make(chan Message, 1)
	p.mu.Lock()
	p.replies[id] = reply
	p.mu.Unlock()
	return reply
}

func (p *pendingRequests) remove(id uint64) {
	p.mu.Lock()
	delete(p.replies, id)
	p.mu.Unlock()
}

// resolve delivers msg to the request id. It reports false for unknown ids
// and for duplicate responses.
func (p *pendingRequests) resolve(id uint64, msg Message) bool {
	p.mu.Lock()
	reply, ok := p.replies[id]
	p.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case reply <- msg:
		return true
	default:
		return false
	}
}
