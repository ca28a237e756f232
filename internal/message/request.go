package message

import "context"

// Request sends msg as a Request and waits for the peer's Response with the
// same ID. It fails when ctx is done or the connection closes first. The
// response is returned as is, an *Error reply is not turned into an error.
func (c *Connection) Request(ctx context.Context, msg Message) (Message, error) {
	id := c.lastID.Add(1)
	reply := c.pending.add(id)
	defer c.pending.remove(id)

	if err := c.Write(NewRequest(id, msg)); err != nil {
		return nil, err
	}

	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closer.Closed():
		return nil, ErrConnectionClosed
	}
}
