package transport

import "context"

// Future is the pending result of an asynchronous request.
type Future struct {
	done chan struct{}
	resp *Response
	err  error
}

// Go performs req in the background. The optional callback runs on the
// request goroutine after completion and before Wait returns.
func (c *Client) Go(ctx context.Context, req Request, out any, callback func(*Response, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.resp, f.err = c.Do(ctx, req, out)
		if callback != nil {
			callback(f.resp, f.err)
		}
	}()
	return f
}

// Done is closed once the request and its callback have finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the request completes or ctx is done.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
