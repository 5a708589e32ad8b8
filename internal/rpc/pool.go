package rpc

import (
	"sync"
	"time"
)

// Pool shares clients between the tasks and identity lookups of one invocation, keyed
// by network name and endpoint.
type Pool struct {
	clients map[string]*Client
	mu      sync.RWMutex
}

func NewPool() *Pool {
	return &Pool{
		clients: make(map[string]*Client),
	}
}

// GetOrCreate returns the client for name and url, creating it on first use.
func (p *Pool) GetOrCreate(name, url string, timeout time.Duration, maxRetries int) *Client {
	key := name + "|" + url

	p.mu.RLock()
	if client, exists := p.clients[key]; exists {
		p.mu.RUnlock()
		return client
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// another goroutine may have created it while we waited for the lock
	if client, exists := p.clients[key]; exists {
		return client
	}

	client := NewClient(name, url, timeout, maxRetries)
	p.clients[key] = client
	return client
}

// Len returns the number of pooled clients.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}
