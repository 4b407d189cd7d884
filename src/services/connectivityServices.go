package services

import (
	"context"
	"sync"
	"time"
)

// Pinger is anything that can tell whether a remote service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// UpstreamStatus is the outcome of one reachability check.
type UpstreamStatus struct {
	Name    string
	Up      bool
	Latency time.Duration
	Error   string
}

// ConnectivityService checks the services the loans service depends on.
type ConnectivityService struct {
	upstreams map[string]Pinger
	order     []string
}

func NewConnectivityService() *ConnectivityService {
	return &ConnectivityService{upstreams: make(map[string]Pinger)}
}

// Register adds an upstream to the report under name.
func (s *ConnectivityService) Register(name string, p Pinger) *ConnectivityService {
	if _, ok := s.upstreams[name]; !ok {
		s.order = append(s.order, name)
	}
	s.upstreams[name] = p
	return s
}

// Check pings every upstream concurrently and reports them in registration order.
func (s *ConnectivityService) Check(ctx context.Context) []UpstreamStatus {
	statuses := make([]UpstreamStatus, len(s.order))

	var wg sync.WaitGroup
	for i, name := range s.order {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			start := time.Now()
			err := s.upstreams[name].Ping(ctx)
			st := UpstreamStatus{Name: name, Up: err == nil, Latency: time.Since(start)}
			if err != nil {
				st.Error = err.Error()
			}
			statuses[i] = st
		}(i, name)
	}
	wg.Wait()

	return statuses
}

// AllUp reports whether every status in statuses is up.
func AllUp(statuses []UpstreamStatus) bool {
	for _, st := range statuses {
		if !st.Up {
			return false
		}
	}
	return true
}
