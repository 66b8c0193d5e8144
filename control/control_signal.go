package control

import "sync"

// Signal holds the value a block passes to the blocks depending on it.
type Signal struct {
	mu     *sync.Mutex
	name   string
	signal []float64
}

func makeSignal(name string) *Signal {
	return &Signal{
		mu:     &sync.Mutex{},
		name:   name,
		signal: make([]float64, 1),
	}
}

// Name returns the name of the block that produced the signal.
func (s *Signal) Name() string {
	return s.name
}

// GetSignalValueAt returns the value of the signal at an index, threadsafe.
func (s *Signal) GetSignalValueAt(i int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i > len(s.signal)-1 {
		return 0.0
	}
	return s.signal[i]
}

// SetSignalValueAt set the value of a signal at an index, threadsafe.
func (s *Signal) SetSignalValueAt(i int, val float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i > len(s.signal)-1 {
		return
	}
	s.signal[i] = val
}
