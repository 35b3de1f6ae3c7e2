package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	matchesResolved     int
	validationFailures  int
	confirmations       int
	disputes            int
	ratingsApplied      int
	processingDurations []float64
	notifSent           int
	notifFailed         int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		processingDurations: make([]float64, 0),
	}
}

func (m *Mock) IncMatchesResolved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesResolved++
}

func (m *Mock) IncValidationFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validationFailures++
}

func (m *Mock) IncConfirmations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations++
}

func (m *Mock) IncDisputes() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disputes++
}

func (m *Mock) IncRatingsApplied() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ratingsApplied++
}

func (m *Mock) ObserveProcessingDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processingDurations = append(m.processingDurations, duration)
}

func (m *Mock) IncNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifSent++
}

func (m *Mock) IncNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifFailed++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// MatchesResolved returns the number of times IncMatchesResolved was called.
func (m *Mock) MatchesResolved() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesResolved
}

// ValidationFailures returns the number of times IncValidationFailures was called.
func (m *Mock) ValidationFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.validationFailures
}

// Confirmations returns the number of times IncConfirmations was called.
func (m *Mock) Confirmations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmations
}

// Disputes returns the number of times IncDisputes was called.
func (m *Mock) Disputes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disputes
}

// RatingsApplied returns the number of times IncRatingsApplied was called.
func (m *Mock) RatingsApplied() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ratingsApplied
}

// NotifSent returns the number of times IncNotifSent was called.
func (m *Mock) NotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifSent
}

// NotifFailed returns the number of times IncNotifFailed was called.
func (m *Mock) NotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notifFailed
}
