package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncUserRegistered() {}
func (n *NoopRecorder) IncLoginSuccess()   {}
func (n *NoopRecorder) IncLoginFailure()   {}
func (n *NoopRecorder) IncSessionExpired() {}
func (n *NoopRecorder) IncPostCreated()    {}
func (n *NoopRecorder) IncPostUpdated()    {}
func (n *NoopRecorder) IncPostDeleted()    {}
