package monitoring

// MultiObserver forwards every event to each of its observers in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver combines observers into one. Nil entries are skipped.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	m := &MultiObserver{}
	for _, o := range observers {
		if o != nil {
			m.observers = append(m.observers, o)
		}
	}
	return m
}

// Len returns the number of combined observers.
func (m *MultiObserver) Len() int { return len(m.observers) }

// Update implements Observer.
func (m *MultiObserver) Update(e Event) {
	for _, o := range m.observers {
		o.Update(e)
	}
}
