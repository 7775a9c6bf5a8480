package monitoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMultiObserver_ForwardsToAll(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	m := NewMultiObserver(a, nil, b)
	require.Equal(t, 2, m.Len())

	p := NewAgentPublisher("agent-1", nil)
	p.AddObserver(m)
	p.Publish(dummyEvent(t))

	require.Equal(t, 1, a.count())
	require.Equal(t, 1, b.count())
	require.Equal(t, RoleAgent, b.last().Role)
}

func TestMultiObserver_Empty(t *testing.T) {
	m := NewMultiObserver()
	require.Equal(t, 0, m.Len())
	m.Update(dummyEvent(t))
}
