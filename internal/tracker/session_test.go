package tracker

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patrolhub/patrolhub/internal/model"
)

func TestBind(t *testing.T) {
	tab := NewSessionTable()

	s, err := tab.Bind("conn1", &model.Unit{ID: 1, Callsign: "alpha-1"})
	require.NoError(t, err)
	assert.Equal(t, "conn1", s.ConnID())
	assert.EqualValues(t, 1, s.UnitID())
	assert.Equal(t, "alpha-1", s.Callsign())
	assert.Equal(t, 1, tab.Count())

	_, err = tab.Bind("conn1", &model.Unit{ID: 2, Callsign: "alpha-2"})
	require.ErrorIs(t, err, ErrAlreadyBound)
	assert.Equal(t, 1, tab.Count())

	got := tab.Lookup("conn1")
	require.NotNil(t, got)
	assert.Equal(t, "alpha-1", got.Callsign())
	assert.Nil(t, tab.Lookup("conn2"))
}

func TestUnbind(t *testing.T) {
	tab := NewSessionTable()

	_, err := tab.Bind("conn1", &model.Unit{ID: 1, Callsign: "alpha-1"})
	require.NoError(t, err)
	_, err = tab.Bind("conn2", &model.Unit{ID: 1, Callsign: "alpha-1"})
	require.NoError(t, err)
	_, err = tab.Bind("conn3", &model.Unit{ID: 2, Callsign: "alpha-2"})
	require.NoError(t, err)

	s, last := tab.Unbind("conn1")
	require.NotNil(t, s)
	assert.False(t, last)

	s, last = tab.Unbind("conn2")
	require.NotNil(t, s)
	assert.True(t, last)

	s, last = tab.Unbind("conn2")
	assert.Nil(t, s)
	assert.False(t, last)

	s, last = tab.Unbind("conn3")
	require.NotNil(t, s)
	assert.True(t, last)
	assert.Equal(t, 0, tab.Count())
}

func TestLastPositionForUnit(t *testing.T) {
	tab := NewSessionTable()

	s1, err := tab.Bind("conn1", &model.Unit{ID: 1, Callsign: "alpha-1"})
	require.NoError(t, err)
	s2, err := tab.Bind("conn2", &model.Unit{ID: 1, Callsign: "alpha-1"})
	require.NoError(t, err)

	assert.Nil(t, tab.LastPositionForUnit(1))

	now := time.Now()
	s1.SetLastPosition(&model.PositionEvent{UnitID: 1, Lat: 13.0, Time: now.Add(-time.Minute)})
	s2.SetLastPosition(&model.PositionEvent{UnitID: 1, Lat: 13.5, Time: now})

	p := tab.LastPositionForUnit(1)
	require.NotNil(t, p)
	assert.InDelta(t, 13.5, p.Lat, 0.0001)

	assert.Nil(t, tab.LastPositionForUnit(2))
}

func TestConcurrentBindUnbind(t *testing.T) {
	tab := NewSessionTable()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			connID := fmt.Sprintf("conn%d", n)

			_, err := tab.Bind(connID, &model.Unit{ID: uint(n%5 + 1), Callsign: fmt.Sprintf("alpha-%d", n%5+1)})
			require.NoError(t, err)
			tab.Unbind(connID)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 0, tab.Count())
}
