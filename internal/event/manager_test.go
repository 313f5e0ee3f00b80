package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_DispatchOrderAndConsume(t *testing.T) {
	m := NewManager()
	var got []string
	m.Subscribe(TypeHistoryChanged, func(e Event) bool {
		got = append(got, "first:"+e.Data.(HistoryChangedData).Surface)
		return true
	})
	m.Subscribe(TypeHistoryChanged, func(e Event) bool {
		got = append(got, "second")
		return false
	})

	m.Dispatch(TypeHistoryChanged, HistoryChangedData{Surface: "markdown"})
	assert.Equal(t, []string{"first:markdown"}, got)
}

func TestManager_NilAndUnsubscribed(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() { m.Dispatch(TypeContentChanged, nil) })
	assert.NotPanics(t, func() { NewManager().Dispatch(TypeContentChanged, nil) })
	assert.Equal(t, "surface-switched", TypeSurfaceSwitched.String())
}
