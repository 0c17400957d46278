package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusDispatch(t *testing.T) {
	bus := NewEventBus()
	var got []string

	first := "first"
	second := "second"
	bus.Register(EventCodeResized, &first, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		got = append(got, *(listener.(*string)))
		return false
	})
	bus.Register(EventCodeResized, &second, func(code SystemEventCode, sender, listener interface{}, data EventContext) bool {
		got = append(got, *(listener.(*string)))
		return data.Data.U32[0] == 0
	})
	assert.False(t, bus.Register(EventCodeResized, &first, nil))

	ctx := EventContext{}
	ctx.Data.U32[0] = 0
	assert.True(t, bus.Fire(EventCodeResized, nil, ctx))
	assert.Equal(t, []string{"first", "second"}, got)

	assert.True(t, bus.Unregister(EventCodeResized, &first))
	assert.False(t, bus.Unregister(EventCodeResized, &first))
	got = nil
	ctx.Data.U32[0] = 10
	assert.False(t, bus.Fire(EventCodeResized, nil, ctx))
	assert.Equal(t, []string{"second"}, got)

	assert.False(t, bus.Fire(EventCodeApplicationQuit, nil, EventContext{}))
}
