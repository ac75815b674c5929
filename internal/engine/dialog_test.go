package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialogLifecycle(t *testing.T) {
	d := NewDialog(nil)
	assert.False(t, d.IsOpen())

	d.Open()
	assert.True(t, d.IsOpen())

	d.Close()
	assert.False(t, d.IsOpen())

	d.Toggle()
	assert.True(t, d.IsOpen())
	d.Toggle()
	assert.False(t, d.IsOpen())
}

func TestDialogChangeCallbackFiresOnTransitionsOnly(t *testing.T) {
	var events []bool
	d := NewDialog(func(open bool) { events = append(events, open) })

	d.Open()
	d.Open() // no transition, no event
	d.Close()

	assert.Equal(t, []bool{true, false}, events)
}

func TestDialogsCloseAll(t *testing.T) {
	set := NewDialogs()
	set.Create.Open()
	set.Delete.Open()
	set.BulkDelete.Open()

	set.CloseAll()

	assert.False(t, set.Create.IsOpen())
	assert.False(t, set.Edit.IsOpen())
	assert.False(t, set.Delete.IsOpen())
	assert.False(t, set.Restore.IsOpen())
	assert.False(t, set.HardDelete.IsOpen())
	assert.False(t, set.BulkDelete.IsOpen())
}
