package utils

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRuneByteConversions(t *testing.T) {
	line := "h\u00e9llo"
	assert.Equal(t, 0, RuneIndexToByteOffset(line, 0))
	assert.Equal(t, 3, RuneIndexToByteOffset(line, 2))
	assert.Equal(t, len(line), RuneIndexToByteOffset(line, 5))
	assert.Equal(t, -1, RuneIndexToByteOffset(line, 9))

	assert.Equal(t, 1, ByteOffsetToRuneIndex(line, 2)) // inside é
	assert.Equal(t, 2, ByteOffsetToRuneIndex(line, 3))
	assert.Equal(t, 5, ByteOffsetToRuneIndex(line, 100))
}

func TestClampColumn(t *testing.T) {
	assert.Equal(t, 3, ClampColumn("abc", 10))
	assert.Equal(t, 0, ClampColumn("abc", -2))
	assert.Equal(t, 2, ClampColumn("abc", 2))

	// "e" + combining acute is one cluster; column 2 falls inside it.
	line := "xe\u0301y"
	assert.Equal(t, 1, ClampColumn(line, 2))
	assert.Equal(t, 1, ClampColumn(line, 1))
	assert.Equal(t, len("xe\u0301"), ClampColumn(line, 3))
}

func TestLineStarts(t *testing.T) {
	assert.Equal(t, []int{0}, LineStarts(""))
	assert.Equal(t, []int{0, 7, 8}, LineStarts("Line 1\n\nLine 2"))
}

func TestTimer_ScheduleReplacesPending(t *testing.T) {
	var tm Timer
	var first, second int32
	tm.Schedule(20*time.Millisecond, func() { atomic.AddInt32(&first, 1) })
	tm.Schedule(20*time.Millisecond, func() { atomic.AddInt32(&second, 1) })

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&second) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&first))
	assert.False(t, tm.Pending())
}

func TestTimer_Cancel(t *testing.T) {
	var tm Timer
	var fired int32
	tm.Schedule(10*time.Millisecond, func() { atomic.AddInt32(&fired, 1) })
	assert.True(t, tm.Cancel())
	assert.False(t, tm.Cancel())
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}
