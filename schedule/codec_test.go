package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	s := Single(exampleTasks(), 1)
	assert.Equal(t, []int{1, Separator, 0, 2}, s.Encode())
	assert.Equal(t, []int{Separator, 0, 1, 2}, Root(exampleTasks()).Encode())
}

func TestDecodeRebuildsLength(t *testing.T) {
	tasks := exampleTasks()
	s, err := Decode(tasks, []int{0, 1, Separator, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, s.Scheduled())
	assert.Equal(t, []int{2}, s.Unscheduled())
	assert.Equal(t, 5, s.Length())
	assert.Equal(t, []int{0, 1, Separator, 2}, s.Encode())
}

func TestDecodeCorrupt(t *testing.T) {
	tasks := exampleTasks()
	testCases := []struct {
		name string
		seq  []int
	}{
		{name: "no separator", seq: []int{0, 1, 2}},
		{name: "missing task", seq: []int{0, Separator, 1}},
		{name: "duplicate in prefix", seq: []int{0, 0, Separator, 1}},
		{name: "overlap", seq: []int{0, Separator, 0, 1}},
		{name: "out of range", seq: []int{0, Separator, 1, 7}},
		{name: "two separators", seq: []int{0, Separator, 1, Separator}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tasks, tc.seq)
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestFromOrder(t *testing.T) {
	s, err := FromOrder(exampleTasks(), []int{2, 0})
	require.NoError(t, err)
	assert.Equal(t, 7, s.Length())
	assert.Equal(t, []int{1}, s.Unscheduled())

	_, err = FromOrder(exampleTasks(), []int{2, 2})
	require.ErrorIs(t, err, ErrCorrupt)
}
