package tracks

import (
	"bytes"
	"strings"
	"testing"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()
	in := `frame,track_id,x,y
1,4,10.5,20
1,2,-3,4.25
2, 4, 11, 21
`
	s, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []groundplane.FrameID{1, 2}, s.Frames())

	got, _ := s.ActiveTracks(1)
	assert.Equal(t, []groundplane.Observation{obs(2, -3, 4.25), obs(4, 10.5, 20)}, got)
	got, _ = s.ActiveTracks(2)
	assert.Equal(t, []groundplane.Observation{obs(4, 11, 21)}, got)
}

func TestReadCSVWithoutHeader(t *testing.T) {
	t.Parallel()
	s, err := ReadCSV(strings.NewReader("3,1,0,0\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bad frame", "x,1,0,0\n", "invalid frame"},
		{"bad id", "1,a,0,0\n", "invalid track_id"},
		{"bad x", "1,1,?,0\n", "invalid x"},
		{"bad y", "1,1,0,nan?\n", "invalid y"},
		{"short row", "1,1,0\n", "wrong number of fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadCSV(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()
	s := NewSet()
	s.Add(2, obs(1, 0.125, -7))
	s.Add(1, obs(5, 3, 4), obs(1, 1e-3, 2))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, s))
	assert.Equal(t, "frame,track_id,x,y\n1,1,0.001,2\n1,5,3,4\n2,1,0.125,-7\n", buf.String())

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	for _, f := range s.Frames() {
		want, _ := s.ActiveTracks(f)
		got, _ := back.ActiveTracks(f)
		assert.Equal(t, want, got, "frame %d", f)
	}
}
