package tracks

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/groundplane/internal/groundplane"
	"github.com/golang/geo/r2"
)

// CSVHeader is the column layout read and written by ReadCSV and WriteCSV.
var CSVHeader = []string{"frame", "track_id", "x", "y"}

// ReadCSV parses observations in CSVHeader layout. The header row is
// optional; blank lines are skipped.
func ReadCSV(r io.Reader) (*Set, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)
	cr.TrimLeadingSpace = true

	s := NewSet()
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tracks csv: %w", err)
		}
		if line == 1 && strings.EqualFold(rec[0], CSVHeader[0]) {
			continue
		}
		frame, id, loc, err := parseRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("tracks csv line %d: %w", line, err)
		}
		s.Add(frame, groundplane.Observation{ID: id, Loc: loc})
	}
	return s, nil
}

func parseRecord(rec []string) (groundplane.FrameID, groundplane.TrackID, r2.Point, error) {
	frame, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return 0, 0, r2.Point{}, fmt.Errorf("invalid frame %q: %w", rec[0], err)
	}
	id, err := strconv.ParseInt(rec[1], 10, 64)
	if err != nil {
		return 0, 0, r2.Point{}, fmt.Errorf("invalid track_id %q: %w", rec[1], err)
	}
	x, err := strconv.ParseFloat(rec[2], 64)
	if err != nil {
		return 0, 0, r2.Point{}, fmt.Errorf("invalid x %q: %w", rec[2], err)
	}
	y, err := strconv.ParseFloat(rec[3], 64)
	if err != nil {
		return 0, 0, r2.Point{}, fmt.Errorf("invalid y %q: %w", rec[3], err)
	}
	return groundplane.FrameID(frame), groundplane.TrackID(id), r2.Point{X: x, Y: y}, nil
}

// WriteCSV writes every observation in s, ordered by frame then track id.
func WriteCSV(w io.Writer, s *Set) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write tracks csv header: %w", err)
	}
	for _, f := range s.Frames() {
		obs, _ := s.ActiveTracks(f)
		for _, o := range obs {
			rec := []string{
				strconv.FormatInt(int64(f), 10),
				strconv.FormatInt(int64(o.ID), 10),
				strconv.FormatFloat(o.Loc.X, 'f', -1, 64),
				strconv.FormatFloat(o.Loc.Y, 'f', -1, 64),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("write tracks csv: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
