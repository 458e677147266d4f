package render

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"

	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/core/timeline"
)

// SegmentRecord is one row segment of a record as drawn on the timeline.
type SegmentRecord struct {
	Row         int64  `json:"row"`
	StartOffset int64  `json:"start_offset"`
	EndOffset   int64  `json:"end_offset"`
	Part        string `json:"part"`
	Minutes     int64  `json:"minutes"`
}

// RecordDump is a record with its timeline geometry.
type RecordDump struct {
	Kind     model.RecordKind      `json:"kind"`
	Source   string                `json:"source"`
	Camera   model.Camera          `json:"cam"`
	Category string                `json:"category"`
	Start    timeline.Coordinate   `json:"start"`
	End      timeline.Coordinate   `json:"end"`
	Segments []SegmentRecord       `json:"segments"`
	Attacks  []timeline.Coordinate `json:"attacks,omitempty"`
}

// Segments converts records into their timeline geometry, activities first.
func Segments(mapper *timeline.Mapper, activities []model.Interval, predators []model.PredatorInterval) []RecordDump {
	out := make([]RecordDump, 0, len(activities)+len(predators))
	for _, iv := range activities {
		out = append(out, dumpRecord(mapper, model.KindActivity, iv))
	}
	for _, p := range predators {
		d := dumpRecord(mapper, model.KindPredator, p.Interval)
		for _, a := range p.Attacks {
			d.Attacks = append(d.Attacks, mapper.Coordinate(a))
		}
		out = append(out, d)
	}
	return out
}

func dumpRecord(mapper *timeline.Mapper, kind model.RecordKind, iv model.Interval) RecordDump {
	d := RecordDump{
		Kind:     kind,
		Source:   iv.Source,
		Camera:   iv.Camera,
		Category: iv.Category,
		Start:    mapper.Coordinate(iv.Start),
		End:      mapper.Coordinate(iv.End),
	}
	for _, seg := range mapper.IntervalSegments(iv) {
		part := timeline.PartNight
		if timeline.IsDaytime(seg.Start.Row) {
			part = timeline.PartDay
		}
		d.Segments = append(d.Segments, SegmentRecord{
			Row:         seg.Start.Row,
			StartOffset: seg.Start.Offset,
			EndOffset:   seg.End.Offset,
			Part:        part.String(),
			Minutes:     seg.Minutes(),
		})
	}
	return d
}

// Dump writes the geometry of every record as indented JSON.
func Dump(w io.Writer, mapper *timeline.Mapper, activities []model.Interval, predators []model.PredatorInterval) error {
	data, err := sonic.ConfigStd.MarshalIndent(Segments(mapper, activities, predators), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode segments: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
