package analysis

import (
	"fmt"
	"sort"

	"github.com/sisahap1/fusion-engine-client/messages"
)

// TimeAlignmentMode selects how asynchronous streams are reconciled
// onto a common P1 timestamp axis.
type TimeAlignmentMode int

const (
	// AlignmentNone leaves all streams untouched.
	AlignmentNone TimeAlignmentMode = iota
	// AlignmentDrop retains only timestamps common to every
	// participating stream.
	AlignmentDrop
	// AlignmentInsert retains the union of timestamps, synthesizing
	// NaN-filled placeholders for timestamps a stream lacks.
	AlignmentInsert
)

func (m TimeAlignmentMode) String() string {
	switch m {
	case AlignmentNone:
		return "none"
	case AlignmentDrop:
		return "drop"
	case AlignmentInsert:
		return "insert"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// ParseTimeAlignmentMode resolves a mode name as printed by String.
func ParseTimeAlignmentMode(name string) (TimeAlignmentMode, error) {
	switch name {
	case "none":
		return AlignmentNone, nil
	case "drop":
		return AlignmentDrop, nil
	case "insert":
		return AlignmentInsert, nil
	default:
		return AlignmentNone, fmt.Errorf("unknown time alignment mode %q", name)
	}
}

// TimeAlignData reconciles the streams in data in place. Participating
// streams are the named types when given, otherwise every type in data
// whose messages carry a P1 time; types without a reference time are
// always left untouched, and named types absent from data are ignored.
//
// Duplicate timestamps within a stream keep their first occurrence;
// later duplicates are dropped. Messages lacking a valid P1 time
// inside a participating stream are dropped under both modes.
func TimeAlignData(data map[messages.MessageType]*MessageData, mode TimeAlignmentMode, types ...messages.MessageType) error {
	if mode == AlignmentNone {
		return nil
	}

	var participating []*MessageData
	if len(types) > 0 {
		for _, t := range types {
			if stream, ok := data[t]; ok && messages.HasP1Time(t) {
				participating = append(participating, stream)
			}
		}
	} else {
		for _, t := range sortedTypes(data) {
			if messages.HasP1Time(t) {
				participating = append(participating, data[t])
			}
		}
	}
	if len(participating) == 0 {
		return nil
	}

	times := make([]map[float64]bool, len(participating))
	for i, stream := range participating {
		times[i] = streamTimes(stream)
	}

	switch mode {
	case AlignmentDrop:
		common := intersect(times)
		for _, stream := range participating {
			dropFilter(stream, common)
		}
	case AlignmentInsert:
		axis := sortedUnion(times)
		for _, stream := range participating {
			if err := insertRebuild(stream, axis); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported time alignment mode %d", int(mode))
	}
	return nil
}

func sortedTypes(data map[messages.MessageType]*MessageData) []messages.MessageType {
	out := make([]messages.MessageType, 0, len(data))
	for t := range data {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// streamTimes returns the distinct P1 time values present in a stream.
func streamTimes(stream *MessageData) map[float64]bool {
	set := make(map[float64]bool, len(stream.Messages))
	for _, msg := range stream.Messages {
		if t, ok := msg.P1Time(); ok {
			set[t] = true
		}
	}
	return set
}

func intersect(sets []map[float64]bool) map[float64]bool {
	out := make(map[float64]bool, len(sets[0]))
	for t := range sets[0] {
		out[t] = true
	}
	for _, set := range sets[1:] {
		for t := range out {
			if !set[t] {
				delete(out, t)
			}
		}
	}
	return out
}

func sortedUnion(sets []map[float64]bool) []float64 {
	merged := make(map[float64]bool)
	for _, set := range sets {
		for t := range set {
			merged[t] = true
		}
	}
	out := make([]float64, 0, len(merged))
	for t := range merged {
		out = append(out, t)
	}
	sort.Float64s(out)
	return out
}

// dropFilter keeps the first message per common timestamp, preserving
// original order.
func dropFilter(stream *MessageData, common map[float64]bool) {
	kept := stream.Messages[:0]
	seen := make(map[float64]bool, len(common))
	for _, msg := range stream.Messages {
		t, ok := msg.P1Time()
		if !ok || !common[t] || seen[t] {
			continue
		}
		seen[t] = true
		kept = append(kept, msg)
	}
	stream.Messages = kept
}

// insertRebuild rebuilds the stream to one message per axis timestamp,
// reusing the stream's own message where present and synthesizing a
// placeholder otherwise.
func insertRebuild(stream *MessageData, axis []float64) error {
	byTime := make(map[float64]messages.Message, len(stream.Messages))
	for _, msg := range stream.Messages {
		if t, ok := msg.P1Time(); ok {
			if _, dup := byTime[t]; !dup {
				byTime[t] = msg
			}
		}
	}
	rebuilt := make([]messages.Message, 0, len(axis))
	for _, t := range axis {
		if msg, ok := byTime[t]; ok {
			rebuilt = append(rebuilt, msg)
			continue
		}
		placeholder, err := messages.NewPlaceholder(stream.Type, t)
		if err != nil {
			return fmt.Errorf("synthesize %s placeholder: %w", stream.Type, err)
		}
		rebuilt = append(rebuilt, placeholder)
	}
	stream.Messages = rebuilt
	return nil
}
