package controller

import (
	"context"

	"github.com/nerrad567/greenhouse-core/internal/greenhouse"
)

// ReadingSource yields kinded readings one at a time. Next returns false
// once the source is exhausted.
type ReadingSource interface {
	Next() (greenhouse.KindedReading, bool)
}

// SliceSource walks an in-memory slice.
type SliceSource struct {
	readings []greenhouse.KindedReading
	pos      int
}

// FromSlice returns a source over readings. The slice is not copied.
func FromSlice(readings []greenhouse.KindedReading) *SliceSource {
	return &SliceSource{readings: readings}
}

// Next implements ReadingSource.
func (s *SliceSource) Next() (greenhouse.KindedReading, bool) {
	if s.pos >= len(s.readings) {
		return greenhouse.KindedReading{}, false
	}
	r := s.readings[s.pos]
	s.pos++
	return r, true
}

// ChannelSource reads from a channel until it is closed, or until ctx is
// done and the readings already queued have been drained.
type ChannelSource struct {
	ctx context.Context
	ch  <-chan greenhouse.KindedReading
}

// FromChannel returns a source fed by ch. Next blocks until a reading
// arrives, ch is closed or ctx is cancelled. Readings queued in ch are
// still returned after cancellation.
func FromChannel(ctx context.Context, ch <-chan greenhouse.KindedReading) *ChannelSource {
	return &ChannelSource{ctx: ctx, ch: ch}
}

// Next implements ReadingSource.
func (s *ChannelSource) Next() (greenhouse.KindedReading, bool) {
	select {
	case r, ok := <-s.ch:
		return r, ok
	case <-s.ctx.Done():
		select {
		case r, ok := <-s.ch:
			return r, ok
		default:
			return greenhouse.KindedReading{}, false
		}
	}
}
