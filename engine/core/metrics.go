package core

import "github.com/spaghettifunk/phase/engine/containers"

// FPS_MEASURE_LEN is the number of samples averaged by an FPSCounter.
const FPS_MEASURE_LEN = 120

// FPSCounter keeps a rolling average of instantaneous frames-per-second
// samples. The zero value is ready to use; unfilled slots count as zero.
type FPSCounter struct {
	samples *containers.RingQueue[float32]
	sum     float32
}

// Append records one sample and returns the average over the window.
func (f *FPSCounter) Append(sample float32) float32 {
	if f.samples == nil {
		f.samples = containers.NewRingQueue[float32](FPS_MEASURE_LEN)
	}
	if oldest, ok := f.samples.Push(sample); ok {
		f.sum -= oldest
	}
	f.sum += sample
	return f.sum / FPS_MEASURE_LEN
}

// AppendFrameTime converts a frame duration in milliseconds to an FPS
// sample. Non-positive durations are ignored and the current average is
// returned unchanged.
func (f *FPSCounter) AppendFrameTime(frameMS float32) float32 {
	if frameMS <= 0 {
		return f.Average()
	}
	return f.Append(1000.0 / frameMS)
}

func (f *FPSCounter) Average() float32 {
	return f.sum / FPS_MEASURE_LEN
}
