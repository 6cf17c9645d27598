package server

import (
	"github.com/cheggaaa/pb/v3"
)

// progress tracks transferred bytes
type progress interface {
	Add(n int)
	Finish()
}

type noProgress struct{}

func (noProgress) Add(int) {}
func (noProgress) Finish() {}

type barProgress struct {
	bar *pb.ProgressBar
}

func (b *barProgress) Add(n int) {
	b.bar.Add(n)
}

func (b *barProgress) Finish() {
	b.bar.Finish()
}

// newProgress returns a byte progress bar when enabled in config
func (h *Handler) newProgress(total int64) progress {
	if !h.cfg.Progress || total <= 0 || h.cfg.ProgressOutput == nil {
		return noProgress{}
	}
	bar := pb.New64(total).
		SetTemplate(pb.Full).
		Set(pb.Bytes, true).
		Set("prefix", shortID(h.id)+" ").
		SetWriter(h.cfg.ProgressOutput).
		Start()
	return &barProgress{bar: bar}
}
