package transfer

import (
	"context"
	"io"

	"golang.org/x/time/rate"

	"github.com/reasonableperson/etrial-manager/batch"
)

// progressReader reports cumulative bytes read and optionally throttles reads
// to a byte rate.
type progressReader struct {
	ctx      context.Context
	src      io.ReadCloser
	total    int64
	loaded   int64
	progress batch.ProgressFunc
	limiter  *rate.Limiter
}

func newProgressReader(ctx context.Context, src io.ReadCloser, total int64, progress batch.ProgressFunc, bytesPerSec int64) *progressReader {
	r := &progressReader{ctx: ctx, src: src, total: total, progress: progress}
	if bytesPerSec > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), int(bytesPerSec))
	}
	return r
}

func (r *progressReader) Read(p []byte) (int, error) {
	if r.limiter != nil && len(p) > r.limiter.Burst() {
		p = p[:r.limiter.Burst()]
	}
	n, err := r.src.Read(p)
	if n > 0 {
		if r.limiter != nil {
			if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
				return n, werr
			}
		}
		r.loaded += int64(n)
		if r.progress != nil {
			r.progress(r.loaded, r.total)
		}
	}
	return n, err
}

func (r *progressReader) Close() error {
	return r.src.Close()
}
