package remote

import "io"

// progressReader reports the fraction of a request body consumed by the
// transport.
type progressReader struct {
	rc     io.ReadCloser
	total  int64
	read   int64
	report func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.rc.Read(b)
	if n > 0 && p.total > 0 {
		p.read += int64(n)

		frac := float64(p.read) / float64(p.total)
		if frac > 1 {
			frac = 1
		}

		p.report(frac)
	}

	return n, err
}

func (p *progressReader) Close() error {
	return p.rc.Close()
}
