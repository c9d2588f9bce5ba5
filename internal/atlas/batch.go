package atlas

import (
	"context"
	"runtime"
	"sync"

	"github.com/ironsheep/atlas-prep-mcp/internal/imaging"
)

// Failure records one image that could not be added.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// BatchReport summarizes a call to AddFiles.
type BatchReport struct {
	Added    int       `json:"added"`
	Aliased  int       `json:"aliased"`
	Skipped  int       `json:"skipped"`
	Canceled int       `json:"canceled,omitempty"`
	Failures []Failure `json:"failures,omitempty"`
}

func (r *BatchReport) record(res Result) {
	switch res.Status {
	case StatusAdded:
		r.Added++
	case StatusAliased:
		r.Aliased++
	case StatusSkipped:
		r.Skipped++
	}
}

type batchJob struct {
	path     string
	p        *prepared
	err      error
	canceled bool
	done     chan struct{}
}

// AddFiles adds paths using a pool of workers (GOMAXPROCS when workers <= 0).
//
// Decoding, normalization and hashing run in parallel; registration happens in
// the order of paths, so the resulting rectangle list and alias lists are the
// same as for sequential AddFile calls. A failing image is reported and does
// not stop the batch. Once ctx is done no further images are started; images
// already in flight still complete.
func (g *Ingestor) AddFiles(ctx context.Context, paths []string, workers int) *BatchReport {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make([]*batchJob, len(paths))
	for i, path := range paths {
		jobs[i] = &batchJob{path: path, done: make(chan struct{})}
	}

	queue := make(chan *batchJob)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				j.p, j.err = g.prepareFile(j.path)
				close(j.done)
			}
		}()
	}

	go func() {
		defer close(queue)
		for i, j := range jobs {
			select {
			case queue <- j:
			case <-ctx.Done():
				for _, rest := range jobs[i:] {
					rest.canceled = true
					close(rest.done)
				}
				return
			}
		}
	}()

	report := &BatchReport{}
	for _, j := range jobs {
		<-j.done
		switch {
		case j.canceled:
			report.Canceled++
		case j.err != nil:
			report.Failures = append(report.Failures, Failure{Path: j.path, Error: j.err.Error(), Err: j.err})
		default:
			report.record(g.commit(j.p))
		}
	}
	wg.Wait()
	return report
}

// AddDir adds every image file below dir, in path order.
func (g *Ingestor) AddDir(ctx context.Context, dir string, workers int) (*BatchReport, error) {
	files, err := imaging.ListImageFiles(dir)
	if err != nil {
		return nil, err
	}
	return g.AddFiles(ctx, files, workers), nil
}
