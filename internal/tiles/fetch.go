package tiles

import (
	"context"
	"image"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultConcurrency is the number of fetch workers used when none is given.
const DefaultConcurrency = 8

// Fetched is the outcome of fetching one placement.
type Fetched struct {
	Placement Placement
	Image     image.Image
	Err       error
}

type job struct {
	index     int
	placement Placement
}

// FetchAll fetches every placement with a bounded worker pool.
// The result has the same order as placements regardless of completion order.
func FetchAll(ctx context.Context, src Source, placements []Placement, concurrency int) []Fetched {
	results := make([]Fetched, len(placements))
	if len(placements) == 0 {
		return results
	}

	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(placements) {
		concurrency = len(placements)
	}

	jobs := make(chan job, len(placements))
	for i, p := range placements {
		jobs <- job{index: i, placement: p}
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res := Fetched{Placement: j.placement}
				if err := ctx.Err(); err != nil {
					res.Err = unavailable(j.placement.Tile, err)
				} else {
					res.Image, res.Err = src.Fetch(ctx, j.placement.Tile)
					if res.Err == nil && res.Image == nil {
						res.Err = ErrTileNotFound
					}
					if res.Err != nil {
						res.Image = nil
						res.Err = unavailable(j.placement.Tile, res.Err)
					}
				}
				if res.Err != nil {
					log.Trace().
						Err(res.Err).
						Str("tile", j.placement.Tile.String()).
						Msg("Failed to fetch tile")
				}
				// each worker writes a distinct index
				results[j.index] = res
			}
		}()
	}
	wg.Wait()

	return results
}
