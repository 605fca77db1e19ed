package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"go.uber.org/zap"

	"github.com/five82/readshelf/internal/config"
	"github.com/five82/readshelf/internal/library"
)

// PrintShelves loads the library once and writes it grouped by shelf.
func PrintShelves(ctx context.Context, cfg config.Config, logger *zap.Logger, w io.Writer) error {
	comps, err := Wire(cfg, logger)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	records, err := comps.Store.Load(ctx, comps.Service)
	if err != nil {
		return fmt.Errorf("load library: %w", err)
	}
	return writeShelves(w, records)
}

func writeShelves(w io.Writer, records []library.Record) error {
	shelves := library.GroupByStatus(records)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, status := range library.Statuses {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		onShelf := shelves[status]
		fmt.Fprintf(tw, "%s (%d)\n", status.Label(), len(onShelf))
		for _, rec := range onShelf {
			rating := ""
			if v, ok := rec.DisplayRating(); ok {
				rating = fmt.Sprintf("%.1f/5", v)
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", rec.Book.Title, rec.Book.AuthorLine(), rating)
		}
	}
	return tw.Flush()
}
