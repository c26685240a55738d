// Package hunter runs the poll-filter-act loop: check the search budget,
// fetch one page of results, keep the statuses that pass the filter, and
// optionally like them, until enough matches are found.
//
// Basic usage:
//
//	h := hunter.New(client, hunter.OptionsFromConfig(cfg), log)
//	res, err := h.Run(ctx)
//	if err != nil {
//		// res still holds the matches found before the error
//	}
//
// The loop is strictly sequential. Every wait (budget, poll delay, like
// pause) returns early when ctx is cancelled.
package hunter
