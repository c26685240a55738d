// Package twitter is a small client for the v1.1 REST endpoints the bot
// needs: rate-limit status, tweet search, favorites and user timelines.
//
// Requests are signed with OAuth 1.0a user credentials and decoded into the
// go-twitter object types. Non-2xx responses come back as *errors.Error with
// the API error code classified, so callers can branch on rate limits,
// authentication failures and duplicate likes:
//
//	client := twitter.NewClient(cfg.Twitter, log)
//	resp, err := client.Search(ctx, twitter.SearchParams{Query: "#100DaysOfCode"})
//	if errors.Is(err, errors.ErrorTypeRateLimit) {
//		// wait for the window to reset
//	}
//
// Status ids are handled as decimal strings throughout; DecrementID derives
// the next max_id cursor from the oldest id on a page.
package twitter
