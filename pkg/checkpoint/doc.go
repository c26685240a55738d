// Package checkpoint saves and resumes timeline walks.
//
// A walk over a long timeline can be cut short by rate limits or a manual
// stop. After every page the walker records the next max_id cursor and the
// number of statuses emitted so far; `timeline --resume` picks up from there.
//
// Checkpoints are JSON files under $XDG_DATA_HOME/tweetbot/checkpoints/, one
// per screen name, written atomically.
package checkpoint
