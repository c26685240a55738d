// Package twittertest runs an in-process fake of the v1.1 endpoints the bot
// uses, for tests in other packages.
package twittertest

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gotwitter "github.com/dghubble/go-twitter/twitter"
)

// Server serves search, favorites, timeline and rate-limit endpoints from an
// in-memory set of statuses. Paging honours max_id and count.
type Server struct {
	server *httptest.Server

	mu             sync.RWMutex
	statuses       []gotwitter.Tweet
	remaining      map[string]int
	reset          time.Time
	errorResponses map[string]int
	liked          []string
	searchQueries  []searchRequest

	requestCount int32
}

type searchRequest struct {
	Query string
	MaxID string
}

// NewServer starts a fake API. Close it when done.
func NewServer() *Server {
	s := &Server{
		remaining:      map[string]int{"/search/tweets": 180, "/statuses/user_timeline": 900},
		errorResponses: make(map[string]int),
		reset:          time.Now().Add(15 * time.Minute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/application/rate_limit_status.json", s.handleRateLimit)
	mux.HandleFunc("/search/tweets.json", s.handleSearch)
	mux.HandleFunc("/favorites/create.json", s.handleLike)
	mux.HandleFunc("/statuses/user_timeline.json", s.handleTimeline)

	s.server = httptest.NewServer(mux)
	return s
}

// URL is the base URL to hand to the client.
func (s *Server) URL() string { return s.server.URL + "/" }

// Client returns an unsigned HTTP client for the server.
func (s *Server) Client() *http.Client { return s.server.Client() }

// Close shuts the server down.
func (s *Server) Close() { s.server.Close() }

// AddStatuses appends statuses to the corpus.
func (s *Server) AddStatuses(statuses ...gotwitter.Tweet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, statuses...)
}

// SetRemaining sets the reported budget of an endpoint key such as
// "/search/tweets".
func (s *Server) SetRemaining(path string, remaining int, reset time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remaining[path] = remaining
	s.reset = reset
}

// SetErrorResponse makes an endpoint ("search/tweets.json", ...) answer with
// the given status. 0 clears it.
func (s *Server) SetErrorResponse(endpoint string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.errorResponses, endpoint)
		return
	}
	s.errorResponses[endpoint] = status
}

// Liked returns the ids favorited so far, in order.
func (s *Server) Liked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.liked...)
}

// SearchMaxIDs returns the max_id of every search request received.
func (s *Server) SearchMaxIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.searchQueries))
	for i, q := range s.searchQueries {
		out[i] = q.MaxID
	}
	return out
}

// RequestCount is the total number of requests served.
func (s *Server) RequestCount() int {
	return int(atomic.LoadInt32(&s.requestCount))
}

func (s *Server) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)
	if s.sendConfiguredError(w, "application/rate_limit_status.json") {
		return
	}

	s.mu.RLock()
	reset := s.reset.Unix()
	resources := map[string]map[string]map[string]int64{}
	for path, remaining := range s.remaining {
		family := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
		if resources[family] == nil {
			resources[family] = map[string]map[string]int64{}
		}
		resources[family][path] = map[string]int64{
			"limit":     180,
			"remaining": int64(remaining),
			"reset":     reset,
		}
	}
	s.mu.RUnlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{"resources": resources})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)
	if s.sendConfiguredError(w, "search/tweets.json") {
		return
	}
	q := r.URL.Query()
	if q.Get("q") == "" {
		writeAPIError(w, http.StatusBadRequest, 25, "Query parameters are missing.")
		return
	}

	s.mu.Lock()
	s.searchQueries = append(s.searchQueries, searchRequest{Query: q.Get("q"), MaxID: q.Get("max_id")})
	s.remaining["/search/tweets"]--
	s.mu.Unlock()

	page := s.page(q.Get("max_id"), atoiDefault(q.Get("count"), 15), func(gotwitter.Tweet) bool { return true })
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"statuses":        page,
		"search_metadata": map[string]interface{}{"count": len(page), "query": q.Get("q")},
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)
	if s.sendConfiguredError(w, "statuses/user_timeline.json") {
		return
	}
	q := r.URL.Query()
	name := q.Get("screen_name")

	s.mu.Lock()
	s.remaining["/statuses/user_timeline"]--
	s.mu.Unlock()

	page := s.page(q.Get("max_id"), atoiDefault(q.Get("count"), 20), func(t gotwitter.Tweet) bool {
		return t.User != nil && strings.EqualFold(t.User.ScreenName, name)
	})
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&s.requestCount, 1)
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, 0, "POST required")
		return
	}
	if s.sendConfiguredError(w, "favorites/create.json") {
		return
	}
	if err := r.ParseForm(); err != nil {
		writeAPIError(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	id := r.PostForm.Get("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, liked := range s.liked {
		if liked == id {
			writeAPIError(w, http.StatusForbidden, 139, "You have already favorited this status.")
			return
		}
	}
	for i := range s.statuses {
		if s.statuses[i].IDStr == id {
			s.liked = append(s.liked, id)
			s.statuses[i].Favorited = true
			s.statuses[i].FavoriteCount++
			writeJSON(w, http.StatusOK, s.statuses[i])
			return
		}
	}
	writeAPIError(w, http.StatusNotFound, 144, "No status found with that ID.")
}

// page returns up to count matching statuses with id <= maxID, newest first.
func (s *Server) page(maxID string, count int, keep func(gotwitter.Tweet) bool) []gotwitter.Tweet {
	var limit *big.Int
	if maxID != "" {
		limit, _ = new(big.Int).SetString(maxID, 10)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []gotwitter.Tweet
	for _, t := range s.statuses {
		if !keep(t) {
			continue
		}
		id, ok := new(big.Int).SetString(t.IDStr, 10)
		if !ok {
			continue
		}
		if limit != nil && id.Cmp(limit) > 0 {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := new(big.Int).SetString(out[i].IDStr, 10)
		b, _ := new(big.Int).SetString(out[j].IDStr, 10)
		return a.Cmp(b) > 0
	})
	if len(out) > count {
		out = out[:count]
	}
	return out
}

func (s *Server) sendConfiguredError(w http.ResponseWriter, endpoint string) bool {
	s.mu.RLock()
	status, ok := s.errorResponses[endpoint]
	reset := s.reset
	s.mu.RUnlock()
	if !ok {
		return false
	}
	switch status {
	case http.StatusTooManyRequests:
		w.Header().Set("X-Rate-Limit-Reset", strconv.FormatInt(reset.Unix(), 10))
		writeAPIError(w, status, 88, "Rate limit exceeded")
	case http.StatusUnauthorized:
		writeAPIError(w, status, 32, "Could not authenticate you.")
	default:
		writeAPIError(w, status, 0, http.StatusText(status))
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status, code int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"errors": []map[string]interface{}{{"code": code, "message": message}},
	})
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Status builds a status fixture. created is formatted the way the API does.
func Status(id, screenName, text string, likes, followers int, created time.Time) gotwitter.Tweet {
	n, _ := strconv.ParseInt(id, 10, 64)
	return gotwitter.Tweet{
		ID:            n,
		IDStr:         id,
		CreatedAt:     created.UTC().Format(time.RubyDate),
		FullText:      text,
		FavoriteCount: likes,
		User: &gotwitter.User{
			ScreenName:     screenName,
			FollowersCount: followers,
			FriendsCount:   followers / 2,
			IDStr:          fmt.Sprintf("u-%s", screenName),
		},
	}
}
