// Package loadtest drives synthetic calendar traffic against a running agenda
// server: it logs in a pool of users, then mixes event reads and writes at a
// paced request rate and reports latency per endpoint.
package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// LoadProfile names a predefined scenario.
type LoadProfile string

const (
	ProfileLight  LoadProfile = "light"  // 5 req/s, 1 minute
	ProfileMedium LoadProfile = "medium" // 20 req/s, 2 minutes
	ProfileHeavy  LoadProfile = "heavy"  // 50 req/s, 5 minutes
	ProfileStress LoadProfile = "stress" // 100 req/s, 10 minutes
)

// ProfileConfig defines the parameters for a load test.
type ProfileConfig struct {
	RequestsPerSecond int
	Duration          time.Duration
	RampUpTime        time.Duration
	RampDownTime      time.Duration
	ReadWriteRatio    float64 // 0.8 = 80% reads
	Users             int     // synthetic accounts logged in before the run
}

var LoadProfiles = map[LoadProfile]ProfileConfig{
	ProfileLight: {
		RequestsPerSecond: 5,
		Duration:          1 * time.Minute,
		RampUpTime:        10 * time.Second,
		RampDownTime:      10 * time.Second,
		ReadWriteRatio:    0.8,
		Users:             5,
	},
	ProfileMedium: {
		RequestsPerSecond: 20,
		Duration:          2 * time.Minute,
		RampUpTime:        20 * time.Second,
		RampDownTime:      20 * time.Second,
		ReadWriteRatio:    0.8,
		Users:             20,
	},
	ProfileHeavy: {
		RequestsPerSecond: 50,
		Duration:          5 * time.Minute,
		RampUpTime:        30 * time.Second,
		RampDownTime:      30 * time.Second,
		ReadWriteRatio:    0.7,
		Users:             50,
	},
	ProfileStress: {
		RequestsPerSecond: 100,
		Duration:          10 * time.Minute,
		RampUpTime:        1 * time.Minute,
		RampDownTime:      1 * time.Minute,
		ReadWriteRatio:    0.6,
		Users:             100,
	},
}

// session is one logged-in synthetic user and the events it has created.
type session struct {
	userID int64
	token  string

	mu     sync.Mutex
	events []int64
}

func (s *session) addEvent(id int64) {
	s.mu.Lock()
	s.events = append(s.events, id)
	s.mu.Unlock()
}

// pickEvent returns a random event id, or 0 when the user has none. When
// remove is set the id is dropped so it is not deleted twice.
func (s *session) pickEvent(rng func(int) int, remove bool) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.events) == 0 {
		return 0
	}
	i := rng(len(s.events))
	id := s.events[i]
	if remove {
		s.events = append(s.events[:i], s.events[i+1:]...)
	}
	return id
}

// LoadTester orchestrates load testing operations.
type LoadTester struct {
	baseURL    string
	httpClient *http.Client
	stats      *Statistics
	sessions   []*session
	prefix     string

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewLoadTester(baseURL string) *LoadTester {
	return &LoadTester{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		prefix:     fmt.Sprintf("loadtest-%d", time.Now().Unix()),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithHTTPClient swaps the client used for every request.
func (lt *LoadTester) WithHTTPClient(client *http.Client) *LoadTester {
	lt.httpClient = client
	return lt
}

func (lt *LoadTester) intn(n int) int {
	lt.rngMu.Lock()
	defer lt.rngMu.Unlock()
	return lt.rng.Intn(n)
}

func (lt *LoadTester) float() float64 {
	lt.rngMu.Lock()
	defer lt.rngMu.Unlock()
	return lt.rng.Float64()
}

// Run executes a load test with the specified profile.
func (lt *LoadTester) Run(ctx context.Context, profile LoadProfile) (*Statistics, error) {
	config, exists := LoadProfiles[profile]
	if !exists {
		return nil, fmt.Errorf("unknown profile: %s", profile)
	}
	return lt.RunCustom(ctx, config)
}

// RunCustom logs in config.Users accounts and then generates traffic until
// the profile ends or ctx is cancelled.
func (lt *LoadTester) RunCustom(ctx context.Context, config ProfileConfig) (*Statistics, error) {
	if config.RequestsPerSecond <= 0 {
		return nil, errors.New("requests per second must be > 0")
	}
	if config.Users <= 0 {
		config.Users = 1
	}

	if err := lt.login(ctx, config.Users); err != nil {
		return nil, err
	}

	lt.stats = newStatistics()

	workers := config.RequestsPerSecond * 2
	if workers < 10 {
		workers = 10
	}
	workChan := make(chan workItem, workers*2)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			lt.worker(gctx, workChan)
			return nil
		})
	}
	g.Go(func() error {
		defer close(workChan)
		lt.generateWork(gctx, config, workChan)
		return nil
	})
	_ = g.Wait()

	lt.stats.endTime = time.Now()
	return lt.stats, nil
}

type loginResponse struct {
	ID    int64  `json:"id"`
	Token string `json:"token"`
}

func (lt *LoadTester) login(ctx context.Context, users int) error {
	lt.sessions = make([]*session, 0, users)
	for i := 0; i < users; i++ {
		uid := fmt.Sprintf("%s-%d", lt.prefix, i)
		body := map[string]string{
			"firebaseUid": uid,
			"email":       uid + "@loadtest.invalid",
		}
		status, payload, err := lt.do(ctx, http.MethodPost, "/login", "", body)
		if err != nil {
			return fmt.Errorf("login %s: %w", uid, err)
		}
		if status != http.StatusOK {
			return fmt.Errorf("login %s: status %d", uid, status)
		}
		var resp loginResponse
		if err := json.Unmarshal(payload, &resp); err != nil {
			return fmt.Errorf("login %s: decode: %w", uid, err)
		}
		lt.sessions = append(lt.sessions, &session{userID: resp.ID, token: resp.Token})
	}
	return nil
}

// workItem is a single request bound to a user.
type workItem struct {
	session  *session
	method   string
	path     string
	body     any
	endpoint string
	// created marks a POST /events whose response id should be remembered.
	created bool
}

// generateWork paces work items with a token bucket whose rate follows the
// ramp-up, steady and ramp-down phases.
func (lt *LoadTester) generateWork(ctx context.Context, config ProfileConfig, workChan chan<- workItem) {
	start := time.Now()
	total := config.RampUpTime + config.Duration + config.RampDownTime

	current := calculateCurrentRPS(0, config)
	limiter := rate.NewLimiter(rate.Limit(current), 1)

	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		elapsed := time.Since(start)
		if elapsed > total {
			return
		}
		if rps := calculateCurrentRPS(elapsed, config); rps != current {
			current = rps
			limiter.SetLimit(rate.Limit(rps))
		}

		var item workItem
		if lt.float() < config.ReadWriteRatio {
			item = lt.generateReadRequest()
		} else {
			item = lt.generateWriteRequest()
		}

		select {
		case workChan <- item:
		case <-ctx.Done():
			return
		}
	}
}

// calculateCurrentRPS determines the target rate at elapsed, never below 1.
func calculateCurrentRPS(elapsed time.Duration, config ProfileConfig) int {
	target := config.RequestsPerSecond

	if elapsed < config.RampUpTime {
		progress := float64(elapsed) / float64(config.RampUpTime)
		return max(1, int(float64(target)*progress))
	}

	steadyEnd := config.RampUpTime + config.Duration
	if elapsed < steadyEnd {
		return target
	}

	down := elapsed - steadyEnd
	if down < config.RampDownTime {
		progress := float64(down) / float64(config.RampDownTime)
		return max(1, int(float64(target)*(1.0-progress)))
	}
	return 1
}

func (lt *LoadTester) randomSession() *session {
	return lt.sessions[lt.intn(len(lt.sessions))]
}

func (lt *LoadTester) generateReadRequest() workItem {
	s := lt.randomSession()
	if id := s.pickEvent(lt.intn, false); id != 0 && lt.intn(2) == 0 {
		return workItem{session: s, method: http.MethodGet, path: fmt.Sprintf("/events/%d", id), endpoint: "get_event"}
	}
	return workItem{session: s, method: http.MethodGet, path: fmt.Sprintf("/events?userId=%d", s.userID), endpoint: "list_events"}
}

func (lt *LoadTester) generateWriteRequest() workItem {
	s := lt.randomSession()
	roll := lt.intn(10)

	if roll >= 6 {
		remove := roll >= 8
		if id := s.pickEvent(lt.intn, remove); id != 0 {
			path := fmt.Sprintf("/events/%d", id)
			if remove {
				return workItem{session: s, method: http.MethodDelete, path: path, endpoint: "delete_event"}
			}
			return workItem{session: s, method: http.MethodPut, path: path, body: lt.randomEvent(0), endpoint: "update_event"}
		}
	}
	return workItem{session: s, method: http.MethodPost, path: "/events", body: lt.randomEvent(s.userID), endpoint: "create_event", created: true}
}

var eventTitles = []string{"Standup", "Dentist", "Gym", "Lunch with Sam", "Code review", "Flight", "Book club"}

// randomEvent builds a create body when userID is set and an update body
// otherwise.
func (lt *LoadTester) randomEvent(userID int64) map[string]any {
	day := time.Now().UTC().AddDate(0, 0, lt.intn(60))
	body := map[string]any{
		"title": eventTitles[lt.intn(len(eventTitles))],
		"date":  day.Format("2006-01-02"),
		"time":  fmt.Sprintf("%02d:%02d", 7+lt.intn(12), 15*lt.intn(4)),
	}
	if lt.intn(2) == 0 {
		body["description"] = "generated by agenda loadtest"
	}
	if userID != 0 {
		body["userId"] = userID
	}
	return body
}

func (lt *LoadTester) worker(ctx context.Context, workChan <-chan workItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case work, ok := <-workChan:
			if !ok {
				return
			}
			lt.executeRequest(ctx, work)
		}
	}
}

func (lt *LoadTester) executeRequest(ctx context.Context, work workItem) {
	start := time.Now()
	status, payload, err := lt.do(ctx, work.method, work.path, work.session.token, work.body)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		if ctx.Err() == nil {
			lt.stats.recordError(0, work.endpoint)
		}
		return
	}
	lt.stats.recordResponse(status, duration, work.endpoint)

	if work.created && status == http.StatusOK {
		var created struct {
			ID int64 `json:"id"`
		}
		if json.Unmarshal(payload, &created) == nil && created.ID != 0 {
			work.session.addEvent(created.ID)
		}
	}
}

func (lt *LoadTester) do(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, lt.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := lt.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, payload, nil
}

// Statistics tracks load test metrics.
type Statistics struct {
	mu sync.Mutex

	totalRequests   int64
	successRequests int64
	failedRequests  int64

	// milliseconds
	responseTimes []int64
	// status code -> count, 0 for transport errors
	errors        map[int]int64
	endpointStats map[string]*EndpointStats

	startTime time.Time
	endTime   time.Time
}

// EndpointStats tracks statistics for a specific endpoint.
type EndpointStats struct {
	count   int64
	total   int64
	times   []int64
	errors  int64
	minTime int64
	maxTime int64
}

func newStatistics() *Statistics {
	return &Statistics{
		errors:        make(map[int]int64),
		endpointStats: make(map[string]*EndpointStats),
		startTime:     time.Now(),
	}
}

// Total returns the number of requests attempted.
func (s *Statistics) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalRequests
}

// Failed returns the number of requests that errored or got a non-2xx status.
func (s *Statistics) Failed() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failedRequests
}

func (s *Statistics) recordResponse(statusCode int, durationMs int64, endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.responseTimes = append(s.responseTimes, durationMs)

	ok := statusCode >= 200 && statusCode < 300
	if ok {
		s.successRequests++
	} else {
		s.failedRequests++
		s.errors[statusCode]++
	}

	ep := s.endpointStats[endpoint]
	if ep == nil {
		ep = &EndpointStats{minTime: durationMs, maxTime: durationMs}
		s.endpointStats[endpoint] = ep
	}
	ep.count++
	ep.total += durationMs
	ep.times = append(ep.times, durationMs)
	ep.minTime = min(ep.minTime, durationMs)
	ep.maxTime = max(ep.maxTime, durationMs)
	if !ok {
		ep.errors++
	}
}

func (s *Statistics) recordError(statusCode int, endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalRequests++
	s.failedRequests++
	s.errors[statusCode]++

	if s.endpointStats[endpoint] == nil {
		s.endpointStats[endpoint] = &EndpointStats{}
	}
	s.endpointStats[endpoint].errors++
}

// Report generates a summary report of the load test.
func (s *Statistics) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	duration := s.endTime.Sub(s.startTime)
	total := s.totalRequests

	var b strings.Builder
	b.WriteString("\nLOAD TEST RESULTS\n")
	b.WriteString(strings.Repeat("=", 64) + "\n\n")

	fmt.Fprintf(&b, "Duration:        %s\n", duration.Round(time.Second))
	fmt.Fprintf(&b, "Total Requests:  %d\n", total)
	if total > 0 {
		fmt.Fprintf(&b, "Successful:      %d (%.1f%%)\n", s.successRequests, float64(s.successRequests)/float64(total)*100)
		fmt.Fprintf(&b, "Failed:          %d (%.1f%%)\n", s.failedRequests, float64(s.failedRequests)/float64(total)*100)
	}
	if duration > 0 {
		fmt.Fprintf(&b, "Requests/sec:    %.2f\n", float64(total)/duration.Seconds())
	}
	b.WriteString("\n")

	if len(s.responseTimes) > 0 {
		fmt.Fprintf(&b, "Response Times (ms):\n")
		fmt.Fprintf(&b, "  Average:  %d\n", average(s.responseTimes))
		fmt.Fprintf(&b, "  p50:      %d\n", calculatePercentile(s.responseTimes, 0.50))
		fmt.Fprintf(&b, "  p95:      %d\n", calculatePercentile(s.responseTimes, 0.95))
		fmt.Fprintf(&b, "  p99:      %d\n\n", calculatePercentile(s.responseTimes, 0.99))
	}

	if len(s.errors) > 0 {
		b.WriteString("Errors by Status Code:\n")
		codes := make([]int, 0, len(s.errors))
		for code := range s.errors {
			codes = append(codes, code)
		}
		sort.Ints(codes)
		for _, code := range codes {
			label := fmt.Sprint(code)
			if code == 0 {
				label = "transport"
			}
			fmt.Fprintf(&b, "  %s: %d\n", label, s.errors[code])
		}
		b.WriteString("\n")
	}

	if len(s.endpointStats) > 0 {
		names := make([]string, 0, len(s.endpointStats))
		for name := range s.endpointStats {
			names = append(names, name)
		}
		sort.Strings(names)

		b.WriteString("Per-Endpoint Statistics:\n")
		fmt.Fprintf(&b, "%-16s %8s %8s %8s %8s %8s %8s\n", "Endpoint", "Count", "Errors", "Avg(ms)", "p95(ms)", "Min", "Max")
		for _, name := range names {
			ep := s.endpointStats[name]
			if ep.count == 0 {
				fmt.Fprintf(&b, "%-16s %8d %8d\n", name, 0, ep.errors)
				continue
			}
			fmt.Fprintf(&b, "%-16s %8d %8d %8d %8d %8d %8d\n",
				name, ep.count, ep.errors, ep.total/ep.count, calculatePercentile(ep.times, 0.95), ep.minTime, ep.maxTime)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func average(times []int64) int64 {
	if len(times) == 0 {
		return 0
	}
	var sum int64
	for _, t := range times {
		sum += t
	}
	return sum / int64(len(times))
}

func calculatePercentile(times []int64, percentile float64) int64 {
	if len(times) == 0 {
		return 0
	}
	sorted := make([]int64, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * percentile)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
