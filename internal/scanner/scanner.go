package scanner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Vodeneev/footstats/internal/pkg/config"
	"github.com/Vodeneev/footstats/internal/search"
)

const (
	defaultInterval = 15 * time.Minute
	defaultCooldown = 12 * time.Hour
	scanTimeout     = 2 * time.Minute
)

// Searcher runs one search.
type Searcher interface {
	Search(ctx context.Context, f search.Filters) (*search.Response, error)
}

// Notifier delivers alerts for search results.
type Notifier interface {
	SendStreakAlert(ctx context.Context, r search.Result) error
}

// Scanner runs a fixed search periodically and alerts on new results.
// The loop can be started and stopped at runtime.
type Scanner struct {
	searcher Searcher
	notifier Notifier
	filters  search.Filters
	enabled  bool
	interval time.Duration
	cooldown time.Duration
	now      func() time.Time

	sentMu sync.Mutex
	sent   map[string]time.Time

	asyncTicker  *time.Ticker
	asyncMu      sync.RWMutex
	asyncStopped bool
	asyncCtx     context.Context
	asyncCancel  context.CancelFunc
}

// NewScanner builds a scanner from config. notifier may be nil, in which
// case results are only logged.
func NewScanner(cfg *config.ScannerConfig, searcher Searcher, notifier Notifier) (*Scanner, error) {
	filters, err := DecodeFilters(cfg.Search)
	if err != nil {
		return nil, err
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	cooldown := cfg.AlertCooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	return &Scanner{
		searcher: searcher,
		notifier: notifier,
		filters:  filters,
		enabled:  cfg.Enabled,
		interval: interval,
		cooldown: cooldown,
		now:      time.Now,
		sent:     make(map[string]time.Time),
	}, nil
}

// DecodeFilters converts the free-form config section into search filters.
func DecodeFilters(raw map[string]any) (search.Filters, error) {
	var f search.Filters
	if len(raw) == 0 {
		return f, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return f, fmt.Errorf("failed to encode scanner search filters: %w", err)
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("failed to decode scanner search filters: %w", err)
	}
	return f, nil
}

func (s *Scanner) Start(ctx context.Context) error {
	if s.enabled {
		if err := s.StartAsync(); err != nil {
			return err
		}
	} else {
		slog.Info("Scanner disabled, waiting for /async/start")
	}

	<-ctx.Done()

	s.StopAsync()
	return nil
}

// StartAsync starts or restarts the scan loop
func (s *Scanner) StartAsync() error {
	s.asyncMu.Lock()
	defer s.asyncMu.Unlock()

	if s.searcher == nil {
		return fmt.Errorf("scanner has no searcher")
	}

	// If already running, don't restart
	if s.asyncTicker != nil && !s.asyncStopped {
		slog.Info("Scanner already running")
		return nil
	}

	if s.asyncCancel != nil {
		s.asyncCancel()
	}
	s.asyncCtx, s.asyncCancel = context.WithCancel(context.Background())

	s.asyncStopped = false
	if s.asyncTicker != nil {
		s.asyncTicker.Stop()
	}
	s.asyncTicker = time.NewTicker(s.interval)

	slog.Info("Scanner started", "interval", s.interval, "cooldown", s.cooldown)
	go s.runAsyncProcessing(s.asyncCtx, s.asyncTicker)

	return nil
}

func (s *Scanner) runAsyncProcessing(ctx context.Context, ticker *time.Ticker) {
	// Run immediately on start
	s.scanLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Scanner loop exited")
			return
		case <-ticker.C:
			if !s.IsAsyncRunning() {
				return
			}
			s.scanLogged(ctx)
		}
	}
}

func (s *Scanner) scanLogged(ctx context.Context) {
	scanCtx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()
	if _, err := s.ScanOnce(scanCtx); err != nil && ctx.Err() == nil {
		slog.Error("Scan failed", "error", err)
	}
}

// ScanOnce runs the search and alerts on results not alerted within the
// cooldown. It returns the number of alerts handed to the notifier.
func (s *Scanner) ScanOnce(ctx context.Context) (int, error) {
	resp, err := s.searcher.Search(ctx, s.filters)
	if err != nil {
		return 0, fmt.Errorf("failed to run search: %w", err)
	}

	now := s.now()
	s.sentMu.Lock()
	for k, at := range s.sent {
		if now.Sub(at) >= s.cooldown {
			delete(s.sent, k)
		}
	}
	fresh := make([]search.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		key := alertKey(r)
		if _, ok := s.sent[key]; ok {
			continue
		}
		fresh = append(fresh, r)
	}
	s.sentMu.Unlock()

	alerts := 0
	for _, r := range fresh {
		if s.notifier == nil {
			slog.Info("Scanner match", "team", r.Name, "market", r.Market, "prob_green", r.ProbGreen)
		} else if err := s.notifier.SendStreakAlert(ctx, r); err != nil {
			slog.Warn("Failed to queue alert", "team_id", r.ID, "market", r.Market, "error", err)
			continue
		}
		s.sentMu.Lock()
		s.sent[alertKey(r)] = now
		s.sentMu.Unlock()
		alerts++
	}

	slog.Info("Scan complete",
		"search_id", resp.SearchID,
		"results", len(resp.Results),
		"alerts", alerts)
	return alerts, nil
}

func alertKey(r search.Result) string {
	return fmt.Sprintf("%d|%s|%s", r.ID, r.Market, r.NextMatchDate.UTC().Format(time.RFC3339))
}

// StopAsync stops the scan loop
func (s *Scanner) StopAsync() {
	s.asyncMu.Lock()
	defer s.asyncMu.Unlock()

	if !s.asyncStopped && s.asyncTicker != nil {
		s.asyncStopped = true
		s.asyncTicker.Stop()
		if s.asyncCancel != nil {
			s.asyncCancel()
		}
		slog.Info("Scanner stopped")
	}
}

// IsAsyncRunning returns true if the scan loop is currently running
func (s *Scanner) IsAsyncRunning() bool {
	s.asyncMu.RLock()
	defer s.asyncMu.RUnlock()
	return s.asyncTicker != nil && !s.asyncStopped
}
