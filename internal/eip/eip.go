// Package eip maintains an in-memory index of Ergo Improvement Proposal
// documents mirrored from an external source-controlled repository: clone
// or pull on load, parse into EIPSummary/EIPDetail entries, and refresh on
// a timer in the background via a sleep-loop-plus-stop-channel shape.
package eip

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ergoplatform/ergo-chain-analytics/internal/apierror"
	"github.com/ergoplatform/ergo-chain-analytics/internal/logger"
	"github.com/ergoplatform/ergo-chain-analytics/internal/types"
	blackfriday "github.com/russross/blackfriday/v2"
)

var (
	filenamePattern  = regexp.MustCompile(`^eip-(\d+)\.md$`)
	titlePattern     = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	statusRowPattern = regexp.MustCompile(`(?m)^\s*\|\s*Status\s*\|\s*([^|]+?)\s*\|`)
)

const sleepIncrement = 60 * time.Second
const shutdownJoinBound = 5 * time.Second

// index is the immutable snapshot swapped atomically by the refresh loop.
type index struct {
	byNumber map[int]types.EIPDetail
}

// Mirror owns the on-disk clone and the in-memory EIPIndex built from it.
type Mirror struct {
	repoURL  string
	dir      string
	interval time.Duration
	log      logger.Logger

	current atomic.Pointer[index]

	sigStop chan struct{}
	wg      sync.WaitGroup
}

// New builds a Mirror. Load or Start must be called before List/Get return
// any data.
func New(repoURL, dir string, interval time.Duration, log logger.Logger) *Mirror {
	m := &Mirror{repoURL: repoURL, dir: dir, interval: interval, log: log, sigStop: make(chan struct{})}
	m.current.Store(&index{byNumber: map[int]types.EIPDetail{}})
	return m
}

// Load performs the initial clone-or-pull-then-parse cycle synchronously.
func (m *Mirror) Load() error {
	if err := m.syncRepo(); err != nil {
		m.log.Errorf("eip: initial sync failed: %v", err)
		return err
	}
	return m.refresh()
}

// Start launches the background refresh loop. Call Load first to populate
// the index before serving requests.
func (m *Mirror) Start() {
	m.wg.Add(1)
	go m.refreshLoop()
}

// Stop signals the refresh loop to exit and waits up to shutdownJoinBound.
func (m *Mirror) Stop() {
	close(m.sigStop)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.log.Notice("eip: refresh loop stopped")
	case <-time.After(shutdownJoinBound):
		m.log.Warningf("eip: refresh loop did not stop within %s", shutdownJoinBound)
	}
}

func (m *Mirror) refreshLoop() {
	defer m.wg.Done()
	m.log.Notice("eip: refresh loop starting")

	for {
		if !m.sleepInterruptible(m.interval) {
			return
		}
		if err := m.syncRepo(); err != nil {
			m.log.Errorf("eip: refresh sync failed, keeping previous index: %v", err)
			continue
		}
		if err := m.refresh(); err != nil {
			m.log.Errorf("eip: refresh parse failed, keeping previous index: %v", err)
		}
	}
}

// sleepInterruptible sleeps in ≤60s increments, returning false if the stop
// signal fires before the full duration elapses.
func (m *Mirror) sleepInterruptible(total time.Duration) bool {
	remaining := total
	for remaining > 0 {
		step := sleepIncrement
		if remaining < step {
			step = remaining
		}
		select {
		case <-m.sigStop:
			return false
		case <-time.After(step):
			remaining -= step
		}
	}
	return true
}

// syncRepo clones the repo if dir doesn't exist, otherwise pulls. On
// pull/clone failure with an existing dir, removes it and re-clones once.
func (m *Mirror) syncRepo() error {
	if _, err := os.Stat(m.dir); os.IsNotExist(err) {
		return m.clone()
	}

	if err := m.pull(); err != nil {
		m.log.Warningf("eip: pull failed (%v), removing and re-cloning", err)
		if rmErr := os.RemoveAll(m.dir); rmErr != nil {
			return apierror.Wrap(apierror.TransportFailure, "eip/sync", rmErr, "failed to remove stale mirror dir")
		}
		if err := m.clone(); err != nil {
			return apierror.Wrap(apierror.TransportFailure, "eip/sync", err, "re-clone after failed pull also failed")
		}
	}
	return nil
}

func (m *Mirror) clone() error {
	cmd := exec.Command("git", "clone", "--depth", "1", m.repoURL, m.dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git clone failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (m *Mirror) pull() error {
	cmd := exec.Command("git", "-C", m.dir, "pull", "--ff-only")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git pull failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// refresh walks the mirror directory, parses every eip-<n>.md file, and
// atomically publishes the new index.
func (m *Mirror) refresh() error {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return apierror.Wrap(apierror.TransportFailure, "eip/refresh", err, "failed to read mirror directory")
	}

	built := &index{byNumber: map[int]types.EIPDetail{}}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := filenamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}

		detail, err := m.parseFile(filepath.Join(m.dir, entry.Name()), match[1])
		if err != nil {
			m.log.Errorf("eip: failed to parse %s: %v", entry.Name(), err)
			continue
		}
		built.byNumber[detail.Number] = *detail
	}

	m.current.Store(built)
	m.log.Infof("eip: published index with %d entries", len(built.byNumber))
	return nil
}

func (m *Mirror) parseFile(path, numberStr string) (*types.EIPDetail, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(raw)

	number := 0
	fmt.Sscanf(numberStr, "%d", &number)

	title := "Unknown Title"
	if m := titlePattern.FindStringSubmatch(text); m != nil {
		title = strings.TrimSpace(m[1])
	}

	status := "Unknown"
	if m := statusRowPattern.FindStringSubmatch(text); m != nil {
		status = strings.TrimSpace(m[1])
	}

	content := string(blackfriday.Run([]byte(text)))

	return &types.EIPDetail{
		EIPSummary: types.EIPSummary{Number: number, Title: title, Status: status},
		Content:    content,
	}, nil
}

// List returns every EIPSummary sorted by number ascending.
func (m *Mirror) List() []types.EIPSummary {
	idx := m.current.Load()
	summaries := make([]types.EIPSummary, 0, len(idx.byNumber))
	for _, d := range idx.byNumber {
		summaries = append(summaries, d.EIPSummary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Number < summaries[j].Number })
	return summaries
}

// Get looks up one EIP by number.
func (m *Mirror) Get(number int) (*types.EIPDetail, bool) {
	idx := m.current.Load()
	detail, ok := idx.byNumber[number]
	if !ok {
		return nil, false
	}
	return &detail, true
}
