// Package browser manages headless Chrome processes for background audit
// jobs. Each job acquires exactly one session and must release it on every
// exit path.
package browser

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/sitelens/sitelens/internal/logging"
)

// Session is one isolated browser process. Pages created from it share the
// process but get their own tab context.
type Session interface {
	// Port is the DevTools debugging port external analyzers attach to.
	Port() int

	// NewPage opens a fresh tab and returns its context. The caller cancels
	// the returned func to close the tab.
	NewPage(ctx context.Context) (context.Context, context.CancelFunc, error)

	// Release terminates the browser process.
	Release()
}

// Manager acquires browser sessions.
type Manager interface {
	Acquire(ctx context.Context) (Session, error)
}

// ChromeManager launches sandboxed headless Chrome via chromedp's exec
// allocator, one process per Acquire.
type ChromeManager struct {
	cfg    Config
	logger logging.Logger
}

// NewChromeManager builds a ChromeManager.
func NewChromeManager(cfg Config, logger logging.Logger) *ChromeManager {
	return &ChromeManager{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "browser"}),
	}
}

func (m *ChromeManager) Acquire(ctx context.Context) (Session, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("reserve debugging port: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("remote-debugging-port", strconv.Itoa(port)),
	)
	if m.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(m.cfg.ExecPath))
	}

	// The session outlives the submit request, so the allocator hangs off
	// the background context, not the caller's.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	launchCtx, launchCancel := context.WithTimeout(browserCtx, m.cfg.LaunchTimeout)
	defer launchCancel()
	if err := chromedp.Run(launchCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	m.logger.Debug("browser session acquired", logging.Field{Key: "port", Value: port})
	return &chromeSession{
		port:          port,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		logger:        m.logger,
	}, nil
}

type chromeSession struct {
	port          int
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	logger        logging.Logger
	released      sync.Once
}

func (s *chromeSession) Port() int { return s.port }

func (s *chromeSession) NewPage(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if err := s.browserCtx.Err(); err != nil {
		return nil, nil, fmt.Errorf("session closed: %w", err)
	}
	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx)
	stop := context.AfterFunc(ctx, tabCancel)
	cancel := func() {
		stop()
		tabCancel()
	}
	return tabCtx, cancel, nil
}

func (s *chromeSession) Release() {
	s.released.Do(func() {
		s.browserCancel()
		s.allocCancel()
		s.logger.Debug("browser session released", logging.Field{Key: "port", Value: s.port})
	})
}

// WaitNetworkIdle returns a channel that fires once no network requests have
// been in flight on ctx's target for idleAfter.
func WaitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idleChan := make(chan struct{})
	var activeReqs int32
	var timer *time.Timer
	var timerMu sync.Mutex
	var once sync.Once

	startTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idleChan) })
			}
		})
	}
	startTimer()

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	return idleChan
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	if err := l.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
