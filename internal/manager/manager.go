package manager

import (
	"context"
	"log"
	"path"
	"strconv"
	"time"

	"github.com/dreamware/torua/internal/cluster"
	"github.com/dreamware/torua/internal/notify"
	"github.com/dreamware/torua/internal/store"
	"github.com/dreamware/torua/internal/watcher"
)

type state int

const (
	stateDisconnected0 state = iota
	stateConnected
	stateDisconnected1
	stateShutdown
)

// Config configures a Manager. NewClient and Notifier are required. A zero
// OpTimeout defaults to 5s and a zero RefreshInterval disables the ticker;
// SessionTimeout is passed to Connect as given, with no default.
type Config struct {
	// Addr is the coordination-store address passed to Client.Connect.
	Addr string
	// Root is the cluster root znode path, e.g. "/torua". Members live
	// under Root+"/members", availability entries under Root+"/available".
	Root string
	// SessionTimeout is passed to Client.Connect.
	SessionTimeout time.Duration
	// OpTimeout bounds each individual store operation. Defaults to 5s.
	OpTimeout time.Duration
	// RefreshInterval, if non-zero, arms the periodic defensive refresh
	// ticker described in doc.go.
	RefreshInterval time.Duration
	// NewClient constructs a fresh, unconnected store.Client. Called once
	// at Start and again on every Expired event.
	NewClient func() store.Client
	// Notifier receives Connected/Disconnected/NodesChanged/Shutdown
	// events as the manager's state evolves.
	Notifier *notify.Manager
	// Logger receives refresh/watcher-failure diagnostics. Defaults to
	// log.Default().
	Logger *log.Logger
}

// Manager is the Cluster Manager described in doc.go. The zero value is not
// usable; construct with New.
type Manager struct {
	addr            string
	root            string
	sessionTimeout  time.Duration
	opTimeout       time.Duration
	refreshInterval time.Duration
	newClient       func() store.Client
	notifier        *notify.Manager
	logger          *log.Logger
	adapter         *watcher.Adapter

	mailbox chan any
	stopCh  chan struct{}
	ready   chan struct{}

	// Fields below are owned exclusively by the run loop goroutine.
	state        state
	client       store.Client
	currentView  cluster.View
	availability map[int32]bool
	sessionSeq   int
}

// New constructs a Manager. Call Start to begin its run loop and open the
// first coordination-store session.
func New(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	opTimeout := cfg.OpTimeout
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	root := cfg.Root
	if root == "" {
		root = "/torua"
	}

	m := &Manager{
		addr:            cfg.Addr,
		root:            root,
		sessionTimeout:  cfg.SessionTimeout,
		opTimeout:       opTimeout,
		refreshInterval: cfg.RefreshInterval,
		newClient:       cfg.NewClient,
		notifier:        cfg.Notifier,
		logger:          logger,
		mailbox:         make(chan any, 256),
		stopCh:          make(chan struct{}),
		ready:           make(chan struct{}),
		state:           stateDisconnected0,
	}
	m.adapter = watcher.New(m, logger)
	return m
}

// Post implements watcher.Sink: it enqueues msg without blocking, reporting
// whether the mailbox accepted it.
func (m *Manager) Post(msg watcher.Message) bool {
	select {
	case m.mailbox <- msg:
		return true
	default:
		return false
	}
}

// Start opens the first coordination-store session and begins the run
// loop. Must be called exactly once.
func (m *Manager) Start() {
	go m.run()
}

// WaitReady blocks until the first coordination-store session has been
// opened (its store.Client constructed and Connect called). Tests use this
// to synchronize with the newClient factory before simulating session
// events on the client it returned.
func (m *Manager) WaitReady() {
	<-m.ready
}

// Shutdown closes the store handle, publishes notify.Shutdown, and stops
// the run loop. Idempotent: a second call is a no-op once the first
// completes, returning as soon as stopCh is observed closed rather than
// blocking on a mailbox nothing will drain again.
func (m *Manager) Shutdown() {
	done := make(chan struct{})
	select {
	case m.mailbox <- shutdownCmd{done: done}:
	case <-m.stopCh:
		return
	}
	<-done
}

func (m *Manager) run() {
	m.openSession()
	close(m.ready)
	if m.refreshInterval > 0 {
		go m.tickLoop()
	}

	for raw := range m.mailbox {
		switch msg := raw.(type) {
		case watcher.Connected:
			m.handleConnected()
		case watcher.Disconnected:
			m.handleDisconnected()
		case watcher.Expired:
			m.handleExpired()
		case watcher.NodeChildrenChanged:
			m.handleChildrenChanged(msg.Path)
		case refreshTick:
			m.handleRefreshTick()
		case addNodeCmd:
			msg.reply <- m.handleAddNode(msg.node)
		case removeNodeCmd:
			msg.reply <- m.handleRemoveNode(msg.id)
		case markAvailableCmd:
			msg.reply <- m.handleMarkAvailable(msg.id)
		case markUnavailableCmd:
			msg.reply <- m.handleMarkUnavailable(msg.id)
		case viewQuery:
			msg.reply <- m.currentView.Clone()
		case sessionSeqQuery:
			msg.reply <- m.sessionSeq
		case shutdownCmd:
			m.handleShutdown()
			close(m.stopCh)
			close(msg.done)
			return
		}
	}
}

func (m *Manager) tickLoop() {
	ticker := time.NewTicker(m.refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			select {
			case m.mailbox <- refreshTick{}:
			default:
			}
		case <-m.stopCh:
			return
		}
	}
}

func (m *Manager) openSession() {
	m.client = m.newClient()
	m.sessionSeq++
	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	defer cancel()
	if err := m.client.Connect(ctx, m.addr, m.sessionTimeout, m.adapter.Func()); err != nil {
		m.logger.Printf("manager: connect failed: %v", err)
	}
}

func (m *Manager) handleConnected() {
	if m.state == stateShutdown {
		return
	}
	if err := m.ensurePaths(); err != nil {
		m.logger.Printf("manager: znode verification failed, staying disconnected: %v", err)
		m.state = stateDisconnected1
		return
	}
	view, avail, err := m.refresh()
	if err != nil {
		m.logger.Printf("manager: initial refresh failed, staying disconnected: %v", err)
		m.state = stateDisconnected1
		return
	}
	m.currentView = view
	m.availability = avail
	m.state = stateConnected
	m.notifier.Publish(notify.Connected{View: m.currentView.Clone()})
}

func (m *Manager) handleDisconnected() {
	if m.state != stateConnected {
		return
	}
	m.state = stateDisconnected1
	m.notifier.Publish(notify.Disconnected{})
}

func (m *Manager) handleExpired() {
	if m.state == stateShutdown {
		return
	}
	if m.client != nil {
		_ = m.client.Close()
	}
	m.currentView = nil
	m.availability = nil
	m.state = stateDisconnected1
	m.openSession()
}

func (m *Manager) handleShutdown() {
	if m.state == stateShutdown {
		return
	}
	if m.client != nil {
		_ = m.client.Close()
	}
	m.state = stateShutdown
	m.notifier.Publish(notify.Shutdown{})
}

func (m *Manager) handleChildrenChanged(p string) {
	if m.state != stateConnected {
		return
	}
	if p != m.membersPath() && p != m.availablePath() {
		return
	}
	m.refreshAndPublish()
}

func (m *Manager) handleRefreshTick() {
	if m.state != stateConnected {
		return
	}
	m.refreshAndPublish()
}

func (m *Manager) refreshAndPublish() {
	view, avail, err := m.refresh()
	if err != nil {
		m.logger.Printf("manager: refresh failed: %v", err)
		return
	}
	m.currentView = view
	m.availability = avail
	m.notifier.Publish(notify.NodesChanged{View: m.currentView.Clone()})
}

func (m *Manager) ensurePaths() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.opTimeout)
	defer cancel()

	for _, p := range []string{m.root, m.membersPath(), m.availablePath()} {
		exists, err := m.client.Exists(ctx, p, false)
		if err != nil {
			return &StoreError{Op: "exists(" + p + ")", Err: err}
		}
		if exists {
			continue
		}
		if _, err := m.client.Create(ctx, p, nil, store.Persistent); err != nil {
			return &StoreError{Op: "create(" + p + ")", Err: err}
		}
	}
	return nil
}

func (m *Manager) membersPath() string   { return path.Join(m.root, "members") }
func (m *Manager) availablePath() string { return path.Join(m.root, "available") }

func (m *Manager) memberPath(id int32) string {
	return path.Join(m.membersPath(), strconv.Itoa(int(id)))
}

func (m *Manager) availablePathFor(id int32) string {
	return path.Join(m.availablePath(), strconv.Itoa(int(id)))
}

func parseID(name string) (int32, error) {
	n, err := strconv.Atoi(name)
	if err != nil {
		return 0, err
	}
	return int32(n), nil
}

func newOpContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
