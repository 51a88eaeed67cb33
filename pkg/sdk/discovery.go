package sdk

import (
	"context"
	"fmt"
	"sync"

	"github.com/eflash24/eflash-store/internal/accounts"
	"github.com/eflash24/eflash-store/internal/engine"
	"github.com/eflash24/eflash-store/internal/vault"
	"github.com/eflash24/eflash-store/pkg/broadcast"
	"github.com/eflash24/eflash-store/pkg/schema"
)

// Client bundles every feature over one gateway, one local store and one bus.
type Client struct {
	cfg      Config
	bus      *broadcast.Bus
	gateway  *GatewayClient // nil when offline
	local    *engine.MemStore
	registry *schema.Registry

	mu          sync.Mutex
	collections map[string]*Collection
	pushMu      sync.Mutex

	accounts      *Accounts
	analytics     *Analytics
	notifications *Notifications
}

// New opens the local store in cfg.DataDir and, unless offline, prepares
// the gateway client. The gateway is not contacted here; every call decides
// for itself whether it is reachable.
func New(cfg Config) (*Client, error) {
	// The local store is the same engine the gateway runs on, embedded in
	// the client process with timestamp ids.
	local, err := engine.OpenMemStore(cfg.DataDir, engine.WithIDs(engine.NewTimestampIDs()))
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	c := &Client{
		cfg:         cfg,
		bus:         broadcast.New(),
		local:       local,
		registry:    schema.DefaultRegistry(),
		collections: make(map[string]*Collection),
	}
	if !cfg.Offline && cfg.BaseURL() != "" {
		c.gateway = NewGatewayClient(cfg.BaseURL(), cfg.AuthBaseURL(),
			WithTimeout(cfg.Timeout),
			WithRetries(cfg.Retries, 0),
		)
	}

	hasher, err := vault.NewHasher(vault.AlgoBcrypt, cfg.HashCost)
	if err != nil {
		local.Close()
		return nil, err
	}
	creds := accounts.NewService(local, hasher, accounts.WithAdminEmail(cfg.AdminEmail))

	var authBackend AuthBackend
	if c.gateway != nil {
		authBackend = c.gateway
	}
	usersSpec, _ := c.registry.Lookup("users")
	c.accounts = NewAccounts(authBackend, creds, local, c.bus,
		WithSessionKey(cfg.SessionKey),
		WithEvents(usersSpec.Events...),
	)
	c.analytics = NewAnalytics(local, c.bus)
	c.notifications = NewNotifications(local, c.bus)

	if _, err := c.accounts.SeedAdmin(context.Background(), cfg.AdminPassword); err != nil {
		local.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return c, nil
}

// Bus is the change broadcast shared by every feature of this client.
func (c *Client) Bus() *broadcast.Bus { return c.bus }

// Config returns the configuration the client was built with.
func (c *Client) Config() Config { return c.cfg }

// Collection returns the resilient client for name, creating it on first use.
func (c *Client) Collection(name string) (*Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if col, ok := c.collections[name]; ok {
		return col, nil
	}
	if schema.IsReserved(name) {
		return nil, fmt.Errorf("%w: collection %q is reserved", schema.ErrBadRequest, name)
	}
	spec, _ := c.registry.Lookup(name)

	var remote Remote
	if c.gateway != nil {
		remote = c.gateway
	}
	col, err := NewCollection(spec, remote, c.local, c.bus)
	if err != nil {
		return nil, err
	}
	c.collections[name] = col
	return col, nil
}

func (c *Client) mustCollection(name string) *Collection {
	col, err := c.Collection(name)
	if err != nil {
		panic(err)
	}
	return col
}

// Feature families.
func (c *Client) Products() *Collection  { return c.mustCollection("products") }
func (c *Client) Projects() *Collection  { return c.mustCollection("projects") }
func (c *Client) Orders() *Collection    { return c.mustCollection("orders") }
func (c *Client) Reviews() *Collection   { return c.mustCollection("reviews") }
func (c *Client) Users() *Collection     { return c.mustCollection("users") }
func (c *Client) BlogPosts() *Collection { return c.mustCollection("blog_posts") }

func (c *Client) Accounts() *Accounts           { return c.accounts }
func (c *Client) Analytics() *Analytics         { return c.analytics }
func (c *Client) Notifications() *Notifications { return c.notifications }

// Push copies local records the gateway has not received from this client.
// There is no merge: records are inserted as new and the gateway assigns
// their ids. Sent ids are kept in the pushed slot, so running Push again
// only sends records added since; local edits to a pushed record are not
// sent again.
func (c *Client) Push(ctx context.Context) (int, error) {
	if c.gateway == nil {
		return 0, fmt.Errorf("%w: client is offline", schema.ErrTransport)
	}
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	log := pushLog{}
	if _, err := c.local.GetSlot(SlotPushed, &log); err != nil {
		return 0, fmt.Errorf("read push log: %w", err)
	}
	n, err := engine.Migrate(ctx,
		pendingSource{Source: c.local, sent: log},
		recordingWriter{Writer: c.gateway, sent: log},
		func(name string) bool { return !schema.IsReserved(name) },
	)
	// Partial progress is recorded too.
	if serr := c.local.SetSlot(SlotPushed, log); serr != nil && err == nil {
		err = fmt.Errorf("save push log: %w", serr)
	}
	return n, err
}

// Close waits for pending local writes.
func (c *Client) Close() error {
	return c.local.Close()
}
