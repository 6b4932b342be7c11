// File: facade/client.go
// Unified facade layer for the idos-aio library.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// This file defines the Client struct, which aggregates the protocol
// components behind a single facade: a gate (the simulated kernel by
// default, or any api.Gate), the control layer, and typed helpers for
// console and file I/O, graphics-mode ioctls, pipes, wake sets, and
// handle capabilities.

package facade

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"unsafe"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/control"
	"github.com/momentics/idos-aio/futex"
	"github.com/momentics/idos-aio/gate"
	"github.com/momentics/idos-aio/gatesim"
	"github.com/momentics/idos-aio/handle"
	"github.com/momentics/idos-aio/wakeset"
)

// Config holds parameters immutable per run.
type Config struct {
	QueueDepth   int          // per-object submission queue bound
	FutexBackend string       // "table" (portable) or "host" (Linux futex)
	LogLevel     string       // hclog level name for the simulated kernel
	Logger       hclog.Logger // overrides LogLevel when set
	EnableProbes bool         // register platform debug probes
}

// DefaultConfig returns default configuration values.
func DefaultConfig() *Config {
	return &Config{
		QueueDepth:   gatesim.DefaultQueueDepth,
		FutexBackend: "table",
		LogLevel:     "warn",
		EnableProbes: true,
	}
}

// Client is the synchronous-looking face over the async protocol.
type Client struct {
	gate    api.Gate
	kernel  *gatesim.Kernel
	ownTask *gatesim.TaskGate

	config  *control.ConfigStore
	metrics *control.MetricsRegistry
	probes  *control.DebugProbes
	closed  atomic.Bool
}

// live rejects I/O after Close: a stopped kernel would silently refuse
// every submission, and the distinct error says why.
func (c *Client) live() error {
	if c.closed.Load() {
		return api.ErrKernelStopped
	}
	return nil
}

// New starts a simulated kernel and connects a client task to it.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = hclog.New(&hclog.LoggerOptions{
			Name:  "idos-aio",
			Level: hclog.LevelFromString(cfg.LogLevel),
		})
	}

	var fx api.Futex
	switch cfg.FutexBackend {
	case "", "table":
		fx = futex.NewTable()
	case "host":
		host, err := futex.NewHost()
		if err != nil {
			return nil, fmt.Errorf("futex backend %q: %w", cfg.FutexBackend, err)
		}
		fx = host
	default:
		return nil, fmt.Errorf("unknown futex backend %q", cfg.FutexBackend)
	}

	metrics := control.NewMetricsRegistry()
	k := gatesim.NewKernel(gatesim.Options{
		Logger:     log,
		Futex:      fx,
		QueueDepth: cfg.QueueDepth,
		Metrics:    metrics,
	})
	tg := k.NewTask()

	c := &Client{
		gate:    tg,
		kernel:  k,
		ownTask: tg,
		config:  control.NewConfigStore(),
		metrics: metrics,
		probes:  control.NewDebugProbes(),
	}
	c.config.SetConfig(map[string]any{
		"queue_depth":   cfg.QueueDepth,
		"futex_backend": cfg.FutexBackend,
	})
	if cfg.EnableProbes {
		control.RegisterPlatformProbes(c.probes)
	}
	return c, nil
}

// NewWithGate connects the facade to an externally provided gate, such
// as a native trap gate on an IDOS-NX port. Kernel-side helpers
// (Console, NewTask) are unavailable in this mode.
func NewWithGate(g api.Gate) *Client {
	return &Client{
		gate:    g,
		config:  control.NewConfigStore(),
		metrics: control.NewMetricsRegistry(),
		probes:  control.NewDebugProbes(),
	}
}

// Gate exposes the underlying gate for lower-level callers.
func (c *Client) Gate() api.Gate {
	return c.gate
}

// Kernel returns the simulated kernel, nil for a custom gate.
func (c *Client) Kernel() *gatesim.Kernel {
	return c.kernel
}

// Console returns the preopened console handle.
func (c *Client) Console() handle.Ref {
	return handle.New(c.gate, gatesim.ConsoleHandle)
}

// Write writes to the console and returns the byte count.
func (c *Client) Write(p []byte) (int, error) {
	if err := c.live(); err != nil {
		return 0, err
	}
	n, err := aio.WriteSync(c.gate, gatesim.ConsoleHandle, p, 0)
	return int(n), err
}

// Read reads from the console into p.
func (c *Client) Read(p []byte) (int, error) {
	if err := c.live(); err != nil {
		return 0, err
	}
	n, err := aio.ReadSync(c.gate, gatesim.ConsoleHandle, p, 0)
	return int(n), err
}

// CreateFile allocates a file handle and binds it to path.
func (c *Client) CreateFile(path string) (handle.Ref, error) {
	if err := c.live(); err != nil {
		return handle.Ref{}, err
	}
	h, err := gate.CreateFileHandle(c.gate)
	if err != nil {
		return handle.Ref{}, err
	}
	if _, err := aio.OpenSync(c.gate, h, path); err != nil {
		return handle.Ref{}, err
	}
	return handle.New(c.gate, h), nil
}

// CreatePipe returns the read and write ends of a new pipe.
func (c *Client) CreatePipe() (rd, wr handle.Ref, err error) {
	if err := c.live(); err != nil {
		return handle.Ref{}, handle.Ref{}, err
	}
	rdH, wrH, err := gate.CreatePipe(c.gate)
	if err != nil {
		return handle.Ref{}, handle.Ref{}, err
	}
	return handle.New(c.gate, rdH), handle.New(c.gate, wrH), nil
}

// NewWakeSet creates a wake set for multiplexed waits.
func (c *Client) NewWakeSet() (*wakeset.Set, error) {
	if err := c.live(); err != nil {
		return nil, err
	}
	return wakeset.Create(c.gate)
}

// SetGraphicsMode switches the console into a graphics mode. The
// kernel fills mode.Framebuffer before completion.
func (c *Client) SetGraphicsMode(mode *api.GraphicsMode) error {
	if err := c.live(); err != nil {
		return err
	}
	_, err := aio.IoctlSync(c.gate, gatesim.ConsoleHandle, api.IoctlSetGraphics,
		api.Word(unsafe.Pointer(mode)), api.Word(unsafe.Sizeof(*mode)))
	runtime.KeepAlive(mode)
	return err
}

// SetTextMode returns the console to text mode.
func (c *Client) SetTextMode() error {
	if err := c.live(); err != nil {
		return err
	}
	_, err := aio.IoctlSync(c.gate, gatesim.ConsoleHandle, api.IoctlSetText, 0, 0)
	return err
}

// GetPalette reads the console palette.
func (c *Client) GetPalette() (api.Palette, error) {
	var pal api.Palette
	if err := c.live(); err != nil {
		return pal, err
	}
	_, err := aio.IoctlSync(c.gate, gatesim.ConsoleHandle, api.IoctlGetPalette,
		api.Word(unsafe.Pointer(&pal)), api.Word(unsafe.Sizeof(pal)))
	runtime.KeepAlive(&pal)
	return pal, err
}

// SetPalette installs a console palette.
func (c *Client) SetPalette(pal api.Palette) error {
	if err := c.live(); err != nil {
		return err
	}
	_, err := aio.IoctlSync(c.gate, gatesim.ConsoleHandle, api.IoctlSetPalette,
		api.Word(unsafe.Pointer(&pal)), api.Word(unsafe.Sizeof(pal)))
	runtime.KeepAlive(&pal)
	return err
}

// GetConfig implements api.Control.
func (c *Client) GetConfig() map[string]any {
	return c.config.GetSnapshot()
}

// SetConfig implements api.Control.
func (c *Client) SetConfig(cfg map[string]any) error {
	c.config.SetConfig(cfg)
	return nil
}

// Stats implements api.Control.
func (c *Client) Stats() map[string]any {
	out := c.metrics.GetSnapshot()
	for k, v := range c.probes.DumpState() {
		out[k] = v
	}
	return out
}

// OnReload implements api.Control.
func (c *Client) OnReload(fn func()) {
	c.config.OnReload(fn)
}

// RegisterDebugProbe implements api.Control.
func (c *Client) RegisterDebugProbe(name string, fn func() any) {
	c.probes.RegisterProbe(name, fn)
}

// Close stops the simulated kernel, if this client owns one. Further
// I/O through the client returns api.ErrKernelStopped.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	if c.kernel != nil {
		c.kernel.Stop()
	}
	return nil
}

var _ api.Control = (*Client)(nil)
