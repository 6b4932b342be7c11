// File: gatesim/kernel.go
// Author: momentics <momentics@gmail.com>
//
// The kernel core: task and object bookkeeping, the syscall dispatch
// table, and the completion path shared by every provider.

package gatesim

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	hclog "github.com/hashicorp/go-hclog"

	"github.com/momentics/idos-aio/aio"
	"github.com/momentics/idos-aio/api"
	"github.com/momentics/idos-aio/control"
	"github.com/momentics/idos-aio/futex"
	"github.com/momentics/idos-aio/gate"
)

// ConsoleHandle is preopened in every task, like stdout on the real
// system.
const ConsoleHandle api.Handle = 1

// DefaultQueueDepth bounds each object's submission queue.
const DefaultQueueDepth = 64

// Options configures a Kernel. Zero values select the defaults.
type Options struct {
	Logger     hclog.Logger
	Futex      api.Futex
	QueueDepth int
	Metrics    *control.MetricsRegistry
}

// Kernel is the simulated kernel side of the gate.
type Kernel struct {
	log     hclog.Logger
	futex   api.Futex
	depth   int
	metrics *control.MetricsRegistry

	mu       sync.Mutex
	tasks    map[api.TaskID]*task
	objects  []*object
	nextTask uint32
	nextObj  uint32
	watch    map[api.Word][]*wakeSet
	stopped  bool

	console *Console
	wg      sync.WaitGroup
}

type task struct {
	id      api.TaskID
	handles map[api.Handle]*object
	sets    map[api.Handle]*wakeSet
	next    uint32
}

type object struct {
	id   uint32
	refs int
	prov provider
	wq   *workqueue
}

// provider is the completer side of one object kind. perform runs on the
// object's driver goroutine and may block; shutdown unblocks it.
type provider interface {
	kind() uint32
	accepts(opCode uint32) bool
	perform(op *aio.Op) uint32
	shutdown()
}

// NewKernel builds a kernel, its shared console, and the dispatch state.
func NewKernel(opt Options) *Kernel {
	log := opt.Logger
	if log == nil {
		log = hclog.NewNullLogger()
	}
	fx := opt.Futex
	if fx == nil {
		fx = futex.NewTable()
	}
	depth := opt.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	metrics := opt.Metrics
	if metrics == nil {
		metrics = control.NewMetricsRegistry()
	}
	k := &Kernel{
		log:     log.Named("gatesim"),
		futex:   fx,
		depth:   depth,
		metrics: metrics,
		tasks:   make(map[api.TaskID]*task),
		watch:   make(map[api.Word][]*wakeSet),
	}
	k.console = NewConsole()
	k.mu.Lock()
	k.addObjectLocked(k.console)
	k.mu.Unlock()
	return k
}

// NewTask registers a task and returns its gate. The console is
// preinstalled as ConsoleHandle.
func (k *Kernel) NewTask() *TaskGate {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.nextTask++
	t := &task{
		id:      api.TaskID(k.nextTask),
		handles: make(map[api.Handle]*object),
		sets:    make(map[api.Handle]*wakeSet),
	}
	consoleObj := k.objects[0]
	consoleObj.refs++
	t.handles[ConsoleHandle] = consoleObj
	t.next = uint32(ConsoleHandle)
	k.tasks[t.id] = t
	k.log.Debug("task created", "task", t.id)
	return &TaskGate{k: k, t: t}
}

// Console exposes the shared console for inspection and input injection.
func (k *Kernel) Console() *Console {
	return k.console
}

// Metrics exposes the kernel's metrics registry.
func (k *Kernel) Metrics() *control.MetricsRegistry {
	return k.metrics
}

// Stop shuts every provider down, drains the driver goroutines, and
// leaves any later syscall rejected.
func (k *Kernel) Stop() {
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		return
	}
	k.stopped = true
	objs := make([]*object, len(k.objects))
	copy(objs, k.objects)
	k.mu.Unlock()

	for _, obj := range objs {
		obj.prov.shutdown()
		obj.wq.close()
	}
	k.wg.Wait()
}

// TaskGate is one task's view of the kernel: an api.Gate whose calls run
// in that task's handle namespace.
type TaskGate struct {
	k *Kernel
	t *task
}

// Invoke implements api.Gate.
func (g *TaskGate) Invoke(num, a0, a1, a2 api.Word) api.Word {
	r0, _ := g.k.dispatch(g.t, num, a0, a1, a2)
	return r0
}

// Invoke2 implements api.Gate.
func (g *TaskGate) Invoke2(num, a0, a1, a2 api.Word) (api.Word, api.Word) {
	return g.k.dispatch(g.t, num, a0, a1, a2)
}

// TaskID identifies the task behind this gate, for handle transfers.
func (g *TaskGate) TaskID() api.TaskID {
	return g.t.id
}

var _ api.Gate = (*TaskGate)(nil)

type syscallFn func(k *Kernel, t *task, a0, a1, a2 api.Word) (api.Word, api.Word)

// The dispatch table is indexed by syscall number, one entry per gate
// vector.
var syscalls [0x40]syscallFn

func init() {
	syscalls[api.SysExit] = sysExit
	syscalls[api.SysYield] = sysYield
	syscalls[api.SysSleep] = sysSleep
	syscalls[api.SysGetTask] = sysGetTask
	syscalls[api.SysSubmitIO] = sysSubmitIO
	syscalls[api.SysFutexWait] = sysFutexWait
	syscalls[api.SysFutexWake] = sysFutexWake
	syscalls[api.SysCreateWakeSet] = sysCreateWakeSet
	syscalls[api.SysBlockWakeSet] = sysBlockWakeSet
	syscalls[api.SysWakeSetAdd] = sysWakeSetAdd
	syscalls[api.SysWakeSetRemove] = sysWakeSetRemove
	syscalls[api.SysCreateFileHandle] = sysCreateFileHandle
	syscalls[api.SysCreatePipe] = sysCreatePipe
	syscalls[api.SysTransferHandle] = sysTransferHandle
	syscalls[api.SysDupHandle] = sysDupHandle
}

func (k *Kernel) dispatch(t *task, num, a0, a1, a2 api.Word) (api.Word, api.Word) {
	if int(num) >= len(syscalls) || syscalls[num] == nil {
		k.log.Warn("unknown syscall", "num", num, "task", t.id)
		return api.InvalidHandleWord, 0
	}
	return syscalls[num](k, t, a0, a1, a2)
}

func sysExit(k *Kernel, t *task, code, _, _ api.Word) (api.Word, api.Word) {
	k.log.Debug("task exit", "task", t.id, "code", code)
	k.mu.Lock()
	for slot, obj := range t.handles {
		delete(t.handles, slot)
		k.releaseLocked(obj)
	}
	for slot, s := range t.sets {
		delete(t.sets, slot)
		k.detachSetLocked(s)
	}
	delete(k.tasks, t.id)
	k.mu.Unlock()
	return 0, 0
}

func sysYield(*Kernel, *task, api.Word, api.Word, api.Word) (api.Word, api.Word) {
	runtime.Gosched()
	return 0, 0
}

func sysSleep(_ *Kernel, _ *task, ms, _, _ api.Word) (api.Word, api.Word) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return 0, 0
}

func sysGetTask(_ *Kernel, t *task, _, _, _ api.Word) (api.Word, api.Word) {
	return api.Word(t.id), 0
}

// sysSubmitIO validates the handle and op code, then enqueues the
// descriptor. Everything that can go wrong here is a submission failure;
// the descriptor's signal word is never touched on this path.
func sysSubmitIO(k *Kernel, t *task, a0, a1, _ api.Word) (api.Word, api.Word) {
	fail := api.Word(api.SubmitFail)
	if a1 == 0 {
		return fail, 0
	}
	k.mu.Lock()
	if k.stopped {
		k.mu.Unlock()
		return fail, 0
	}
	obj, ok := t.handles[api.Handle(a0)]
	k.mu.Unlock()
	if !ok {
		k.log.Debug("submit on unknown handle", "task", t.id, "handle", a0)
		return fail, 0
	}

	op := (*aio.Op)(unsafe.Pointer(a1))
	switch op.OpCode {
	case api.OpClose, api.OpShare:
		// kernel-level ops, valid against any object
	default:
		if !obj.prov.accepts(op.OpCode) {
			k.log.Debug("unsupported op", "task", t.id, "op", op.OpCode)
			return fail, 0
		}
	}
	if !obj.wq.push(pendingOp{op: op, t: t, slot: api.Handle(a0)}) {
		k.log.Debug("submission queue full", "task", t.id, "handle", a0)
		return fail, 0
	}
	k.metrics.Inc("ops_submitted")
	return 0, 0
}

func sysFutexWait(k *Kernel, _ *task, a0, a1, a2 api.Word) (api.Word, api.Word) {
	if a0 == 0 {
		return api.Word(api.Mismatch), 0
	}
	addr := (*atomic.Uint32)(unsafe.Pointer(a0))
	k.metrics.Inc("futex_waits")
	st := k.futex.Wait(addr, uint32(a1), gate.DurationFromWord(a2))
	if st == api.TimedOut {
		k.metrics.Inc("wait_timeouts")
	}
	return api.Word(st), 0
}

func sysFutexWake(k *Kernel, _ *task, a0, a1, _ api.Word) (api.Word, api.Word) {
	if a0 == 0 {
		return 0, 0
	}
	addr := (*atomic.Uint32)(unsafe.Pointer(a0))
	n := k.futex.Wake(addr, int(a1))
	k.metrics.Inc("futex_wakes")
	k.notifyWatchers(a0)
	return api.Word(n), 0
}

func sysDupHandle(k *Kernel, t *task, a0, _, _ api.Word) (api.Word, api.Word) {
	k.mu.Lock()
	defer k.mu.Unlock()
	obj, ok := t.handles[api.Handle(a0)]
	if !ok {
		return api.InvalidHandleWord, 0
	}
	obj.refs++
	slot := t.allocSlot()
	t.handles[slot] = obj
	k.log.Debug("handle dup", "task", t.id, "from", a0, "to", slot)
	return api.Word(slot), 0
}

// sysTransferHandle flips ownership in one critical section: the slot
// disappears from the source task and appears in the target task with
// no window where both or neither hold it.
func sysTransferHandle(k *Kernel, t *task, a0, a1, _ api.Word) (api.Word, api.Word) {
	k.mu.Lock()
	defer k.mu.Unlock()
	obj, ok := t.handles[api.Handle(a0)]
	if !ok {
		return api.InvalidHandleWord, 0
	}
	target, ok := k.tasks[api.TaskID(a1)]
	if !ok {
		return api.InvalidHandleWord, 0
	}
	delete(t.handles, api.Handle(a0))
	slot := target.allocSlot()
	target.handles[slot] = obj
	k.log.Debug("handle transfer", "from_task", t.id, "to_task", target.id, "slot", slot)
	return api.Word(slot), 0
}

func sysCreateFileHandle(k *Kernel, t *task, _, _, _ api.Word) (api.Word, api.Word) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stopped {
		return api.InvalidHandleWord, 0
	}
	obj := k.addObjectLocked(newMemFile())
	slot := t.allocSlot()
	t.handles[slot] = obj
	return api.Word(slot), 0
}

func sysCreatePipe(k *Kernel, t *task, _, _, _ api.Word) (api.Word, api.Word) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stopped {
		return api.InvalidHandleWord, 0
	}
	rdProv, wrProv := newPipe()
	rdObj := k.addObjectLocked(rdProv)
	wrObj := k.addObjectLocked(wrProv)
	rd := t.allocSlot()
	t.handles[rd] = rdObj
	wr := t.allocSlot()
	t.handles[wr] = wrObj
	return api.Word(rd), api.Word(wr)
}

// addObjectLocked registers a provider with one reference and starts its
// driver goroutine. Caller holds k.mu.
func (k *Kernel) addObjectLocked(p provider) *object {
	k.nextObj++
	obj := &object{id: k.nextObj, refs: 1, prov: p, wq: newWorkqueue(k.depth)}
	k.objects = append(k.objects, obj)
	k.wg.Add(1)
	go k.serve(obj)
	return obj
}

func (k *Kernel) releaseLocked(obj *object) {
	obj.refs--
	if obj.refs > 0 {
		return
	}
	obj.prov.shutdown()
	obj.wq.close()
}

// serve is one object's driver task: pop, perform, complete.
func (k *Kernel) serve(obj *object) {
	defer k.wg.Done()
	for {
		p, ok := obj.wq.pop()
		if !ok {
			return
		}
		var result uint32
		switch p.op.OpCode {
		case api.OpShare:
			result = k.performShare(obj, p)
		case api.OpClose:
			result = k.performClose(obj, p)
		default:
			result = obj.prov.perform(p.op)
		}
		k.complete(p.op, result)
	}
}

// complete publishes the result, flips the signal, and performs the
// wake. The result store strictly precedes the signal store; a waiter
// that observed the signal therefore observes the result.
func (k *Kernel) complete(op *aio.Op, result uint32) {
	k.metrics.Inc("ops_completed")
	op.Complete(result)
	k.futex.Wake(&op.Signal, 1)
	k.notifyWatchers(op.SignalAddr())
}

func (k *Kernel) performShare(obj *object, p pendingOp) uint32 {
	k.mu.Lock()
	defer k.mu.Unlock()
	target, ok := k.tasks[api.TaskID(p.op.Args[0])]
	if !ok {
		return api.EncodeError(api.IOErrInvalidArgument)
	}
	obj.refs++
	slot := target.allocSlot()
	target.handles[slot] = obj
	k.log.Debug("handle share", "to_task", target.id, "slot", slot)
	return uint32(slot)
}

func (k *Kernel) performClose(obj *object, p pendingOp) uint32 {
	k.mu.Lock()
	cur, ok := p.t.handles[p.slot]
	if !ok || cur != obj {
		k.mu.Unlock()
		return api.EncodeError(api.IOErrHandleInvalid)
	}
	delete(p.t.handles, p.slot)
	k.releaseLocked(obj)
	k.mu.Unlock()
	return 0
}

func (t *task) allocSlot() api.Handle {
	for {
		t.next++
		slot := api.Handle(t.next)
		if _, taken := t.handles[slot]; taken {
			continue
		}
		if _, taken := t.sets[slot]; taken {
			continue
		}
		return slot
	}
}

// wordSlice reinterprets an (address, length) argument pair as caller
// memory, the way the kernel maps a user buffer.
func wordSlice(addr, n api.Word) []byte {
	if addr == 0 || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(n))
}

// putStat fills the caller's StatInfo record named by the descriptor
// args.
func putStat(op *aio.Op, info api.StatInfo) uint32 {
	if op.Args[0] == 0 || op.Args[1] < api.Word(unsafe.Sizeof(info)) {
		return api.EncodeError(api.IOErrInvalidArgument)
	}
	*(*api.StatInfo)(unsafe.Pointer(op.Args[0])) = info
	return 0
}
