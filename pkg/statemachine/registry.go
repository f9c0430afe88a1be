package statemachine

import (
	"fmt"
	"sort"
	"sync"
)

// Registry 按名称管理多个状态机
//
// 每个状态机由独立的互斥锁保护，不同状态机之间可以并行处理事件，
// 同一状态机上的操作依次执行。
type Registry struct {
	mu       sync.RWMutex
	machines map[string]*entry
}

type entry struct {
	mu  sync.Mutex
	fsm *FSM
}

// NewRegistry 创建状态机注册表
func NewRegistry() *Registry {
	return &Registry{
		machines: make(map[string]*entry),
	}
}

// Add 注册状态机，同名时替换
func (r *Registry) Add(name string, fsm *FSM) error {
	if fsm == nil {
		return fmt.Errorf("%w: %q", ErrNilMachine, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.machines[name] = &entry{fsm: fsm}
	return nil
}

// Get 获取状态机，返回的实例不受 Registry 的锁保护，并发修改请使用 Do
func (r *Registry) Get(name string) (*FSM, bool) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, false
	}
	return e.fsm, true
}

// Remove 移除状态机
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.machines, name)
}

// Count 返回状态机数量
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.machines)
}

// Names 返回排序后的状态机名称
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.machines))
	for name := range r.machines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Do 在持有该状态机锁的情况下执行 fn
func (r *Registry) Do(name string, fn func(*FSM) error) error {
	e, err := r.lookup(name)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.fsm)
}

// Trigger 触发指定状态机的事件
func (r *Registry) Trigger(name string, event Event) error {
	return r.Do(name, func(f *FSM) error {
		return f.Trigger(event)
	})
}

// ChangeState 直接修改指定状态机的状态
func (r *Registry) ChangeState(name string, to State) error {
	return r.Do(name, func(f *FSM) error {
		return f.ChangeState(to)
	})
}

// Undo 撤销指定状态机的上一次转换
func (r *Registry) Undo(name string) (bool, error) {
	var ok bool
	err := r.Do(name, func(f *FSM) error {
		ok = f.Undo()
		return nil
	})
	return ok, err
}

// Redo 重做指定状态机被撤销的转换
func (r *Registry) Redo(name string) (bool, error) {
	var ok bool
	err := r.Do(name, func(f *FSM) error {
		ok = f.Redo()
		return nil
	})
	return ok, err
}

// TriggerAll 向所有状态机并行触发同一事件
func (r *Registry) TriggerAll(event Event) map[string]error {
	entries := r.snapshot()

	results := make(map[string]error, len(entries))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, e := range entries {
		wg.Add(1)
		go func(n string, e *entry) {
			defer wg.Done()
			e.mu.Lock()
			err := e.fsm.Trigger(event)
			e.mu.Unlock()

			mu.Lock()
			results[n] = err
			mu.Unlock()
		}(name, e)
	}

	wg.Wait()
	return results
}

// Current 返回所有状态机的当前状态
func (r *Registry) Current() map[string]State {
	entries := r.snapshot()

	states := make(map[string]State, len(entries))
	for name, e := range entries {
		e.mu.Lock()
		states[name] = e.fsm.Current()
		e.mu.Unlock()
	}
	return states
}

// ResetAll 重置所有状态机
func (r *Registry) ResetAll() {
	for _, e := range r.snapshot() {
		e.mu.Lock()
		e.fsm.Reset()
		e.mu.Unlock()
	}
}

func (r *Registry) lookup(name string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.machines[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMachineNotFound, name)
	}
	return e, nil
}

func (r *Registry) snapshot() map[string]*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make(map[string]*entry, len(r.machines))
	for name, e := range r.machines {
		entries[name] = e
	}
	return entries
}
