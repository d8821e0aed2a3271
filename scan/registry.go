package scan

import (
	"fmt"
	"reflect"
	"sync"

	gofac "github.com/Ngone6325/gofac-autoscan"
)

// Registry 注册目标：按激活顺序接收一次扫描的候选服务
type Registry interface {
	// Capabilities 已注册能力的快照
	Capabilities() []TypeID
	// Register 注册单个候选服务
	Register(c Candidate) error
}

// Validator 预检接口：在本次扫描发起任何注册之前拒绝冲突的候选服务
type Validator interface {
	CanRegister(c Candidate) error
}

// ContainerRegistry 容器注册目标：将候选服务按构造函数注册到 gofac 容器
type ContainerRegistry struct {
	container *gofac.Container
}

// NewContainerRegistry 包装已有容器，容器中已注册的服务视为已知能力
func NewContainerRegistry(c *gofac.Container) *ContainerRegistry {
	return &ContainerRegistry{container: c}
}

// Container 返回被包装的容器
func (r *ContainerRegistry) Container() *gofac.Container { return r.container }

// Capabilities 容器中已注册默认服务的类型标识（按注册顺序）
func (r *ContainerRegistry) Capabilities() []TypeID {
	types := r.container.Services()
	out := make([]TypeID, len(types))
	for i, t := range types {
		out[i] = TypeIDOf(t)
	}
	return out
}

// CanRegister 预检：能力已注册或缺少构造函数时返回错误
func (r *ContainerRegistry) CanRegister(c Candidate) error {
	svcType, err := serviceType(c)
	if err != nil {
		return err
	}
	if svcType != nil && r.container.Has(svcType) {
		return fmt.Errorf("%w: %s", ErrRegistrationConflict, c.Capability)
	}
	return nil
}

// Register 按能力类型注册构造函数，自注册时按构造函数返回值类型注册
func (r *ContainerRegistry) Register(c Candidate) error {
	svcType, err := serviceType(c)
	if err != nil {
		return err
	}
	if err := r.container.RegisterType(svcType, c.Unit.Constructor, c.Lifetime); err != nil {
		return fmt.Errorf("%w: %s as %s: %w", ErrRegistration, c.Impl, c.Capability, err)
	}
	return nil
}

// serviceType 解析候选服务的注册类型：无类型信息的自注册返回 nil，由容器按构造函数返回值类型注册
func serviceType(c Candidate) (reflect.Type, error) {
	if c.Unit.Constructor == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoConstructor, c.Impl)
	}
	if t, ok := c.Unit.ReflectType(c.Capability); ok {
		return t, nil
	}
	if c.SelfRegistered() {
		return nil, nil
	}
	return nil, fmt.Errorf("%w: %s has no type for %s", ErrNoConstructor, c.Impl, c.Capability)
}

// Registration MemoryRegistry 记录的一条注册
type Registration struct {
	Capability TypeID
	Impl       TypeID
	Lifetime   gofac.LifetimeScope
}

// MemoryRegistry 内存注册目标：只记录注册，不创建实例，供规划和校验使用
type MemoryRegistry struct {
	mu       sync.Mutex
	existing []TypeID
	regs     []Registration
	index    TypeSet
}

// NewMemoryRegistry 创建内存注册目标，existing 为预先存在的能力
func NewMemoryRegistry(existing ...TypeID) *MemoryRegistry {
	return &MemoryRegistry{
		existing: append([]TypeID(nil), existing...),
		index:    NewTypeSet(existing...),
	}
}

// Capabilities 预先存在的能力加上已记录的注册（按注册顺序）
func (r *MemoryRegistry) Capabilities() []TypeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]TypeID(nil), r.existing...)
	for _, reg := range r.regs {
		out = append(out, reg.Capability)
	}
	return out
}

// CanRegister 预检：能力已存在时返回冲突错误
func (r *MemoryRegistry) CanRegister(c Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index.Has(c.Capability) {
		return fmt.Errorf("%w: %s", ErrRegistrationConflict, c.Capability)
	}
	return nil
}

// Register 记录一条注册，重复能力返回冲突错误
func (r *MemoryRegistry) Register(c Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index.Has(c.Capability) {
		return fmt.Errorf("%w: %s", ErrRegistrationConflict, c.Capability)
	}
	r.index.Add(c.Capability)
	r.regs = append(r.regs, Registration{Capability: c.Capability, Impl: c.Impl, Lifetime: c.Lifetime})
	return nil
}

// Registrations 已记录注册的快照（按注册顺序）
func (r *MemoryRegistry) Registrations() []Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Registration(nil), r.regs...)
}
