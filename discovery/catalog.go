// Package discovery provides scan sources and a shared discovery cache.
//
// A Catalog describes constructor functions through reflection and can be
// committed to a gofac container. A Manifest describes units in YAML and is
// meant for planning only. Discoverer memoises the units of each source.
package discovery

import (
	"fmt"
	"reflect"

	gofac "github.com/Ngone6325/gofac-autoscan"
	"github.com/Ngone6325/gofac-autoscan/scan"
)

var (
	lifetimeMarkerType = reflect.TypeFor[gofac.LifetimeMarker]()
	ignoreMarkerType   = reflect.TypeFor[gofac.IgnoreMarker]()
)

// Catalog 构造函数目录：由构造函数组成的扫描来源
// 构造函数规则与容器一致：只有一个返回值，参数即依赖；同一实现类型有多个构造函数时保留参数最多的那个
type Catalog struct {
	name       string
	interfaces []reflect.Type
	entries    []*entry
	byImpl     map[reflect.Type]*entry
}

type entry struct {
	ctor        any
	ctorType    reflect.Type
	impl        reflect.Type
	provides    []reflect.Type
	lifetime    gofac.LifetimeScope
	hasLifetime bool
	exclude     bool
}

// EntryOption 单个构造函数的登记选项
type EntryOption func(*entry) error

// Provides 声明能力：优先于 Interfaces 匹配到的接口，参数形如 (*IUserRepo)(nil)
func Provides(interfaceTypes ...any) EntryOption {
	return func(e *entry) error {
		for _, it := range interfaceTypes {
			t, err := interfaceTypeOf(it)
			if err != nil {
				return err
			}
			if !e.impl.Implements(t) {
				return fmt.Errorf("%w: %s does not implement %s", gofac.ErrIncompatibleServiceType, e.impl, t)
			}
			e.provides = append(e.provides, t)
		}
		return nil
	}
}

// WithLifetime 显式生命周期：覆盖实现类型上嵌入的生命周期标记
func WithLifetime(l gofac.LifetimeScope) EntryOption {
	return func(e *entry) error {
		e.lifetime, e.hasLifetime = l, true
		return nil
	}
}

// Exclude 排除：登记但不参与扫描，与嵌入 IgnoredService 效果相同
func Exclude() EntryOption {
	return func(e *entry) error {
		e.exclude = true
		return nil
	}
}

// NewCatalog 创建构造函数目录，name 仅用于展示
func NewCatalog(name string) *Catalog {
	return &Catalog{name: name, byImpl: make(map[reflect.Type]*entry)}
}

// Name 目录名称
func (c *Catalog) Name() string { return c.name }

// Interfaces 声明候选接口：实现类型按声明顺序匹配能力
func (c *Catalog) Interfaces(interfaceTypes ...any) error {
	for _, it := range interfaceTypes {
		t, err := interfaceTypeOf(it)
		if err != nil {
			return err
		}
		c.interfaces = append(c.interfaces, t)
	}
	return nil
}

// Add 登记构造函数：校验函数签名并合并同一实现类型的多次登记
func (c *Catalog) Add(ctor any, opts ...EntryOption) error {
	if ctor == nil {
		return gofac.ErrNotFunc
	}
	ctorType := reflect.TypeOf(ctor)
	if ctorType.Kind() != reflect.Func {
		return gofac.ErrNotFunc
	}
	if n := ctorType.NumOut(); n != 1 {
		return fmt.Errorf("%w: %s returns %d values", gofac.ErrNoReturn, ctorType, n)
	}

	e := &entry{ctor: ctor, ctorType: ctorType, impl: ctorType.Out(0)}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return err
		}
	}

	prev, ok := c.byImpl[e.impl]
	if !ok {
		c.byImpl[e.impl] = e
		c.entries = append(c.entries, e)
		return nil
	}
	// richest constructor wins, first one on a tie
	if ctorType.NumIn() > prev.ctorType.NumIn() {
		prev.ctor, prev.ctorType = e.ctor, e.ctorType
	}
	prev.provides = append(prev.provides, e.provides...)
	if e.hasLifetime {
		prev.lifetime, prev.hasLifetime = e.lifetime, true
	}
	prev.exclude = prev.exclude || e.exclude
	return nil
}

// MustAdd 便捷登记：出错直接Panic
func (c *Catalog) MustAdd(ctor any, opts ...EntryOption) {
	if err := c.Add(ctor, opts...); err != nil {
		panic(err)
	}
}

// Units 按首次登记顺序描述所有构造函数
func (c *Catalog) Units() ([]scan.Unit, error) {
	units := make([]scan.Unit, 0, len(c.entries))
	for _, e := range c.entries {
		units = append(units, c.unitOf(e))
	}
	return units, nil
}

func (c *Catalog) unitOf(e *entry) scan.Unit {
	types := make(map[scan.TypeID]reflect.Type)
	idOf := func(t reflect.Type) scan.TypeID {
		id := scan.TypeIDOf(t)
		types[id] = t
		return id
	}

	u := scan.Unit{
		Impl:        idOf(e.impl),
		Abstract:    e.impl.Kind() == reflect.Interface,
		Excluded:    e.exclude,
		Constructor: e.ctor,
		Types:       types,
	}

	seen := make(map[reflect.Type]bool)
	for _, t := range e.provides {
		if !seen[t] {
			seen[t] = true
			u.Capabilities = append(u.Capabilities, idOf(t))
		}
	}
	if !u.Abstract {
		for _, t := range c.interfaces {
			if !seen[t] && e.impl.Implements(t) {
				seen[t] = true
				u.Capabilities = append(u.Capabilities, idOf(t))
			}
		}
	}

	for i := 0; i < e.ctorType.NumIn(); i++ {
		u.Requires = append(u.Requires, idOf(e.ctorType.In(i)))
	}

	if !u.Abstract {
		if lifetime, ok := markerLifetime(e.impl); ok {
			u.Lifetime, u.HasLifetime = lifetime, true
		}
		if e.impl.Implements(ignoreMarkerType) {
			u.Excluded = true
		}
	}
	if e.hasLifetime {
		u.Lifetime, u.HasLifetime = e.lifetime, true
	}
	return u
}

// markerLifetime 从零值读取嵌入的生命周期标记
func markerLifetime(t reflect.Type) (gofac.LifetimeScope, bool) {
	if !t.Implements(lifetimeMarkerType) {
		return gofac.Transient, false
	}
	var v reflect.Value
	if t.Kind() == reflect.Ptr {
		v = reflect.New(t.Elem())
	} else {
		v = reflect.Zero(t)
	}
	return v.Interface().(gofac.LifetimeMarker).ServiceLifetime(), true
}

// interfaceTypeOf 解析 (*IInterface)(nil) 形式的接口类型
func interfaceTypeOf(ptr any) (reflect.Type, error) {
	t := reflect.TypeOf(ptr)
	if t == nil || t.Kind() != reflect.Ptr || t.Elem().Kind() != reflect.Interface {
		return nil, gofac.ErrInvalidInterfaceType
	}
	return t.Elem(), nil
}
