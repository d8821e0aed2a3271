package gofac

import (
	"fmt"
	"reflect"
	"sync"
)

// ServiceDef 服务定义：存储注册元信息、缓存参数类型和单例实例
type ServiceDef struct {
	implType   reflect.Type   // 服务实现类型（构造函数返回值或实例类型）
	scope      LifetimeScope  // 生命周期
	instance   reflect.Value  // 单例实例缓存或预注册实例
	ctor       reflect.Value  // 构造函数反射值（实例注册时为空）
	ctorType   reflect.Type   // 构造函数反射类型（实例注册时为空）
	once       sync.Once      // 单例实例初始化原子操作
	paramTypes []reflect.Type // 缓存构造函数参数类型
	paramOnce  sync.Once      // 保证参数类型仅解析一次（并发安全）
	isInstance bool           // 是否为实例注册（true时直接使用instance，不调用ctor）
}

// Container DI容器核心：管理所有服务，保证并发安全
type Container struct {
	services      map[reflect.Type]*ServiceDef            // 默认（无名）服务
	order         []reflect.Type                          // 默认服务的注册顺序（供Services快照使用）
	namedServices map[string]map[reflect.Type]*ServiceDef // 命名服务：name -> type -> ServiceDef
	mu            sync.RWMutex
}

// Scope 同一个Scope内Scoped实例唯一，不同Scope相互隔离
type Scope struct {
	root       *Container                     // 关联根容器（共享注册元信息）
	scopedInst map[reflect.Type]reflect.Value // 本作用域 Scoped 实例缓存
	mu         sync.RWMutex                   // 作用域并发安全锁
}

// 容器自身类型：构造函数可以直接依赖 *Container / *Scope，无需注册
var (
	containerType = reflect.TypeOf((*Container)(nil))
	scopeType     = reflect.TypeOf((*Scope)(nil))
)

// NewContainer 创建新的DI容器
func NewContainer() *Container {
	return &Container{
		services:      make(map[reflect.Type]*ServiceDef),
		namedServices: make(map[string]map[reflect.Type]*ServiceDef),
	}
}

// Global 全局容器：供单服务架构直接使用，省去手动创建容器
var Global = NewContainer()

// Register 基础注册：按构造函数返回值类型注册
func (c *Container) Register(ctor any, scope LifetimeScope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register(ctor, nil, scope)
}

// RegisterAs 接口注册：将实现类型注册为指定类型，interfaceType 形如 (*IInterface)(nil)
func (c *Container) RegisterAs(ctor any, interfaceType any, scope LifetimeScope) error {
	svcType, err := serviceTypeOf(interfaceType)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register(ctor, svcType, scope)
}

// RegisterType 按反射类型注册：供扫描器等只持有 reflect.Type 的调用方使用，svcType 为 nil 时按实现类型注册
func (c *Container) RegisterType(svcType reflect.Type, ctor any, scope LifetimeScope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register(ctor, svcType, scope)
}

// register 内部通用注册逻辑（调用方持有写锁）
func (c *Container) register(ctor any, svcType reflect.Type, scope LifetimeScope) error {
	if ctor == nil {
		return ErrNotFunc
	}
	ctorVal := reflect.ValueOf(ctor)
	ctorType := ctorVal.Type()
	if ctorType.Kind() != reflect.Func {
		return ErrNotFunc
	}

	// 校验构造函数返回值：仅1个返回值，且为具体类型
	if numOut := ctorType.NumOut(); numOut != 1 {
		return fmt.Errorf("%w，当前返回值数量：%d", ErrNoReturn, numOut)
	}
	implType := ctorType.Out(0)
	if implType.Kind() == reflect.Interface {
		return fmt.Errorf("%w，返回值为接口：%s", ErrNotConcreteType, implType)
	}

	if svcType == nil {
		svcType = implType
	} else if err := checkServiceType(implType, svcType); err != nil {
		return err
	}

	if _, exists := c.services[svcType]; exists {
		return fmt.Errorf("%w，类型：%s", ErrRegisterDuplicate, svcType)
	}

	c.services[svcType] = &ServiceDef{
		implType: implType,
		scope:    scope,
		ctor:     ctorVal,
		ctorType: ctorType,
	}
	c.order = append(c.order, svcType)
	return nil
}

// RegisterInstance 实例注册：直接注册已创建的实例，按实例类型注册
// 注意：不支持Transient生命周期（实例已创建，无法每次返回新实例）
func (c *Container) RegisterInstance(instance any, scope LifetimeScope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerInstance("", instance, nil, scope)
}

// RegisterInstanceAs 实例接口注册：将已创建的实例注册为指定类型
func (c *Container) RegisterInstanceAs(instance any, interfaceType any, scope LifetimeScope) error {
	svcType, err := serviceTypeOf(interfaceType)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerInstance("", instance, svcType, scope)
}

// RegisterInstanceNamed 命名实例注册：允许同一类型注册多个实例
func (c *Container) RegisterInstanceNamed(name string, instance any, scope LifetimeScope) error {
	if name == "" {
		return ErrEmptyName
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerInstance(name, instance, nil, scope)
}

// RegisterInstanceAsNamed 命名实例接口注册：注册带名称的实例为指定类型
func (c *Container) RegisterInstanceAsNamed(name string, instance any, interfaceType any, scope LifetimeScope) error {
	if name == "" {
		return ErrEmptyName
	}
	svcType, err := serviceTypeOf(interfaceType)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registerInstance(name, instance, svcType, scope)
}

// registerInstance 内部实例注册逻辑，name 为空时注册为默认服务（调用方持有写锁）
func (c *Container) registerInstance(name string, instance any, svcType reflect.Type, scope LifetimeScope) error {
	if scope == Transient {
		return ErrTransientInstance
	}
	if instance == nil {
		return ErrNilInstance
	}

	instVal := reflect.ValueOf(instance)
	implType := instVal.Type()
	if svcType == nil {
		svcType = implType
	} else if err := checkServiceType(implType, svcType); err != nil {
		return err
	}

	def := &ServiceDef{
		implType:   implType,
		scope:      scope,
		instance:   instVal,
		isInstance: true,
	}

	if name == "" {
		if _, exists := c.services[svcType]; exists {
			return fmt.Errorf("%w，类型：%s", ErrRegisterDuplicate, svcType)
		}
		c.services[svcType] = def
		c.order = append(c.order, svcType)
		return nil
	}

	if c.namedServices[name] == nil {
		c.namedServices[name] = make(map[reflect.Type]*ServiceDef)
	}
	if _, exists := c.namedServices[name][svcType]; exists {
		return fmt.Errorf("%w，名称：%s，类型：%s", ErrRegisterDuplicate, name, svcType)
	}
	c.namedServices[name][svcType] = def
	return nil
}

// serviceTypeOf 解析 (*T)(nil) 形式的目标类型：指向接口时取接口类型，否则保留指针类型
func serviceTypeOf(interfaceType any) (reflect.Type, error) {
	if interfaceType == nil {
		return nil, ErrInvalidInterfaceType
	}
	targetType := reflect.TypeOf(interfaceType)
	if targetType.Kind() != reflect.Ptr {
		return nil, ErrInvalidInterfaceType
	}
	if elemType := targetType.Elem(); elemType.Kind() == reflect.Interface {
		return elemType, nil
	}
	return targetType, nil
}

// checkServiceType 校验实现类型能否以 svcType 注册
func checkServiceType(implType, svcType reflect.Type) error {
	if svcType.Kind() == reflect.Interface {
		if !implType.Implements(svcType) {
			return fmt.Errorf("%w：类型%s未实现接口%s", ErrIncompatibleServiceType, implType, svcType)
		}
		return nil
	}
	if !isTypeCompatible(implType, svcType) {
		return fmt.Errorf("%w：类型%s无法转换为目标类型%s", ErrIncompatibleServiceType, implType, svcType)
	}
	return nil
}

// isTypeCompatible 检查两种类型是否兼容（支持指针/值类型转换）
func isTypeCompatible(implType, targetType reflect.Type) bool {
	if implType.AssignableTo(targetType) || implType.ConvertibleTo(targetType) {
		return true
	}
	if implType.Kind() != reflect.Ptr && reflect.PointerTo(implType).AssignableTo(targetType) {
		return true
	}
	return implType.Kind() == reflect.Ptr && implType.Elem().AssignableTo(targetType)
}

// Services 已注册默认服务类型的快照（按注册顺序）
func (c *Container) Services() []reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]reflect.Type, len(c.order))
	copy(out, c.order)
	return out
}

// Has 判断类型是否已注册为默认服务
func (c *Container) Has(svcType reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.services[svcType]
	return exists
}

// Resolve 原始解析：通过指针接收实例
func (c *Container) Resolve(out any) error {
	return resolveInto(out, func(svcType reflect.Type) (reflect.Value, error) {
		return c.resolveIn(nil, svcType, make(map[reflect.Type]bool))
	})
}

// ResolveNamed 命名解析：通过名称解析特定的服务实例
func (c *Container) ResolveNamed(name string, out any) error {
	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.IsNil() {
		return ErrInvalidOutPtr
	}
	svcType := outVal.Elem().Type()

	c.mu.RLock()
	def, exists := c.namedServices[name][svcType]
	c.mu.RUnlock()
	if !exists {
		return fmt.Errorf("%w，名称：%s，类型：%s", ErrServiceNotRegistered, name, svcType)
	}
	outVal.Elem().Set(def.instance)
	return nil
}

// ResolveAll 解析所有同类型的服务（默认服务 + 所有命名实例），out 必须是切片指针
func (c *Container) ResolveAll(out any) error {
	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.IsNil() {
		return ErrInvalidOutPtr
	}
	sliceType := outVal.Elem().Type()
	if sliceType.Kind() != reflect.Slice {
		return fmt.Errorf("%w，ResolveAll 的输出参数必须是切片指针，当前类型：%s", ErrInvalidOutPtr, sliceType)
	}
	results := c.collectSlice(nil, sliceType, make(map[reflect.Type]bool))
	outVal.Elem().Set(results)
	return nil
}

// resolveInto 校验输出指针并写入解析结果
func resolveInto(out any, resolve func(reflect.Type) (reflect.Value, error)) error {
	outVal := reflect.ValueOf(out)
	if outVal.Kind() != reflect.Ptr || outVal.IsNil() {
		return ErrInvalidOutPtr
	}
	instance, err := resolve(outVal.Elem().Type())
	if err != nil {
		return err
	}
	outVal.Elem().Set(instance)
	return nil
}

// resolveIn 解析核心：s 为 nil 表示在根容器上解析（禁止 Scoped）
func (c *Container) resolveIn(s *Scope, svcType reflect.Type, track map[reflect.Type]bool) (reflect.Value, error) {
	// 容器自注入：*Container 返回根容器，*Scope 返回当前作用域（根容器上新建作用域）
	switch svcType {
	case containerType:
		return reflect.ValueOf(c), nil
	case scopeType:
		if s == nil {
			return reflect.ValueOf(c.NewScope()), nil
		}
		return reflect.ValueOf(s), nil
	}

	c.mu.RLock()
	def, exists := c.services[svcType]
	c.mu.RUnlock()
	if !exists {
		// 未注册的切片 / map[string]T：自动收集
		switch {
		case svcType.Kind() == reflect.Slice:
			return c.collectSlice(s, svcType, track), nil
		case svcType.Kind() == reflect.Map && svcType.Key().Kind() == reflect.String:
			return c.collectMap(svcType), nil
		}
		return reflect.Value{}, fmt.Errorf("%w，类型：%s", ErrServiceNotRegistered, svcType)
	}

	if track[svcType] {
		return reflect.Value{}, fmt.Errorf("%w，循环依赖链包含：%s", ErrResolveCircularDependency, svcType)
	}
	track[svcType] = true
	defer delete(track, svcType)

	if def.scope == Scoped && s == nil {
		return reflect.Value{}, ErrScopedOnRootContainer
	}
	if def.isInstance {
		return def.instance, nil
	}

	// 缓存命中：Singleton 查根容器，Scoped 查本作用域
	switch def.scope {
	case Singleton:
		c.mu.RLock()
		inst := def.instance
		c.mu.RUnlock()
		if inst.IsValid() {
			return inst, nil
		}
	case Scoped:
		s.mu.RLock()
		inst, ok := s.scopedInst[svcType]
		s.mu.RUnlock()
		if ok {
			return inst, nil
		}
	}

	instance, err := c.construct(s, def, track)
	if err != nil {
		return reflect.Value{}, err
	}

	switch def.scope {
	case Singleton:
		// 原子写入根容器缓存，并发创建时以先写入者为准
		def.once.Do(func() {
			c.mu.Lock()
			def.instance = instance
			c.mu.Unlock()
		})
		c.mu.RLock()
		instance = def.instance
		c.mu.RUnlock()
	case Scoped:
		s.mu.Lock()
		if existing, ok := s.scopedInst[svcType]; ok {
			instance = existing
		} else {
			s.scopedInst[svcType] = instance
		}
		s.mu.Unlock()
	}
	return instance, nil
}

// construct 解析构造函数参数并调用构造函数
func (c *Container) construct(s *Scope, def *ServiceDef, track map[reflect.Type]bool) (reflect.Value, error) {
	def.paramOnce.Do(func() {
		params := make([]reflect.Type, def.ctorType.NumIn())
		for i := range params {
			params[i] = def.ctorType.In(i)
		}
		def.paramTypes = params
	})

	params := make([]reflect.Value, len(def.paramTypes))
	for i, pType := range def.paramTypes {
		pInstance, err := c.resolveIn(s, pType, track)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("解析依赖%s失败：%w", pType, err)
		}
		params[i] = pInstance
	}

	results := def.ctor.Call(params)
	if len(results) != 1 {
		return reflect.Value{}, fmt.Errorf("%w，构造函数调用返回值异常", ErrCreateInstanceFailed)
	}
	return results[0], nil
}

// collectSlice 收集元素类型的默认服务（解析失败时跳过）和所有命名实例
func (c *Container) collectSlice(s *Scope, sliceType reflect.Type, track map[reflect.Type]bool) reflect.Value {
	elemType := sliceType.Elem()
	results := reflect.MakeSlice(sliceType, 0, 0)

	if c.Has(elemType) {
		if inst, err := c.resolveIn(s, elemType, track); err == nil {
			results = reflect.Append(results, inst)
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, named := range c.namedServices {
		if def, exists := named[elemType]; exists && def.isInstance {
			results = reflect.Append(results, def.instance)
		}
	}
	return results
}

// collectMap 按名称收集所有命名实例
func (c *Container) collectMap(mapType reflect.Type) reflect.Value {
	valueType := mapType.Elem()
	results := reflect.MakeMap(mapType)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for name, named := range c.namedServices {
		if def, exists := named[valueType]; exists && def.isInstance {
			results.SetMapIndex(reflect.ValueOf(name).Convert(mapType.Key()), def.instance)
		}
	}
	return results
}

// NewScope 创建作用域（Scoped 服务只能在作用域中解析）
func (c *Container) NewScope() *Scope {
	return &Scope{
		root:       c,
		scopedInst: make(map[reflect.Type]reflect.Value),
	}
}

// Resolve Scope的Resolve方法（与Container的Resolve格式一致，支持Scoped）
func (s *Scope) Resolve(out any) error {
	return resolveInto(out, func(svcType reflect.Type) (reflect.Value, error) {
		return s.root.resolveIn(s, svcType, make(map[reflect.Type]bool))
	})
}

// getTyped 内部泛型解析：将反射获取的实例转换为目标类型T
func getTyped[T any](svcType reflect.Type, instance reflect.Value) (T, error) {
	var zero T
	it := instance.Type()
	if svcType.Kind() == reflect.Interface {
		if it.Implements(svcType) {
			return instance.Interface().(T), nil
		}
		// 值类型未实现接口但其指针实现：取地址后转换
		if it.Kind() != reflect.Ptr && reflect.PointerTo(it).Implements(svcType) {
			ptr := reflect.New(it)
			ptr.Elem().Set(instance)
			return ptr.Interface().(T), nil
		}
		return zero, fmt.Errorf("【%w】实例%s无法转换为目标接口类型%s", ErrTypeConvertFailed, it, svcType)
	}

	if it.AssignableTo(svcType) {
		return instance.Interface().(T), nil
	}
	if it.ConvertibleTo(svcType) {
		return instance.Convert(svcType).Interface().(T), nil
	}
	return zero, fmt.Errorf("【%w】实例%s无法转换为目标类型%s", ErrTypeConvertFailed, it, svcType)
}

// ---------------------- 便捷Must系列方法（出错Panic） ----------------------

// MustRegister 便捷基础注册：出错直接Panic
func (c *Container) MustRegister(ctor any, scope LifetimeScope) {
	if err := c.Register(ctor, scope); err != nil {
		panic(fmt.Sprintf("【DI注册失败】%v", err))
	}
}

// MustRegisterAs 便捷接口注册：出错直接Panic
func (c *Container) MustRegisterAs(ctor any, interfaceType any, scope LifetimeScope) {
	if err := c.RegisterAs(ctor, interfaceType, scope); err != nil {
		panic(fmt.Sprintf("【DI接口注册失败】%v", err))
	}
}

// MustRegisterInstance 便捷实例注册：出错直接Panic
func (c *Container) MustRegisterInstance(instance any, scope LifetimeScope) {
	if err := c.RegisterInstance(instance, scope); err != nil {
		panic(fmt.Sprintf("【DI实例注册失败】%v", err))
	}
}

// MustRegisterInstanceAs 便捷实例接口注册：出错直接Panic
func (c *Container) MustRegisterInstanceAs(instance any, interfaceType any, scope LifetimeScope) {
	if err := c.RegisterInstanceAs(instance, interfaceType, scope); err != nil {
		panic(fmt.Sprintf("【DI实例接口注册失败】%v", err))
	}
}

// MustRegisterInstanceNamed 便捷命名实例注册：出错直接Panic
func (c *Container) MustRegisterInstanceNamed(name string, instance any, scope LifetimeScope) {
	if err := c.RegisterInstanceNamed(name, instance, scope); err != nil {
		panic(fmt.Sprintf("【DI命名实例注册失败】%v", err))
	}
}

// MustResolve 便捷原始解析：出错直接Panic
func (c *Container) MustResolve(out any) {
	if err := c.Resolve(out); err != nil {
		panic(fmt.Sprintf("【DI解析失败】%v", err))
	}
}

// MustResolve Scope的MustResolve方法（与Container格式一致）
func (s *Scope) MustResolve(out any) {
	if err := s.Resolve(out); err != nil {
		panic(fmt.Sprintf("【DI作用域解析失败】%v", err))
	}
}

// ---------------------- 泛型解析 ----------------------

// Resolve 泛型解析：从指定容器解析 T
func Resolve[T any](c *Container) (T, error) {
	var zero T
	svcType := reflect.TypeOf((*T)(nil)).Elem()
	instance, err := c.resolveIn(nil, svcType, make(map[reflect.Type]bool))
	if err != nil {
		return zero, fmt.Errorf("【DI获取失败】%w", err)
	}
	return getTyped[T](svcType, instance)
}

// MustResolveOf 泛型便捷解析指定容器：出错Panic
func MustResolveOf[T any](c *Container) T {
	inst, err := Resolve[T](c)
	if err != nil {
		panic(err)
	}
	return inst
}

// Get 泛型解析全局容器
func Get[T any]() (T, error) { return Resolve[T](Global) }

// MustGet 泛型便捷解析：出错Panic
func MustGet[T any]() T {
	inst, err := Get[T]()
	if err != nil {
		panic(err)
	}
	return inst
}

// ScopeGet 作用域版泛型Get：支持Scoped生命周期
func ScopeGet[T any](s *Scope) (T, error) {
	var zero T
	svcType := reflect.TypeOf((*T)(nil)).Elem()
	instance, err := s.root.resolveIn(s, svcType, make(map[reflect.Type]bool))
	if err != nil {
		return zero, fmt.Errorf("【DI作用域获取失败】%w", err)
	}
	return getTyped[T](svcType, instance)
}

// ScopeMustGet 作用域版泛型MustGet：出错Panic
func ScopeMustGet[T any](s *Scope) T {
	inst, err := ScopeGet[T](s)
	if err != nil {
		panic(err)
	}
	return inst
}

// Reset 重置容器：清空所有服务和缓存（测试用）
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = make(map[reflect.Type]*ServiceDef)
	c.namedServices = make(map[string]map[reflect.Type]*ServiceDef)
	c.order = nil
}

// Reset 清空作用域内的 Scoped 实例
func (s *Scope) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopedInst = make(map[reflect.Type]reflect.Value)
}

// GlobalReset 重置全局容器（测试用）
func GlobalReset() { Global.Reset() }
