package gofac

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

// Test types
type TestService struct {
	Value string
}

func NewTestService() *TestService {
	return &TestService{Value: "test"}
}

type TestDependency struct {
	Name string
}

func NewTestDependency() *TestDependency {
	return &TestDependency{Name: "dependency"}
}

type TestServiceWithDep struct {
	Dep *TestDependency
}

func NewTestServiceWithDep(dep *TestDependency) *TestServiceWithDep {
	return &TestServiceWithDep{Dep: dep}
}

type ITestInterface interface {
	GetValue() string
}

type TestImpl struct {
	Value string
}

func (t *TestImpl) GetValue() string {
	return t.Value
}

func NewTestImpl() *TestImpl {
	return &TestImpl{Value: "impl"}
}

type CircularA struct{ B *CircularB }
type CircularB struct{ A *CircularA }

func NewCircularA(b *CircularB) *CircularA { return &CircularA{B: b} }
func NewCircularB(a *CircularA) *CircularB { return &CircularB{A: a} }

type ContainerAware struct {
	Root  *Container
	Scope *Scope
}

func NewContainerAware(root *Container, scope *Scope) *ContainerAware {
	return &ContainerAware{Root: root, Scope: scope}
}

// TestNewContainer tests container creation
func TestNewContainer(t *testing.T) {
	container := NewContainer()
	if container.services == nil {
		t.Error("services map not initialized")
	}
	if container.namedServices == nil {
		t.Error("namedServices map not initialized")
	}
	if len(container.Services()) != 0 {
		t.Error("new container should have no services")
	}
}

// TestRegister tests basic registration and duplicate detection
func TestRegister(t *testing.T) {
	container := NewContainer()

	if err := container.Register(NewTestService, Singleton); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	err := container.Register(NewTestService, Singleton)
	if !errors.Is(err, ErrRegisterDuplicate) {
		t.Errorf("Expected ErrRegisterDuplicate, got %v", err)
	}
}

// TestInvalidRegistration tests constructor validation
func TestInvalidRegistration(t *testing.T) {
	tests := []struct {
		name string
		ctor any
		want error
	}{
		{"nil", nil, ErrNotFunc},
		{"not a func", "not a func", ErrNotFunc},
		{"no return", func() {}, ErrNoReturn},
		{"two returns", func() (*TestService, error) { return nil, nil }, ErrNoReturn},
		{"interface return", func() ITestInterface { return &TestImpl{} }, ErrNotConcreteType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewContainer().Register(tt.ctor, Singleton)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestRegisterAs tests interface registration
func TestRegisterAs(t *testing.T) {
	container := NewContainer()

	if err := container.RegisterAs(NewTestImpl, (*ITestInterface)(nil), Singleton); err != nil {
		t.Fatalf("RegisterAs failed: %v", err)
	}

	var result ITestInterface
	if err := container.Resolve(&result); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.GetValue() != "impl" {
		t.Errorf("Expected 'impl', got '%s'", result.GetValue())
	}
}

// TestRegisterAsErrors tests invalid target types
func TestRegisterAsErrors(t *testing.T) {
	container := NewContainer()

	if err := container.RegisterAs(NewTestImpl, "x", Singleton); !errors.Is(err, ErrInvalidInterfaceType) {
		t.Errorf("Expected ErrInvalidInterfaceType, got %v", err)
	}
	if err := container.RegisterAs(NewTestService, (*ITestInterface)(nil), Singleton); !errors.Is(err, ErrIncompatibleServiceType) {
		t.Errorf("Expected ErrIncompatibleServiceType, got %v", err)
	}
	if err := container.RegisterAs(NewTestService, (*TestDependency)(nil), Singleton); !errors.Is(err, ErrIncompatibleServiceType) {
		t.Errorf("Expected ErrIncompatibleServiceType for concrete mismatch, got %v", err)
	}
}

// TestRegisterType tests registration by reflect.Type
func TestRegisterType(t *testing.T) {
	container := NewContainer()
	ifaceType := reflect.TypeOf((*ITestInterface)(nil)).Elem()

	if err := container.RegisterType(ifaceType, NewTestImpl, Transient); err != nil {
		t.Fatalf("RegisterType failed: %v", err)
	}
	if err := container.RegisterType(nil, NewTestService, Singleton); err != nil {
		t.Fatalf("RegisterType with nil type failed: %v", err)
	}
	if !container.Has(ifaceType) {
		t.Error("Expected interface type to be registered")
	}

	got := container.Services()
	want := []reflect.Type{ifaceType, reflect.TypeOf(&TestService{})}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Services() = %v, want %v", got, want)
	}
}

// TestRegisterInstance tests instance registration
func TestRegisterInstance(t *testing.T) {
	container := NewContainer()

	instance := &TestService{Value: "instance"}
	if err := container.RegisterInstance(instance, Singleton); err != nil {
		t.Fatalf("RegisterInstance failed: %v", err)
	}

	var result *TestService
	container.MustResolve(&result)
	if result != instance {
		t.Error("Expected same instance reference")
	}

	if err := container.RegisterInstance(&TestService{}, Transient); err != ErrTransientInstance {
		t.Errorf("Expected ErrTransientInstance, got %v", err)
	}
	if err := container.RegisterInstance(nil, Singleton); err != ErrNilInstance {
		t.Errorf("Expected ErrNilInstance, got %v", err)
	}
}

// TestResolveDependency tests dependency injection
func TestResolveDependency(t *testing.T) {
	container := NewContainer()
	container.MustRegister(NewTestDependency, Singleton)
	container.MustRegister(NewTestServiceWithDep, Transient)

	var result *TestServiceWithDep
	if err := container.Resolve(&result); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if result.Dep == nil || result.Dep.Name != "dependency" {
		t.Fatalf("Dependency not injected: %+v", result)
	}
}

// TestResolveUnregistered tests missing services
func TestResolveUnregistered(t *testing.T) {
	var result *TestService
	err := NewContainer().Resolve(&result)
	if !errors.Is(err, ErrServiceNotRegistered) {
		t.Errorf("Expected ErrServiceNotRegistered, got %v", err)
	}

	if err := NewContainer().Resolve(result); err != ErrInvalidOutPtr {
		t.Errorf("Expected ErrInvalidOutPtr, got %v", err)
	}
}

// TestLifetimes tests singleton, transient and scoped behavior
func TestLifetimes(t *testing.T) {
	container := NewContainer()
	container.MustRegister(NewTestService, Singleton)
	container.MustRegister(NewTestDependency, Transient)
	container.MustRegister(NewTestImpl, Scoped)

	var s1, s2 *TestService
	container.MustResolve(&s1)
	container.MustResolve(&s2)
	if s1 != s2 {
		t.Error("Singleton should return same instance")
	}

	var d1, d2 *TestDependency
	container.MustResolve(&d1)
	container.MustResolve(&d2)
	if d1 == d2 {
		t.Error("Transient should return different instances")
	}

	var root *TestImpl
	if err := container.Resolve(&root); err != ErrScopedOnRootContainer {
		t.Errorf("Expected ErrScopedOnRootContainer, got %v", err)
	}

	scope1, scope2 := container.NewScope(), container.NewScope()
	var a, b, c *TestImpl
	scope1.MustResolve(&a)
	scope1.MustResolve(&b)
	scope2.MustResolve(&c)
	if a != b {
		t.Error("Scoped should return same instance within a scope")
	}
	if a == c {
		t.Error("Scoped should return different instances across scopes")
	}

	var fromScope *TestService
	scope2.MustResolve(&fromScope)
	if fromScope != s1 {
		t.Error("Singleton resolved from scope should be the root instance")
	}

	scope1.Reset()
	var afterReset *TestImpl
	scope1.MustResolve(&afterReset)
	if afterReset == a {
		t.Error("Scope.Reset should drop scoped instances")
	}
}

// TestSingletonConcurrentResolve tests that concurrent resolution yields one instance
func TestSingletonConcurrentResolve(t *testing.T) {
	container := NewContainer()
	container.MustRegister(NewTestService, Singleton)

	const workers = 16
	results := make([]*TestService, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			container.MustResolve(&results[i])
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatal("Singleton resolved concurrently should be unique")
		}
	}
}

// TestCircularDependency tests runtime cycle detection
func TestCircularDependency(t *testing.T) {
	container := NewContainer()
	container.MustRegister(NewCircularA, Transient)
	container.MustRegister(NewCircularB, Transient)

	var a *CircularA
	err := container.Resolve(&a)
	if !errors.Is(err, ErrResolveCircularDependency) {
		t.Errorf("Expected ErrResolveCircularDependency, got %v", err)
	}
}

// TestSelfInjection tests that *Container and *Scope are provided by the container
func TestSelfInjection(t *testing.T) {
	container := NewContainer()
	container.MustRegister(NewContainerAware, Scoped)

	scope := container.NewScope()
	var aware *ContainerAware
	scope.MustResolve(&aware)
	if aware.Root != container {
		t.Error("Expected root container to be injected")
	}
	if aware.Scope != scope {
		t.Error("Expected current scope to be injected")
	}

	var fresh *Scope
	container.MustResolve(&fresh)
	if fresh == nil || fresh == scope {
		t.Error("Resolving *Scope from the root should create a new scope")
	}
}

// TestNamedAndCollections tests named instances and slice/map auto injection
func TestNamedAndCollections(t *testing.T) {
	container := NewContainer()
	container.MustRegisterInstanceNamed("a", &TestImpl{Value: "a"}, Singleton)
	if err := container.RegisterInstanceAsNamed("b", &TestImpl{Value: "b"}, (*ITestInterface)(nil), Singleton); err != nil {
		t.Fatalf("RegisterInstanceAsNamed failed: %v", err)
	}
	container.MustRegisterInstanceAs(&TestImpl{Value: "default"}, (*ITestInterface)(nil), Singleton)

	var named *TestImpl
	if err := container.ResolveNamed("a", &named); err != nil || named.Value != "a" {
		t.Fatalf("ResolveNamed failed: %v, %+v", err, named)
	}
	if err := container.ResolveNamed("missing", &named); !errors.Is(err, ErrServiceNotRegistered) {
		t.Errorf("Expected ErrServiceNotRegistered, got %v", err)
	}

	var all []ITestInterface
	if err := container.ResolveAll(&all); err != nil {
		t.Fatalf("ResolveAll failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected default + named instance, got %d", len(all))
	}

	var byName map[string]ITestInterface
	container.MustResolve(&byName)
	if len(byName) != 1 || byName["b"].GetValue() != "b" {
		t.Errorf("Unexpected map injection: %v", byName)
	}

	var notSlice ITestInterface
	if err := container.ResolveAll(&notSlice); !errors.Is(err, ErrInvalidOutPtr) {
		t.Errorf("Expected ErrInvalidOutPtr, got %v", err)
	}

	if err := container.RegisterInstanceNamed("", &TestImpl{}, Singleton); err != ErrEmptyName {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	if err := container.RegisterInstanceNamed("a", &TestImpl{}, Singleton); !errors.Is(err, ErrRegisterDuplicate) {
		t.Errorf("Expected ErrRegisterDuplicate, got %v", err)
	}
}

// TestGenericResolve tests Resolve[T], ScopeGet and global helpers
func TestGenericResolve(t *testing.T) {
	container := NewContainer()
	container.MustRegisterAs(NewTestImpl, (*ITestInterface)(nil), Scoped)
	container.MustRegister(NewTestService, Singleton)

	svc, err := Resolve[*TestService](container)
	if err != nil || svc.Value != "test" {
		t.Fatalf("Resolve[T] failed: %v", err)
	}

	if _, err := Resolve[ITestInterface](container); !errors.Is(err, ErrScopedOnRootContainer) {
		t.Errorf("Expected ErrScopedOnRootContainer, got %v", err)
	}

	scope := container.NewScope()
	if got := ScopeMustGet[ITestInterface](scope); got.GetValue() != "impl" {
		t.Errorf("Expected 'impl', got %q", got.GetValue())
	}

	GlobalReset()
	defer GlobalReset()
	Global.MustRegister(NewTestDependency, Singleton)
	if dep := MustGet[*TestDependency](); dep.Name != "dependency" {
		t.Errorf("Expected 'dependency', got %q", dep.Name)
	}
}

// TestMustPanics tests panicking helpers
func TestMustPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"MustRegister", func() { NewContainer().MustRegister("x", Singleton) }},
		{"MustRegisterAs", func() { NewContainer().MustRegisterAs(NewTestImpl, "x", Singleton) }},
		{"MustRegisterInstance", func() { NewContainer().MustRegisterInstance(nil, Singleton) }},
		{"MustResolve", func() {
			var s *TestService
			NewContainer().MustResolve(&s)
		}},
		{"ScopeMustResolve", func() {
			var s *TestService
			NewContainer().NewScope().MustResolve(&s)
		}},
		{"ScopeMustGet", func() { ScopeMustGet[*TestService](NewContainer().NewScope()) }},
		{"MustResolveOf", func() { MustResolveOf[*TestService](NewContainer()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s should panic", tt.name)
				}
			}()
			tt.fn()
		})
	}
}

// TestReset tests container reset
func TestReset(t *testing.T) {
	container := NewContainer()
	container.MustRegister(NewTestService, Singleton)
	container.MustRegisterInstanceNamed("n", &TestImpl{}, Singleton)

	container.Reset()

	if len(container.Services()) != 0 || container.Has(reflect.TypeOf(&TestService{})) {
		t.Error("Reset should clear default services")
	}
	var named *TestImpl
	if err := container.ResolveNamed("n", &named); err == nil {
		t.Error("Reset should clear named services")
	}
}

// TestIsTypeCompatible tests pointer/value compatibility rules
func TestIsTypeCompatible(t *testing.T) {
	valueType := reflect.TypeOf(TestService{})
	ptrType := reflect.TypeOf(&TestService{})

	if !isTypeCompatible(ptrType, ptrType) {
		t.Error("same type should be compatible")
	}
	if !isTypeCompatible(valueType, ptrType) {
		t.Error("value should be compatible with its pointer")
	}
	if !isTypeCompatible(ptrType, valueType) {
		t.Error("pointer should be compatible with its value")
	}
	if isTypeCompatible(ptrType, reflect.TypeOf(&TestDependency{})) {
		t.Error("unrelated types should not be compatible")
	}
}
