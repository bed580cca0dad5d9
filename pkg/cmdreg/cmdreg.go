// SPDX-License-Identifier: MPL-2.0

package cmdreg

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/invowk/nestcmd/internal/discovery"
	"github.com/invowk/nestcmd/pkg/command"
	"github.com/invowk/nestcmd/pkg/typemeta"
)

var (
	// ErrSealed is returned when registering into a Set that was already built.
	ErrSealed = errors.New("command set is sealed")
	// ErrDuplicate is returned when a type is registered twice.
	ErrDuplicate = errors.New("command type already registered")
	// ErrUnnamed is returned for types without a declared name.
	ErrUnnamed = errors.New("command type has no name")
	// ErrInterfaceType is returned when T is an interface type.
	ErrInterfaceType = errors.New("command type is an interface")
	// ErrUnregistered is returned when a handle is requested for an
	// unregistered type.
	ErrUnregistered = errors.New("command type not registered")
)

var defaultSet = New()

type (
	// Set collects command registrations and seals them into an immutable
	// typemeta.Registry on first use. Registration is safe for concurrent use.
	Set struct {
		mu      sync.Mutex
		entries []entry
		byKey   map[string]bool
		sealed  bool

		once sync.Once
		reg  *typemeta.Registry
		err  error
	}

	// Option adjusts one registration.
	Option func(*entry)

	entry struct {
		key     string
		module  string
		name    string
		kind    typemeta.Kind
		generic bool
		parent  reflect.Type
		access  typemeta.Accessor
	}
)

// New creates an empty Set.
func New() *Set {
	return &Set{byKey: make(map[string]bool)}
}

// Default returns the process-wide Set used by Register.
func Default() *Set {
	return defaultSet
}

// Parent nests the registered type inside P. When P lives in another Go
// package the type is recorded in an extension of P declared by its own
// package, so it is never a default subcommand of P.
func Parent[P command.Command]() Option {
	return func(e *entry) {
		e.parent = reflect.TypeFor[P]()
	}
}

// Name overrides the declared name reported by discovery.
func Name(name string) Option {
	return func(e *entry) {
		e.name = name
	}
}

// Generic marks the type as having unbound type parameters.
func Generic() Option {
	return func(e *entry) {
		e.generic = true
	}
}

// Kind overrides the nominal kind derived from the Go type.
func Kind(kind typemeta.Kind) Option {
	return func(e *entry) {
		if kind.IsNominal() {
			e.kind = kind
		}
	}
}

// Register records T in the default Set. It is meant to be called from
// init functions and panics on error.
func Register[T command.Command](opts ...Option) {
	if err := RegisterIn[T](defaultSet, opts...); err != nil {
		panic(fmt.Sprintf("cmdreg: %v", err))
	}
}

// RegisterIn records T in s. The type is the module-qualified Go type name;
// the module is its package path.
func RegisterIn[T command.Command](s *Set, opts ...Option) error {
	rt := reflect.TypeFor[T]()
	named, err := namedType(rt)
	if err != nil {
		return err
	}

	e := entry{
		key:     typeKey(named),
		module:  named.PkgPath(),
		name:    named.Name(),
		kind:    kindOf(rt),
		generic: strings.Contains(named.Name(), "["),
		access:  prototype[T](rt),
	}
	for _, opt := range opts {
		opt(&e)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sealed {
		return fmt.Errorf("%w: cannot register %s", ErrSealed, e.key)
	}
	if s.byKey[e.key] {
		return fmt.Errorf("%w: %s", ErrDuplicate, e.key)
	}
	s.byKey[e.key] = true
	s.entries = append(s.entries, e)
	return nil
}

// Registry seals s and returns the built registry. Later calls return the
// same result.
func (s *Set) Registry() (*typemeta.Registry, error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.sealed = true
		entries := s.entries
		s.mu.Unlock()
		s.reg, s.err = build(entries)
	})
	return s.reg, s.err
}

// Finder seals s and returns a subcommand finder over it.
func (s *Set) Finder(opts ...discovery.Option) (*discovery.Finder[command.Command], error) {
	reg, err := s.Registry()
	if err != nil {
		return nil, err
	}
	contract, _ := reg.Lookup(command.ExistentialKey)
	return discovery.New[command.Command](reg, contract, opts...), nil
}

// Len returns the number of registered types.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// HandleOf returns the handle of T in the default Set.
func HandleOf[T command.Command]() (typemeta.Handle, error) {
	return HandleIn[T](defaultSet)
}

// HandleIn returns the handle of T in s, sealing s.
func HandleIn[T command.Command](s *Set) (typemeta.Handle, error) {
	reg, err := s.Registry()
	if err != nil {
		return 0, err
	}
	named, err := namedType(reflect.TypeFor[T]())
	if err != nil {
		return 0, err
	}
	h, ok := reg.Lookup(typeKey(named))
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnregistered, typeKey(named))
	}
	return h, nil
}

// HandleFor returns the handle of the dynamic type of c in s, sealing s.
// It resolves explicitly listed subcommands back to their registrations.
func (s *Set) HandleFor(c command.Command) (typemeta.Handle, bool) {
	if c == nil {
		return 0, false
	}
	reg, err := s.Registry()
	if err != nil {
		return 0, false
	}
	named, err := namedType(reflect.TypeOf(c))
	if err != nil {
		return 0, false
	}
	return reg.Lookup(typeKey(named))
}

// Subcommands returns the default subcommands of T from the default Set.
func Subcommands[T command.Command]() ([]command.Command, error) {
	return SubcommandsIn[T](defaultSet)
}

// SubcommandsIn returns the default subcommands of T from s.
func SubcommandsIn[T command.Command](s *Set) ([]command.Command, error) {
	h, err := HandleIn[T](s)
	if err != nil {
		return nil, err
	}
	finder, err := s.Finder()
	if err != nil {
		return nil, err
	}
	subs := finder.FindSubcommands(h)
	out := make([]command.Command, 0, len(subs))
	for _, sub := range subs {
		out = append(out, sub.Command)
	}
	return out, nil
}

func namedType(rt reflect.Type) (reflect.Type, error) {
	if rt.Kind() == reflect.Interface {
		return nil, fmt.Errorf("%w: %s", ErrInterfaceType, rt)
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Name() == "" || rt.PkgPath() == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnnamed, rt)
	}
	return rt, nil
}

func typeKey(named reflect.Type) string {
	return named.PkgPath() + "." + named.Name()
}

func kindOf(rt reflect.Type) typemeta.Kind {
	switch {
	case rt.Kind() == reflect.Pointer:
		return typemeta.KindClass
	case rt.Kind() == reflect.Struct:
		return typemeta.KindStruct
	default:
		return typemeta.KindEnum
	}
}

// prototype returns an accessor producing a fresh T. Pointer types get a
// pointer to a new zero value rather than nil.
func prototype[T command.Command](rt reflect.Type) typemeta.Accessor {
	if rt.Kind() == reflect.Pointer {
		elem := rt.Elem()
		return func(typemeta.RequestMode) any {
			return reflect.New(elem).Interface().(T)
		}
	}
	return func(typemeta.RequestMode) any {
		var zero T
		return zero
	}
}
