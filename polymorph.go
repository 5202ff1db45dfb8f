package apexText

import (
	"maps"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/modern-go/reflect2"
)

// typeRegistry maps discriminator names to types. Like the dispatch cache it
// is an immutable map behind an atomic pointer; writers clone and swap.
var typeRegistry atomic.Pointer[map[string]reflect.Type]

func init() {
	typeRegistry.Store(&map[string]reflect.Type{})
}

// typeName returns the discriminator written for t: the package path and
// name, with a leading '*' for pointer types.
func typeName(t reflect.Type) string {
	prefix := ""
	for t.Kind() == reflect.Ptr && t.Name() == "" {
		prefix += "*"
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return prefix + t.String()
	}
	return prefix + t.PkgPath() + "." + t.Name()
}

// RegisterType makes the types of samples resolvable from their
// discriminators. Types written through an interface slot register
// themselves; explicit registration is needed only for reading text that
// was produced elsewhere.
func RegisterType(samples ...interface{}) {
	for _, s := range samples {
		if t := reflect.TypeOf(s); t != nil {
			registerType(t)
		}
	}
}

func registerCodecType(tc *typeCodec) {
	if tc.registered.Load() {
		return
	}
	registerType(tc.typ)
	tc.registered.Store(true)
}

func registerType(t reflect.Type) {
	for t.Kind() == reflect.Ptr && t.Name() == "" {
		t = t.Elem()
	}
	name := typeName(t)
	for {
		cur := typeRegistry.Load()
		if existing, ok := (*cur)[name]; ok && existing == t {
			return
		}
		next := make(map[string]reflect.Type, len(*cur)+1)
		maps.Copy(next, *cur)
		next[name] = t
		if typeRegistry.CompareAndSwap(cur, &next) {
			return
		}
	}
}

// resolveType returns the type named by a discriminator, or nil. Registered
// types are consulted first, then the types linked into the binary.
func resolveType(name string) reflect.Type {
	stars := 0
	for stars < len(name) && name[stars] == '*' {
		stars++
	}
	base := name[stars:]

	t := (*typeRegistry.Load())[base]
	if t == nil {
		t = lookupLinkedType(base)
		if t == nil {
			return nil
		}
		registerType(t)
	}
	for ; stars > 0; stars-- {
		t = reflect.PointerTo(t)
	}
	return t
}

func lookupLinkedType(name string) reflect.Type {
	dot := strings.LastIndexByte(name, '.')
	if dot <= 0 || dot == len(name)-1 {
		return nil
	}
	rt := reflect2.TypeByPackageName(name[:dot], name[dot+1:])
	if rt == nil {
		return nil
	}
	return rt.Type1()
}
