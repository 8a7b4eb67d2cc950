package bus

import (
	"reflect"
	"sync"
	"sync/atomic"
)

// Token is a stable, process-wide identifier for a compile-time type.
// Tokens are dense integers assigned on first use and never reused, so
// they stay valid for the lifetime of the process.
type Token uint32

// tokenRegistry assigns tokens to types. Reads are the hot path: every
// typed dispatch resolves its type to a token, so lookups go through a
// sync.Map and stay lock-free once a type has been seen.
type tokenRegistry struct {
	types  sync.Map // map[reflect.Type]Token
	names  sync.Map // map[Token]string
	nextID atomic.Uint32
}

var tokens = &tokenRegistry{}

// tokenOf returns the token for type T, registering it on first use.
func tokenOf[T any]() Token {
	return tokenForType(reflect.TypeOf((*T)(nil)).Elem())
}

func tokenForType(t reflect.Type) Token {
	if tok, ok := tokens.types.Load(t); ok {
		return tok.(Token)
	}

	id := Token(tokens.nextID.Add(1) - 1)

	// LoadOrStore settles races: if another goroutine registered the type
	// first, our allocated id is wasted, which is harmless and rare.
	actual, loaded := tokens.types.LoadOrStore(t, id)
	if loaded {
		return actual.(Token)
	}
	tokens.names.Store(id, t.String())
	return id
}

// tokenName returns the type name a token was registered for, for traces.
func tokenName(tok Token) string {
	if name, ok := tokens.names.Load(tok); ok {
		return name.(string)
	}
	return "unknown"
}
