package ast

import "strings"

// Attr is a single attribute. Bool attributes render without a value.
type Attr struct {
	Key   string
	Value string
	Bool  bool
}

// Attributes is an insertion-ordered attribute list. Order is preserved so
// rendering is deterministic and mirrors what stages wrote.
type Attributes []Attr

func (a Attributes) index(key string) int {
	for i := range a {
		if a[i].Key == key {
			return i
		}
	}
	return -1
}

// Get returns the value of key.
func (a Attributes) Get(key string) (string, bool) {
	if i := a.index(key); i >= 0 {
		return a[i].Value, true
	}
	return "", false
}

// Value returns the value of key or "".
func (a Attributes) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// Has reports whether key is present.
func (a Attributes) Has(key string) bool { return a.index(key) >= 0 }

// Set adds or replaces a string attribute.
func (a *Attributes) Set(key, value string) {
	if i := a.index(key); i >= 0 {
		(*a)[i] = Attr{Key: key, Value: value}
		return
	}
	*a = append(*a, Attr{Key: key, Value: value})
}

// SetBool adds a boolean attribute, or removes it when v is false.
func (a *Attributes) SetBool(key string, v bool) {
	if !v {
		a.Delete(key)
		return
	}
	if i := a.index(key); i >= 0 {
		(*a)[i] = Attr{Key: key, Bool: true}
		return
	}
	*a = append(*a, Attr{Key: key, Bool: true})
}

// Delete removes key.
func (a *Attributes) Delete(key string) {
	if i := a.index(key); i >= 0 {
		*a = append((*a)[:i], (*a)[i+1:]...)
	}
}

// Classes returns the whitespace separated class list.
func (a Attributes) Classes() []string {
	return strings.Fields(a.Value("class"))
}

// HasClass reports whether the class list contains c.
func (a Attributes) HasClass(c string) bool {
	for _, x := range a.Classes() {
		if x == c {
			return true
		}
	}
	return false
}

// AddClass appends classes not already present.
func (a *Attributes) AddClass(cs ...string) {
	cur := a.Classes()
	changed := false
	for _, c := range cs {
		if c == "" || a.HasClass(c) {
			continue
		}
		cur = append(cur, c)
		changed = true
	}
	if changed {
		a.Set("class", strings.Join(cur, " "))
	}
}

// Clone returns an independent copy.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	return append(Attributes(nil), a...)
}

// Equal compares two lists including order.
func (a Attributes) Equal(b Attributes) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Attrs builds an attribute list from key/value pairs.
func Attrs(kv ...string) Attributes {
	out := make(Attributes, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out.Set(kv[i], kv[i+1])
	}
	return out
}
