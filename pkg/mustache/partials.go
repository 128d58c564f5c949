package mustache

// PartialLoader resolves partial names to template text. A false second
// result means the partial does not exist, which renders as nothing.
type PartialLoader interface {
	Partial(name string) (string, bool)
}

// PartialMap is a PartialLoader backed by a map.
type PartialMap map[string]string

func (m PartialMap) Partial(name string) (string, bool) {
	s, ok := m[name]
	return s, ok
}

// PartialFunc adapts a function to a PartialLoader.
type PartialFunc func(name string) (string, bool)

func (f PartialFunc) Partial(name string) (string, bool) {
	if f == nil {
		return "", false
	}
	return f(name)
}

// ChainLoaders returns a PartialLoader that asks each loader in order and
// uses the first hit. Nil loaders are skipped.
func ChainLoaders(loaders ...PartialLoader) PartialLoader {
	return PartialFunc(func(name string) (string, bool) {
		for _, l := range loaders {
			if l == nil {
				continue
			}
			if s, ok := l.Partial(name); ok {
				return s, true
			}
		}
		return "", false
	})
}
