package extract

// Strategy is one link of a fallback chain.
type Strategy[T any] struct {
	Name string
	Run  func(*Page) []T
}

// FirstNonEmpty runs the chain in order and returns the first non-empty result.
func FirstNonEmpty[T any](p *Page, chain []Strategy[T]) []T {
	for _, s := range chain {
		if out := run(p, s); len(out) > 0 {
			return out
		}
	}
	return nil
}

// Union runs every strategy in order and concatenates the results.
func Union[T any](p *Page, chain []Strategy[T]) []T {
	var out []T
	for _, s := range chain {
		out = append(out, run(p, s)...)
	}
	return out
}

// run isolates a strategy: a panic while walking malformed markup drops only that strategy's candidates.
func run[T any](p *Page, s Strategy[T]) (out []T) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
		}
	}()
	return s.Run(p)
}

// dedupe keeps the first item for each non-empty key, preserving order.
func dedupe[T any](items []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

func capped[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
