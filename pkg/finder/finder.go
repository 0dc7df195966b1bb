package finder

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/stash/pkg/domain"
	"github.com/aretw0/stash/pkg/ports"
	"github.com/aretw0/stash/pkg/session"
)

// Kind is the result shape of a finder.
type Kind int

const (
	FindOne Kind = iota
	FindAll
	Count
	Exists
)

func (k Kind) String() string {
	switch k {
	case FindOne:
		return "find"
	case FindAll:
		return "findAll"
	case Count:
		return "count"
	case Exists:
		return "exists"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// prefixes are matched in order; "findAllBy" must precede "findBy".
var prefixes = []struct {
	prefix string
	kind   Kind
}{
	{"findAllBy", FindAll},
	{"findBy", FindOne},
	{"countBy", Count},
	{"existsBy", Exists},
}

// Finder is a parsed method pattern bound to an entity name.
type Finder struct {
	method     string
	entity     string
	kind       Kind
	properties []string
}

// Parse builds the finder for method on the named entity.
func Parse(entity, method string) (*Finder, error) {
	for _, p := range prefixes {
		rest, ok := strings.CutPrefix(method, p.prefix)
		if !ok {
			continue
		}
		props, err := splitProperties(rest)
		if err != nil {
			return nil, fmt.Errorf("invalid finder %s: %w", method, err)
		}
		return &Finder{
			method:     method,
			entity:     entity,
			kind:       p.kind,
			properties: props,
		}, nil
	}
	return nil, fmt.Errorf("invalid finder %s: expected findBy, findAllBy, countBy or existsBy", method)
}

// splitProperties splits "TitleAndAuthor" into ["title", "author"].
// "And" only separates when followed by an upper-case letter, so "Brand" stays whole.
func splitProperties(s string) ([]string, error) {
	if s == "" {
		return nil, fmt.Errorf("no property")
	}
	var props []string
	start := 0
	for i := 0; i+3 < len(s); i++ {
		if s[i:i+3] != "And" || i == start {
			continue
		}
		next, _ := utf8.DecodeRuneInString(s[i+3:])
		if !unicode.IsUpper(next) {
			continue
		}
		props = append(props, lowerFirst(s[start:i]))
		start = i + 3
	}
	props = append(props, lowerFirst(s[start:]))
	return props, nil
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// Method returns the method name the finder was parsed from.
func (f *Finder) Method() string { return f.method }

// Entity returns the target entity name.
func (f *Finder) Entity() string { return f.entity }

// Kind returns the result shape.
func (f *Finder) Kind() Kind { return f.kind }

// Properties returns the queried properties in argument order.
func (f *Finder) Properties() []string {
	out := make([]string, len(f.properties))
	copy(out, f.properties)
	return out
}

// Invoke runs the query against s with one argument per property.
// Backend errors are returned unchanged.
func (f *Finder) Invoke(ctx context.Context, s *session.Session, args ...any) (any, error) {
	if len(args) != len(f.properties) {
		return nil, fmt.Errorf("%s: %w: want %d, got %d", f.method, domain.ErrFinderArguments, len(f.properties), len(args))
	}

	return s.Execute(ctx, func(ctx context.Context, s *session.Session) (any, error) {
		p, ok := s.PersisterFor(f.entity)
		if !ok {
			return nil, &domain.NotPersistentEntityError{Entity: f.entity, Method: f.method, Arg: describe(args)}
		}
		q, ok := p.(ports.Querier)
		if !ok {
			return nil, fmt.Errorf("%s: %s persister cannot be queried: %w", f.method, f.entity, domain.ErrUnsupportedOperation)
		}

		criteria := make(map[string]any, len(args))
		for i, prop := range f.properties {
			criteria[prop] = args[i]
		}
		results, err := q.FindBy(ctx, criteria)
		if err != nil {
			return nil, err
		}

		switch f.kind {
		case FindOne:
			if len(results) == 0 {
				return nil, nil
			}
			return results[0], nil
		case FindAll:
			if results == nil {
				results = []any{}
			}
			return results, nil
		case Count:
			return int64(len(results)), nil
		default:
			return len(results) > 0, nil
		}
	})
}

func describe(args []any) any {
	if len(args) == 1 {
		return args[0]
	}
	return args
}
