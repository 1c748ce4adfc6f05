// Package pattern compiles the regular expressions carried by dictionary
// restrictions.
//
// Dictionary patterns are untrusted input. Before compiling, a pattern is
// checked against a length limit and the size of its compiled program, and
// compiled patterns are kept in a bounded LRU cache shared by the match
// predicates and the rule testers.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"regexp/syntax"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	// ErrInvalidPattern indicates a pattern that does not parse.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrUnsafePattern indicates a pattern that exceeds the complexity limits.
	ErrUnsafePattern = errors.New("unsafe pattern")
)

// Error describes a pattern that was rejected.
type Error struct {
	Pattern string
	Kind    error
	Message string
	Cause   error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v %q: %s: %v", e.Kind, e.Pattern, e.Message, e.Cause)
	}
	return fmt.Sprintf("%v %q: %s", e.Kind, e.Pattern, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Config bounds the patterns a Compiler accepts.
type Config struct {
	// MaxPatternLength is the longest accepted pattern in bytes.
	MaxPatternLength int

	// MaxProgramSize is the largest accepted compiled program, in instructions.
	MaxProgramSize int

	// CacheSize is the number of compiled patterns kept.
	CacheSize int
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		MaxPatternLength: 1024,
		MaxProgramSize:   10000,
		CacheSize:        512,
	}
}

type entry struct {
	re  *regexp.Regexp
	err error
}

// Compiler compiles and caches patterns. It is safe for concurrent use.
type Compiler struct {
	config   Config
	cache    *lru.Cache[string, entry]
	observer atomic.Pointer[func(hit bool)]
}

// NewCompiler creates a compiler. Zero limits fall back to the defaults.
func NewCompiler(cfg Config) (*Compiler, error) {
	defaults := DefaultConfig()
	if cfg.MaxPatternLength <= 0 {
		cfg.MaxPatternLength = defaults.MaxPatternLength
	}
	if cfg.MaxProgramSize <= 0 {
		cfg.MaxProgramSize = defaults.MaxProgramSize
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaults.CacheSize
	}

	cache, err := lru.New[string, entry](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern cache: %w", err)
	}
	return &Compiler{config: cfg, cache: cache}, nil
}

// OnCacheLookup registers fn to be called with the outcome of every cache
// lookup. Passing nil removes the hook.
func (c *Compiler) OnCacheLookup(fn func(hit bool)) {
	if fn == nil {
		c.observer.Store(nil)
		return
	}
	c.observer.Store(&fn)
}

// Compile returns the compiled pattern. Rejections are cached as well so a
// bad pattern in a dictionary is only analyzed once.
func (c *Compiler) Compile(pattern string) (*regexp.Regexp, error) {
	if e, ok := c.cache.Get(pattern); ok {
		c.notify(true)
		return e.re, e.err
	}
	c.notify(false)

	re, err := c.compile(pattern)
	c.cache.Add(pattern, entry{re: re, err: err})
	return re, err
}

// MatchString reports whether s contains a match of pattern.
func (c *Compiler) MatchString(pattern, s string) (bool, error) {
	re, err := c.Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s), nil
}

// Len returns the number of cached patterns.
func (c *Compiler) Len() int {
	return c.cache.Len()
}

// Purge empties the cache.
func (c *Compiler) Purge() {
	c.cache.Purge()
}

func (c *Compiler) compile(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > c.config.MaxPatternLength {
		return nil, &Error{
			Pattern: pattern,
			Kind:    ErrUnsafePattern,
			Message: fmt.Sprintf("length %d exceeds limit of %d", len(pattern), c.config.MaxPatternLength),
		}
	}

	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, &Error{Pattern: pattern, Kind: ErrInvalidPattern, Message: "failed to parse", Cause: err}
	}
	prog, err := syntax.Compile(parsed.Simplify())
	if err != nil {
		return nil, &Error{Pattern: pattern, Kind: ErrInvalidPattern, Message: "failed to compile", Cause: err}
	}
	if len(prog.Inst) > c.config.MaxProgramSize {
		return nil, &Error{
			Pattern: pattern,
			Kind:    ErrUnsafePattern,
			Message: fmt.Sprintf("program size %d exceeds limit of %d", len(prog.Inst), c.config.MaxProgramSize),
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &Error{Pattern: pattern, Kind: ErrInvalidPattern, Message: "failed to compile", Cause: err}
	}
	return re, nil
}

func (c *Compiler) notify(hit bool) {
	if fn := c.observer.Load(); fn != nil {
		(*fn)(hit)
	}
}

var defaultCompiler = func() *Compiler {
	c, err := NewCompiler(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}()

// Default returns a shared compiler with the default limits. Callers with
// configured limits build their own with NewCompiler and pass it down.
func Default() *Compiler {
	return defaultCompiler
}
