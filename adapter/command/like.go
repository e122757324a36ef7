package command

import (
	"regexp"
	"strings"

	"github.com/vinicius-lino-figueiredo/godm/domain"
)

type likeOptions struct {
	flags         string
	startWildcard bool
	endWildcard   bool
}

// WithFlags sets the regular expression flags of [Command.WhereLike]. The
// default is "i".
func WithFlags(flags string) LikeOption {
	return func(lo *likeOptions) {
		lo.flags = flags
	}
}

// WithStartWildcard sets whether anything may precede the value. When false
// the pattern is anchored with ^.
func WithStartWildcard(w bool) LikeOption {
	return func(lo *likeOptions) {
		lo.startWildcard = w
	}
}

// WithEndWildcard sets whether anything may follow the value. When false the
// pattern is anchored with $.
func WithEndWildcard(w bool) LikeOption {
	return func(lo *likeOptions) {
		lo.endWildcard = w
	}
}

// LikeOption configures [Command.WhereLike].
type LikeOption func(*likeOptions)

func likePattern(value string, opts ...LikeOption) domain.Regex {
	lo := likeOptions{flags: "i", startWildcard: true, endWildcard: true}
	for _, opt := range opts {
		opt(&lo)
	}
	pattern := regexp.QuoteMeta(strings.TrimSpace(value))
	if !lo.startWildcard {
		pattern = "^" + pattern
	}
	if !lo.endWildcard {
		pattern += "$"
	}
	return domain.Regex{Pattern: pattern, Options: lo.flags}
}
