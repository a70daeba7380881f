package board

import (
	"io"
	"log"

	"golang.org/x/text/language"

	"github.com/airyra/flowboard/internal/domain"
	"github.com/airyra/flowboard/pkg/idgen"
)

type options struct {
	logger   *log.Logger
	newID    func() string
	locale   language.Tag
	keywords domain.CategoryKeywords
}

// Option configures engine components.
type Option func(*options)

// WithLogger sets the logger that receives history inconsistency reports.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithIDGenerator overrides how history entry ids are generated.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithLocale sets the collation locale for title and assignee sorting.
func WithLocale(tag language.Tag) Option {
	return func(o *options) {
		o.locale = tag
	}
}

// WithCategoryKeywords sets the keywords used to categorise statuses that
// have no explicit category.
func WithCategoryKeywords(kw domain.CategoryKeywords) Option {
	return func(o *options) {
		o.keywords = kw
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:   log.New(io.Discard, "", 0),
		newID:    func() string { return idgen.MustGenerate(idgen.HistoryPrefix) },
		locale:   language.English,
		keywords: domain.DefaultCategoryKeywords(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
