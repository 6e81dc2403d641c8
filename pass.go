package graphstore

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/signadot/graphstore/blob"
)

// pass is the state of a single save or load.
type pass struct {
	id       string
	opts     *Options
	store    *blob.Store
	log      *slog.Logger
	warnings []*Warning
	written  int
	reused   int
}

func newPass(op string, opts *Options, store *blob.Store) *pass {
	id := uuid.NewString()
	return &pass{
		id:    id,
		opts:  opts,
		store: store,
		log:   opts.Logger.With("pass", id, "op", op),
	}
}

func (p *pass) warn(path string, err error) {
	w := &Warning{Path: path, Err: err}
	p.warnings = append(p.warnings, w)
	p.log.Warn("recovered", "path", path, "error", err)
	if p.opts.OnWarning != nil {
		p.opts.OnWarning(w)
	}
}

func (p *pass) report() *Report {
	return &Report{
		PassID:   p.id,
		Written:  p.written,
		Reused:   p.reused,
		Warnings: p.warnings,
	}
}
