package engine

import (
	"context"

	"github.com/OCAP2/combatlog/internal/lines"
	"github.com/OCAP2/combatlog/internal/parser"
	"github.com/OCAP2/combatlog/internal/state"
	"github.com/OCAP2/combatlog/pkg/core"
)

// lineSource decodes one buffer lazily. Line counts and decode diagnostics go
// straight into the state as each line is read.
type lineSource struct {
	ctx    context.Context
	reader *lines.Reader
	parser *parser.Parser
	stream core.Stream
	state  *state.ParseState
}

func newLineSource(ctx context.Context, buf []byte, p *parser.Parser, stream core.Stream, st *state.ParseState) *lineSource {
	return &lineSource{
		ctx:    ctx,
		reader: lines.NewReader(buf),
		parser: p,
		stream: stream,
		state:  st,
	}
}

// Next stops early once the context is done; the caller checks ctx.Err().
func (s *lineSource) Next() (*core.Event, bool) {
	for {
		if s.ctx.Err() != nil {
			return nil, false
		}
		l, ok := s.reader.Next()
		if !ok {
			return nil, false
		}
		s.state.CountLine(s.stream)

		ev, diag := s.parser.ParseLine(l, s.stream)
		if diag != nil {
			s.state.AddDiagnostic(*diag)
		}
		if ev != nil {
			return ev, true
		}
	}
}
