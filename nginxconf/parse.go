package nginxconf

import (
	"errors"
	"io"
	"strings"

	crossplane "github.com/nginxinc/nginx-go-crossplane"
)

// configName labels the in-memory source in crossplane errors.
const configName = "nginx.conf"

// Directive is one simple or block directive. Block is nil for simple
// directives and non-nil (possibly empty) for block directives.
type Directive struct {
	Name  string
	Args  []string
	Line  int
	Block []*Directive
}

// IsBlock reports whether d was written with a {...} body.
func (d *Directive) IsBlock() bool { return d.Block != nil }

// Parse builds the directive tree of one configuration file. The text is
// read as a single file: include directives are kept but not followed, and
// directive names, contexts and argument counts are not validated.
func Parse(src []byte) ([]*Directive, error) {
	payload, err := crossplane.Parse(configName, &crossplane.ParseOptions{
		Open: func(string) (io.Reader, error) {
			return io.NopCloser(strings.NewReader(string(src))), nil
		},
		SingleFile:                true,
		StopParsingOnError:        true,
		SkipDirectiveContextCheck: true,
		SkipDirectiveArgsCheck:    true,
	})
	if err != nil {
		return nil, syntaxError(err, nil)
	}
	if len(payload.Errors) > 0 {
		pe := payload.Errors[0]
		return nil, syntaxError(pe.Error, pe.Line)
	}
	if len(payload.Config) == 0 {
		return []*Directive{}, nil
	}
	return convert(payload.Config[0].Parsed), nil
}

func convert(ds crossplane.Directives) []*Directive {
	out := make([]*Directive, 0, len(ds))
	for _, d := range ds {
		nd := &Directive{Name: d.Directive, Args: d.Args, Line: d.Line}
		if d.Block != nil {
			nd.Block = convert(d.Block)
		}
		out = append(out, nd)
	}
	return out
}

func syntaxError(err error, line *int) error {
	se := &SyntaxError{Msg: err.Error()}
	var pe *crossplane.ParseError
	if errors.As(err, &pe) {
		se.Msg = pe.What
		if pe.Line != nil {
			line = pe.Line
		}
	}
	if line != nil {
		se.Line = *line
	}
	return se
}
