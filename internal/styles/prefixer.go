package styles

import (
	"errors"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// Prefixer adds vendor prefixes required by the target engines.
type Prefixer struct {
	engines []api.Engine
}

// NewPrefixer returns a Prefixer for engines. With no engines the CSS is
// passed through esbuild unchanged apart from formatting.
func NewPrefixer(engines []api.Engine) *Prefixer {
	return &Prefixer{engines: engines}
}

// Process returns prefixed CSS along with any warnings esbuild reported.
func (p *Prefixer) Process(css, filename string) (string, []api.Message, error) {
	res := api.Transform(css, api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    p.engines,
		Sourcefile: filename,
		LogLevel:   api.LogLevelSilent,
	})

	if len(res.Errors) > 0 {
		texts := make([]string, 0, len(res.Errors))
		for _, m := range res.Errors {
			texts = append(texts, m.Text)
		}

		return "", res.Warnings, errors.New("prefixing " + filename + ": " + strings.Join(texts, "; "))
	}

	return string(res.Code), res.Warnings, nil
}
