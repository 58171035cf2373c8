package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/inkframe/pkg/errors"
	"github.com/matzehuels/inkframe/pkg/observability"
	"github.com/matzehuels/inkframe/pkg/page"
	"github.com/matzehuels/inkframe/pkg/render/bubble"
	"github.com/matzehuels/inkframe/pkg/render/layout"
)

// Layout resolves a page record into rendered geometry: the template
// lookup, every panel box and every bubble placement.
//
// opts.TemplateID, when set, replaces the page's own template id. The page
// is copied first; the caller's record is never modified.
func Layout(ctx context.Context, p page.Page, opts Options) (rp *page.RenderedPage, err error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if opts.TemplateID != "" {
		p.LayoutTemplateID = opts.TemplateID
	}

	start := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, p.ID, len(p.Panels))
	defer func() {
		observability.Pipeline().OnLayoutComplete(ctx, p.ID, time.Since(start), err)
	}()

	engine := bubble.New(
		bubble.WithSuggester(opts.Suggester),
		bubble.WithLogger(opts.Logger),
	)
	rp, err = layout.RenderPage(p,
		layout.WithRegistry(opts.Registry),
		layout.WithBubblePlacer(engine.Placer(ctx)),
	)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "layout page %s", p.ID)
	}

	opts.Logger.Debug("laid out page",
		"page", p.ID,
		"template", rp.LayoutTemplateID,
		"panels", len(rp.Panels),
		"bubbles", rp.BubbleCount())
	return rp, nil
}
