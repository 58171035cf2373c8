package sink

import (
	"github.com/matzehuels/inkframe/pkg/page"
)

// RenderJSON encodes the rendered geometry as indented JSON. The output
// decodes back with [page.UnmarshalRendered].
func RenderJSON(rp *page.RenderedPage) ([]byte, error) {
	return page.MarshalRendered(rp)
}
