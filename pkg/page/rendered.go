package page

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/inkframe/pkg/geom"
)

// RenderedPage is the fully resolved geometry of one page.
type RenderedPage struct {
	PageID           string          `json:"page_id"`
	Number           int             `json:"number,omitempty"`
	Width            float64         `json:"width"`
	Height           float64         `json:"height"`
	Margins          geom.Margins    `json:"margins"`
	SafeArea         geom.PixelRect  `json:"safe_area"`
	LayoutTemplateID string          `json:"layout_template_id"`
	Panels           []RenderedPanel `json:"panels"`
}

// RenderedPanel is a panel with its final pixel box.
type RenderedPanel struct {
	ID          string              `json:"id"`
	PanelIndex  int                 `json:"panel_index"`
	Relative    geom.NormalizedRect `json:"relative"`
	Box         geom.PixelRect      `json:"box"`
	ZIndex      int                 `json:"z_index"`
	PanelType   PanelType           `json:"panel_type"`
	Margins     geom.Margins        `json:"margins"`
	BorderStyle BorderStyle         `json:"border_style"`
	BorderWidth float64             `json:"border_width"`
	ImageURL    string              `json:"image_url,omitempty"`
	Bubbles     []RenderedBubble    `json:"bubbles,omitempty"`
}

// RenderedBubble is a bubble with its final pixel box and tail.
type RenderedBubble struct {
	ID            string         `json:"id"`
	Text          string         `json:"text"`
	Type          BubbleType     `json:"type"`
	Box           geom.PixelRect `json:"box"`
	TailDirection TailDirection  `json:"tail_direction"`
	TailTarget    *geom.Point    `json:"tail_target,omitempty"`
}

// BubbleCount returns the total number of bubbles on the page.
func (rp *RenderedPage) BubbleCount() int {
	n := 0
	for _, p := range rp.Panels {
		n += len(p.Bubbles)
	}
	return n
}

// MarshalRendered encodes a rendered page as indented JSON.
func MarshalRendered(rp *RenderedPage) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteRendered(rp, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteRendered writes a rendered page as indented JSON.
func WriteRendered(rp *RenderedPage, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rp); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// UnmarshalRendered decodes a rendered page.
func UnmarshalRendered(data []byte) (*RenderedPage, error) {
	var rp RenderedPage
	if err := json.Unmarshal(data, &rp); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &rp, nil
}
