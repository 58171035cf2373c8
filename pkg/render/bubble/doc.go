// Package bubble places speech bubbles inside their panels.
//
// Placement runs in three steps for every panel:
//
//  1. Resolve each bubble's rectangle. Sources are tried in order: a valid
//     external suggestion, the bubble's relative rectangle, its panel-local
//     pixel rectangle, and finally a rule-based anchor sized from the text.
//  2. Clamp the rectangle inside the panel with a fixed padding, so no
//     bubble ever extends outside its panel.
//  3. Resolve overlaps by nudging later bubbles downward for a bounded number
//     of passes.
//
// Overlap resolution is greedy and order dependent. When a panel runs out of
// vertical room the best positions found are returned; this is not an error.
//
// Tail direction is derived from the bubble's quadrant relative to the panel
// center: the tail points into the opposite quadrant.
package bubble
