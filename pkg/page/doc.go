// Package page defines the records consumed and produced by the layout engine.
//
// Input records ([Page], [Panel], [SpeechBubble]) mirror what an external
// store or editor hands to Inkframe. Every geometric field is optional: the
// layout stage resolves missing values through documented fallback chains,
// so a syntactically valid page always renders.
//
// Output records ([RenderedPage], [RenderedPanel], [RenderedBubble]) are the
// fully resolved geometry. They are computed fresh on every render, serialize
// to JSON for editor overlays and caches, and are the only geometry the
// compositor draws from.
//
// # Enumerations
//
// Panel types, border styles, bubble types and tail directions are closed
// string enums. Unknown values decode without error and resolve to the
// documented default through the Or* helpers:
//
//	page.PanelType("weird").OrDefault()   // page.PanelStandard
//	page.BorderStyle("").OrDefault()      // page.BorderSolid
//
// # Storage
//
// All types carry json and bson tags; the same structs are read from JSON
// files, HTTP requests and MongoDB documents.
package page
