// Package io provides JSON import and export for page records.
//
// # Overview
//
// Pages arrive as JSON documents in the shape of the external page record
// (see [page.Page]). This package reads those documents from files or
// readers and writes resolved pages back out. The format is the same one the
// HTTP service accepts, so a file can be rendered locally and posted to the
// service unchanged.
//
// # JSON Format
//
// A minimal page names its panels and lets the template place them:
//
//	{
//	  "id": "chapter-1-page-3",
//	  "layout_template_id": "dialogue-4panel",
//	  "panels": [
//	    {"id": "p1", "panel_index": 0, "image_url": "https://cdn.example.com/p1.png",
//	     "bubbles": [{"id": "b1", "text": "Where were you?"}]},
//	    {"id": "p2", "panel_index": 1}
//	  ]
//	}
//
// Every geometric field is optional. Panels may carry relative_* or
// absolute x/y/width/height fields; bubbles may carry panel-local pixels,
// relative fields, or nothing at all.
//
// # Import
//
// Use [ImportJSON] to read a page from a file path, or [ReadJSON] to read
// from any io.Reader:
//
//	p, err := io.ImportJSON("page.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both functions reject unknown fields, trailing data and structurally
// invalid pages (negative sizes, duplicate panel ids). A page without an id
// is given a random one.
//
// # Export
//
// Use [ExportJSON] to write any value (usually a [page.RenderedPage]) to a
// file, or [WriteJSON] to write to any io.Writer. Output is indented.
package io
