package lsp

import "sync"

// document is one open text document and the report of its current text.
type document struct {
	text    string
	version int32
	report  *Report
}

// Documents tracks the open documents of a session by URI. Each document
// remembers the report of its current text; a new text drops it.
type Documents struct {
	mu   sync.Mutex
	open map[string]*document
}

// NewDocuments creates an empty document set.
func NewDocuments() *Documents {
	return &Documents{open: make(map[string]*document)}
}

// Open starts tracking uri at version.
func (d *Documents) Open(uri, text string, version int32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.open[uri] = &document{text: text, version: version}
}

// Update replaces the text of uri. Changes older than the stored version
// are ignored; the result reports whether the text was taken.
func (d *Documents) Update(uri, text string, version int32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.open[uri]
	if ok && version < doc.version {
		return false
	}

	if ok && doc.text == text {
		doc.version = version

		return true
	}

	d.open[uri] = &document{text: text, version: version}

	return true
}

// Replace sets the text of uri without changing its version, as a save
// carrying the full text does.
func (d *Documents) Replace(uri, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.open[uri]
	if !ok {
		d.open[uri] = &document{text: text}

		return
	}

	if doc.text != text {
		doc.text = text
		doc.report = nil
	}
}

// Text returns the current text of uri.
func (d *Documents) Text(uri string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.open[uri]
	if !ok {
		return "", false
	}

	return doc.text, true
}

// Version returns the last version seen for uri.
func (d *Documents) Version(uri string) (int32, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.open[uri]
	if !ok {
		return 0, false
	}

	return doc.version, true
}

// Report returns the remembered report of the current text of uri.
func (d *Documents) Report(uri string) (Report, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.open[uri]
	if !ok || doc.report == nil {
		return Report{}, false
	}

	return *doc.report, true
}

// Remember stores report for uri when text is still its current text. A
// report of a superseded text is dropped.
func (d *Documents) Remember(uri, text string, report Report) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, ok := d.open[uri]
	if !ok || doc.text != text {
		return false
	}

	doc.report = &report

	return true
}

// Close stops tracking uri.
func (d *Documents) Close(uri string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.open, uri)
}

// Len returns the number of open documents.
func (d *Documents) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.open)
}
