package extract

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BlockKind distinguishes the document blocks the extractor cares
// about.
type BlockKind int

const (
	// BlockHeading is a top-level section heading (<h1>).
	BlockHeading BlockKind = iota + 1

	// BlockTable is a <table> element.
	BlockTable
)

// Block is one heading or table, in document order.
type Block struct {
	Kind BlockKind

	// Text is the heading text (BlockHeading only).
	Text string

	// Table is set for BlockTable.
	Table *Table
}

// Document is the typed view of a report: its headings and tables in
// the order they appear.
type Document struct {
	Blocks []Block
}

// Table is a parsed <table> with its rows of trimmed cell text.
type Table struct {
	ID   string
	Rows []Row
}

// Row holds the text of each <td> or <th> cell.
type Row struct {
	Cells []string
}

// LookupError reports a row or cell that a table does not have.
type LookupError struct {
	Table string
	What  string
	Index int
	Len   int
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("table %q: %s %d out of range (have %d)", e.Table, e.What, e.Index, e.Len)
}

// Row returns row i or a *LookupError.
func (t *Table) Row(i int) (Row, error) {
	if i < 0 || i >= len(t.Rows) {
		return Row{}, &LookupError{Table: t.ID, What: "row", Index: i, Len: len(t.Rows)}
	}
	return t.Rows[i], nil
}

// Cell returns the text of cell i, or false when the row is too short.
func (r Row) Cell(i int) (string, bool) {
	if i < 0 || i >= len(r.Cells) {
		return "", false
	}
	return r.Cells[i], true
}

// Index returns the position of the first cell whose text equals
// label, or -1.
func (r Row) Index(label string) int {
	for i, c := range r.Cells {
		if c == label {
			return i
		}
	}
	return -1
}

// Tables returns every table with the given id, in document order.
func (d *Document) Tables(id string) []*Table {
	var out []*Table
	for _, b := range d.Blocks {
		if b.Kind == BlockTable && b.Table.ID == id {
			out = append(out, b.Table)
		}
	}
	return out
}

// ParseDocument parses an HTML report into its headings and tables.
// Nested tables are recorded as their own blocks and their rows are
// not merged into the enclosing table.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	doc := &Document{}
	walk(root, doc)
	return doc, nil
}

func walk(n *html.Node, doc *Document) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.H1:
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockHeading, Text: normalizeSpace(textOf(n))})
			return
		case atom.Table:
			t := &Table{ID: attr(n, "id")}
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockTable, Table: t})
			collectRows(n, t, doc)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, doc)
	}
}

// collectRows gathers the <tr> elements that belong to t, descending
// through the implicit <thead>/<tbody>/<tfoot> wrappers.
func collectRows(n *html.Node, t *Table, doc *Document) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.DataAtom {
		case atom.Thead, atom.Tbody, atom.Tfoot:
			collectRows(c, t, doc)
		case atom.Tr:
			t.Rows = append(t.Rows, parseRow(c, doc))
		case atom.Table:
			walk(c, doc)
		}
	}
}

func parseRow(tr *html.Node, doc *Document) Row {
	var row Row
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
			row.Cells = append(row.Cells, normalizeSpace(textOf(c)))
			for inner := c.FirstChild; inner != nil; inner = inner.NextSibling {
				findNested(inner, doc)
			}
		}
	}
	return row
}

// findNested records tables nested inside a cell.
func findNested(n *html.Node, doc *Document) {
	if n.Type == html.ElementNode && (n.DataAtom == atom.Table || n.DataAtom == atom.H1) {
		walk(n, doc)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		findNested(c, doc)
	}
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Table {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// normalizeSpace trims and collapses runs of whitespace, including
// the non-breaking spaces report exporters like to emit.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
