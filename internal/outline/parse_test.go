package outline

import (
	"strings"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html><body>
<div id="toc-auto"><h2 class="toc-title">Contents</h2>
<div id="toc-content-auto">
<nav id="TableOfContents">
  <ul>
    <li><a href="#intro">Intro</a></li>
    <li><a href="#setup">Setup</a>
      <ul>
        <li><a href="#linux">Linux</a>
          <ul><li><a href="#pkg%20managers">Package managers</a></li></ul>
        </li>
        <li><a href="#macos">macOS</a></li>
      </ul>
    </li>
  </ul>
</nav>
</div></div>
<div id="toc-static" data-kept=""></div>
<div class="page single">
  <h1 class="single-title">Installing things</h1>
  <h2 class="single-subtitle">A subtitle</h2>
  <div class="content">
    <h2 id="intro">Intro</h2>
    <h2 id="setup">Setup</h2>
    <h3 id="linux">Linux</h3>
    <h4 id="pkg managers">Package managers</h4>
    <article><h2>Embedded gist</h2></article>
    <h3 id="macos">macOS</h3>
  </div>
</div>
</body></html>`

func TestParsePage(t *testing.T) {
	page, err := ParsePage(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}

	wantEntries := []Entry{
		{Target: "intro", Title: "Intro", Parent: -1, Depth: 0},
		{Target: "setup", Title: "Setup", Parent: -1, Depth: 0},
		{Target: "linux", Title: "Linux", Parent: 1, Depth: 1},
		{Target: "pkg managers", Title: "Package managers", Parent: 2, Depth: 2},
		{Target: "macos", Title: "macOS", Parent: 1, Depth: 1},
	}
	if len(page.Tree.Entries) != len(wantEntries) {
		t.Fatalf("Expected %d entries, got %d: %+v", len(wantEntries), len(page.Tree.Entries), page.Tree.Entries)
	}
	for i, want := range wantEntries {
		if got := page.Tree.Entries[i]; got != want {
			t.Errorf("entry %d = %+v, want %+v", i, got, want)
		}
	}

	if len(page.Headings) != 8 {
		t.Fatalf("Expected 8 headings, got %d: %+v", len(page.Headings), page.Headings)
	}
	if !page.Headings[1].Subtitle {
		t.Error("Second heading should be the subtitle")
	}
	if !page.Headings[6].Embedded {
		t.Error("Heading inside <article> should be marked embedded")
	}
	if page.Headings[6].ID != "embedded-gist" {
		t.Errorf("Expected slug id for heading without id, got %q", page.Headings[6].ID)
	}

	// Title + subtitle + one embedded heading
	if page.TocSubtract != 3 {
		t.Errorf("TocSubtract = %d, want 3", page.TocSubtract)
	}
	if page.Kept {
		t.Error("Empty data-kept should not pin the outline")
	}
}

func TestParsePage_NoOutline(t *testing.T) {
	page, err := ParsePage(strings.NewReader(`<html><body><h1>Title</h1><p>text</p></body></html>`))
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}
	if page.Tree.Len() != 0 {
		t.Errorf("Expected empty tree, got %d entries", page.Tree.Len())
	}
	if NewTracker(page.Tree, page.Layout(Layout{}), 1600).Active() {
		t.Error("Tracker without outline should stay inert")
	}
}

func TestParsePage_Kept(t *testing.T) {
	page, err := ParsePage(strings.NewReader(`<div id="toc-static" data-kept="true"></div><nav id="TableOfContents"><ul><li><a href="#a">A</a></li></ul></nav>`))
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}
	if !page.Kept {
		t.Error("Expected kept outline")
	}
	if !page.Layout(Layout{}).Kept {
		t.Error("Layout should carry the pinned state")
	}
}

func TestParsePage_DuplicateSlugs(t *testing.T) {
	page, err := ParsePage(strings.NewReader(`<h2>Usage</h2><h2>Usage</h2><h2 id="usage-1">Other</h2>`))
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}
	ids := page.HeadingIDs()
	if len(ids) != 3 || ids[0] != "usage" || ids[1] != "usage-1" {
		t.Errorf("Unexpected ids: %v", ids)
	}
}

func TestParsePage_EndToEnd(t *testing.T) {
	page, err := ParsePage(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ParsePage failed: %v", err)
	}

	// Title, subtitle, intro, setup, linux, pkg, gist, macos; "linux" just crossed spacing
	tops := []float64{-900, -850, -600, -300, 5, 200, 400, 600}
	state := Recompute(page.Layout(Layout{}), page.Tree, Frame{HeadingTops: tops})

	if state.ActiveHeading != 4 {
		t.Fatalf("ActiveHeading = %d, want 4", state.ActiveHeading)
	}
	// The embedded heading is counted in the subtract even though it follows "linux"
	if state.ActiveEntry != 1 {
		t.Errorf("ActiveEntry = %d, want 1", state.ActiveEntry)
	}
}
