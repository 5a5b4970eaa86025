package extract

import (
	"reflect"
	"testing"
)

const blogPageSrc = `---
---
export function getStaticPaths() {
  return [
    { params: { slug: 'understanding-fatty-liver-disease' } },
    { params: { slug: 'life-after-liver-transplant' } },
  ];
}

const blogArticles = {
  'understanding-fatty-liver-disease': {
    title: 'Understanding Fatty Liver Disease',
    excerpt: 'What every patient should know about NAFLD.',
    category: 'education',
    author: 'Dr. Tom Cherian',
    date: '2025-03-12',
    readTime: '6 min',
    content: 'Fatty liver disease affects millions of people worldwide.'
  },
  'life-after-liver-transplant': {
    title: 'Life After Liver Transplant',
    excerpt: 'Recovery, medication, and follow-up care.',
    category: 'recovery',
    author: 'Dr. Tom Cherian',
    date: '2025-04-02',
    content: 'Recovery after a transplant is a gradual journey.'
  }
};
`

func TestExtractDynamic(t *testing.T) {
	dc := ExtractDynamic(blogPageSrc)
	if dc == nil {
		t.Fatal("ExtractDynamic returned nil")
	}

	wantSlugs := []string{"understanding-fatty-liver-disease", "life-after-liver-transplant"}
	if !reflect.DeepEqual(dc.Slugs, wantSlugs) {
		t.Errorf("slugs = %#v, want %#v", dc.Slugs, wantSlugs)
	}

	obj := dc.ContentObjects["understanding-fatty-liver-disease"]
	if obj == nil {
		t.Fatal("missing content object for first slug")
	}
	if obj["title"] != "Understanding Fatty Liver Disease" {
		t.Errorf("title = %q", obj["title"])
	}
	if obj["content"] != "Fatty liver disease affects millions of people worldwide." {
		t.Errorf("content = %q", obj["content"])
	}
}

func TestExtractDynamic_NoStaticPaths(t *testing.T) {
	if dc := ExtractDynamic("<h1>Static page</h1>"); dc != nil {
		t.Fatalf("expected nil for page without slug table, got %#v", dc)
	}
}

func TestDynamicPageContents(t *testing.T) {
	dc := ExtractDynamic(blogPageSrc)
	pages := dc.PageContents("blog")

	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}

	first := pages[0]
	if first.PageKey != "blog/understanding-fatty-liver-disease" {
		t.Errorf("PageKey = %q", first.PageKey)
	}
	if first.Meta["title"] != "Understanding Fatty Liver Disease" {
		t.Errorf("meta title = %q", first.Meta["title"])
	}
	// readTime is not a translatable meta field.
	if _, ok := first.Meta["readTime"]; ok {
		t.Error("readTime should not be carried into meta")
	}
	if first.Content["main-content"] == "" {
		t.Error("main-content missing")
	}
	if !reflect.DeepEqual(first.ContentKeys, []string{"main-content"}) {
		t.Errorf("ContentKeys = %#v", first.ContentKeys)
	}
}
