package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSegmentBody_NoHeadings(t *testing.T) {
	body := "\n  A lovely soup for cold days.\n\n### Not a level-four heading\n"
	got := SegmentBody(body, DialectStandard)
	want := Body{
		Intro:        "A lovely soup for cold days.\n\n### Not a level-four heading",
		Ingredients:  []string{},
		Instructions: []string{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentBody_IngredientsWithSubHeaders(t *testing.T) {
	body := "Intro.\n\n#### **Ingredients**\n* Flour\n**Wet:**\n*   Milk  \nnot a bullet\n- dash bullet\n"
	got := SegmentBody(body, DialectStandard)
	if diff := cmp.Diff([]string{"Flour", "Wet:", "Milk"}, got.Ingredients); diff != "" {
		t.Errorf("ingredients mismatch (-want +got):\n%s", diff)
	}
	if got.Intro != "Intro." {
		t.Errorf("intro = %q", got.Intro)
	}
}

func TestSegmentBody_InstructionContinuation(t *testing.T) {
	body := "#### Instructions\n1. Mix.\n* stir well\n"
	got := SegmentBody(body, DialectStandard)
	if diff := cmp.Diff([]string{"Mix.\n   * stir well"}, got.Instructions); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
	if got.Intro != "" {
		t.Errorf("intro = %q, want empty", got.Intro)
	}
}

func TestSegmentBody_InstructionSoftWrapAndRenumbering(t *testing.T) {
	body := "" +
		"#### Instructions\n" +
		"3. Heat the oil\n" +
		"   over medium heat.\n" +
		"\n" +
		"1. Add onions.\n" +
		"   * keep stirring\n" +
		"   * do not burn\n" +
		"10. Serve.\n"
	got := SegmentBody(body, DialectStandard)
	want := []string{
		"Heat the oil over medium heat.",
		"Add onions.\n   * keep stirring\n   * do not burn",
		"Serve.",
	}
	if diff := cmp.Diff(want, got.Instructions); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentBody_CaseInsensitiveHeadersAndUnknownSections(t *testing.T) {
	body := "" +
		"#### INGREDIENTS\n* Salt\n" +
		"#### Equipment\n* Pot\n" +
		"#### instructions for serving\n1. Plate it.\n" +
		"#### Notes\nKeeps for a week.\n"
	got := SegmentBody(body, DialectStandard)
	if diff := cmp.Diff([]string{"Salt"}, got.Ingredients); diff != "" {
		t.Errorf("ingredients mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Plate it."}, got.Instructions); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}
	if got.Notes != "" {
		t.Errorf("standard dialect should not extract notes, got %q", got.Notes)
	}
}

func TestSegmentBody_LegacyDialectNotes(t *testing.T) {
	body := "" +
		"Intro text.\n" +
		"### Ingredients\n* Rice\n" +
		"#### Ingredients\nnot a section heading in this dialect\n" +
		"### Instructions\n1. Cook.\n" +
		"### Notes\n\nFreezes well.\nReheat gently.\n\n"
	got := SegmentBody(body, DialectLegacy)
	want := Body{
		Intro:        "Intro text.",
		Ingredients:  []string{"Rice"},
		Instructions: []string{"Cook."},
		Notes:        "Freezes well.\nReheat gently.",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentBody_HeadingNeedsWhitespace(t *testing.T) {
	got := SegmentBody("####Ingredients\n* x\n##### Ingredients\n* y\n", DialectStandard)
	if len(got.Ingredients) != 0 {
		t.Errorf("ingredients = %v, want none", got.Ingredients)
	}
}

func TestSegmentBody_BareMarkerLine(t *testing.T) {
	body := "Intro.\n####\nIngredients\n* Salt\n####\n\n**Instructions**\n1. Season.\n"
	got := SegmentBody(body, DialectStandard)
	want := Body{
		Intro:        "Intro.",
		Ingredients:  []string{"Salt"},
		Instructions: []string{"Season."},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestSegmentBody_Empty(t *testing.T) {
	got := SegmentBody("", DialectStandard)
	want := Body{Ingredients: []string{}, Instructions: []string{}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderBody_RoundTrip(t *testing.T) {
	for _, d := range []Dialect{DialectStandard, DialectLegacy} {
		t.Run(d.Name, func(t *testing.T) {
			in := Body{
				Intro:        "A weeknight curry.",
				Ingredients:  []string{"For the Masala:", "2 onions", "1 tsp cumin"},
				Instructions: []string{"Fry the onions.\n   * until golden", "Add spices."},
				Notes:        "Better the next day.",
			}
			if !d.Notes {
				in.Notes = ""
			}
			got := SegmentBody(RenderBody(in, d), d)
			if diff := cmp.Diff(in, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDialectByName(t *testing.T) {
	if d, err := DialectByName(""); err != nil || d.HeadingLevel != 4 {
		t.Errorf("default dialect = %+v, %v", d, err)
	}
	if d, err := DialectByName("legacy"); err != nil || d.HeadingLevel != 3 || !d.Notes {
		t.Errorf("legacy dialect = %+v, %v", d, err)
	}
	if _, err := DialectByName("klingon"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	doc := Parse(nil, DialectStandard)
	if doc.Frontmatter.Len() != 0 || doc.Body != "" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Sections.Intro != "" || len(doc.Sections.Ingredients) != 0 {
		t.Errorf("sections = %+v", doc.Sections)
	}
}
