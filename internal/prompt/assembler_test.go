package prompt

import (
	"strings"
	"testing"

	"clin-summ/internal/corpus"
	"clin-summ/internal/errdefs"
)

func opiTemplate(t *testing.T) Template {
	t.Helper()
	tmpl, err := ForDataset("opi", false)
	if err != nil {
		t.Fatal(err)
	}
	return tmpl
}

func TestForDataset(t *testing.T) {
	tests := []struct {
		dataset string
		demo    bool
		wantID  string
	}{
		{"opi", false, "opi"},
		{"opi", true, "opi-demo"},
		{"chq", false, "chq"},
		{"d2n", true, "d2n-demo"},
	}
	for _, tt := range tests {
		tmpl, err := ForDataset(tt.dataset, tt.demo)
		if err != nil {
			t.Fatalf("ForDataset(%s, %v): %v", tt.dataset, tt.demo, err)
		}
		if tmpl.ID != tt.wantID {
			t.Errorf("got template %s, want %s", tmpl.ID, tt.wantID)
		}
	}

	if _, err := ForDataset("mimic", false); !errdefs.IsKind(err, errdefs.KindInvalidArgument) {
		t.Errorf("expected invalid_argument for unknown dataset, got %v", err)
	}
}

func TestRenderNearestLast(t *testing.T) {
	spec := Spec{
		Template: opiTemplate(t),
		Examples: []corpus.Example{
			{ID: 2, SourceText: "nearest findings", TargetSummary: "nearest impression"},
			{ID: 0, SourceText: "farthest findings", TargetSummary: "farthest impression"},
		},
		Target:    "target findings",
		MaxTokens: 4096,
	}

	text, n, err := spec.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 exemplars kept, got %d", n)
	}

	far := strings.Index(text, "farthest findings")
	near := strings.Index(text, "nearest findings")
	target := strings.Index(text, "target findings")
	if far == -1 || near == -1 || target == -1 {
		t.Fatalf("prompt missing sections:\n%s", text)
	}
	if !(far < near && near < target) {
		t.Errorf("expected farthest-first, nearest immediately before target:\n%s", text)
	}
	if !strings.HasSuffix(text, "IMPRESSION:") {
		t.Errorf("prompt should end with the output label cue:\n%s", text)
	}
}

func TestRenderZeroShot(t *testing.T) {
	spec := Spec{
		Template:  opiTemplate(t),
		Examples:  nil,
		Target:    "heart size normal",
		MaxTokens: 4096,
	}
	text, n, err := spec.Render()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected 0 exemplars, got %d", n)
	}
	if strings.Count(text, "FINDINGS:") != 1 {
		t.Errorf("zero-shot prompt should contain the target only:\n%s", text)
	}
}

func TestRenderDropsFarthestFirst(t *testing.T) {
	long := strings.Repeat("opacity in the left lower lobe. ", 40)
	spec := Spec{
		Template: opiTemplate(t),
		Examples: []corpus.Example{
			{ID: 1, SourceText: "short findings", TargetSummary: "short impression"},
			{ID: 3, SourceText: long, TargetSummary: long},
		},
		Target:    "target findings",
		MaxTokens: 80,
	}

	text, n, err := spec.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the long farthest exemplar dropped, kept %d", n)
	}
	if !strings.Contains(text, "short findings") {
		t.Errorf("nearest exemplar should survive trimming:\n%s", text)
	}
	if strings.Contains(text, long) {
		t.Errorf("farthest exemplar should have been dropped")
	}
	if CountTokens(text) > spec.MaxTokens {
		t.Errorf("rendered prompt exceeds budget: %d > %d", CountTokens(text), spec.MaxTokens)
	}
}

func TestRenderKeepsLargestFittingPrefix(t *testing.T) {
	examples := []corpus.Example{
		{ID: 0, SourceText: "aa", TargetSummary: "bb"},
		{ID: 1, SourceText: "cc", TargetSummary: "dd"},
		{ID: 2, SourceText: strings.Repeat("long text ", 100), TargetSummary: "ee"},
	}
	spec := Spec{Template: opiTemplate(t), Examples: examples, Target: "tt", MaxTokens: 60}

	_, n, err := spec.Render()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected largest fitting prefix of 2, got %d", n)
	}
}

func TestRenderPromptTooLarge(t *testing.T) {
	spec := Spec{
		Template:  opiTemplate(t),
		Target:    strings.Repeat("extensive bilateral airspace disease ", 50),
		MaxTokens: 10,
	}
	_, _, err := spec.Render()
	if !errdefs.IsKind(err, errdefs.KindPromptTooLarge) {
		t.Errorf("expected prompt_too_large, got %v", err)
	}
}

func TestRenderIsStable(t *testing.T) {
	spec := Spec{
		Template:  opiTemplate(t),
		Examples:  []corpus.Example{{ID: 0, SourceText: "f", TargetSummary: "i"}},
		Target:    "t",
		MaxTokens: 4096,
	}
	first, _, err := spec.Render()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := spec.Render()
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatal("render is not stable across calls")
		}
	}
}

func TestCountTokens(t *testing.T) {
	if CountTokens("") != 0 {
		t.Error("empty text should count 0 tokens")
	}
	short := CountTokens("no acute process")
	long := CountTokens(strings.Repeat("no acute process ", 50))
	if short <= 0 || long <= short {
		t.Errorf("token counts not monotone: short=%d long=%d", short, long)
	}
}
