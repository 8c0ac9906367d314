package pipeline

import (
	"testing"

	"github.com/jeswinjoss/Velvet-ai-companion-app/internal/model"
)

func TestAssemblerExtractsSplitMoodTag(t *testing.T) {
	a := NewStreamAssembler()

	// 标签跨多个片段到达，到齐前不展示任何内容
	if _, emit := a.Feed("["); emit {
		t.Fatal("fragment 1 should not emit")
	}
	if _, emit := a.Feed("MOOD:"); emit {
		t.Fatal("fragment 2 should not emit")
	}

	display, emit := a.Feed("Flirty] Hey")
	if !emit || display != "Hey" {
		t.Fatalf("fragment 3: emit=%v display=%q", emit, display)
	}

	display, emit = a.Feed(" there")
	if !emit || display != "Hey there" {
		t.Fatalf("fragment 4: emit=%v display=%q", emit, display)
	}

	mood, ok := a.Mood()
	if !ok || mood != model.MoodFlirty {
		t.Fatalf("expected Flirty mood, got %q ok=%v", mood, ok)
	}
}

func TestAssemblerPlainTextPassesThrough(t *testing.T) {
	a := NewStreamAssembler()

	display, emit := a.Feed("Hello")
	if !emit || display != "Hello" {
		t.Fatalf("emit=%v display=%q", emit, display)
	}
	display, emit = a.Feed(", love")
	if !emit || display != "Hello, love" {
		t.Fatalf("emit=%v display=%q", emit, display)
	}

	if _, ok := a.Mood(); ok {
		t.Fatal("expected no mood")
	}
}

func TestAssemblerIncompleteTagAtEndOfStream(t *testing.T) {
	a := NewStreamAssembler()

	if _, emit := a.Feed("[MOO"); emit {
		t.Fatal("incomplete tag must not be displayed")
	}

	// 流结束时没有任何展示输出，按空响应处理
	if a.Displayed() != "" {
		t.Fatalf("expected empty display, got %q", a.Displayed())
	}
}

func TestAssemblerInvalidMoodDiscardedTagStripped(t *testing.T) {
	a := NewStreamAssembler()

	display, emit := a.Feed("[MOOD: Grumpy] fine.")
	if !emit || display != "fine." {
		t.Fatalf("emit=%v display=%q", emit, display)
	}
	if _, ok := a.Mood(); ok {
		t.Fatal("invalid mood value must be discarded")
	}
}

func TestAssemblerSingleFragmentWithTag(t *testing.T) {
	a := NewStreamAssembler()

	display, emit := a.Feed("[MOOD: Shy] ...hi")
	if !emit || display != "...hi" {
		t.Fatalf("emit=%v display=%q", emit, display)
	}
	mood, ok := a.Mood()
	if !ok || mood != model.MoodShy {
		t.Fatalf("expected Shy mood, got %q ok=%v", mood, ok)
	}
}

func TestAssemblerLeadingWhitespaceBeforeTag(t *testing.T) {
	a := NewStreamAssembler()

	if _, emit := a.Feed("  [MOOD: Ha"); emit {
		t.Fatal("partial tag after whitespace should withhold")
	}
	display, emit := a.Feed("ppy] hi!")
	if !emit || display != "hi!" {
		t.Fatalf("emit=%v display=%q", emit, display)
	}
	mood, ok := a.Mood()
	if !ok || mood != model.MoodHappy {
		t.Fatalf("expected Happy mood, got %q ok=%v", mood, ok)
	}
}

func TestAssemblerNoEmitWhenDisplayUnchanged(t *testing.T) {
	a := NewStreamAssembler()

	if _, emit := a.Feed("hey"); !emit {
		t.Fatal("first fragment should emit")
	}
	// 空片段不改变展示文本，不应重复发射
	if _, emit := a.Feed(""); emit {
		t.Fatal("unchanged display must not re-emit")
	}
}
