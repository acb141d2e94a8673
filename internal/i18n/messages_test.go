package i18n

import (
	"strings"
	"testing"
)

func TestSubstitution(t *testing.T) {
	got := T(LangEN, FileTooLarge, Args{"max_mb": 20})
	want := "File too large (> 20 MB)."
	if got != want {
		t.Fatalf("T = %q, want %q", got, want)
	}
}

func TestUnknownLanguageFallsBackToDefault(t *testing.T) {
	got := T("de", QueueEmpty, nil)
	if got != catalogs[DefaultLang][QueueEmpty] {
		t.Fatalf("fallback = %q", got)
	}
}

func TestUnknownKeyReturnsKey(t *testing.T) {
	if got := T(LangEN, "no_such_key", nil); got != "no_such_key" {
		t.Fatalf("got %q", got)
	}
}

func TestCatalogsCoverSameKeys(t *testing.T) {
	en := catalogs[LangEN]
	for lang, cat := range catalogs {
		if len(cat) != len(en) {
			t.Fatalf("catalog %s has %d keys, en has %d", lang, len(cat), len(en))
		}
		for key := range en {
			if _, ok := cat[key]; !ok {
				t.Fatalf("catalog %s missing key %s", lang, key)
			}
		}
	}
}

func TestQueuedMessageMentionsWindow(t *testing.T) {
	got := T(LangUK, QuietHoursQueued, Args{"start": "22:30", "end": "09:00", "position": 3})
	for _, frag := range []string{"22:30", "09:00", "#3"} {
		if !strings.Contains(got, frag) {
			t.Fatalf("message %q missing %q", got, frag)
		}
	}
}
