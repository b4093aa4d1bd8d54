package ui

import "testing"

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Dracula"); got != "Nightfox" {
		t.Fatalf("NextTheme(unknown) = %q, want Nightfox", got)
	}
}

func TestGetThemeFallsBack(t *testing.T) {
	if got := GetTheme("Kanagawa").Name; got != "Kanagawa" {
		t.Fatalf("GetTheme(Kanagawa).Name = %q", got)
	}
	if got := GetTheme("Unknown").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Unknown).Name = %q, want Nightfox", got)
	}
}

func TestImpactLevel(t *testing.T) {
	cases := map[string]string{
		"🌿 low Impact":    "low",
		"🌿 medium Impact": "medium",
		"HIGH impact":     "high",
		"":                "",
		"carbon neutral":  "",
	}
	for in, want := range cases {
		if got := impactLevel(in); got != want {
			t.Fatalf("impactLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEveryThemeColorsEveryBadge(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, level := range []string{"low", "medium", "high"} {
			if th.BadgeColors[level] == "" {
				t.Fatalf("theme %s has no %s badge color", name, level)
			}
		}
	}
}
