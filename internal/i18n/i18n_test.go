// Copyright (c) 2025 ToeiRei
// Keydepot - physical key inventory tracker
// This source code is licensed under the MIT license found in the LICENSE file.
package i18n

import (
	"testing"
)

func TestT_BasicAndFormatting(t *testing.T) {
	Init("en")
	if GetLang() != "en" {
		t.Fatalf("expected lang 'en', got %q", GetLang())
	}

	if got := T("holdings.none"); got != "No keys are currently out." {
		t.Fatalf("unexpected translation: %q", got)
	}

	// fmt-style formatting via extra args
	if got := T("key.added", "front-door"); got != `Added key "front-door".` {
		t.Fatalf("unexpected formatted translation: %q", got)
	}

	// switch language to German
	SetLang("de")
	if GetLang() != "de" {
		t.Fatalf("expected lang 'de', got %q", GetLang())
	}
	if got := T("holdings.none"); got != "Derzeit sind keine Schlüssel ausgegeben." {
		t.Fatalf("unexpected German translation: %q", got)
	}
	SetLang("en")
}

func TestT_ConfigMessagesPresentInBothLocales(t *testing.T) {
	Init("en")
	if got := T("config.written"); got != "Configuration written." {
		t.Fatalf("unexpected translation: %q", got)
	}
	SetLang("de")
	if got := T("config.written"); got != "Konfiguration geschrieben." {
		t.Fatalf("unexpected German translation: %q", got)
	}
	SetLang("en")
}

func TestT_UnknownIDFallsBack(t *testing.T) {
	Init("en")
	if got := T("no.such.message"); got != "no.such.message" {
		t.Fatalf("expected ID fallback, got %q", got)
	}
}

func TestT_UnknownLangFallsBackToEnglish(t *testing.T) {
	Init("xx")
	if got := T("holdings.none"); got != "No keys are currently out." {
		t.Fatalf("expected English fallback, got %q", got)
	}
	SetLang("en")
}
