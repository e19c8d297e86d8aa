package segment

import "testing"

func TestIsTitle(t *testing.T) {
	cfg := DefaultTitleConfig()

	tests := []struct {
		name  string
		text  string
		style string
		want  bool
	}{
		{name: "numbered heading", text: "3 Feststellungen", want: true},
		{name: "nested numbered heading", text: "3.1 Prüfungsumfang und Methodik", want: true},
		{name: "numbered heading with trailing dot on number", text: "4. Empfehlungen", want: true},
		{name: "all caps heading", text: "ZUSAMMENFASSUNG", want: true},
		{name: "title case heading", text: "Bewertung Der Ergebnisse", want: true},
		{name: "heading style forces title", text: "kleingeschriebene überschrift", style: "Heading2", want: true},
		{name: "german style name", text: "beliebiger text", style: "berschrift1", want: true},
		{name: "body sentence", text: "Die Prüfung ergab keine wesentlichen Mängel.", want: false},
		{name: "body sentence starting with a year", text: "2023 wurden 45 Berichte geprüft.", want: false},
		{name: "numbered list item ending like a sentence", text: "1. Schritt ausführen.", want: false},
		{name: "too many words", text: "Dieser Sehr Lange Satz Hat Viel Zu Viele Einzelne Wörter Um Eine Überschrift Zu Sein", want: false},
		{name: "empty text", text: "", want: false},
		{name: "whitespace only", text: "   ", want: false},
		{name: "lowercase fragment", text: "sonstige hinweise", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTitle(tt.text, tt.style, cfg); got != tt.want {
				t.Errorf("IsTitle(%q, %q) = %v, want %v", tt.text, tt.style, got, tt.want)
			}
		})
	}
}

func TestNewTitleConfig_RejectsBadPattern(t *testing.T) {
	_, err := NewTitleConfig(8, []string{"["})
	if err == nil {
		t.Fatal("NewTitleConfig() with invalid pattern: want error, got nil")
	}
}

func TestNewTitleConfig_CustomMaxWords(t *testing.T) {
	cfg, err := NewTitleConfig(2, nil)
	if err != nil {
		t.Fatalf("NewTitleConfig() error = %v", err)
	}
	if IsTitle("1 Überschrift Mit Zu Vielen Wörtern", "", cfg) {
		t.Error("IsTitle() accepted text above the word limit")
	}
	if !IsTitle("1 Einleitung", "", cfg) {
		t.Error("IsTitle() rejected a short numbered heading")
	}
}
