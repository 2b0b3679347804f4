package classifier

import "testing"

func TestClassifyExplicitSave(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		content string
	}{
		{
			name:    "turkish addressing request",
			input:   "Bundan böyle bana Kaan diye hitap etmeni istiyorum",
			content: "Kaan diye hitap etmeni istiyorum",
		},
		{
			name:    "turkish save with colon",
			input:   "Bunu kaydet: yarın doktor randevum var",
			content: "yarın doktor randevum var",
		},
		{
			name:    "english remember prefix",
			input:   "Remember this: my sister's name is Elif",
			content: "my sister's name is Elif",
		},
		{
			name:    "trigger mid-sentence keeps full text",
			input:   "Bu arada bunu unutma, kedimin adı Pamuk",
			content: "Bu arada bunu unutma, kedimin adı Pamuk",
		},
		{
			// Dotted İ is two bytes where its lowercase i is one; the
			// stripped content must still start on a rune boundary.
			name:    "trigger typed with dotted capital İ",
			input:   "Hatırlamanı İstiyorum: bana Deniz diye hitap et",
			content: "bana Deniz diye hitap et",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Classify(tt.input)
			if v.Intent != IntentExplicitSave {
				t.Fatalf("intent = %v, want explicit_save", v.Intent)
			}
			if !v.Memorable {
				t.Error("explicit save should be memorable")
			}
			if v.Content != tt.content {
				t.Errorf("content = %q, want %q", v.Content, tt.content)
			}
		})
	}
}

func TestClassifyGenericRecall(t *testing.T) {
	for _, input := range []string{
		"Beni hatırlıyor musun?",
		"Hakkımda ne biliyorsun?",
		"Do you remember what do you know about me?",
	} {
		v := Classify(input)
		if v.Intent != IntentGenericRecall {
			t.Errorf("Classify(%q).Intent = %v, want generic_recall", input, v.Intent)
		}
		if v.Memorable {
			t.Errorf("Classify(%q) should not be memorable", input)
		}
	}
}

func TestClassifyRecallWithSpecificContentPromoted(t *testing.T) {
	v := Classify("Kız kardeşim Ayşe'yi hatırlıyor musun?")
	if v.Intent != IntentCandidate {
		t.Fatalf("intent = %v, want candidate", v.Intent)
	}
	if !v.Memorable {
		t.Error("recall question naming a person should stay a candidate")
	}
}

func TestClassifyLowValue(t *testing.T) {
	for _, input := range []string{"ok", "tamam", "merhaba", "hi", "thanks", "Teşekkürler!", "evet"} {
		v := Classify(input)
		if v.Memorable {
			t.Errorf("Classify(%q) should be low value", input)
		}
		if v.Intent != IntentCandidate {
			t.Errorf("Classify(%q).Intent = %v, want candidate", input, v.Intent)
		}
	}
}

func TestClassifyOrdinaryCandidate(t *testing.T) {
	v := Classify("Bugün işte çok yoğun bir gün geçirdim ve kendimi bitkin hissediyorum")
	if v.Intent != IntentCandidate || !v.Memorable {
		t.Errorf("ordinary message should be a memorable candidate, got %+v", v)
	}
}

func TestHasSpecificContent(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Beni hatırlıyor musun?", false},
		{"hatırlıyor musun", false},
		{"Adım Kaan, hatırlıyor musun?", true},
		{"do you remember my birthday celebration", true},
	}
	for _, tt := range tests {
		if got := HasSpecificContent(tt.input); got != tt.want {
			t.Errorf("HasSpecificContent(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
