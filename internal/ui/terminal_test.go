package ui

import "testing"

func TestShouldUseColorRespectsNoColor(t *testing.T) {
	t.Setenv("TATL_NO_COLOR", "1")
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR", "")
	t.Setenv("CLICOLOR_FORCE", "")
	if ShouldUseColor() {
		t.Error("ShouldUseColor() = true, want false with TATL_NO_COLOR set")
	}
}

func TestShouldUseColorRespectsCLICOLORForce(t *testing.T) {
	t.Setenv("TATL_NO_COLOR", "")
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR", "")
	t.Setenv("CLICOLOR_FORCE", "1")
	if !ShouldUseColor() {
		t.Error("ShouldUseColor() = false, want true with CLICOLOR_FORCE set")
	}
}

func TestShouldUseColorRespectsCLICOLORZero(t *testing.T) {
	t.Setenv("TATL_NO_COLOR", "")
	t.Setenv("NO_COLOR", "")
	t.Setenv("CLICOLOR", "0")
	t.Setenv("CLICOLOR_FORCE", "")
	if ShouldUseColor() {
		t.Error("ShouldUseColor() = true, want false with CLICOLOR=0")
	}
}

func TestShouldUseEmojiRespectsExplicitDisable(t *testing.T) {
	t.Setenv("TATL_NO_EMOJI", "1")
	if ShouldUseEmoji() {
		t.Error("ShouldUseEmoji() = true, want false with TATL_NO_EMOJI set")
	}
}

func TestGetWidthNeverZeroOrNegative(t *testing.T) {
	if w := GetWidth(); w <= 0 {
		t.Errorf("GetWidth() = %d, want > 0", w)
	}
}
