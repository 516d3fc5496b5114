package validation

import "testing"

func TestProjectName(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"work", false},
		{"work.errands", false},
		{"work-stuff_2", false},
		{"", true},
		{"work stuff", true},
		{"work/stuff", true},
	}
	for _, tt := range tests {
		err := ProjectName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ProjectName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestTag(t *testing.T) {
	if err := Tag("urgent"); err != nil {
		t.Errorf("Tag(%q) unexpected error: %v", "urgent", err)
	}
	if err := Tag(""); err == nil {
		t.Error("Tag(\"\") expected an error")
	}
	if err := Tag("has space"); err == nil {
		t.Error("Tag(\"has space\") expected an error")
	}
}

func TestUDAKey(t *testing.T) {
	if err := UDAKey("store"); err != nil {
		t.Errorf("UDAKey(%q) unexpected error: %v", "store", err)
	}
	if err := UDAKey(""); err == nil {
		t.Error("UDAKey(\"\") expected an error")
	}
}

func TestDescription(t *testing.T) {
	if err := Description("buy milk"); err != nil {
		t.Errorf("Description(%q) unexpected error: %v", "buy milk", err)
	}
	if err := Description(""); err == nil {
		t.Error("Description(\"\") expected an error")
	}
}

func TestIsDottedPrefix(t *testing.T) {
	tests := []struct {
		project, candidate string
		want               bool
	}{
		{"work", "work", true},
		{"work", "work.errands", true},
		{"work", "workplace", false},
		{"work", "home.work", false},
		{"work", "work.a.b", true},
	}
	for _, tt := range tests {
		if got := IsDottedPrefix(tt.project, tt.candidate); got != tt.want {
			t.Errorf("IsDottedPrefix(%q, %q) = %v, want %v", tt.project, tt.candidate, got, tt.want)
		}
	}
}
