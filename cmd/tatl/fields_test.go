package main

import "testing"

func TestParseFieldTokens(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantDesc    string
		wantProject string
		wantTagsAdd []string
		wantUDA     map[string]string
		wantErr     bool
	}{
		{
			name:     "plain description words",
			args:     []string{"buy", "milk"},
			wantDesc: "buy milk",
		},
		{
			name:        "description mixed with a field assignment",
			args:        []string{"buy", "milk", "project=errands"},
			wantDesc:    "buy milk",
			wantProject: "errands",
		},
		{
			name:        "tag add token",
			args:        []string{"buy", "milk", "+urgent"},
			wantDesc:    "buy milk",
			wantTagsAdd: []string{"urgent"},
		},
		{
			name: "uda assignment",
			args: []string{"buy", "milk", "uda.store=costco"},
			wantDesc: "buy milk",
			wantUDA:  map[string]string{"store": "costco"},
		},
		{
			name:    "unknown field is an error",
			args:    []string{"buy", "milk", "frobnicate=yes"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFieldTokens(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			gotDesc := ""
			for i, w := range got.DescWords {
				if i > 0 {
					gotDesc += " "
				}
				gotDesc += w
			}
			if gotDesc != tt.wantDesc {
				t.Errorf("description = %q, want %q", gotDesc, tt.wantDesc)
			}
			if tt.wantProject != "" {
				if !got.Project.IsSet() || got.Project.Value() != tt.wantProject {
					t.Errorf("project = %#v, want Set(%q)", got.Project, tt.wantProject)
				}
			}
			for _, tag := range tt.wantTagsAdd {
				found := false
				for _, g := range got.TagsToAdd {
					if g == tag {
						found = true
					}
				}
				if !found {
					t.Errorf("TagsToAdd = %v, missing %q", got.TagsToAdd, tag)
				}
			}
			for k, v := range tt.wantUDA {
				if got.UDAsToSet[k] != v {
					t.Errorf("UDAsToSet[%q] = %q, want %q", k, got.UDAsToSet[k], v)
				}
			}
		})
	}
}

func TestFieldOptClearsOnNoneOrEmpty(t *testing.T) {
	for _, v := range []string{"", "none"} {
		opt := fieldOpt(v)
		if !opt.IsClear() {
			t.Errorf("fieldOpt(%q).IsClear() = false, want true", v)
		}
	}
	opt := fieldOpt("2026-01-01")
	if !opt.IsSet() || opt.Value() != "2026-01-01" {
		t.Errorf("fieldOpt(%q) = %#v, want Set", "2026-01-01", opt)
	}
}

func TestLooksLikeFieldToken(t *testing.T) {
	tests := []struct {
		tok  string
		want bool
	}{
		{"due=tomorrow", true},
		{"project:work", true},
		{"not a field token", false},
		{"=leadingequals", false},
	}
	for _, tt := range tests {
		if got := looksLikeFieldToken(tt.tok); got != tt.want {
			t.Errorf("looksLikeFieldToken(%q) = %v, want %v", tt.tok, got, tt.want)
		}
	}
}

func TestUnknownFieldErrorSuggestsClosestMatch(t *testing.T) {
	err := unknownFieldError("projet")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got == "" {
		t.Fatal("expected a non-empty message")
	}
}
