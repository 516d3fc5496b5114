package main

import "testing"

func TestFindUniqueCommand(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		commands []string
		wantFull string
		wantErr  error
	}{
		{"exact match wins over prefix", "on", []string{"on", "onoff", "off"}, "on", nil},
		{"unique prefix", "proj", []string{"projects", "add"}, "projects", nil},
		{"case insensitive", "ON", []string{"on", "onoff"}, "on", nil},
		{"ambiguous prefix", "o", []string{"on", "off", "onoff"}, "", errAmbiguous},
		{"no match", "xyz", []string{"on", "off"}, "", errNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			full, _, err := findUniqueCommand(tt.prefix, tt.commands)
			if err != tt.wantErr {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err == nil && full != tt.wantFull {
				t.Fatalf("full = %q, want %q", full, tt.wantFull)
			}
		})
	}
}

func TestExpandCommandAbbreviations(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "unique top-level abbreviation expands",
			args: []string{"mod", "1", "due=tomorrow"},
			want: []string{"modify", "1", "due=tomorrow"},
		},
		{
			name: "task-id-first rewrite",
			args: []string{"1", "mod", "due=tomorrow"},
			want: []string{"modify", "1", "due=tomorrow"},
		},
		{
			name: "task-id-first with finish",
			args: []string{"7", "fin"},
			want: []string{"finish", "7"},
		},
		{
			name: "exact match beats longer prefix sibling",
			args: []string{"on", "3"},
			want: []string{"on", "3"},
		},
		{
			name: "subcommand abbreviation under projects",
			args: []string{"projects", "ren", "old", "new"},
			want: []string{"projects", "rename", "old", "new"},
		},
		{
			name: "unrecognized leading word passes through untouched",
			args: []string{"project=work", "status=open"},
			want: []string{"project=work", "status=open"},
		},
		{
			name: "flag-leading args are not rewritten",
			args: []string{"--json", "list"},
			want: []string{"--json", "list"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandCommandAbbreviations(tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestExpandCommandAbbreviationsAmbiguous(t *testing.T) {
	_, err := expandCommandAbbreviations([]string{"o", "3"})
	if err == nil {
		t.Fatal("expected an error for an ambiguous leading command")
	}
}
