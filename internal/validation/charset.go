// Package validation holds the small set of write-time charset and shape
// checks shared by the project and task repositories (spec.md §3: "Tag and
// UDA key charsets are enforced at write"). Grounded on the teacher's
// composable IssueValidator chain (internal/validation/issue.go) but reduced
// to the handful of rules tatl actually needs.
package validation

import (
	"fmt"
	"regexp"
)

// nameCharset matches project names and tags: [A-Za-z0-9_.-]+ (spec.md §3).
var nameCharset = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// udaKeyCharset matches UDA keys, the same charset as tags/projects.
var udaKeyCharset = nameCharset

// ProjectName validates a project name: non-empty and charset-restricted.
func ProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if !nameCharset.MatchString(name) {
		return fmt.Errorf("project name %q must match [A-Za-z0-9_.-]+", name)
	}
	return nil
}

// Tag validates a tag.
func Tag(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag must not be empty")
	}
	if !nameCharset.MatchString(tag) {
		return fmt.Errorf("tag %q must match [A-Za-z0-9_.-]+", tag)
	}
	return nil
}

// UDAKey validates a user-defined attribute key.
func UDAKey(key string) error {
	if key == "" {
		return fmt.Errorf("UDA key must not be empty")
	}
	if !udaKeyCharset.MatchString(key) {
		return fmt.Errorf("UDA key %q must match [A-Za-z0-9_.-]+", key)
	}
	return nil
}

// Description validates a task description: non-empty.
func Description(desc string) error {
	if desc == "" {
		return fmt.Errorf("description must not be empty")
	}
	return nil
}

// IsDottedPrefix reports whether candidate is exactly project, or is nested
// under it via dotted-hierarchy convention (project.* ), used by project=
// filter matching (spec.md §4.9) and by project merge/rename.
func IsDottedPrefix(project, candidate string) bool {
	if candidate == project {
		return true
	}
	return len(candidate) > len(project) && candidate[:len(project)] == project && candidate[len(project)] == '.'
}
