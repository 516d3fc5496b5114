// Package project implements the project repository (spec.md §4.3): CRUD,
// rename-or-merge, archive/unarchive over the dotted-name project hierarchy.
package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/da11an/tatl/internal/clock"
	"github.com/da11an/tatl/internal/ledger/types"
	"github.com/da11an/tatl/internal/store"
	"github.com/da11an/tatl/internal/utils"
	"github.com/da11an/tatl/internal/validation"
)

// ErrNotFound is returned when a project name or id doesn't exist.
var ErrNotFound = errors.New("project: not found")

// ErrDuplicate is returned by Create when the name already exists.
var ErrDuplicate = errors.New("project: already exists")

// Repo operates against a store.Queryer, so callers thread a *sql.Tx through
// it for the duration of one command (spec.md §5).
type Repo struct {
	Q     store.Queryer
	Clock clock.Clock
}

func New(q store.Queryer, c clock.Clock) *Repo { return &Repo{Q: q, Clock: c} }

// Create inserts a new project. Fails if name already exists or is
// charset-invalid.
func (r *Repo) Create(ctx context.Context, name string) (*types.Project, error) {
	if err := validation.ProjectName(name); err != nil {
		return nil, err
	}
	if _, err := r.GetByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicate, name)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	now := r.Clock.Now()
	res, err := r.Q.ExecContext(ctx,
		`INSERT INTO projects (name, is_archived, created_ts, modified_ts) VALUES (?, 0, ?, ?)`,
		name, now, now)
	if err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	return &types.Project{ID: id, Name: name, CreatedTS: now, ModifiedTS: now}, nil
}

func scanProject(row interface{ Scan(...any) error }) (*types.Project, error) {
	var p types.Project
	var archived int
	if err := row.Scan(&p.ID, &p.Name, &archived, &p.CreatedTS, &p.ModifiedTS); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("project: scan: %w", err)
	}
	p.IsArchived = archived != 0
	return &p, nil
}

func (r *Repo) GetByName(ctx context.Context, name string) (*types.Project, error) {
	row := r.Q.QueryRowContext(ctx,
		`SELECT id, name, is_archived, created_ts, modified_ts FROM projects WHERE name = ?`, name)
	return scanProject(row)
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*types.Project, error) {
	row := r.Q.QueryRowContext(ctx,
		`SELECT id, name, is_archived, created_ts, modified_ts FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// List returns projects ordered lexicographically by name.
func (r *Repo) List(ctx context.Context, includeArchived bool) ([]types.Project, error) {
	query := `SELECT id, name, is_archived, created_ts, modified_ts FROM projects`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	query += ` ORDER BY name ASC`
	rows, err := r.Q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	defer rows.Close()

	var out []types.Project
	for rows.Next() {
		var p types.Project
		var archived int
		if err := rows.Scan(&p.ID, &p.Name, &archived, &p.CreatedTS, &p.ModifiedTS); err != nil {
			return nil, fmt.Errorf("project: scan: %w", err)
		}
		p.IsArchived = archived != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// Rename renames old to new. If new already exists, this is a merge: every
// task referencing old is re-pointed to new, old is deleted, and the merged
// project is active unless both inputs were archived (spec.md §4.3).
func (r *Repo) Rename(ctx context.Context, oldName, newName string) (*types.Project, error) {
	if err := validation.ProjectName(newName); err != nil {
		return nil, err
	}
	oldP, err := r.GetByName(ctx, oldName)
	if err != nil {
		return nil, err
	}

	newP, err := r.GetByName(ctx, newName)
	if errors.Is(err, ErrNotFound) {
		now := r.Clock.Now()
		if _, err := r.Q.ExecContext(ctx, `UPDATE projects SET name = ?, modified_ts = ? WHERE id = ?`,
			newName, now, oldP.ID); err != nil {
			return nil, fmt.Errorf("project: rename: %w", err)
		}
		oldP.Name = newName
		oldP.ModifiedTS = now
		return oldP, nil
	}
	if err != nil {
		return nil, err
	}

	// Merge: re-point tasks, archive-policy union, delete old.
	if _, err := r.Q.ExecContext(ctx, `UPDATE tasks SET project_id = ? WHERE project_id = ?`, newP.ID, oldP.ID); err != nil {
		return nil, fmt.Errorf("project: merge re-point tasks: %w", err)
	}
	now := r.Clock.Now()
	mergedArchived := oldP.IsArchived && newP.IsArchived
	if _, err := r.Q.ExecContext(ctx, `UPDATE projects SET is_archived = ?, modified_ts = ? WHERE id = ?`,
		boolToInt(mergedArchived), now, newP.ID); err != nil {
		return nil, fmt.Errorf("project: merge update archive flag: %w", err)
	}
	if _, err := r.Q.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, oldP.ID); err != nil {
		return nil, fmt.Errorf("project: merge delete old: %w", err)
	}
	newP.IsArchived = mergedArchived
	newP.ModifiedTS = now
	return newP, nil
}

// Archive sets is_archived = true. Does not touch tasks.
func (r *Repo) Archive(ctx context.Context, name string) error {
	return r.setArchived(ctx, name, true)
}

// Unarchive sets is_archived = false.
func (r *Repo) Unarchive(ctx context.Context, name string) error {
	return r.setArchived(ctx, name, false)
}

func (r *Repo) setArchived(ctx context.Context, name string, archived bool) error {
	p, err := r.GetByName(ctx, name)
	if err != nil {
		return err
	}
	now := r.Clock.Now()
	_, err = r.Q.ExecContext(ctx, `UPDATE projects SET is_archived = ?, modified_ts = ? WHERE id = ?`,
		boolToInt(archived), now, p.ID)
	if err != nil {
		return fmt.Errorf("project: set archived: %w", err)
	}
	return nil
}

// SuggestNames finds near matches for an unrecognized project name, for the
// "did you mean" prompt spec.md §6.1 attaches to add/modify when the named
// project doesn't exist. It ranks by Levenshtein distance (ties broken
// alphabetically) within maxDistance, and also admits substring matches —
// preferring prefix matches — within maxDistance+2, capped at 5 results.
func (r *Repo) SuggestNames(ctx context.Context, searchName string, maxDistance int) ([]string, error) {
	all, err := r.List(ctx, true)
	if err != nil {
		return nil, err
	}

	type match struct {
		name string
		dist int
	}
	searchLower := strings.ToLower(searchName)
	var matches []match
	for _, p := range all {
		nameLower := strings.ToLower(p.Name)
		dist := utils.ComputeDistance(searchLower, nameLower)
		if dist <= maxDistance {
			matches = append(matches, match{p.Name, dist})
			continue
		}
		if len(searchLower) < len(nameLower) && strings.Contains(nameLower, searchLower) {
			var substringDist int
			if strings.HasPrefix(nameLower, searchLower) {
				substringDist = len(nameLower) - len(searchLower)
			} else {
				substringDist = len(nameLower) - len(searchLower) + 1
			}
			if substringDist <= maxDistance+2 {
				if substringDist > maxDistance {
					substringDist = maxDistance
				}
				matches = append(matches, match{p.Name, substringDist})
			}
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})

	if len(matches) > 5 {
		matches = matches[:5]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
