package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/taskpilot/taskpilot/pkg/domain/planning"
	"github.com/taskpilot/taskpilot/pkg/format"
)

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify converts a plan title into a filesystem-safe slug, capped at
// eight words.
func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "plan"
	}
	words := strings.Split(slug, "-")
	if len(words) > 8 {
		words = words[:8]
	}
	return strings.Join(words, "-")
}

// PlanFilename builds the canonical plan filename (date + title slug,
// no extension).
func PlanFilename(plan *planning.TaskPlan) string {
	return fmt.Sprintf("%s_%s", plan.CreatedAt.Format("2006-01-02"), slugify(plan.Title))
}

// SavePlan writes the plan as JSON plus a rendered Markdown companion.
// It returns the path of the JSON file.
func (r *FilesystemRepository) SavePlan(plan *planning.TaskPlan) (string, error) {
	if plan == nil {
		return "", fmt.Errorf("plan cannot be nil")
	}
	if err := r.Initialize(); err != nil {
		return "", err
	}

	name := PlanFilename(plan)
	jsonPath, err := r.ResolvePath(PlansDir, name+".json")
	if err != nil {
		return "", err
	}
	mdPath, err := r.ResolvePath(PlansDir, name+".md")
	if err != nil {
		return "", err
	}

	data, err := format.JSON(plan)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan: %w", err)
	}
	// G306: Use 0600 for files
	if err := os.WriteFile(jsonPath, []byte(data), 0600); err != nil {
		return "", fmt.Errorf("failed to write plan: %w", err)
	}
	if err := os.WriteFile(mdPath, []byte(format.Markdown(plan)), 0600); err != nil {
		return "", fmt.Errorf("failed to write plan markdown: %w", err)
	}
	return jsonPath, nil
}

// LoadPlan reads a stored plan by filename (with or without the .json
// extension). Returns nil if the plan does not exist.
func (r *FilesystemRepository) LoadPlan(name string) (*planning.TaskPlan, error) {
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	path, err := r.ResolvePath(PlansDir, name)
	if err != nil {
		return nil, err
	}

	loader := retry.New[*planning.TaskPlan](r.retryConfig)
	plan, err := loader.Do(context.Background(), func(ctx context.Context) (*planning.TaskPlan, error) {
		data, err := os.ReadFile(path) // #nosec G304 -- path validated by ResolvePath
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read plan: %w", err)
		}
		var plan planning.TaskPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("failed to parse plan: %w", err)
		}
		return &plan, nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// PlanSummary describes a stored plan without loading its full contents.
type PlanSummary struct {
	Name      string    `json:"name"`
	Title     string    `json:"title"`
	Steps     int       `json:"steps"`
	CreatedAt time.Time `json:"created_at"`
}

// ListPlans returns summaries of stored plans, newest first. Corrupt
// entries are skipped rather than failing the whole listing.
func (r *FilesystemRepository) ListPlans() ([]PlanSummary, error) {
	dir := filepath.Join(r.baseDir(), PlansDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}

	var summaries []PlanSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		plan, err := r.LoadPlan(name)
		if err != nil || plan == nil {
			continue
		}
		summaries = append(summaries, PlanSummary{
			Name:      name,
			Title:     plan.Title,
			Steps:     len(plan.Steps),
			CreatedAt: plan.CreatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}
