// Package ghsync imports GitHub issues as tasks so externally tracked work
// participates in workload and reschedule analysis.
package ghsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/zulandar/replan/internal/models"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

// pageSize is the per-page issue count for list calls.
const pageSize = 100

// issueLister abstracts the GitHub Issues API, enabling test mocks.
type issueLister interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
}

// Importer pulls open issues from one repository into one project.
type Importer struct {
	db     *gorm.DB
	issues issueLister
	owner  string
	repo   string
}

// Opts holds parameters for creating an Importer.
type Opts struct {
	Token string // GitHub personal access token; empty means unauthenticated
	Owner string
	Repo  string
	// For testing: inject a mock instead of the real Issues service.
	Issues issueLister
}

// New creates an Importer.
func New(db *gorm.DB, opts Opts) (*Importer, error) {
	if opts.Owner == "" || opts.Repo == "" {
		return nil, fmt.Errorf("ghsync: owner and repo are required")
	}

	imp := &Importer{db: db, issues: opts.Issues, owner: opts.Owner, repo: opts.Repo}
	if imp.issues == nil {
		hc := github.NewClient(nil)
		if opts.Token != "" {
			ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
			hc = github.NewClient(oauth2.NewClient(context.Background(), ts))
		}
		imp.issues = hc.Issues
	}
	return imp, nil
}

// Result summarizes one import run.
type Result struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// Import walks every open issue in the repository and upserts it as a task
// in the given project. Pull requests are skipped. Imported tasks start as
// independent so they never move other work until someone links them.
func (i *Importer) Import(ctx context.Context, projectID string) (*Result, error) {
	var project models.Project
	if err := i.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, fmt.Errorf("ghsync: load project %s: %w", projectID, err)
	}

	res := &Result{}
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}

	for {
		issues, resp, err := i.issues.ListByRepo(ctx, i.owner, i.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("ghsync: list issues for %s/%s: %w", i.owner, i.repo, err)
		}

		for _, issue := range issues {
			if issue.IsPullRequest() {
				res.Skipped++
				continue
			}
			created, err := i.upsert(issue, projectID)
			if err != nil {
				return nil, err
			}
			if created {
				res.Created++
			} else {
				res.Updated++
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return res, nil
}

// upsert creates or refreshes the task mirroring one issue. Returns whether
// a new task was created.
func (i *Importer) upsert(issue *github.Issue, projectID string) (bool, error) {
	id := taskID(issue.GetNumber())

	var existing models.Task
	err := i.db.First(&existing, "id = ?", id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		task := models.Task{
			ID:          id,
			Title:       issue.GetTitle(),
			Description: issue.GetBody(),
			Status:      models.StatusTodo,
			Priority:    labelPriority(issue.Labels),
			Kind:        models.KindIndependent,
			ProjectID:   projectID,
		}
		if err := i.db.Create(&task).Error; err != nil {
			return false, fmt.Errorf("ghsync: create task %s: %w", id, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("ghsync: load task %s: %w", id, err)
	}

	// Refresh mutable fields only; scheduling state belongs to us.
	err = i.db.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
		"title":       issue.GetTitle(),
		"description": issue.GetBody(),
		"priority":    labelPriority(issue.Labels),
	}).Error
	if err != nil {
		return false, fmt.Errorf("ghsync: update task %s: %w", id, err)
	}
	return false, nil
}

// taskID is the stable task ID for an issue number.
func taskID(number int) string {
	return fmt.Sprintf("gh-%d", number)
}

// labelPriority maps issue labels to a task priority. First match wins,
// highest severity checked first.
func labelPriority(labels []*github.Label) string {
	has := func(names ...string) bool {
		for _, l := range labels {
			name := strings.ToLower(l.GetName())
			for _, want := range names {
				if name == want {
					return true
				}
			}
		}
		return false
	}

	switch {
	case has("urgent", "critical", "p0"):
		return models.PriorityUrgent
	case has("high", "important", "p1"):
		return models.PriorityHigh
	case has("low", "minor", "p3"):
		return models.PriorityLow
	default:
		return models.PriorityMedium
	}
}
