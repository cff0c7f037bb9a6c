// Package resolve orchestrates the remote queries that turn a proposal
// number into a fully populated record.
package resolve

import (
	"context"
	"fmt"
	"regexp"

	"github.com/andywolf/msccrafter/internal/github"
	"github.com/andywolf/msccrafter/internal/msc"
)

// Transport is the structured-query client the resolver issues its queries
// through.
type Transport interface {
	Query(ctx context.Context, query string, variables map[string]any, out any) error
}

// DocumentFetcher fetches raw proposal document content.
type DocumentFetcher interface {
	Fetch(ctx context.Context, repoPath, branch, filePath string) (string, error)
}

// Config identifies the proposal-hosting repository and the checklist bot.
type Config struct {
	Owner         string
	Repo          string
	BotLogin      string
	DefaultBranch string
}

// Resolver fetches pull request data and composes proposal records.
type Resolver struct {
	transport Transport
	documents DocumentFetcher
	cfg       Config
}

// NewResolver creates a Resolver. Zero config fields fall back to the
// canonical spec repository and bot.
func NewResolver(transport Transport, documents DocumentFetcher, cfg Config) *Resolver {
	if cfg.Owner == "" {
		cfg.Owner = "matrix-org"
	}
	if cfg.Repo == "" {
		cfg.Repo = "matrix-spec-proposals"
	}
	if cfg.BotLogin == "" {
		cfg.BotLogin = msc.DefaultBotLogin
	}
	if cfg.DefaultBranch == "" {
		cfg.DefaultBranch = "main"
	}
	return &Resolver{
		transport: transport,
		documents: documents,
		cfg:       cfg,
	}
}

// proposalFilePattern matches the conventional location of a proposal
// document inside the pull request's file list.
var proposalFilePattern = regexp.MustCompile(`^proposals/.+\.md$`)

// Resolve fetches and composes the proposal record for the given number.
// When fullRender is false only the primary metadata query runs, which is
// cheaper and enough for list and search views. Any transport failure aborts
// the whole resolution; no partial record is ever returned.
func (r *Resolver) Resolve(ctx context.Context, number int, fullRender bool) (*msc.MSC, error) {
	vars := map[string]any{"owner": r.cfg.Owner, "repo": r.cfg.Repo, "num": number}

	var primary github.ProposalResponse
	if err := r.transport.Query(ctx, github.ResolveProposalQuery, vars, &primary); err != nil {
		return nil, fmt.Errorf("failed to resolve MSC%d: %w", number, err)
	}
	pr := primary.Repository.PullRequest
	if pr == nil {
		return nil, fmt.Errorf("MSC%d: no such pull request", number)
	}

	status := msc.PRStatus(pr.State)
	labels := make([]string, 0, len(pr.Labels.Nodes))
	for _, l := range pr.Labels.Nodes {
		labels = append(labels, l.Name)
	}
	state := msc.ClassifyState(status, pr.IsDraft, labels)

	body, err := r.loadDocument(ctx, pr, status)
	if err != nil {
		return nil, err
	}

	// The last commit's authored date is the closest thing to a
	// content-updated timestamp the API offers.
	updated := pr.CreatedAt
	if len(pr.Commits.Nodes) > 0 {
		updated = pr.Commits.Nodes[0].Commit.AuthoredDate
	}

	author := ""
	if pr.Author != nil {
		author = pr.Author.Login
	}

	m := &msc.MSC{
		PRNumber: number,
		Created:  pr.CreatedAt,
		Updated:  updated,
		Title:    pr.Title,
		URL:      pr.URL,
		State:    state,
		Author:   author,
		Kind:     msc.KindsFromLabels(labels),
		PRBody:   pr.Body,
		Body:     body,
	}

	mentionTexts := []string{pr.Body}
	if body != nil {
		mentionTexts = append(mentionTexts, *body)
	}
	m.MentionedMSCs = msc.ExtractMentions(number, mentionTexts...)

	if !fullRender {
		return m, nil
	}

	if err := r.populateThreads(ctx, m, vars); err != nil {
		return nil, err
	}

	implTexts := threadBodies(msc.ImplementationThread(m.Threads))
	implTexts = append(implTexts, pr.Body)
	if body != nil {
		implTexts = append(implTexts, *body)
	}
	m.Implementations = msc.ExtractImplementations(implTexts...)

	if state.Transitional() || state == msc.StateClosed {
		comments, err := r.fetchComments(ctx, vars, number)
		if err != nil {
			return nil, err
		}
		m.Comments = comments

		if state.Transitional() {
			m.ProposalState = msc.ParseChecklist(comments, r.cfg.BotLogin, state)
		} else {
			if pr.ClosedAt != nil {
				m.ClosingComment = msc.ClosestComment(*pr.ClosedAt, comments)
			}
			// Re-assert: the closed record is a distinct output shape.
			m.State = msc.StateClosed
		}
	}

	return m, nil
}

// loadDocument locates the proposal document in the file list and fetches
// its content. A pull request without a matching file, or whose head branch
// is gone, legitimately has no document; a failed fetch is a hard error
// since the document is core content.
func (r *Resolver) loadDocument(ctx context.Context, pr *github.PullRequest, status msc.PRStatus) (*string, error) {
	var docPath string
	for _, f := range pr.Files.Nodes {
		if proposalFilePattern.MatchString(f.Path) {
			docPath = f.Path
			break
		}
	}
	if docPath == "" {
		return nil, nil
	}

	var repoPath, branch string
	if status == msc.StatusMerged {
		// Merged proposals live on the default branch of the canonical
		// repository; the head branch is usually deleted.
		repoPath = fmt.Sprintf("%s/%s/refs/heads", r.cfg.Owner, r.cfg.Repo)
		branch = r.cfg.DefaultBranch
	} else {
		if pr.HeadRef == nil || pr.HeadRepository == nil {
			return nil, nil
		}
		repoPath = pr.HeadRepository.NameWithOwner
		branch = pr.HeadRef.Name
	}

	text, err := r.documents.Fetch(ctx, repoPath, branch, docPath)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch proposal document: %w", err)
	}
	return &text, nil
}

// populateThreads runs the review threads query and fills in threads and
// latest reviews. Threads without comments are dropped so that every
// returned thread carries at least one comment.
func (r *Resolver) populateThreads(ctx context.Context, m *msc.MSC, vars map[string]any) error {
	var resp github.ReviewThreadsResponse
	if err := r.transport.Query(ctx, github.ResolveReviewThreadsQuery, vars, &resp); err != nil {
		return fmt.Errorf("failed to fetch review threads for MSC%d: %w", m.PRNumber, err)
	}

	for _, node := range resp.Repository.PullRequest.ReviewThreads.Nodes {
		comments := convertComments(node.Comments.Nodes)
		if len(comments) == 0 {
			continue
		}
		m.Threads = append(m.Threads, msc.Thread{
			Line:     node.Line,
			Resolved: node.IsResolved,
			Comments: comments,
		})
	}

	for _, node := range resp.Repository.PullRequest.LatestReviews.Nodes {
		review := msc.Review{State: node.State, Body: node.Body}
		if node.Author != nil {
			review.Author = node.Author.Login
		}
		m.Reviews = append(m.Reviews, review)
	}
	return nil
}

func (r *Resolver) fetchComments(ctx context.Context, vars map[string]any, number int) ([]msc.Comment, error) {
	var resp github.CommentsResponse
	if err := r.transport.Query(ctx, github.ResolveCommentsQuery, vars, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch comments for MSC%d: %w", number, err)
	}
	return convertComments(resp.Repository.PullRequest.Comments.Nodes), nil
}

func convertComments(nodes []github.CommentNode) []msc.Comment {
	var comments []msc.Comment
	for _, n := range nodes {
		comments = append(comments, msc.Comment{
			Author:  n.AuthorLogin(),
			Body:    n.Body,
			Created: n.CreatedAt,
			Updated: n.UpdatedAt,
		})
	}
	return comments
}

func threadBodies(t *msc.Thread) []string {
	if t == nil {
		return nil
	}
	bodies := make([]string, 0, len(t.Comments))
	for _, c := range t.Comments {
		bodies = append(bodies, c.Body)
	}
	return bodies
}
