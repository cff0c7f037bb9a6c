package github

import "time"

// The proposal queries are split in three so that list-style consumers can
// resolve a proposal without paying for comments and review threads.

// ResolveProposalQuery fetches the pull request core fields, labels, file
// list, head branch/repository and the last commit for the updated timestamp.
const ResolveProposalQuery = `
query ResolveProposal($owner: String!, $repo: String!, $num: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $num) {
      title
      state
      isDraft
      createdAt
      closedAt
      url
      body
      author { login }
      labels(first: 50) { nodes { name } }
      files(first: 100) { nodes { path } }
      headRef { name }
      headRepository { nameWithOwner }
      commits(last: 1) { nodes { commit { authoredDate } } }
    }
  }
}`

// ResolveCommentsQuery fetches the top-level comments on the pull request.
const ResolveCommentsQuery = `
query ResolveComments($owner: String!, $repo: String!, $num: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $num) {
      comments(first: 100) {
        nodes {
          author { login }
          body
          createdAt
          updatedAt
        }
      }
    }
  }
}`

// ResolveReviewThreadsQuery fetches review threads and the latest formal
// reviews.
const ResolveReviewThreadsQuery = `
query ResolveReviewThreads($owner: String!, $repo: String!, $num: Int!) {
  repository(owner: $owner, name: $repo) {
    pullRequest(number: $num) {
      reviewThreads(first: 100) {
        nodes {
          line
          isResolved
          comments(first: 100) {
            nodes {
              author { login }
              body
              createdAt
            }
          }
        }
      }
      latestReviews(first: 50) {
        nodes {
          author { login }
          state
          body
        }
      }
    }
  }
}`

// ViewerQuery fetches the authenticated user, used to validate a token.
const ViewerQuery = `
query Viewer {
  viewer {
    login
    name
  }
}`

// Actor is a comment or review author. Deleted accounts come back as null,
// which leaves the login empty.
type Actor struct {
	Login string `json:"login"`
}

// CommentNode is a single comment as returned by the API.
type CommentNode struct {
	Author    *Actor     `json:"author"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// AuthorLogin returns the author's login, or empty for deleted accounts.
func (c CommentNode) AuthorLogin() string {
	if c.Author == nil {
		return ""
	}
	return c.Author.Login
}

// PullRequest is the pull request shape returned by ResolveProposalQuery.
type PullRequest struct {
	Title     string     `json:"title"`
	State     string     `json:"state"`
	IsDraft   bool       `json:"isDraft"`
	CreatedAt time.Time  `json:"createdAt"`
	ClosedAt  *time.Time `json:"closedAt"`
	URL       string     `json:"url"`
	Body      string     `json:"body"`
	Author    *Actor     `json:"author"`
	Labels    struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"labels"`
	Files struct {
		Nodes []struct {
			Path string `json:"path"`
		} `json:"nodes"`
	} `json:"files"`
	HeadRef *struct {
		Name string `json:"name"`
	} `json:"headRef"`
	HeadRepository *struct {
		NameWithOwner string `json:"nameWithOwner"`
	} `json:"headRepository"`
	Commits struct {
		Nodes []struct {
			Commit struct {
				AuthoredDate time.Time `json:"authoredDate"`
			} `json:"commit"`
		} `json:"nodes"`
	} `json:"commits"`
}

// ProposalResponse is the shape of ResolveProposalQuery's data.
type ProposalResponse struct {
	Repository struct {
		PullRequest *PullRequest `json:"pullRequest"`
	} `json:"repository"`
}

// CommentsResponse is the shape of ResolveCommentsQuery's data.
type CommentsResponse struct {
	Repository struct {
		PullRequest struct {
			Comments struct {
				Nodes []CommentNode `json:"nodes"`
			} `json:"comments"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

// ReviewThreadsResponse is the shape of ResolveReviewThreadsQuery's data.
type ReviewThreadsResponse struct {
	Repository struct {
		PullRequest struct {
			ReviewThreads struct {
				Nodes []struct {
					Line       int  `json:"line"`
					IsResolved bool `json:"isResolved"`
					Comments   struct {
						Nodes []CommentNode `json:"nodes"`
					} `json:"comments"`
				} `json:"nodes"`
			} `json:"reviewThreads"`
			LatestReviews struct {
				Nodes []struct {
					Author *Actor `json:"author"`
					State  string `json:"state"`
					Body   string `json:"body"`
				} `json:"nodes"`
			} `json:"latestReviews"`
		} `json:"pullRequest"`
	} `json:"repository"`
}

// ViewerResponse is the shape of ViewerQuery's data.
type ViewerResponse struct {
	Viewer struct {
		Login string `json:"login"`
		Name  string `json:"name"`
	} `json:"viewer"`
}
