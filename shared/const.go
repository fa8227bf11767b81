package shared

const (
	UserID = "user_id"

	StatusBacklog    = "backlog"
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusDone       = "done"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"

	RoleOwner  = "owner"
	RoleMember = "member"

	ArtifactSummary        = "summary"
	ArtifactSuggestion     = "suggestion"
	ArtifactCommentSummary = "comment_summary"
)

// AI assist quota and precondition constants.
const (
	AIRequestsPerMinute = 10
	AIRequestsPerDay    = 100

	MinDescriptionLength  = 30
	MinCommentsForSummary = 3

	MaxSuggestedLabels = 3
	MaxSimilarIssues   = 3
)
