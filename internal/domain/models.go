package domain

import "time"

// Lifeline identifies a participant aid the operator can toggle.
type Lifeline string

const (
	LifelineFiftyFifty Lifeline = "5050"
	LifelineHint       Lifeline = "hint"
)

// Lifelines lists every known lifeline kind.
var Lifelines = []Lifeline{LifelineFiftyFifty, LifelineHint}

// Phase is the session lifecycle phase.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
)

// Choice represents a possible answer for a multiple-choice question.
type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models a timed quiz question. Choices may be empty for
// open-ended questions, in which case Answer is matched as free text.
type Question struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Choices  []Choice `json:"choices,omitempty"`
	Answer   string   `json:"answer"` // choice id or free text
	Duration int      `json:"duration"`
	Hint     string   `json:"hint,omitempty"`
}

// DefaultDuration is applied when a question omits its time limit.
const DefaultDuration = 30

// QuestionView is the participant-safe projection of a question:
// the correct answer and the hint are stripped.
type QuestionView struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Choices  []Choice `json:"choices,omitempty"`
	Duration int      `json:"duration"`
}

// View strips the fields participants must not see.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:       q.ID,
		Prompt:   q.Prompt,
		Choices:  q.Choices,
		Duration: q.Duration,
	}
}

// SetInfo summarizes a stored question set.
type SetInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Participant is the public view of a registered participant.
type Participant struct {
	ID          string `json:"participantId"`
	DisplayName string `json:"displayName"`
	Code        string `json:"participantCode"` // normalized email used for display
	Score       int    `json:"score"`
}

// LeaderboardEntry is a derived ranking row; it is never stored.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	DisplayName string `json:"displayName"`
	Code        string `json:"participantCode"`
	Score       int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard at a point in time.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Status describes the session for operators and participants alike.
type Status struct {
	Phase              Phase   `json:"phase"`
	Index              int     `json:"index"`
	Total              int     `json:"total"`
	Paused             bool    `json:"paused"`
	Revealed           bool    `json:"revealed"`
	Duration           int     `json:"duration,omitempty"`
	Remaining          float64 `json:"remaining"`
	ServerTime         int64   `json:"serverTime"`
	LeaderboardVisible bool    `json:"leaderboardVisible"`
}

// Snapshot lets a (re)connecting client rebuild its view without
// having observed any past event.
type Snapshot struct {
	Status      Status               `json:"status"`
	Question    *QuestionView        `json:"question,omitempty"`
	Lifelines   map[Lifeline]bool    `json:"lifelines"`
	Leaderboard *Leaderboard         `json:"leaderboard,omitempty"`
	Participant *ParticipantSnapshot `json:"participant,omitempty"`
}

// ParticipantSnapshot carries the per-participant slice of a snapshot.
type ParticipantSnapshot struct {
	Participant
	Answered  bool              `json:"answered"`
	Available map[Lifeline]bool `json:"lifelinesAvailable"`
}

// AnswerReceipt acknowledges a locked-in submission.
type AnswerReceipt struct {
	QuestionID string `json:"questionId"`
	Locked     bool   `json:"locked"`
}

// AnswerResult is delivered to a participant when the question is revealed.
type AnswerResult struct {
	QuestionID string `json:"questionId"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
	TotalScore int    `json:"totalScore"`
}
