package app

import "livequiz-service/internal/domain"

// Outbound event payloads. Event type strings are the wire contract
// shared with the operator console and participant clients.

// QuestionEvent announces the active question (participant-safe view).
type QuestionEvent struct {
	Question  domain.QuestionView `json:"question"`
	Index     int                 `json:"index"`
	Remaining float64             `json:"remaining"`
}

// RevealEvent exposes the correct answer once per question.
type RevealEvent struct {
	QuestionID    string `json:"questionId"`
	CorrectAnswer string `json:"correctAnswer"`
}

// AnswerSubmittedEvent is the operator audit signal for a locked answer.
type AnswerSubmittedEvent struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	QuestionID    string `json:"questionId"`
}

// LifelineUsedEvent is the operator audit signal for a consumed lifeline.
type LifelineUsedEvent struct {
	ParticipantID string          `json:"participantId"`
	DisplayName   string          `json:"displayName"`
	Kind          domain.Lifeline `json:"kind"`
}

// LifelineStatusEvent tells one participant what they can still use
// on the current question.
type LifelineStatusEvent struct {
	Available map[domain.Lifeline]bool `json:"available"`
}

// FiftyFiftyEvent carries the per-participant reduced choice view.
type FiftyFiftyEvent struct {
	QuestionID string   `json:"questionId"`
	KeepIDs    []string `json:"keepIds"`
}

// HintEvent carries the per-participant hint text.
type HintEvent struct {
	QuestionID string `json:"questionId"`
	Hint       string `json:"hint"`
}

// ReplacedEvent notifies a connection it lost its participant slot.
type ReplacedEvent struct {
	Reason string `json:"reason"`
}
