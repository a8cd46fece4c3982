// Package intent classifies free-text chat messages into a closed set of
// structured intents using the external language-model service.
package intent

// Intent is one of the closed set of chat message categories.
type Intent string

// The closed intent enumeration. Dispatch is an exhaustive switch over these
// values; adding or removing one is a compile-visible change.
const (
	GenerateReport    Intent = "generate_report"
	GetReport         Intent = "get_report"
	AskQuestion       Intent = "ask_question"
	GetSummary        Intent = "get_summary"
	GetActionItems    Intent = "get_action_items"
	GetTranscripts    Intent = "get_transcripts"
	SearchTranscripts Intent = "search_transcripts"
	GetMeetingInfo    Intent = "get_meeting_info"
	ListMeetings      Intent = "list_meetings"
	CreateMeeting     Intent = "create_meeting"
	EndMeeting        Intent = "end_meeting"
	AddParticipant    Intent = "add_participant"
	Chat              Intent = "chat"
	Unknown           Intent = "unknown"
)

// All lists every member of the enumeration.
var All = []Intent{
	GenerateReport, GetReport, AskQuestion, GetSummary,
	GetActionItems, GetTranscripts, SearchTranscripts,
	GetMeetingInfo, ListMeetings, CreateMeeting,
	EndMeeting, AddParticipant, Chat, Unknown,
}

// Valid reports whether i is a member of the closed enumeration.
func (i Intent) Valid() bool {
	for _, v := range All {
		if i == v {
			return true
		}
	}
	return false
}

// Entity keys the classifier may extract.
const (
	EntityMeetingID       = "meetingId"
	EntityQuestion        = "question"
	EntitySearchQuery     = "searchQuery"
	EntityMeetingTitle    = "meetingTitle"
	EntityParticipantName = "participantName"
)

// RouterResult is the fully-populated classification of one chat message.
// Intent is always a member of the closed enumeration.
type RouterResult struct {
	Intent          Intent            `json:"intent"`
	Confidence      float64           `json:"confidence"`
	Entities        map[string]string `json:"entities"`
	OriginalMessage string            `json:"originalMessage"`
}
