package mail

// Sentiment is the tone classification attached to a message after analysis.
// The zero value means no analysis has been run for the message.
type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

// Valid reports whether s is one of the known sentiment values.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// Message is the flat, render-ready projection of a Gmail message
type Message struct {
	ID           string
	ThreadID     string
	LabelIDs     []string
	Snippet      string
	HistoryID    string
	InternalDate string // epoch millis as a decimal string

	Subject string
	From    string
	Date    string
	Body    string

	Sentiment Sentiment
}

// Clone returns a deep copy of m so that the copy's label set can be
// mutated independently.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.LabelIDs = append([]string(nil), m.LabelIDs...)
	return &c
}

// HasLabel reports whether the message currently carries labelID.
func (m *Message) HasLabel(labelID string) bool {
	for _, id := range m.LabelIDs {
		if id == labelID {
			return true
		}
	}
	return false
}

// LabelType distinguishes provider-defined labels from user-created ones.
type LabelType string

const (
	LabelTypeSystem LabelType = "system"
	LabelTypeUser   LabelType = "user"
)

// Label is a Gmail label as shown in the client
type Label struct {
	ID   string
	Name string
	Type LabelType
}

// FilterCriteria represents the criteria for a Gmail filter
type FilterCriteria struct {
	From    string // Sender to match
	Subject string // Words in the subject line
	Query   string // Gmail search query
}

// Empty reports whether no criteria field is set.
func (c FilterCriteria) Empty() bool {
	return c.From == "" && c.Subject == "" && c.Query == ""
}

// FilterInfo represents an existing Gmail filter
type FilterInfo struct {
	ID          string
	Criteria    FilterCriteria
	AddLabelIDs []string
}
