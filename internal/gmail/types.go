package gmail

// Label is a Gmail label.
type Label struct {
	ID   string
	Name string
	// Type is "system" for built-in labels like INBOX and "user" otherwise.
	Type string
}

// MessagePage is one page of a message search.
type MessagePage struct {
	IDs []string
	// NextPageToken is empty on the last page.
	NextPageToken string
	// ResultSizeEstimate is Gmail's estimate of the total match count.
	ResultSizeEstimate int64
}

// Label visibility values used when creating labels.
const (
	LabelListVisibilityShow   = "labelShow"
	MessageListVisibilityShow = "show"
)
