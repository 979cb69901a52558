package ai

import "google.golang.org/genai"

// toolDeclarations is the closed set of tools the assistant may call. The
// executor must handle every name declared here.
var toolDeclarations = []*genai.FunctionDeclaration{
	{
		Name: "search_emails",
		Description: "Search and filter emails in the user's inbox. Updates the main UI with matching results. " +
			"Use this when the user wants to find specific emails.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"keyword": {
					Type:        genai.TypeString,
					Description: "Search term to match against subject, body, sender",
				},
				"from": {
					Type:        genai.TypeString,
					Description: "Filter by sender email or name",
				},
				"date_from": {
					Type:        genai.TypeString,
					Description: "Start date in YYYY-MM-DD format",
				},
				"date_to": {
					Type:        genai.TypeString,
					Description: "End date in YYYY-MM-DD format",
				},
				"is_read": {
					Type:        genai.TypeBoolean,
					Description: "Filter by read (true) or unread (false) status",
				},
				"label": {
					Type:        genai.TypeString,
					Description: "Gmail label to filter by (e.g., INBOX, SENT, STARRED)",
				},
			},
		},
	},
	{
		Name:        "open_email",
		Description: "Open a specific email to view its full content. Navigate to the email detail view.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"email_id": {
					Type:        genai.TypeString,
					Description: "The ID of the email to open",
				},
			},
			Required: []string{"email_id"},
		},
	},
	{
		Name: "compose_email",
		Description: "Open the compose view with pre-filled fields. Use this when the user wants to write a new email, " +
			"reply, or forward. When replying to an email, include reply_to_id with the original email's ID to " +
			"maintain the thread.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"to": {
					Type:        genai.TypeString,
					Description: "Recipient email address",
				},
				"cc": {
					Type:        genai.TypeString,
					Description: "CC recipients",
				},
				"bcc": {
					Type:        genai.TypeString,
					Description: "BCC recipients",
				},
				"subject": {
					Type:        genai.TypeString,
					Description: "Email subject line",
				},
				"body": {
					Type:        genai.TypeString,
					Description: "Email body text",
				},
				"reply_to_id": {
					Type:        genai.TypeString,
					Description: "The ID of the email being replied to, to keep it in the same thread",
				},
			},
			Required: []string{"to", "subject", "body"},
		},
	},
	{
		Name: "send_email",
		Description: "Send an email. This triggers a confirmation dialog that the user must approve before the email " +
			"is sent. When replying to an email, include reply_to_id to keep it in the same thread.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"to": {
					Type:        genai.TypeString,
					Description: "Recipient email address",
				},
				"cc": {
					Type:        genai.TypeString,
					Description: "CC recipients",
				},
				"bcc": {
					Type:        genai.TypeString,
					Description: "BCC recipients",
				},
				"subject": {
					Type:        genai.TypeString,
					Description: "Email subject line",
				},
				"body": {
					Type:        genai.TypeString,
					Description: "Email body text",
				},
				"reply_to_id": {
					Type:        genai.TypeString,
					Description: "The ID of the email being replied to, to keep it in the same thread",
				},
			},
			Required: []string{"to", "subject", "body"},
		},
	},
	{
		Name:        "apply_filters",
		Description: "Apply filters to the inbox view. Updates the filter bar and refreshes the email list.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"keyword":   {Type: genai.TypeString, Description: "Search keyword"},
				"from":      {Type: genai.TypeString, Description: "Sender filter"},
				"date_from": {Type: genai.TypeString, Description: "Start date YYYY-MM-DD"},
				"date_to":   {Type: genai.TypeString, Description: "End date YYYY-MM-DD"},
				"is_read":   {Type: genai.TypeBoolean, Description: "Read status filter"},
			},
		},
	},
	{
		Name: "get_current_context",
		Description: "Get the current state of the mail client UI: current view, open email details, active filters, " +
			"and visible email list.",
		Parameters: &genai.Schema{
			Type:       genai.TypeObject,
			Properties: map[string]*genai.Schema{},
		},
	},
	{
		Name:        "mark_emails",
		Description: "Mark one or more emails as read/unread or starred/unstarred.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"email_ids": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Array of email IDs to mark",
				},
				"action": {
					Type:        genai.TypeString,
					Description: "The action to perform: read, unread, star, or unstar",
				},
			},
			Required: []string{"email_ids", "action"},
		},
	},
	{
		Name:        "navigate",
		Description: "Navigate to a different view in the mail client.",
		Parameters: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"view": {
					Type:        genai.TypeString,
					Description: "The view to navigate to: inbox, sent, drafts, or compose",
				},
			},
			Required: []string{"view"},
		},
	},
}
