package ai

// Gemini is inconsistent about argument casing: the declarations use
// snake_case, but the model sometimes answers in camelCase. The decoders
// below accept both, preferring the declared form.

type searchArgs struct {
	Keyword  string
	From     string
	DateFrom string
	DateTo   string
	IsRead   *bool
	Label    string
}

func decodeSearchArgs(args map[string]any) searchArgs {
	return searchArgs{
		Keyword:  argString(args, "keyword"),
		From:     argString(args, "from"),
		DateFrom: argString(args, "date_from", "dateFrom"),
		DateTo:   argString(args, "date_to", "dateTo"),
		IsRead:   argBool(args, "is_read", "isRead"),
		Label:    argString(args, "label"),
	}
}

type composeArgs struct {
	To        string
	Cc        string
	Bcc       string
	Subject   string
	Body      string
	ReplyToID string
}

func decodeComposeArgs(args map[string]any) composeArgs {
	return composeArgs{
		To:        argString(args, "to"),
		Cc:        argString(args, "cc"),
		Bcc:       argString(args, "bcc"),
		Subject:   argString(args, "subject"),
		Body:      argString(args, "body"),
		ReplyToID: argString(args, "reply_to_id", "replyToId"),
	}
}

func argString(args map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func argBool(args map[string]any, keys ...string) *bool {
	for _, key := range keys {
		if v, ok := args[key].(bool); ok {
			return &v
		}
	}
	return nil
}

func argStrings(args map[string]any, keys ...string) []string {
	for _, key := range keys {
		raw, ok := args[key].([]any)
		if !ok {
			continue
		}

		values := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		return values
	}
	return nil
}
